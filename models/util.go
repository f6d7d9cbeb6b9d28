package models

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"
)

// Snowflake generates unique 64-bit IDs composed of timestamp and node/sequence bits.
// Layout: 1 bit unused + 41 bits timestamp(ms since custom epoch) + 10 bits node + 12 bits sequence.
type Snowflake struct {
	epoch  int64
	nodeID int64 // 10 bits
	lastMs int64
	seq    int64 // 12 bits
	mu     sync.Mutex
}

func NewSnowflake(nodeID int64) *Snowflake {
	return &Snowflake{epoch: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), nodeID: nodeID & 0x3FF}
}

func (s *Snowflake) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UnixMilli()
	if now == s.lastMs {
		s.seq = (s.seq + 1) & 0xFFF
		if s.seq == 0 { // sequence rollover, wait next ms
			for now <= s.lastMs {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.seq = 0
	}
	s.lastMs = now
	ts := (now - s.epoch) & ((1 << 41) - 1)
	return (ts << (10 + 12)) | (s.nodeID << 12) | s.seq
}

var defaultNode = NewSnowflake(1)

// NewID generates an identifier by encoding a snowflake ID as a hyphenless
// UUIDv4-formatted 32-char hex string. The mapping keeps the high 16 bits in
// bytes 4-5 and the low 48 bits in bytes 10-15, leaving the version/variant
// nibbles intact.
func NewID() string {
	id := uint64(defaultNode.Next())
	var b [16]byte
	binary.BigEndian.PutUint16(b[4:6], uint16(id>>48))
	lo := id & 0x0000FFFFFFFFFFFF
	for i := 0; i < 6; i++ {
		b[15-i] = byte(lo >> (8 * i))
	}
	b[6] = (b[6] & 0x0F) | 0x40
	b[8] = (b[8] & 0x3F) | 0x80
	return fmt.Sprintf("%08x%04x%04x%04x%012x",
		binary.BigEndian.Uint32(b[0:4]),
		binary.BigEndian.Uint16(b[4:6]),
		binary.BigEndian.Uint16(b[6:8]),
		binary.BigEndian.Uint16(b[8:10]),
		b[10:16],
	)
}
