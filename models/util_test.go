package models

import (
	"testing"
)

func TestNewIDShape(t *testing.T) {
	id := NewID()
	if len(id) != 32 {
		t.Fatalf("id %q: want 32 hex chars, got %d", id, len(id))
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Fatalf("id %q contains non-hex character %q", id, c)
		}
	}
	if id[12] != '4' {
		t.Fatalf("id %q: version nibble is %q, want 4", id, id[12])
	}
	switch id[16] {
	case '8', '9', 'a', 'b':
	default:
		t.Fatalf("id %q: variant nibble is %q, want 8..b", id, id[16])
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %q after %d iterations", id, i)
		}
		seen[id] = true
	}
}

func TestSnowflakeMonotonic(t *testing.T) {
	sf := NewSnowflake(7)
	prev := sf.Next()
	for i := 0; i < 1000; i++ {
		next := sf.Next()
		if next <= prev {
			t.Fatalf("ids not strictly increasing: %d after %d", next, prev)
		}
		prev = next
	}
}
