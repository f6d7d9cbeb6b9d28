package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

// DefaultGrantCacheTTL is how long a cached effective-grant snapshot lives (5 minutes).
const DefaultGrantCacheTTL = 5 * time.Minute

// GrantCache stores per-user effective grant strings in Valkey
// (Redis-compatible). It feeds the client-side ACL mirror and is advisory
// only: the resolver never reads it, and every state-changing operation is
// re-checked server-side.
type GrantCache struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewGrantCache creates a Valkey-backed grant cache. addr example:
// "127.0.0.1:6379"; prefix namespaces keys.
func NewGrantCache(addr string, prefix string) (*GrantCache, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	return NewGrantCacheWithClient(cli, prefix), nil
}

// NewGrantCacheWithClient creates a cache with an existing Valkey client.
func NewGrantCacheWithClient(client valkey.Client, prefix string) *GrantCache {
	if prefix == "" {
		prefix = "contract:"
	}
	return &GrantCache{client: client, prefix: prefix, ttl: DefaultGrantCacheTTL}
}

// SetTTL overrides the snapshot TTL.
func (c *GrantCache) SetTTL(ttl time.Duration) { c.ttl = ttl }

func (c *GrantCache) key(userID string) string {
	return fmt.Sprintf("%sgrants:%s", c.prefix, userID)
}

// Put replaces the user's snapshot wholesale; snapshots are never patched.
func (c *GrantCache) Put(ctx context.Context, userID string, grants []string) error {
	data, err := json.Marshal(grants)
	if err != nil {
		return fmt.Errorf("marshal grants: %w", err)
	}
	return c.client.Do(ctx, c.client.B().Set().Key(c.key(userID)).Value(string(data)).Ex(c.ttl).Build()).Error()
}

// Get returns the cached snapshot, or ok=false on a miss.
func (c *GrantCache) Get(ctx context.Context, userID string) ([]string, bool, error) {
	res := c.client.Do(ctx, c.client.B().Get().Key(c.key(userID)).Build())
	if res.Error() != nil {
		if valkey.IsValkeyNil(res.Error()) {
			return nil, false, nil
		}
		return nil, false, res.Error()
	}
	val, err := res.ToString()
	if err != nil || val == "" {
		return nil, false, nil
	}
	var grants []string
	if err := json.Unmarshal([]byte(val), &grants); err != nil {
		return nil, false, fmt.Errorf("unmarshal grants: %w", err)
	}
	return grants, true, nil
}

// Invalidate drops the user's snapshot, forcing a rebuild on next read.
func (c *GrantCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.key(userID)).Build()).Error()
}
