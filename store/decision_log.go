package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"

	"github.com/contractdesk/contractdesk/authz"
)

// DefaultDecisionTTL bounds how long audit entries are retained (7 days).
const DefaultDecisionTTL = 7 * 24 * time.Hour

// DecisionLog is an embedded buntdb journal of authorization decisions and
// their provenance, kept for audit. Entries expire after a TTL; the journal
// is diagnostic and never consulted by the resolver.
type DecisionLog struct {
	db  *buntdb.DB
	ttl time.Duration
}

// NewDecisionLog opens the journal at path; use ":memory:" for tests.
func NewDecisionLog(path string) (*DecisionLog, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	return &DecisionLog{db: db, ttl: DefaultDecisionTTL}, nil
}

// SetTTL overrides the retention window.
func (l *DecisionLog) SetTTL(ttl time.Duration) { l.ttl = ttl }

func (l *DecisionLog) Close() error { return l.db.Close() }

type decisionEntry struct {
	ID       string         `json:"id"`
	Decision authz.Decision `json:"decision"`
}

// Record appends a decision to the journal under a fresh entry id.
func (l *DecisionLog) Record(d authz.Decision) error {
	entry := decisionEntry{ID: uuid.NewString(), Decision: d}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	key := fmt.Sprintf("decision:%s:%d:%s", d.UserID, d.EvaluatedAt.UnixNano(), entry.ID)
	return l.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(data), &buntdb.SetOptions{Expires: true, TTL: l.ttl})
		return err
	})
}

// ListByUser returns the retained decisions for a user, oldest first.
func (l *DecisionLog) ListByUser(userID string) ([]authz.Decision, error) {
	var out []authz.Decision
	pattern := fmt.Sprintf("decision:%s:*", userID)
	err := l.db.View(func(tx *buntdb.Tx) error {
		var inner error
		err := tx.AscendKeys(pattern, func(key, value string) bool {
			var entry decisionEntry
			if err := json.Unmarshal([]byte(value), &entry); err != nil {
				inner = fmt.Errorf("decode decision %s: %w", key, err)
				return false
			}
			out = append(out, entry.Decision)
			return true
		})
		if inner != nil {
			return inner
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
