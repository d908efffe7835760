// Package friends exposes the friendship lookup consumed by the lobby's
// friends-only visibility check. The friend graph itself is owned by the
// social service; this package only reads it.
package friends

import (
	"context"
	"database/sql"
	"sync"
)

// Lookup answers whether two users are friends.
type Lookup interface {
	AreFriends(ctx context.Context, uidA, uidB string) (bool, error)
}

// SQLiteLookup reads the friendships table maintained by the social
// service. Rows are stored one per accepted edge; the query checks both
// directions so callers never need to order the pair.
type SQLiteLookup struct {
	db *sql.DB
}

func NewSQLiteLookup(db *sql.DB) *SQLiteLookup {
	return &SQLiteLookup{db: db}
}

func (l *SQLiteLookup) AreFriends(ctx context.Context, uidA, uidB string) (bool, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM friendships
		WHERE status = 'accepted'
		  AND ((from_uid = ? AND to_uid = ?) OR (from_uid = ? AND to_uid = ?))
	`, uidA, uidB, uidB, uidA).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MemLookup is an in-memory Lookup for tests.
type MemLookup struct {
	mu    sync.RWMutex
	pairs map[[2]string]struct{}
}

func NewMemLookup() *MemLookup {
	return &MemLookup{pairs: make(map[[2]string]struct{})}
}

// Add records a friendship in both directions.
func (l *MemLookup) Add(uidA, uidB string) {
	l.mu.Lock()
	l.pairs[[2]string{uidA, uidB}] = struct{}{}
	l.pairs[[2]string{uidB, uidA}] = struct{}{}
	l.mu.Unlock()
}

func (l *MemLookup) AreFriends(ctx context.Context, uidA, uidB string) (bool, error) {
	l.mu.RLock()
	_, ok := l.pairs[[2]string{uidA, uidB}]
	l.mu.RUnlock()
	return ok, nil
}
