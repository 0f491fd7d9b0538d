package storage

import (
	"fmt"
	"time"

	"github.com/tidwall/buntdb"
)

// SeenStore remembers article links already delivered in earlier scheduled
// cycles, so a slow news day does not re-send yesterday's story. Entries
// expire after the configured TTL.
type SeenStore struct {
	db  *buntdb.DB
	ttl time.Duration
}

// SeenFromMemory creates an in-memory seen store (useful in tests).
func SeenFromMemory(ttl time.Duration) (*SeenStore, error) {
	return NewSeenStore(":memory:", ttl)
}

// NewSeenStore opens (or creates) a seen store at the given path.
func NewSeenStore(path string, ttl time.Duration) (*SeenStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	return &SeenStore{
		db:  db,
		ttl: ttl,
	}, nil
}

// Seen reports whether the link was marked in a previous cycle.
func (s *SeenStore) Seen(link string) bool {
	var found bool

	_ = s.db.View(func(tx *buntdb.Tx) error {
		if _, err := tx.Get(link); err == nil {
			found = true
		}
		return nil
	})

	return found
}

// MarkSeen records the link with the store's TTL.
func (s *SeenStore) MarkSeen(link string) error {
	return s.db.Update(func(tx *buntdb.Tx) error {
		var opts *buntdb.SetOptions
		if s.ttl > 0 {
			opts = &buntdb.SetOptions{Expires: true, TTL: s.ttl}
		}

		_, _, err := tx.Set(link, time.Now().UTC().Format(time.RFC3339), opts)
		if err != nil {
			return fmt.Errorf("failed to mark article seen: %w", err)
		}

		return nil
	})
}

// Close closes the underlying database.
func (s *SeenStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
