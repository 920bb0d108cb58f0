package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/andresuchdata/battery-scm/backend-go/internal/repository"
)

// Store implements repository.Store on top of sqlx. Queries are written
// with "?" and rebound for the driver in use.
type Store struct {
	db  *DB
	now func() time.Time
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock overrides the timestamp source, mostly for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) q(query string) string {
	return s.db.Rebind(query)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
