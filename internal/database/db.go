// Package database is the PostgreSQL access layer. Queries wraps a pgx
// pool; every method is a single statement or transaction with explicit
// scanning, no ORM.
package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("database: not found")

type Queries struct {
	db *pgxpool.Pool
}

// New returns a Queries bound to the given pool.
func New(db *pgxpool.Pool) *Queries {
	return &Queries{db: db}
}

// Pool exposes the underlying pool for transactions in composed operations.
func (q *Queries) Pool() *pgxpool.Pool {
	return q.db
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
