// Package store provides the data access layer for jobtrack.
//
// The store receives an already-opened *sql.DB (see dbopen) and enforces
// the posting identity invariant at the schema level: no two postings of
// the same source may share an identity key.
package store

import "database/sql"

// Store wraps the jobtrack database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
