// backend/src/store/store.go
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = errors.New("document not found")

// Document is one stored record, returned by queries with its key so
// callers can address it again.
type Document struct {
	Key string
	Raw []byte // JSON document body
}

// DocumentStore is the ledger store contract the import pipeline depends
// on: documents addressed by collection name and key, plus whole-
// collection listing so callers can match under their own normalization
// rules. The pipeline never needs range scans, transactions, or
// secondary indexes.
type DocumentStore interface {
	// Get returns the raw JSON document under (collection, key), or
	// ErrNotFound.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Set writes doc under (collection, key). With merge set, top-level
	// fields of doc are merged over the existing document instead of
	// replacing it wholesale.
	Set(ctx context.Context, collection, key string, doc any, merge bool) error

	// Add writes doc under a fresh key and returns it.
	Add(ctx context.Context, collection string, doc any) (string, error)

	// List returns every document in the collection with its key.
	List(ctx context.Context, collection string) ([]Document, error)
}

// Collection names used by the ledger.
const (
	CollectionPlayers  = "players"
	CollectionSponsors = "sponsors"
	CollectionFinances = "finances"
	CollectionIncome   = "income"
	CollectionExpenses = "expenses"
)
