// backend/src/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/username/clubledger/backend/src/logger"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the document store backing the ledger: one row per
// document, keyed by (collection, key), body stored as JSON.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the ledger database and
// ensures the schema exists.
func OpenSQLite(databasePath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		doc TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, key)
	);
	`
	if _, err := db.Exec(createTableStatement); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	if logger.L != nil {
		logger.L.Info("Document store ready", "databasePath", databasePath)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT doc FROM documents WHERE collection = ? AND key = ?", collection, key).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return []byte(doc), nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection, key string, doc any, merge bool) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, key, err)
	}

	if merge {
		if existing, err := s.Get(ctx, collection, key); err == nil {
			body, err = mergeDocuments(existing, body)
			if err != nil {
				return fmt.Errorf("merge %s/%s: %w", collection, key, err)
			}
		} else if err != ErrNotFound {
			return err
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, key, doc, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(collection, key) DO UPDATE SET doc = excluded.doc, updated_at = CURRENT_TIMESTAMP`,
		collection, key, string(body))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, collection string, doc any) (string, error) {
	key := uuid.NewString()
	if err := s.Set(ctx, collection, key, doc, false); err != nil {
		return "", err
	}
	return key, nil
}

// List returns every document in the collection. Collections are small
// enough (hundreds of players, not millions) that a scan is the right
// tool; matching stays in the caller, which owns its normalization
// rules.
func (s *SQLiteStore) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, doc FROM documents WHERE collection = ?", collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return nil, fmt.Errorf("list %s: scan: %w", collection, err)
		}
		docs = append(docs, Document{Key: key, Raw: []byte(doc)})
	}
	return docs, rows.Err()
}

// mergeDocuments overlays the top-level fields of patch onto base.
func mergeDocuments(base, patch []byte) ([]byte, error) {
	var baseFields, patchFields map[string]json.RawMessage
	if err := json.Unmarshal(base, &baseFields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, &patchFields); err != nil {
		return nil, err
	}
	for k, v := range patchFields {
		baseFields[k] = v
	}
	return json.Marshal(baseFields)
}
