package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS buckets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS entries (
	bucket_id INTEGER NOT NULL,
	url TEXT NOT NULL,
	status INTEGER NOT NULL,
	header TEXT,
	body BLOB,
	stored_at TIMESTAMP NOT NULL,
	PRIMARY KEY (bucket_id, url),
	FOREIGN KEY (bucket_id) REFERENCES buckets(id) ON DELETE CASCADE
);
`

// SQLiteStore is a Store persisted in a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the cache database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// One writer keeps install transactions from tripping over each other.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, bucket string, entries ...Entry) error {
	if bucket == "" {
		return ErrEmptyBucket
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO buckets (name) VALUES (?)`, bucket); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	var bucketID int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM buckets WHERE name = ?`, bucket).Scan(&bucketID); err != nil {
		return fmt.Errorf("find bucket %s: %w", bucket, err)
	}

	for _, e := range entries {
		header, err := json.Marshal(e.Header)
		if err != nil {
			return err
		}
		storedAt := e.StoredAt
		if storedAt.IsZero() {
			storedAt = time.Now()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO entries (bucket_id, url, status, header, body, stored_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			bucketID, e.URL, e.Status, string(header), e.Body, storedAt.UTC())
		if err != nil {
			return fmt.Errorf("store %s: %w", e.URL, err)
		}
	}

	return tx.Commit()
}

// Match implements Store.
func (s *SQLiteStore) Match(ctx context.Context, url string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT e.url, e.status, e.header, e.body, e.stored_at
		FROM entries e JOIN buckets b ON b.id = e.bucket_id
		WHERE e.url = ?
		ORDER BY b.id ASC
		LIMIT 1`, url)

	var (
		e      Entry
		header sql.NullString
	)
	err := row.Scan(&e.URL, &e.Status, &header, &e.Body, &e.StoredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if header.Valid && header.String != "" && header.String != "null" {
		e.Header = make(http.Header)
		if err := json.Unmarshal([]byte(header.String), &e.Header); err != nil {
			return nil, fmt.Errorf("decode header for %s: %w", url, err)
		}
	}
	return &e, nil
}

// Buckets implements Store.
func (s *SQLiteStore) Buckets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM buckets ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, bucket string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE bucket_id IN (SELECT id FROM buckets WHERE name = ?)`, bucket); err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM buckets WHERE name = ?`, bucket)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
