/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/carverauto/sysconfig/pkg/logger"
)

// SQLiteStore is the default on-host state store. A single table holds one
// row per key; TTLs are enforced lazily on read.
type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

// NewSQLiteStore opens or creates the database at path and applies migrations.
func NewSQLiteStore(ctx context.Context, path string, log logger.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	const schema = `CREATE TABLE IF NOT EXISTS kv_entries (
        key        TEXT PRIMARY KEY,
        value      BLOB NOT NULL,
        updated_at TEXT NOT NULL,
        expires_at TEXT
    )`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: log}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	if s.db == nil {
		return nil, false, errStoreClosed
	}

	var expiresAt sql.NullString

	row := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv_entries WHERE key = ?`, key)

	err = row.Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if expiresAt.Valid && expiresAt.String != "" {
		expiry, parseErr := time.Parse(time.RFC3339Nano, expiresAt.String)
		if parseErr == nil && time.Now().UTC().After(expiry) {
			if delErr := s.Delete(ctx, key); delErr != nil {
				s.logger.Warn().Err(delErr).Str("key", key).Msg("Failed to drop expired entry")
			}

			return nil, false, nil
		}
	}

	return value, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.db == nil {
		return errStoreClosed
	}

	now := time.Now().UTC()

	var expiresAt interface{}
	if ttl > 0 {
		expiresAt = now.Add(ttl).Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at, expires_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET
             value = excluded.value,
             updated_at = excluded.updated_at,
             expires_at = excluded.expires_at`,
		key, value, now.Format(time.RFC3339Nano), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to put key %s: %w", key, err)
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if s.db == nil {
		return errStoreClosed
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

// Watch is unsupported; SQLite has no change feed.
func (*SQLiteStore) Watch(_ context.Context, _ string) (<-chan []byte, error) {
	return nil, ErrWatchUnsupported
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}

var _ KVStore = (*SQLiteStore)(nil)
