/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"comicshelf/internal/domain"
	applog "comicshelf/internal/log"
)

// sqliteSchemaVersion tracks the entries table layout. Bump on breaking changes.
const sqliteSchemaVersion = 1

// language=SQL
// dialect=SQLite
const (
	createMetaSQL = `CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	createEntriesSQL = `CREATE TABLE IF NOT EXISTS entries (
		position          INTEGER PRIMARY KEY,
		title             TEXT    NOT NULL,
		author            TEXT    NOT NULL,
		publication_year  INTEGER NOT NULL CHECK (publication_year >= 0)
	)`
	selectSchemaVersionSQL = `SELECT value FROM meta WHERE key = 'schema_version'`
	upsertMetaSQL          = `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	selectEntriesSQL       = `SELECT title, author, publication_year FROM entries ORDER BY position`
	deleteEntriesSQL       = `DELETE FROM entries`
	insertEntrySQL         = `INSERT INTO entries(position, title, author, publication_year) VALUES (?, ?, ?, ?)`
)

// SQLiteStore persists the catalog snapshot in a SQLite database file.
// The database is opened per call so no handle outlives a load or save.
type SQLiteStore struct {
	path string
	now  func() time.Time
}

// NewSQLiteStore returns a store backed by the database at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path, now: time.Now}
}

// Location returns the database file path.
func (s *SQLiteStore) Location() string { return s.path }

// Load reads all entries ordered by insertion position.
func (s *SQLiteStore) Load(ctx context.Context) (comics []domain.Comic, err error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_load").With(slog.String("path", s.path))
	if _, statErr := os.Stat(s.path); errors.Is(statErr, os.ErrNotExist) {
		l.Info("no catalog database yet, starting empty")
		return nil, nil
	}
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: s.path, Err: cerr}
		}
	}()

	rows, err := db.QueryContext(ctx, selectEntriesSQL)
	if err != nil {
		return nil, s.classify("query", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var title, author string
		var year int
		if err := rows.Scan(&title, &author, &year); err != nil {
			return nil, &CorruptError{Path: s.path, Err: err}
		}
		c, err := domain.NewComic(title, author, year)
		if err != nil {
			return nil, &CorruptError{Path: s.path, Err: fmt.Errorf("entry %d: %w", len(comics), err)}
		}
		comics = append(comics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.classify("query", err)
	}
	l.Debug("catalog loaded", slog.Int("entries", len(comics)))
	return comics, nil
}

// Save replaces every row inside a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, comics []domain.Comic) (err error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "sqlite_save").With(slog.String("path", s.path))
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: s.path, Err: cerr}
		}
	}()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &IOError{Op: "begin", Path: s.path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, deleteEntriesSQL); err != nil {
		return &IOError{Op: "clear", Path: s.path, Err: err}
	}
	stmt, err := tx.PrepareContext(ctx, insertEntrySQL)
	if err != nil {
		return &IOError{Op: "prepare", Path: s.path, Err: err}
	}
	defer func() { _ = stmt.Close() }()
	for i, c := range comics {
		if _, err := stmt.ExecContext(ctx, i, c.Title(), c.Author(), c.PublicationYear()); err != nil {
			return &IOError{Op: "insert", Path: s.path, Err: err}
		}
	}
	if _, err := tx.ExecContext(ctx, upsertMetaSQL, "saved_at", s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return &IOError{Op: "stamp", Path: s.path, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &IOError{Op: "commit", Path: s.path, Err: err}
	}
	l.Debug("catalog saved", slog.Int("entries", len(comics)))
	return nil
}

// open creates the directory if needed, opens the database in WAL mode and
// ensures the schema. Any failure closes the handle before returning.
func (s *SQLiteStore) open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: s.path, Err: err}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(s.path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &IOError{Op: "open", Path: s.path, Err: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, s.classify("enable WAL", err)
	}
	if err := s.ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context, db *sql.DB) error {
	for _, q := range []string{createMetaSQL, createEntriesSQL} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return s.classify("create table", err)
		}
	}
	var raw string
	err := db.QueryRowContext(ctx, selectSchemaVersionSQL).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, upsertMetaSQL, "schema_version", strconv.Itoa(sqliteSchemaVersion)); err != nil {
			return &IOError{Op: "seed schema version", Path: s.path, Err: err}
		}
		return nil
	case err != nil:
		return s.classify("read schema version", err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return &CorruptError{Path: s.path, Err: fmt.Errorf("schema_version %q: %w", raw, err)}
	}
	if v != sqliteSchemaVersion {
		return &CorruptError{Path: s.path, Err: fmt.Errorf("%w: schema %d (this build reads %d)", ErrUnsupportedVersion, v, sqliteSchemaVersion)}
	}
	return nil
}

// classify maps SQLite "not a database" and corruption codes to CorruptError,
// everything else to IOError.
func (s *SQLiteStore) classify(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
			return &CorruptError{Path: s.path, Err: err}
		}
	}
	return &IOError{Op: op, Path: s.path, Err: err}
}
