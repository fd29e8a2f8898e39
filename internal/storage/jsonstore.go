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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"comicshelf/internal/domain"
	applog "comicshelf/internal/log"
)

const (
	// BackupsDirName is created next to the catalog file.
	BackupsDirName = "backups"
	// DefaultKeepBackups is used when no WithKeepBackups option is given.
	DefaultKeepBackups = 5

	backupStampLayout = "20060102-150405.000"
)

// JSONStore persists the catalog as a versioned JSON document.
// Writes go to a temp file that is renamed over the target, after the previous
// file has been copied into backups/<name>.<stamp>.bak.
type JSONStore struct {
	fs          billy.Filesystem
	name        string
	keepBackups int
	now         func() time.Time
}

// JSONOption customizes a JSONStore.
type JSONOption func(*JSONStore)

// WithKeepBackups caps the number of retained backups; 0 disables backups.
func WithKeepBackups(n int) JSONOption {
	return func(s *JSONStore) {
		if n >= 0 {
			s.keepBackups = n
		}
	}
}

// WithClock overrides the clock used for saved_at and backup names.
func WithClock(now func() time.Time) JSONOption {
	return func(s *JSONStore) { s.now = now }
}

// NewJSONStore returns a store for the file at path on the OS filesystem.
// The containing directory is created on first save.
func NewJSONStore(path string, opts ...JSONOption) *JSONStore {
	return NewJSONStoreFS(osfs.New(filepath.Dir(path)), filepath.Base(path), opts...)
}

// NewJSONStoreFS returns a store for name inside fsys.
func NewJSONStoreFS(fsys billy.Filesystem, name string, opts ...JSONOption) *JSONStore {
	s := &JSONStore{fs: fsys, name: name, keepBackups: DefaultKeepBackups, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Location returns the catalog file path.
func (s *JSONStore) Location() string { return s.fs.Join(s.fs.Root(), s.name) }

// Load reads and decodes the catalog file.
func (s *JSONStore) Load(_ context.Context) ([]domain.Comic, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "load").With(slog.String("path", s.Location()))
	data, err := s.readFile(s.name)
	if errors.Is(err, os.ErrNotExist) {
		l.Info("no catalog file yet, starting empty")
		return nil, nil
	}
	if err != nil {
		return nil, &IOError{Op: "read", Path: s.Location(), Err: err}
	}
	comics, err := DecodeDocument(data)
	if err != nil {
		cerr := &CorruptError{Path: s.Location(), Err: err}
		if b, ok := s.LatestBackup(); ok {
			cerr.Backup = b
		}
		return nil, cerr
	}
	l.Debug("catalog loaded", slog.Int("entries", len(comics)))
	return comics, nil
}

// Save writes comics transactionally, backing up the previous file first.
func (s *JSONStore) Save(_ context.Context, comics []domain.Comic) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("path", s.Location()))
	now := s.now()
	data, err := EncodeDocument(comics, now)
	if err != nil {
		return &IOError{Op: "encode", Path: s.Location(), Err: err}
	}

	if s.keepBackups > 0 {
		if _, statErr := s.fs.Stat(s.name); statErr == nil {
			bpath := s.fs.Join(BackupsDirName, fmt.Sprintf("%s.%s.bak", s.name, now.Format(backupStampLayout)))
			if err := s.copyFile(s.name, bpath); err != nil {
				return &IOError{Op: "backup", Path: s.Location(), Err: err}
			}
			if err := s.pruneBackups(); err != nil {
				l.Warn("prune backups failed", slog.Any("err", err))
			}
		}
	}

	temp := fmt.Sprintf(".%s.tmp-%d-%d", s.name, os.Getpid(), rand.Int())
	if err := s.writeFileSync(temp, data); err != nil {
		_ = s.fs.Remove(temp)
		return &IOError{Op: "write", Path: s.Location(), Err: err}
	}
	// some filesystems refuse to rename over an existing file
	if _, err := s.fs.Stat(s.name); err == nil {
		_ = s.fs.Remove(s.name)
	}
	if err := s.fs.Rename(temp, s.name); err != nil {
		_ = s.fs.Remove(temp)
		return &IOError{Op: "replace", Path: s.Location(), Err: err}
	}
	l.Debug("catalog saved", slog.Int("entries", len(comics)))
	return nil
}

// Backups returns the backup file paths (relative to the store root), oldest first.
func (s *JSONStore) Backups() ([]string, error) {
	infos, err := s.fs.ReadDir(BackupsDirName)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, fi := range infos {
		n := fi.Name()
		if !fi.IsDir() && strings.HasPrefix(n, s.name+".") && strings.HasSuffix(n, ".bak") {
			out = append(out, s.fs.Join(BackupsDirName, n))
		}
	}
	// the timestamp in the name yields lexicographic order
	sort.Strings(out)
	return out, nil
}

// LatestBackup returns the full path of the newest backup, if any.
func (s *JSONStore) LatestBackup() (string, bool) {
	b, err := s.Backups()
	if err != nil || len(b) == 0 {
		return "", false
	}
	return s.fs.Join(s.fs.Root(), b[len(b)-1]), true
}

func (s *JSONStore) pruneBackups() error {
	b, err := s.Backups()
	if err != nil {
		return err
	}
	for len(b) > s.keepBackups {
		if err := s.fs.Remove(b[0]); err != nil {
			return err
		}
		b = b[1:]
	}
	return nil
}

func (s *JSONStore) readFile(name string) (data []byte, err error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return io.ReadAll(f)
}

// writeFileSync writes data and flushes it to disk when the file supports it.
func (s *JSONStore) writeFileSync(name string, data []byte) (err error) {
	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if syncer, ok := f.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}

// copyFile copies src to dst inside the store filesystem, overwriting dst.
func (s *JSONStore) copyFile(src, dst string) (err error) {
	sf, err := s.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := s.fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(df, sf)
	return err
}
