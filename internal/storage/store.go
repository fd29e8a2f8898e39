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

	"comicshelf/internal/domain"
)

// Store persists complete catalog snapshots.
type Store interface {
	// Load returns the persisted entries in order. A missing file yields (nil, nil).
	Load(ctx context.Context) ([]domain.Comic, error)
	// Save overwrites the persisted snapshot with comics.
	Save(ctx context.Context, comics []domain.Comic) error
	// Location describes where the snapshot lives, for diagnostics.
	Location() string
}

var (
	// ErrIO matches failures to read or write the underlying file.
	ErrIO = errors.New("catalog storage I/O failure")
	// ErrCorrupt matches a file that exists but cannot be decoded.
	ErrCorrupt = errors.New("catalog file is corrupt")
	// ErrUnsupportedVersion matches a file written by an incompatible format version.
	ErrUnsupportedVersion = errors.New("unsupported catalog format version")
)

// IOError wraps a filesystem or database failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// CorruptError reports an undecodable catalog file. Backup names the newest
// backup available for manual recovery, if any; it is never restored automatically.
type CorruptError struct {
	Path   string
	Backup string
	Err    error
}

func (e *CorruptError) Error() string {
	msg := fmt.Sprintf("catalog file %s could not be decoded: %v", e.Path, e.Err)
	if e.Backup != "" {
		msg += fmt.Sprintf(" (latest backup: %s)", e.Backup)
	}
	return msg
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }
