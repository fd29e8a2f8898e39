/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog owns the ordered, in-memory comic catalog.
// With a storage.Store attached, the full catalog is flushed after every
// mutation and hydrated once when the Manager is opened. Storage failures never
// undo an in-memory change; they are handed to the Reporter instead.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/cases"

	"comicshelf/internal/domain"
	applog "comicshelf/internal/log"
	"comicshelf/internal/storage"
)

// ErrNotFound matches RemoveByTitle misses.
var ErrNotFound = errors.New("comic not found")

// NotFoundError names the title that matched nothing.
type NotFoundError struct {
	Title string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("no comic titled %q", e.Title) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Storage operations passed to a Reporter.
const (
	OpLoad = "load"
	OpSave = "save"
)

// Reporter receives storage errors that do not abort the operation in progress.
type Reporter func(op string, err error)

// Option configures a Manager.
type Option func(*Manager)

// WithReporter installs r for load and save failures.
func WithReporter(r Reporter) Option {
	return func(m *Manager) {
		if r != nil {
			m.report = r
		}
	}
}

// Manager is the single owner of the catalog. Its methods are safe to call from
// the crash handler while the session is running, but the catalog is designed
// for one interactive user.
type Manager struct {
	mu     sync.Mutex
	comics []domain.Comic
	store  storage.Store
	report Reporter
	fold   cases.Caser
	log    *slog.Logger
}

// New returns an empty Manager that never persists.
func New(opts ...Option) *Manager {
	return newManager(nil, opts)
}

// Open returns a Manager hydrated from store. A nil store behaves like New.
// If the stored catalog cannot be read the Manager starts empty and the error
// is reported with OpLoad; the next successful flush overwrites the file.
func Open(ctx context.Context, store storage.Store, opts ...Option) *Manager {
	m := newManager(store, opts)
	if store == nil {
		return m
	}
	l := applog.WithOperation(m.log, "hydrate").With(slog.String("path", store.Location()))
	comics, err := store.Load(ctx)
	switch {
	case errors.Is(err, storage.ErrCorrupt):
		l.Error("catalog file is unreadable, starting with an empty catalog", slog.Any("err", err))
		m.report(OpLoad, err)
	case err != nil:
		l.Error("catalog load failed, starting with an empty catalog", slog.Any("err", err))
		m.report(OpLoad, err)
	default:
		m.comics = comics
		l.Info("catalog hydrated", slog.Int("entries", len(comics)))
	}
	return m
}

func newManager(store storage.Store, opts []Option) *Manager {
	m := &Manager{
		store:  store,
		report: func(string, error) {},
		fold:   cases.Fold(),
		log:    applog.WithComponent("catalog"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Add validates the fields, appends the new comic and flushes the catalog.
// A validation error leaves the catalog untouched.
func (m *Manager) Add(ctx context.Context, title, author string, publicationYear int) (domain.Comic, error) {
	c, err := domain.NewComic(title, author, publicationYear)
	if err != nil {
		return domain.Comic{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comics = append(m.comics, c)
	m.flushLocked(ctx)
	return c, nil
}

// List returns a copy of the catalog in insertion order.
func (m *Manager) List() []domain.Comic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.comics)
}

// Len returns the number of comics.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comics)
}

// Empty reports whether the catalog holds no comics.
func (m *Manager) Empty() bool { return m.Len() == 0 }

// RemoveByTitle removes the earliest comic whose title equals title under
// Unicode case folding and returns it. Later comics with the same title stay.
func (m *Manager) RemoveByTitle(ctx context.Context, title string) (domain.Comic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := m.fold.String(title)
	for i, c := range m.comics {
		if m.fold.String(c.Title()) != key {
			continue
		}
		m.comics = slices.Delete(m.comics, i, i+1)
		m.flushLocked(ctx)
		return c, nil
	}
	return domain.Comic{}, &NotFoundError{Title: title}
}

// Flush writes the current catalog to the store and returns the error instead
// of reporting it. It is a no-op without a store.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	return m.store.Save(ctx, slices.Clone(m.comics))
}

// Location returns the store location, or "" for an in-memory catalog.
func (m *Manager) Location() string {
	if m.store == nil {
		return ""
	}
	return m.store.Location()
}

// Persistent reports whether a store is attached.
func (m *Manager) Persistent() bool { return m.store != nil }

func (m *Manager) flushLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, slices.Clone(m.comics)); err != nil {
		m.log.Error("flush failed, in-memory catalog kept", slog.String("op", "flush"), slog.Int("entries", len(m.comics)), slog.Any("err", err))
		m.report(OpSave, err)
	}
}
