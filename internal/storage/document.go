/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/xeipuuv/gojsonschema"

	"comicshelf/internal/domain"
)

const (
	// DocumentFormat identifies comicshelf catalog documents.
	DocumentFormat = "comicshelf/catalog"
	// DocumentVersion is written into every saved document. Readers accept any
	// version with the same major number.
	DocumentVersion = "1.0.0"
)

//go:embed schema/catalog.schema.json
var catalogSchemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func catalogSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(catalogSchemaJSON))
	})
	return schema, schemaErr
}

type document struct {
	Format  string        `json:"format"`
	Version string        `json:"version"`
	SavedAt time.Time     `json:"saved_at"`
	Entries []entryRecord `json:"entries"`
}

type entryRecord struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublicationYear int    `json:"publication_year"`
}

// EncodeDocument renders comics as an indented, versioned JSON document.
func EncodeDocument(comics []domain.Comic, savedAt time.Time) ([]byte, error) {
	doc := document{
		Format:  DocumentFormat,
		Version: DocumentVersion,
		SavedAt: savedAt.UTC(),
		Entries: make([]entryRecord, 0, len(comics)),
	}
	for _, c := range comics {
		doc.Entries = append(doc.Entries, entryRecord{Title: c.Title(), Author: c.Author(), PublicationYear: c.PublicationYear()})
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeDocument parses a catalog document. The version is checked before the
// schema so that a future major version is reported as unsupported rather than
// as malformed. Every entry is re-validated through domain.NewComic.
func DecodeDocument(data []byte) ([]domain.Comic, error) {
	var head struct {
		Format  string `json:"format"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if head.Format != DocumentFormat {
		return nil, fmt.Errorf("unexpected document format %q", head.Format)
	}
	if err := checkVersion(head.Version); err != nil {
		return nil, err
	}

	s, err := catalogSchema()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	comics := make([]domain.Comic, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		c, err := domain.NewComic(e.Title, e.Author, e.PublicationYear)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		comics = append(comics, c)
	}
	return comics, nil
}

func checkVersion(v string) error {
	constraint, err := semver.NewConstraint("^" + DocumentVersion)
	if err != nil {
		return fmt.Errorf("invalid document version constant: %w", err)
	}
	got, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedVersion, v)
	}
	if !constraint.Check(got) {
		return fmt.Errorf("%w: %s (this build reads %s)", ErrUnsupportedVersion, got, constraint)
	}
	return nil
}
