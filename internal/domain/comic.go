/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain holds the comic catalog data model.
// A Comic can only be obtained through NewComic, so every value in circulation
// has already passed validation. Comics are immutable once created.
package domain

import (
	"fmt"
	"strings"
)

// Comic is a single catalog entry.
type Comic struct {
	title           string
	author          string
	publicationYear int
}

// NewComic validates the fields and returns the entry.
// Title and author must contain at least one non-whitespace character and the
// publication year must not be negative. Title and author are kept as given.
func NewComic(title, author string, publicationYear int) (Comic, error) {
	if strings.TrimSpace(title) == "" {
		return Comic{}, NewValidationError(FieldTitle, title, "title must not be empty")
	}
	if strings.TrimSpace(author) == "" {
		return Comic{}, NewValidationError(FieldAuthor, author, "author must not be empty")
	}
	if publicationYear < 0 {
		return Comic{}, NewValidationError(FieldPublicationYear, publicationYear, "publication year must not be negative")
	}
	return Comic{title: title, author: author, publicationYear: publicationYear}, nil
}

func (c Comic) Title() string        { return c.title }
func (c Comic) Author() string       { return c.author }
func (c Comic) PublicationYear() int { return c.publicationYear }

// IsZero reports whether c is the zero value (never produced by NewComic).
func (c Comic) IsZero() bool { return c == Comic{} }

// String renders the comic for display.
func (c Comic) String() string {
	return fmt.Sprintf("Title: %s, Author: %s, Publication year: %d", c.title, c.author, c.publicationYear)
}
