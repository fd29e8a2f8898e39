/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "errors"

// ErrInvalidEntry matches every validation failure returned by NewComic.
var ErrInvalidEntry = errors.New("invalid entry")

// Field names reported in ValidationError.Field.
const (
	FieldTitle           = "title"
	FieldAuthor          = "author"
	FieldPublicationYear = "publication_year"
)

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrInvalidEntry) succeed.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidEntry }

// NewValidationError creates a ValidationError for field.
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}
