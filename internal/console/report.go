/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package console

import (
	"errors"
	"fmt"
	"io"

	"comicshelf/internal/catalog"
	"comicshelf/internal/storage"
)

// StorageReporter prints storage failures from the catalog manager to w.
// Unreadable files get their own message so they are not mistaken for an
// ordinary first run.
func StorageReporter(w io.Writer) catalog.Reporter {
	return func(op string, err error) {
		switch {
		case op == catalog.OpLoad && errors.Is(err, storage.ErrCorrupt):
			_, _ = fmt.Fprintf(w, "Error loading catalog: %v\nStarting with an empty catalog; the file will be overwritten on the next change.\n", err)
		case op == catalog.OpLoad:
			_, _ = fmt.Fprintf(w, "Error loading catalog: %v\nStarting with an empty catalog.\n", err)
		default:
			_, _ = fmt.Fprintf(w, "Error saving catalog: %v\nThe change is kept in memory for this session.\n", err)
		}
	}
}
