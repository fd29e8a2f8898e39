/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements catalog persistence.
// A Store reads and overwrites a full snapshot of the catalog; it never owns the entries.
// JSONStore keeps a versioned JSON document (comics.json) with transactional writes and timestamped backups.
// SQLiteStore keeps the same snapshot in an embedded SQLite database.
// A missing file is the normal first-run state and loads as an empty catalog.
package storage
