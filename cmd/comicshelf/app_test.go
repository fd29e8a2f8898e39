/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicshelf/internal/config"
	applog "comicshelf/internal/log"
)

// isolate points every config/env lookup at a scratch directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigFile, filepath.Join(dir, "config.yaml"))
	for _, k := range []string{config.EnvStore, config.EnvFile, config.EnvKeepBackups, applog.EnvLevel, applog.EnvFormat, applog.EnvSource, applog.EnvFile} {
		t.Setenv(k, "")
	}
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out, &errOut)
	err := a.execute(context.Background(), args)
	return out.String(), errOut.String(), err
}

func TestMenuWithMemoryStore(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "2\n1\nWatchmen\nAlan Moore\n1986\n2\n4\n", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "The catalog is empty.")
	assert.Contains(t, out, "Comic added: Title: Watchmen, Author: Alan Moore, Publication year: 1986")
	assert.True(t, strings.HasSuffix(out, "Goodbye.\n"))
}

func TestMenuPersistsAcrossRuns(t *testing.T) {
	for _, backend := range []string{config.BackendJSON, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			dir := isolate(t)
			file := filepath.Join(dir, "data", "comics."+backend)

			_, _, err := runCLI(t, "1\nWatchmen\nAlan Moore\n1986\n4\n", "--store", backend, "--file", file)
			require.NoError(t, err)
			_, err = os.Stat(file)
			require.NoError(t, err)

			out, _, err := runCLI(t, "2\n", "--store", backend, "--file", file)
			require.NoError(t, err)
			assert.Contains(t, out, "Comics:\nTitle: Watchmen, Author: Alan Moore, Publication year: 1986\n")
		})
	}
}

func TestMenuReportsCorruptCatalog(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "comics.json")
	require.NoError(t, os.WriteFile(file, []byte("{not json"), 0o644))

	out, errOut, err := runCLI(t, "2\n4\n", "--file", file)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Error loading catalog:")
	assert.Contains(t, out, "The catalog is empty.")
}

func TestConfigFileSelectsBackend(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "shelf.sqlite")
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  backend: sqlite\n  path: "+file+"\n"), 0o600))

	_, _, err := runCLI(t, "1\nSaga\nBrian K. Vaughan\n2012\n4\n", "--config", cfgPath)
	require.NoError(t, err)
	_, err = os.Stat(file)
	require.NoError(t, err, "sqlite catalog should be created at the configured path")
}

func TestUnknownBackendFails(t *testing.T) {
	isolate(t)
	_, _, err := runCLI(t, "", "--store", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestVersionCommand(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "comicshelf "))
}

func TestExportCommand(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "comics.json")
	_, _, err := runCLI(t, "1\nWatchmen\nAlan Moore\n1986\n4\n", "--file", file)
	require.NoError(t, err)

	for _, format := range []string{"pdf", "png"} {
		target := filepath.Join(dir, "out", "catalog."+format)
		out, _, err := runCLI(t, "", "--file", file, "export", format, target)
		require.NoError(t, err)
		assert.Contains(t, out, "Exported 1 comics to")
		st, err := os.Stat(target)
		require.NoError(t, err)
		assert.Positive(t, st.Size())
	}

	_, _, err = runCLI(t, "", "--file", file, "export", "cbz", filepath.Join(dir, "x.cbz"))
	require.Error(t, err)
}

func TestConfigInitAndPath(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "config.yaml")

	out, _, err := runCLI(t, "", "--store", "sqlite", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, cfgPath)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)

	_, _, err = runCLI(t, "", "config", "init")
	require.Error(t, err, "existing file must not be overwritten without --force")

	out, _, err = runCLI(t, "", "--store", "memory", "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, "catalog: (memory)")
}

func TestConfigInitRoundTripsDisabledBackups(t *testing.T) {
	dir := isolate(t)
	t.Setenv(config.EnvKeepBackups, "0")
	_, _, err := runCLI(t, "", "config", "init")
	require.NoError(t, err)

	t.Setenv(config.EnvKeepBackups, "")
	cfg, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Storage.KeepBackups)
}
