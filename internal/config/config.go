/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	applog "comicshelf/internal/log"
)

// AppConfig is the user-editable configuration persisted as YAML in the user's
// XDG config directory. Environment variables are read-only overrides applied
// on top of the file; command line flags are applied by the caller last.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

type StorageConfig struct {
	// Backend is one of BackendJSON, BackendSQLite or BackendMemory.
	Backend string `yaml:"backend"`
	// Path of the catalog file. Empty means the per-backend default under XDG_DATA_HOME.
	Path string `yaml:"path"`
	// KeepBackups caps the timestamped backups kept by the json backend (0 disables backups).
	KeepBackups int `yaml:"keep_backups"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Storage backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const appDirName = "comicshelf"

// Env var names used as overrides. Logging shares the names read by internal/log.
const (
	EnvConfigFile  = "COMICSHELF_CONFIG"
	EnvStore       = "COMICSHELF_STORE"
	EnvFile        = "COMICSHELF_FILE"
	EnvKeepBackups = "COMICSHELF_KEEP_BACKUPS"
)

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Storage:       StorageConfig{Backend: BackendJSON, KeepBackups: 5},
		Logging:       LoggingConfig{Level: "warn", Format: "console"},
	}
}

// ConfigPath returns the config file location: $COMICSHELF_CONFIG if set,
// else $XDG_CONFIG_HOME/comicshelf/config.yaml.
func ConfigPath() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigFile)); v != "" {
		return v, nil
	}
	if xdg.ConfigHome == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(xdg.ConfigHome, appDirName, "config.yaml"), nil
}

// Load reads the config file at path (ConfigPath() when empty), applies
// defaults and merges environment overrides. A missing file is not an error.
// A malformed file yields the defaults plus env overrides and a non-nil error
// so the caller can warn about it.
func Load(path string) (AppConfig, error) {
	cfg := Defaults()
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			applyEnvOverrides(&cfg)
			return cfg, err
		}
		path = p
	}
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		var keys presentKeys
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse config %s: %w", path, err)
		} else if err := yaml.Unmarshal(data, &keys); err != nil {
			loadErr = fmt.Errorf("parse config %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg, keys)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		loadErr = fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return cfg, loadErr
}

// Save writes cfg as YAML to path (ConfigPath() when empty).
func Save(path string, cfg AppConfig) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Validate checks the values that cannot be repaired silently.
func (c AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendJSON, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)", c.Storage.Backend, BackendJSON, BackendSQLite, BackendMemory)
	}
	if c.Storage.KeepBackups < 0 {
		return fmt.Errorf("keep_backups must not be negative, got %d", c.Storage.KeepBackups)
	}
	return nil
}

// ResolvedPath returns the catalog file path, falling back to the backend
// default under $XDG_DATA_HOME/comicshelf.
func (s StorageConfig) ResolvedPath() string {
	if p := strings.TrimSpace(s.Path); p != "" {
		return p
	}
	name := "comics.json"
	if s.Backend == BackendSQLite {
		name = "comics.sqlite"
	}
	return filepath.Join(xdg.DataHome, appDirName, name)
}

// LogOptions converts the logging section for internal/log.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

// presentKeys records settings whose zero value is meaningful, so an explicit
// zero in the file can be told apart from an absent key.
type presentKeys struct {
	Storage struct {
		KeepBackups *int `yaml:"keep_backups"`
	} `yaml:"storage"`
}

func mergeInto(dst *AppConfig, src *AppConfig, keys presentKeys) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.ToLower(strings.TrimSpace(src.Storage.Backend)); v != "" {
		dst.Storage.Backend = v
	}
	if v := strings.TrimSpace(src.Storage.Path); v != "" {
		dst.Storage.Path = v
	}
	// negative values are left for Validate
	if keys.Storage.KeepBackups != nil {
		dst.Storage.KeepBackups = *keys.Storage.KeepBackups
	}
	if v := strings.ToLower(strings.TrimSpace(src.Logging.Level)); v != "" {
		dst.Logging.Level = v
	}
	if v := strings.ToLower(strings.TrimSpace(src.Logging.Format)); v != "" {
		dst.Logging.Format = v
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvStore)); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvFile)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvKeepBackups)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.KeepBackups = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(applog.EnvLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(applog.EnvFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(applog.EnvSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(applog.EnvFile)); v != "" {
		cfg.Logging.File = v
	}
}
