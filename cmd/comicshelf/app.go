/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"comicshelf/internal/catalog"
	"comicshelf/internal/config"
	"comicshelf/internal/console"
	"comicshelf/internal/crash"
	"comicshelf/internal/export"
	applog "comicshelf/internal/log"
	"comicshelf/internal/storage"
	"comicshelf/internal/version"
)

// app holds the streams and the effective configuration for one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	store      string
	file       string

	cfg config.AppConfig
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

func (a *app) execute(ctx context.Context, args []string) error {
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root.ExecuteContext(ctx)
}

func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "comicshelf",
		Short: "Keep a catalog of comics from the terminal",
		Long: `comicshelf manages a personal comic catalog through a numbered menu.
Every change is written to the catalog file immediately, so the catalog
survives restarts.`,
		Version:           version.String(),
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE:              a.runMenu,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetVersionTemplate("comicshelf {{.Version}}\n")

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/comicshelf/config.yaml)")
	root.PersistentFlags().StringVar(&a.store, "store", "", "storage backend: json, sqlite or memory")
	root.PersistentFlags().StringVar(&a.file, "file", "", "catalog file path")

	root.AddCommand(a.newVersionCommand(), a.newExportCommand(), a.newConfigCommand())
	return root
}

// setup resolves configuration (defaults, file, env, flags) and initializes logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
	}
	if cmd.Flags().Changed("store") {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(a.store))
	}
	if cmd.Flags().Changed("file") {
		cfg.Storage.Path = a.file
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	opts := cfg.Logging.LogOptions()
	opts.Console = cmd.ErrOrStderr()
	applog.Init(opts)
	applog.WithComponent("cli").Debug("start",
		slog.String("cmd", cmd.Name()),
		slog.String("backend", cfg.Storage.Backend),
		slog.String("path", a.catalogPath()))
	return nil
}

func (a *app) catalogPath() string {
	if a.cfg.Storage.Backend == config.BackendMemory {
		return ""
	}
	return a.cfg.Storage.ResolvedPath()
}

// openStore returns nil for the memory backend so the manager never persists.
func (a *app) openStore() storage.Store {
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		return nil
	case config.BackendSQLite:
		return storage.NewSQLiteStore(a.catalogPath())
	default:
		return storage.NewJSONStore(a.catalogPath(), storage.WithKeepBackups(a.cfg.Storage.KeepBackups))
	}
}

func (a *app) openCatalog(cmd *cobra.Command) *catalog.Manager {
	return catalog.Open(cmd.Context(), a.openStore(), catalog.WithReporter(console.StorageReporter(cmd.ErrOrStderr())))
}

func (a *app) runMenu(cmd *cobra.Command, _ []string) error {
	mgr := a.openCatalog(cmd)
	defer crash.Recover(mgr)
	return console.NewSession(mgr, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
}

func (a *app) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "comicshelf %s\n", version.String())
		},
	}
}

func (a *app) newExportCommand() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:       "export pdf|png <out>",
		Short:     "Render the stored catalog as a PDF table or PNG image",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(export.FormatPDF), string(export.FormatPNG)},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(args[0])
			if err != nil {
				return err
			}
			out, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			comics := a.openCatalog(cmd).List()
			l := applog.WithOperation(applog.WithComponent("cli"), "export")
			switch format {
			case export.FormatPDF:
				err = export.ExportPDF(comics, out, export.PDFOptions{Title: title})
			default:
				err = export.ExportPNG(comics, out, export.PNGOptions{Title: title})
			}
			if err != nil {
				l.Error("export failed", slog.String("format", string(format)), slog.Any("err", err))
				return err
			}
			l.Info("exported", slog.String("format", string(format)), slog.String("path", out), slog.Int("entries", len(comics)))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d comics to %s\n", len(comics), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "heading printed above the catalog")
	return cmd
}

func (a *app) newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration and catalog file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "config:  %s\n", p)
			loc := a.catalogPath()
			if loc == "" {
				loc = "(memory)"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "catalog: %s\n", loc)
			return nil
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.resolvedConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(p); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := config.Save(p, a.cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPath()
}
