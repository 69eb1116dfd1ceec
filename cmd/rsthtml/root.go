// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matthewdargan/semantic-rst/internal/logging"
	"github.com/matthewdargan/semantic-rst/internal/logging/gologger"
	"github.com/matthewdargan/semantic-rst/parse"
	"github.com/matthewdargan/semantic-rst/reader"
	"github.com/matthewdargan/semantic-rst/semantic"
)

// options are the flags shared by every subcommand.
type options struct {
	configPath string
	sets       []string
	plain      bool
	logLevel   string
	logFormat  string

	provider logging.Provider
	logger   logging.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "rsthtml",
		Short:         "Render reStructuredText as semantic HTML",
		Long:          "rsthtml reads reStructuredText and markdown sources and renders them as HTML fragments or pages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			provider, err := gologger.NewProvider(gologger.Config{Level: opts.logLevel, Format: opts.logFormat})
			if err != nil {
				return err
			}
			opts.provider = provider
			opts.logger = logging.CLILogger(provider)
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML file holding docutils_settings and markdown_extensions")
	flags.StringArrayVar(&opts.sets, "set", nil, "docutils setting as key=value (repeatable)")
	flags.BoolVar(&opts.plain, "plain", false, "use the base HTML translator without the semantic hooks")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: trace, debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log format: console, json or pretty")

	root.AddCommand(
		newRenderCmd(opts),
		newMetaCmd(opts),
		newDumpCmd(opts),
		newCSSCmd(),
		newReadersCmd(opts),
	)
	return root
}

// config loads the YAML configuration and applies the --set flags.
func (o *options) config() (reader.Config, error) {
	var cfg reader.Config
	if o.configPath != "" {
		data, err := os.ReadFile(o.configPath)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", o.configPath, err)
		}
	}
	if len(o.sets) > 0 && cfg.DocutilsSettings == nil {
		cfg.DocutilsSettings = make(map[string]any, len(o.sets))
	}
	for _, kv := range o.sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return cfg, fmt.Errorf("--set %q: want key=value", kv)
		}
		cfg.DocutilsSettings[strings.TrimSpace(key)] = value
	}
	cfg.Roles = parse.NewRoles()
	cfg.Logger = o.provider
	return cfg, nil
}

// readers builds the reader registry, with the semantic plugin installed
// unless --plain was given.
func (o *options) readers() (*reader.Readers, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	signals := &reader.Signals{}
	if !o.plain {
		semantic.Register(cfg.Roles, signals)
	}
	return reader.NewReaders(cfg, signals), nil
}

func newReadersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "readers",
		Short: "List the file extensions with a reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			readers, err := opts.readers()
			if err != nil {
				return err
			}
			for _, ext := range readers.Extensions() {
				rd, _ := readers.Lookup(ext)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%T\n", ext, rd)
			}
			return nil
		},
	}
}
