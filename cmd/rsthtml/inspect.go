// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matthewdargan/semantic-rst/internal/highlight"
	"github.com/matthewdargan/semantic-rst/internal/logging"
	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/reader"
)

type metaDoc struct {
	Source   string         `yaml:"source"`
	Title    string         `yaml:"title,omitempty"`
	Metadata map[string]any `yaml:"metadata"`
}

func newMetaCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "meta file...",
		Short: "Print the metadata of source files as YAML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readers, err := opts.readers()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			for _, path := range args {
				c, err := readers.Read(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := enc.Encode(metaDoc{Source: path, Title: c.Title, Metadata: c.Metadata}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newDumpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump file",
		Short: "Print the document tree of a reStructuredText file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readers, err := opts.readers()
			if err != nil {
				return err
			}
			path := args[0]
			rd, ok := readers.Lookup(filepath.Ext(path))
			rst, isRST := rd.(*reader.RSTReader)
			if !ok || !isRST {
				return fmt.Errorf("%s: not a reStructuredText source", path)
			}
			pub, err := rst.Publisher()
			if err != nil {
				return err
			}
			pub.Logger = logging.ParseLogger(opts.provider)
			res, err := pub.PublishFile(cmd.Context(), path)
			if res != nil && res.Doc != nil {
				io.WriteString(cmd.OutOrStdout(), nodes.Dump(res.Doc))
				for _, p := range res.Problems {
					fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
			}
			return err
		},
	}
}

func newCSSCmd() *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "css",
		Short: "Print the stylesheet for highlighted code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return highlight.WriteCSS(cmd.OutOrStdout(), style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "monokai", "chroma style name")
	return cmd
}
