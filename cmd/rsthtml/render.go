// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/matthewdargan/semantic-rst/reader"
)

func newRenderCmd(opts *options) *cobra.Command {
	var (
		out        string
		standalone bool
	)
	cmd := &cobra.Command{
		Use:   "render file...",
		Short: "Render source files to HTML",
		Long: `Render reads each file with the reader bound to its extension.
Without --out the HTML is written to standard output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readers, err := opts.readers()
			if err != nil {
				return err
			}
			for _, path := range args {
				c, err := readers.Read(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err := writeContent(cmd.OutOrStdout(), out, c, standalone); err != nil {
					return err
				}
				opts.logger.Info("render.done", "source_path", path, "problems", len(c.Problems))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "directory receiving one .html file per source")
	cmd.Flags().BoolVar(&standalone, "standalone", false, "wrap the body in a complete HTML page")
	return cmd
}

// writeContent writes c to stdout, or to a file named after its source in
// dir when dir is set.
func writeContent(stdout io.Writer, dir string, c *reader.Content, standalone bool) error {
	body := c.Body
	if standalone {
		body = page(c)
	}
	if dir == "" {
		_, err := io.WriteString(stdout, body)
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	base := filepath.Base(c.Source)
	dst := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".html")
	return os.WriteFile(dst, []byte(body), 0o644)
}

// page assembles a complete HTML document from the parts of c.
func page(c *reader.Content) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	// Title holds inner HTML; the <title> element only takes text.
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(titleText(c.Title)))
	b.WriteString(c.Parts.Stylesheet)
	b.WriteString("</head>\n<body>\n")
	b.WriteString(c.Parts.HTMLTitle)
	b.WriteString(c.Parts.HTMLSubtitle)
	b.WriteString(c.Parts.Docinfo)
	b.WriteString(c.Body)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// titleText returns the text content of the HTML fragment s with entities
// decoded.
func titleText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String()
}
