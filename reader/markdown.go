// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	rsthtml "github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/internal/logging"
)

// MarkdownReader reads markdown files with optional front matter.
type MarkdownReader struct {
	engine goldmark.Markdown
	logger logging.Logger
}

// NewMarkdownReader returns a reader using the extensions named in
// cfg.MarkdownExtensions, or GFM when none are named.
func NewMarkdownReader(cfg Config) *MarkdownReader {
	engine := goldmark.New(
		goldmark.WithExtensions(markdownExtensions(cfg.MarkdownExtensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &MarkdownReader{engine: engine, logger: logging.ReaderLogger(cfg.Logger)}
}

var markdownExtensionsByName = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

func markdownExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}
	var exts []goldmark.Extender
	seen := map[string]bool{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := markdownExtensionsByName[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		exts = append(exts, ext)
	}
	return exts
}

// Read renders the file at path. Front matter keys become metadata with
// lower-cased names; "tags" and "authors" given as strings are split on
// commas and string dates are parsed.
func (r *MarkdownReader) Read(ctx context.Context, path string) (*Content, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, sourceError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}
	raw := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(src), &raw)
	if err != nil {
		return nil, metadataError(fmt.Errorf("%s: %w", path, err))
	}
	var buf bytes.Buffer
	if err := r.engine.Convert(body, &buf); err != nil {
		return nil, markdownError(err)
	}
	meta, err := markdownMetadata(raw)
	if err != nil {
		return nil, err
	}
	title, _ := meta["title"].(string)
	r.logger.Debug("markdown.read", "source_path", path, "fields", len(meta))
	return &Content{
		Source:   path,
		Body:     buf.String(),
		Title:    title,
		Metadata: meta,
		Parts:    rsthtml.Parts{Title: title, Body: buf.String(), Fragment: buf.String()},
	}, nil
}

func markdownMetadata(raw map[string]any) (map[string]any, error) {
	meta := make(map[string]any, len(raw))
	for k, v := range raw {
		name := strings.ToLower(strings.TrimSpace(k))
		switch name {
		case "tags", "authors":
			if s, ok := v.(string); ok {
				v, _ = fieldValue(name, s)
			}
		case "date", "modified":
			if s, ok := v.(string); ok {
				t, err := ParseDate(s)
				if err != nil {
					return nil, err
				}
				v = t
			}
		}
		meta[name] = v
	}
	return meta, nil
}
