// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reader

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/internal/logging"
	"github.com/matthewdargan/semantic-rst/nodes"
)

// RSTReader reads reStructuredText files.
type RSTReader struct {
	Config Config
	// Defaults are layered over the framework defaults before the user's
	// docutils settings.
	Defaults    map[string]any
	Translators []html.NodeTranslator

	logger logging.Logger
}

// NewRSTReader returns a reader translating with the base hooks and then
// the hooks of each extension.
func NewRSTReader(cfg Config, defaults map[string]any, exts ...html.NodeTranslator) *RSTReader {
	return &RSTReader{
		Config:      cfg,
		Defaults:    defaults,
		Translators: exts,
		logger:      logging.ReaderLogger(cfg.Logger),
	}
}

// Settings returns the merged settings: framework defaults, then the
// reader defaults, then the user's docutils settings.
func (r *RSTReader) Settings() (Settings, error) {
	s, err := DefaultSettings().MergeAll(r.Defaults, r.Config.DocutilsSettings)
	if err != nil {
		return s, err
	}
	return s, s.Validate()
}

// Publisher returns a publisher configured for one file.
func (r *RSTReader) Publisher() (*Publisher, error) {
	s, err := r.Settings()
	if err != nil {
		return nil, err
	}
	return &Publisher{
		Settings:    s,
		Roles:       r.Config.Roles,
		Translators: r.Translators,
		Logger:      r.logger,
	}, nil
}

// Read publishes the file at path and collects its metadata.
func (r *RSTReader) Read(ctx context.Context, path string) (*Content, error) {
	pub, err := r.Publisher()
	if err != nil {
		return nil, err
	}
	res, err := pub.PublishFile(ctx, path)
	if err != nil {
		return nil, err
	}
	meta, err := r.metadata(res.Doc, pub)
	if err != nil {
		return nil, err
	}
	c := &Content{
		Source:   path,
		Body:     res.Parts.Body,
		Title:    res.Parts.Title,
		Metadata: meta,
		Parts:    res.Parts,
		Problems: res.Problems,
	}
	if c.Title != "" {
		c.Metadata["title"] = c.Title
	}
	return c, nil
}

// metadata collects the docinfo fields of doc.
func (r *RSTReader) metadata(doc *nodes.Node, pub *Publisher) (map[string]any, error) {
	meta := make(map[string]any)
	docinfo := doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.Docinfo })
	if docinfo == nil {
		return meta, nil
	}
	for _, field := range docinfo.Children {
		if field.Kind != nodes.Field || field.Len() < 2 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(field.Child(0).AsText()))
		body := field.Child(1)
		if slices.Contains(pub.Settings.FormattedFields, name) {
			v, err := renderFieldBody(body, pub)
			if err != nil {
				return nil, err
			}
			meta[name] = v
			continue
		}
		v, err := fieldValue(name, strings.TrimSpace(body.AsText()))
		if err != nil {
			r.logger.Warn("metadata.invalid", "field", name, "error", err.Error())
			meta[name] = strings.TrimSpace(body.AsText())
			continue
		}
		meta[name] = v
	}
	return meta, nil
}

// fieldValue converts the text of a docinfo field.
func fieldValue(name, text string) (any, error) {
	switch name {
	case "tags", "authors":
		var items []string
		for _, item := range strings.Split(text, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	case "date", "modified":
		return ParseDate(text)
	}
	return text, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
	"02 January 2006",
	"January 2, 2006",
}

// ParseDate parses the date formats accepted in metadata.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, metadataError(err)
}

// fieldBody renders a field body without its own cell markup.
type fieldBody struct{}

func (fieldBody) RegisterFuncs(r html.Registerer) {
	skip := func(*html.Translator, *nodes.Node) (nodes.WalkStatus, error) {
		return nodes.WalkContinue, nil
	}
	r.Register(nodes.FieldBody, skip, skip)
}

// renderFieldBody translates body with the publisher's translators.
func renderFieldBody(body *nodes.Node, pub *Publisher) (string, error) {
	exts := append(slices.Clone(pub.Translators), fieldBody{})
	t := html.New(pub.Settings.HTMLSettings(), exts...)
	if err := t.Walk(body); err != nil {
		return "", translateError(err)
	}
	return strings.Join(t.Body, ""), nil
}
