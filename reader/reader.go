// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reader turns source files into HTML content and metadata.
//
// A [Readers] registry maps file extensions to [Reader] implementations.
// Plugins change the bindings from a [Signals.ReadersInit] callback, which
// fires once each time a registry is built.
package reader

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/internal/logging"
	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/parse"
)

// Config is the site configuration shared by every reader.
type Config struct {
	// DocutilsSettings override the reStructuredText settings; only the
	// keys present take effect.
	DocutilsSettings map[string]any `yaml:"docutils_settings" mapstructure:"docutils_settings"`
	// MarkdownExtensions names the goldmark extensions to enable.
	MarkdownExtensions []string `yaml:"markdown_extensions" mapstructure:"markdown_extensions"`

	Roles  *parse.Roles     `yaml:"-" mapstructure:"-"`
	Logger logging.Provider `yaml:"-" mapstructure:"-"`
}

// Content is a read source file.
type Content struct {
	Source   string
	Body     string
	Title    string
	Metadata map[string]any
	Parts    html.Parts
	Problems []nodes.Problem
}

// Reader reads one kind of source file.
type Reader interface {
	Read(ctx context.Context, path string) (*Content, error)
}

// Signal is a list of callbacks receiving a value of type T.
type Signal[T any] struct {
	mu    sync.Mutex
	slots []slot[T]
}

type slot[T any] struct {
	key string
	fn  func(T)
}

// Connect adds fn to the callbacks.
func (s *Signal[T]) Connect(fn func(T)) {
	s.ConnectKey("", fn)
}

// ConnectKey adds fn to the callbacks under key. A non-empty key already
// connected has its callback replaced in place.
func (s *Signal[T]) ConnectKey(key string, fn func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key != "" {
		for i := range s.slots {
			if s.slots[i].key == key {
				s.slots[i].fn = fn
				return
			}
		}
	}
	s.slots = append(s.slots, slot[T]{key: key, fn: fn})
}

// Len reports the number of connected callbacks.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Send calls every callback with v in connection order.
func (s *Signal[T]) Send(v T) {
	s.mu.Lock()
	slots := slices.Clone(s.slots)
	s.mu.Unlock()
	for _, sl := range slots {
		sl.fn(v)
	}
}

// Signals holds the lifecycle events plugins can subscribe to.
type Signals struct {
	// ReadersInit fires when a Readers registry has its default bindings.
	ReadersInit Signal[*Readers]
}

// Readers maps file extensions to readers.
type Readers struct {
	Config Config

	readers map[string]Reader
}

// NewReaders returns a registry binding "rst" and "rest" to the plain
// reStructuredText reader and the markdown extensions to the markdown
// reader, then fires signals.ReadersInit. signals may be nil.
func NewReaders(cfg Config, signals *Signals) *Readers {
	if cfg.Roles == nil {
		cfg.Roles = parse.NewRoles()
	}
	r := &Readers{Config: cfg, readers: make(map[string]Reader)}
	rst := NewRSTReader(cfg, nil)
	r.Register(rst, "rst", "rest")
	r.Register(NewMarkdownReader(cfg), "md", "markdown", "mkd", "mdown")
	if signals != nil {
		signals.ReadersInit.Send(r)
	}
	return r
}

// Register binds rd to each extension, replacing earlier bindings.
// Extensions are matched without the leading dot and case-insensitively.
func (r *Readers) Register(rd Reader, exts ...string) {
	for _, ext := range exts {
		r.readers[normalizeExt(ext)] = rd
	}
}

// Lookup returns the reader bound to ext.
func (r *Readers) Lookup(ext string) (Reader, bool) {
	rd, ok := r.readers[normalizeExt(ext)]
	return rd, ok
}

// Extensions returns the bound extensions in sorted order.
func (r *Readers) Extensions() []string {
	exts := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Read reads path with the reader bound to its extension.
func (r *Readers) Read(ctx context.Context, path string) (*Content, error) {
	ext := normalizeExt(filepath.Ext(path))
	rd, ok := r.readers[ext]
	if !ok {
		return nil, unknownReaderError(path, ext)
	}
	return rd.Read(ctx, path)
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
