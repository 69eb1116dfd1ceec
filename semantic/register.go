// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package semantic

import (
	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/parse"
	"github.com/matthewdargan/semantic-rst/reader"
)

// KeyboardRole marks its text as keyboard input. Any text is accepted.
func KeyboardRole(_, text string) ([]*nodes.Node, error) {
	n := nodes.New(nodes.Literal, nodes.NewText(text))
	n.AddClass("kbd")
	return []*nodes.Node{n}, nil
}

// ReaderDefaults are the settings the semantic reader layers over the
// framework defaults. User docutils settings still win.
func ReaderDefaults() map[string]any {
	return map[string]any{
		"initial_header_level": 2,
		"syntax_highlight":     "short",
		"input_encoding":       "utf-8",
		"exit_status_level":    2,
		"embed_stylesheet":     false,
	}
}

// NewReader returns a reStructuredText reader translating with the
// Formatter.
func NewReader(cfg reader.Config) *reader.RSTReader {
	return reader.NewRSTReader(cfg, ReaderDefaults(), Formatter{})
}

// Register installs the kbd role into roles and connects the reader
// binding to signals. Registering again replaces the same bindings and
// leaves a single connection.
func Register(roles *parse.Roles, signals *reader.Signals) {
	roles.Register(KeyboardRole, "kbd")
	signals.ReadersInit.ConnectKey("semantic", addReader)
}

// addReader binds the semantic reader to the reStructuredText extensions.
func addReader(readers *reader.Readers) {
	readers.Register(NewReader(readers.Config), "rst", "rest")
}
