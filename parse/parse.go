// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse builds document trees from reStructuredText.
//
// The parser consumes the line tokens produced by package scan. Indented
// bodies (list items, directive content, block quotes) are dedented and
// scanned again, so every construct is recognized at column zero.
package parse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matthewdargan/semantic-rst/internal/highlight"
	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/scan"
)

// ErrHalt is returned when a problem reaches the halt level.
var ErrHalt = errors.New("parse: halted")

// Settings controls parsing and the standard transforms.
type Settings struct {
	SyntaxHighlight   highlight.Mode
	HaltLevel         nodes.Level
	DoctitleXform     bool
	SectsubtitleXform bool
	TocBacklinks      string // entry, top or none
}

// DefaultSettings returns the settings used when none are supplied.
func DefaultSettings() Settings {
	return Settings{
		SyntaxHighlight: highlight.Long,
		HaltLevel:       nodes.LevelSevere,
		DoctitleXform:   true,
		TocBacklinks:    "entry",
	}
}

// Parser turns reStructuredText into document trees. A Parser may be reused
// for many documents but not concurrently if its registries are modified.
type Parser struct {
	Roles      *Roles
	Directives *Directives
	Settings   Settings
}

// New returns a parser using roles and the standard directives. A nil roles
// selects the standard roles.
func New(roles *Roles, settings Settings) *Parser {
	if roles == nil {
		roles = NewRoles()
	}
	return &Parser{Roles: roles, Directives: NewDirectives(), Settings: settings}
}

// Parse reads a document from r and returns its tree along with every
// problem found. The error is non-nil when reading fails, ctx is done, or a
// problem reaches the halt level; the tree and problems are still returned
// in the last case.
func (p *Parser) Parse(ctx context.Context, name string, r io.Reader) (*nodes.Node, []nodes.Problem, error) {
	s := &state{p: p, ctx: ctx, name: name}
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	toks := scan.New(name, br).All()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	doc := nodes.New(nodes.Document)
	doc.Set("source", name)
	s.body(toks, 0, doc, true)
	if err := ctx.Err(); err != nil {
		return doc, s.problems, err
	}
	if s.halted {
		return doc, s.problems, fmt.Errorf("%w: %s", ErrHalt, s.haltedBy)
	}
	s.transform(doc)
	if s.halted {
		return doc, s.problems, fmt.Errorf("%w: %s", ErrHalt, s.haltedBy)
	}
	return doc, s.problems, nil
}

// ParseString parses a document held in a string.
func (p *Parser) ParseString(ctx context.Context, name, src string) (*nodes.Node, []nodes.Problem, error) {
	return p.Parse(ctx, name, strings.NewReader(src))
}

// style identifies a section title adornment.
type style struct {
	char rune
	over bool
}

// state holds what is shared by every block parser of one document.
type state struct {
	p        *Parser
	ctx      context.Context
	name     string
	problems []nodes.Problem
	halted   bool
	haltedBy nodes.Problem
	styles   []style
	contents []*pendingContents
}

// report records a problem and notes whether parsing must stop.
func (s *state) report(level nodes.Level, line int, format string, args ...any) {
	pr := nodes.Problem{Level: level, Line: line, Message: fmt.Sprintf(format, args...)}
	s.problems = append(s.problems, pr)
	if level >= s.p.Settings.HaltLevel && !s.halted {
		s.halted = true
		s.haltedBy = pr
	}
}

// levelOf returns the section level of st, adding it when new.
func (s *state) levelOf(st style) (level int, isNew bool) {
	for i, known := range s.styles {
		if known == st {
			return i + 1, false
		}
	}
	return len(s.styles) + 1, true
}

// nested parses dedented lines into parent. offset is added to the line
// numbers of the scanned lines.
func (s *state) nested(lines []string, offset int, parent *nodes.Node) {
	toks := scan.New(s.name, strings.NewReader(strings.Join(lines, "\n"))).All()
	s.body(toks, offset, parent, false)
}

// body parses toks into parent. Sections are allowed only at the top level.
func (s *state) body(toks []scan.Token, offset int, parent *nodes.Node, sections bool) {
	b := &blockParser{s: s, toks: toks, offset: offset, stack: []*nodes.Node{parent}, sections: sections}
	b.run()
}

// fullLine restores the indentation of a token's line.
func fullLine(t scan.Token) string {
	if t.Type == scan.BlankLine || t.Type == scan.EOF {
		return ""
	}
	return strings.Repeat(" ", t.Indent) + t.Raw
}

// leading returns the number of leading spaces of s.
func leading(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// minIndent returns the smallest indentation of the non-blank lines.
func minIndent(lines []string) int {
	least := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if n := leading(line); least < 0 || n < least {
			least = n
		}
	}
	return max(least, 0)
}

// dedent removes up to n leading spaces from every line.
func dedent(lines []string, n int) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line[min(n, leading(line)):]
	}
	return out
}

// trimBlank drops leading and trailing blank lines.
func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// normalizeName lower-cases a reference name and collapses its whitespace.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
