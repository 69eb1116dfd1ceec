// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package highlight splits source code into classed tokens and writes the
// matching stylesheet, using chroma.
package highlight

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Mode selects how token classes are named.
type Mode string

const (
	Long  Mode = "long"  // "keyword namespace"
	Short Mode = "short" // "kn"
	None  Mode = "none"  // no highlighting
)

// ParseMode validates a syntax_highlight setting.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Long, Short, None:
		return m, nil
	case "":
		return Long, nil
	}
	return "", fmt.Errorf("highlight: unknown mode %q", s)
}

// ErrNoLexer is returned when no lexer is registered for a language.
var ErrNoLexer = errors.New("highlight: no lexer found")

// Token is a run of code sharing the same classes.
type Token struct {
	Classes []string
	Text    string
}

// Tokens splits code written in lang into classed tokens. An empty lang or
// mode None yields a single unclassed token.
func Tokens(lang, code string, mode Mode) ([]Token, error) {
	if lang == "" || mode == None {
		return []Token{{Text: code}}, nil
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return []Token{{Text: code}}, fmt.Errorf("%w for %q", ErrNoLexer, lang)
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return []Token{{Text: code}}, fmt.Errorf("highlight: %s: %w", lang, err)
	}
	var out []Token
	for _, t := range it.Tokens() {
		classes := classesFor(t.Type, mode)
		if n := len(out); n > 0 && slices.Equal(out[n-1].Classes, classes) {
			out[n-1].Text += t.Value
			continue
		}
		out = append(out, Token{Classes: classes, Text: t.Value})
	}
	return trimFinalNewline(out, code), nil
}

func classesFor(tt chroma.TokenType, mode Mode) []string {
	if tt == chroma.Text || tt == chroma.TextWhitespace {
		return nil
	}
	if mode == Short {
		if c := chroma.StandardTypes[tt]; c != "" {
			return []string{c}
		}
		return nil
	}
	return splitCamel(tt.String())
}

// splitCamel turns "KeywordNamespace" into ["keyword", "namespace"].
func splitCamel(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if i > start && unicode.IsUpper(r) {
			out = append(out, strings.ToLower(s[start:i]))
			start = i
		}
	}
	if start < len(s) {
		out = append(out, strings.ToLower(s[start:]))
	}
	return out
}

// trimFinalNewline drops the newline lexers append when code lacks one.
func trimFinalNewline(toks []Token, code string) []Token {
	if strings.HasSuffix(code, "\n") || len(toks) == 0 {
		return toks
	}
	last := &toks[len(toks)-1]
	last.Text = strings.TrimSuffix(last.Text, "\n")
	if last.Text == "" {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// WriteCSS writes the stylesheet for the named chroma style with short
// class names scoped to code blocks.
func WriteCSS(w io.Writer, style string) error {
	s, ok := styles.Registry[strings.ToLower(style)]
	if !ok {
		return fmt.Errorf("highlight: unknown style %q", style)
	}
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, s); err != nil {
		return fmt.Errorf("highlight: %w", err)
	}
	_, err := io.WriteString(w, strings.ReplaceAll(buf.String(), ".chroma", ".code"))
	return err
}
