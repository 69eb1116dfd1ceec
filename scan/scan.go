// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scan lexically analyzes reStructuredText.
//
// The scanner works a line at a time: every token describes one source line,
// its indentation and, for lines that open a construct (bullets, enumerators,
// field markers, explicit markup), the marker and the text that follows it.
package scan

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token represents a classified line returned from the scanner.
type Token struct {
	Type       Type   // The type of this item.
	Line       int    // The line number on which this token appears.
	Indent     int    // Column of the first non-space character.
	BodyIndent int    // Column where the text after a marker starts.
	Marker     string // Bullet, enumerator, field name, directive name, target name or footnote label.
	Text       string // The text of this item, after any marker.
	Raw        string // The whole line after indentation.
}

// Type identifies the type of lex items.
type Type int

const (
	EOF         Type = iota // EOF indicates the end of input
	Error                   // Error occurred; value is text of error
	BlankLine               // BlankLine separates elements
	Text                    // Text is a line of paragraph text
	Adornment               // Adornment underlines or overlines a title, or marks a transition
	Bullet                  // Bullet starts a bullet list item
	Enum                    // Enum starts an enumerated list item
	Field                   // Field starts a field list item
	LineBlock               // LineBlock starts a line of a line block
	Comment                 // Comment starts a comment
	Directive               // Directive starts a directive
	Target                  // Target starts a hyperlink target
	Footnote                // Footnote starts a footnote or citation
	TableBorder             // TableBorder delimits a simple table
)

var typeNames = [...]string{
	EOF:         "EOF",
	Error:       "Error",
	BlankLine:   "BlankLine",
	Text:        "Text",
	Adornment:   "Adornment",
	Bullet:      "Bullet",
	Enum:        "Enum",
	Field:       "Field",
	LineBlock:   "LineBlock",
	Comment:     "Comment",
	Directive:   "Directive",
	Target:      "Target",
	Footnote:    "Footnote",
	TableBorder: "TableBorder",
}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func (i Token) String() string {
	switch {
	case i.Type == EOF:
		return "EOF"
	case i.Type == Error:
		return "error: " + i.Text
	case i.Marker != "":
		return fmt.Sprintf("%s(%d) %q: %.10q", i.Type, i.Indent, i.Marker, i.Text)
	case len(i.Text) > 10:
		return fmt.Sprintf("%s(%d): %.10q...", i.Type, i.Indent, i.Text)
	}
	return fmt.Sprintf("%s(%d): %q", i.Type, i.Indent, i.Text)
}

const (
	eof      = -1
	tabWidth = 8
)

// stateFn represents the state of the scanner as a function that returns the next state.
type stateFn func(*Scanner) stateFn

// Scanner holds the state of the scanner.
type Scanner struct {
	r         io.ByteReader // reads input bytes
	done      bool          // are we done scanning?
	name      string        // name of the input; used only for error reports
	buf       []byte        // I/O buffer, re-used
	input     string        // line of text being scanned, without its newline
	lastRune  rune          // most recent return from next()
	lastWidth int           // size of that rune
	line      int           // line number in input
	pos       int           // current position in the input
	start     int           // start position of this item
	indent    int           // indentation of the current line
	token     Token         // token to return to parser
	lastEnum  Enumerator    // most recent enumerator
}

// loadLine reads the next line of input into l.input. It strips carriage
// returns and the trailing newline and expands tabs. It reports whether a
// line was read.
func (l *Scanner) loadLine() bool {
	if l.done {
		return false
	}
	l.buf = l.buf[:0]
	read := false
	for {
		c, err := l.r.ReadByte()
		if err != nil {
			l.done = true
			break
		}
		read = true
		if c == '\n' {
			break
		}
		if c != '\r' { // There will never be a \r in l.input.
			l.buf = append(l.buf, c)
		}
	}
	if !read {
		return false
	}
	l.input = expandTabs(strings.TrimRightFunc(string(l.buf), unicode.IsSpace))
	l.line++
	l.start = 0
	l.pos = 0
	return true
}

// expandTabs replaces tabs with spaces up to the next tab stop.
func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// next returns the next rune in the input.
func (l *Scanner) next() rune {
	if l.pos >= len(l.input) {
		l.lastRune, l.lastWidth = eof, 0
		return eof
	}
	l.lastRune, l.lastWidth = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.lastWidth
	return l.lastRune
}

// peek returns but does not consume the next rune in the input.
func (l *Scanner) peek() rune {
	if l.pos >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// rest returns the unscanned remainder of the line.
func (l *Scanner) rest() string {
	return l.input[l.pos:]
}

// emit passes an item back to the client. The item text is the rest of the
// line after the current position.
func (l *Scanner) emit(t Type) stateFn {
	return l.emitMarker(t, "", l.rest())
}

// emitMarker passes an item with a marker back to the client.
func (l *Scanner) emitMarker(t Type, marker, text string) stateFn {
	body := len(l.input) - len(strings.TrimLeft(l.rest(), " "))
	if t == Text || t == Adornment || t == TableBorder || t == BlankLine {
		body = l.indent
	}
	l.token = Token{
		Type:       t,
		Line:       l.line,
		Indent:     l.indent,
		BodyIndent: body,
		Marker:     marker,
		Text:       strings.TrimLeft(text, " "),
		Raw:        l.input[l.indent:],
	}
	if t == Text || t == Adornment || t == TableBorder {
		l.token.Text = l.input[l.indent:]
	}
	l.start = l.pos
	return nil
}

// ignore skips over the pending input before this point.
func (l *Scanner) ignore() {
	l.start = l.pos
}

// errorf returns an error token and empties the input. The token keeps the
// line in Raw so callers can recover it.
func (l *Scanner) errorf(format string, args ...interface{}) stateFn {
	l.token = Token{
		Type:   Error,
		Line:   l.line,
		Indent: l.indent,
		Text:   fmt.Sprintf(format, args...),
		Raw:    l.input[l.indent:],
	}
	l.start = 0
	l.pos = 0
	l.input = l.input[:0]
	return nil
}

// New creates and returns a new scanner.
func New(name string, r io.ByteReader) *Scanner {
	return &Scanner{r: r, name: name}
}

// Next returns the next token.
func (l *Scanner) Next() Token {
	l.lastRune = eof
	l.lastWidth = 0
	if !l.loadLine() {
		return Token{Type: EOF, Line: l.line, Text: "EOF"}
	}
	l.token = Token{Type: EOF, Line: l.line, Text: "EOF"}
	state := lexIndent
	for {
		state = state(l)
		if state == nil {
			return l.token
		}
	}
}

// All scans the rest of the input and returns every token up to and
// including EOF. Error tokens stand in for the lines they failed on.
func (l *Scanner) All() []Token {
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Type == EOF {
			return toks
		}
	}
}

const (
	explicitStart = ".."
	bullets       = "*+-•‣⁃"
	adornments    = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// lexIndent measures the indentation of a line.
func lexIndent(l *Scanner) stateFn {
	for l.peek() == ' ' {
		l.next()
	}
	l.indent = l.pos
	l.ignore()
	if l.peek() == eof {
		l.indent = 0
		return l.emit(BlankLine)
	}
	return lexAny
}

// lexAny classifies the line after its indentation.
func lexAny(l *Scanner) stateFn {
	switch r := l.peek(); {
	case l.isExplicit():
		return lexExplicit
	case l.isAdornment(r):
		return l.emit(Adornment)
	case l.isTableBorder(r):
		return l.emit(TableBorder)
	case l.isBullet(r):
		return lexBullet
	case l.isLineBlock(r):
		return lexLineBlock
	case l.isField(r):
		return lexField
	case l.isEnum(r):
		return lexEnum
	default:
		l.lastEnum = Enumerator{}
		return l.emit(Text)
	}
}

// lexBullet scans a bullet list marker.
func lexBullet(l *Scanner) stateFn {
	marker := string(l.next())
	return l.emitMarker(Bullet, marker, l.rest())
}

// lexLineBlock scans a line block marker.
func lexLineBlock(l *Scanner) stateFn {
	l.next()
	if l.peek() == ' ' {
		l.next()
	}
	return l.emitMarker(LineBlock, "|", l.rest())
}

// lexField scans a field marker. Escaped colons are part of the field name.
func lexField(l *Scanner) stateFn {
	l.next()
	l.ignore()
	for {
		switch r := l.next(); r {
		case '\\':
			l.next()
		case ':':
			name := l.input[l.start : l.pos-1]
			return l.emitMarker(Field, unescapeColons(name), l.rest())
		case eof:
			return l.errorf("unterminated field marker")
		}
	}
}

// lexExplicit scans explicit markup: targets, footnotes, directives and comments.
func lexExplicit(l *Scanner) stateFn {
	l.pos += len(explicitStart)
	for l.peek() == ' ' {
		l.next()
	}
	l.ignore()
	s := l.rest()
	switch {
	case strings.HasPrefix(s, "_"):
		return lexTarget
	case strings.HasPrefix(s, "["):
		if label, ok := footnoteLabel(s); ok {
			l.pos += len(label) + len("[]")
			return l.emitMarker(Footnote, label, l.rest())
		}
	}
	if name, arg, ok := directiveMarker(s); ok {
		l.pos = len(l.input)
		return l.emitMarker(Directive, name, arg)
	}
	return l.emit(Comment)
}

// footnoteLabel returns the label of "[label] text", if s starts with one.
func footnoteLabel(s string) (string, bool) {
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return "", false
	}
	label, after := s[1:end], s[end+1:]
	if label == "" || strings.ContainsAny(label, " \t[") || (after != "" && after[0] != ' ') {
		return "", false
	}
	return label, true
}

// lexTarget scans a hyperlink target. Escaped colons and colons inside
// backquotes are part of the target name.
func lexTarget(l *Scanner) stateFn {
	l.next()
	if strings.HasPrefix(l.rest(), "_:") || l.rest() == "_" {
		l.pos += len("_:")
		if l.pos > len(l.input) {
			l.pos = len(l.input)
		}
		return l.emitMarker(Target, "_", strings.TrimSpace(l.rest()))
	}
	quoted := l.peek() == '`'
	if quoted {
		l.next()
	}
	l.ignore()
	for {
		switch r := l.next(); {
		case r == '\\':
			l.next()
		case r == '`' && quoted:
			name := l.input[l.start : l.pos-1]
			if l.peek() != ':' {
				return l.errorf("malformed hyperlink target %q", name)
			}
			l.next()
			return l.emitMarker(Target, unescapeColons(name), strings.TrimSpace(l.rest()))
		case r == ':' && !quoted:
			name := l.input[l.start : l.pos-1]
			return l.emitMarker(Target, unescapeColons(name), strings.TrimSpace(l.rest()))
		case r == eof:
			return l.errorf("malformed hyperlink target %q", l.input[l.start:])
		}
	}
}

// directiveMarker splits "name:: argument" into its parts.
func directiveMarker(s string) (name, arg string, ok bool) {
	i := strings.Index(s, "::")
	if i <= 0 {
		return "", "", false
	}
	name = s[:i]
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("-_+.:", r) {
			return "", "", false
		}
	}
	arg = s[i+2:]
	if arg != "" && arg[0] != ' ' {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(arg), true
}

func unescapeColons(s string) string {
	return strings.ReplaceAll(s, `\:`, ":")
}

// isExplicit reports whether the line starts with explicit markup.
func (l *Scanner) isExplicit() bool {
	s := l.rest()
	if !strings.HasPrefix(s, explicitStart) {
		return false
	}
	return len(s) == len(explicitStart) || s[len(explicitStart)] == ' '
}

// isBullet reports whether the scanner is on a bullet.
func (l *Scanner) isBullet(r rune) bool {
	if !strings.ContainsRune(bullets, r) {
		return false
	}
	s := l.rest()[utf8.RuneLen(r):]
	return s == "" || s[0] == ' '
}

// isLineBlock reports whether the scanner is on a line block marker.
func (l *Scanner) isLineBlock(r rune) bool {
	s := l.rest()
	return r == '|' && (len(s) == 1 || s[1] == ' ')
}

// isField reports whether the scanner is on a field marker. The name must be
// followed by a colon and whitespace or the end of the line.
func (l *Scanner) isField(r rune) bool {
	s := l.rest()
	if r != ':' || len(s) < 3 || s[1] == ' ' {
		return false
	}
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case ':':
			if i == 1 || s[i-1] == ' ' {
				return false
			}
			return i+1 == len(s) || s[i+1] == ' '
		}
	}
	return false
}

// isTableBorder reports whether the scanner is on a simple table border:
// runs of '=' separated by spaces.
func (l *Scanner) isTableBorder(r rune) bool {
	s := l.rest()
	if r != '=' || !strings.Contains(s, " ") {
		return false
	}
	return strings.Trim(s, "= ") == "" && strings.HasSuffix(s, "=")
}

// isAdornment reports whether the scanner is on a line made of one repeated
// punctuation character.
func (l *Scanner) isAdornment(r rune) bool {
	if !strings.ContainsRune(adornments, r) {
		return false
	}
	s := l.rest()
	return utf8.RuneCountInString(s) > 1 && s == strings.Repeat(string(r), utf8.RuneCountInString(s))
}
