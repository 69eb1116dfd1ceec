// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// item represents a run of inline text or markup returned from the lexer.
type item struct {
	typ  itemType // The type of this item.
	pos  int      // The starting position, in bytes, of this item in the input string.
	val  string   // The content of this item, without its start and end strings.
	line int      // The line number at the start of this item.
	role string   // Role name of interpreted text.
	ref  string   // Embedded URI of a reference; message of an error.
	anon bool     // Anonymous reference.
}

func (i item) String() string {
	switch {
	case i.typ == itemEOF:
		return "EOF"
	case i.typ == itemError:
		return i.ref
	case len(i.val) > 10:
		return fmt.Sprintf("%s: %.10q...", i.typ, i.val)
	}
	return fmt.Sprintf("%s: %q", i.typ, i.val)
}

// itemType identifies the type of lex items.
type itemType int

const (
	itemError        itemType = iota // unterminated markup; val is the start string
	itemEOF                          // end of input
	itemText                         // plain text, backslash escapes intact
	itemLiteral                      // ``literal``
	itemEmphasis                     // *emphasis*
	itemStrong                       // **strong**
	itemInterpreted                  // `text` or :role:`text`
	itemReference                    // `text`_ or `text <uri>`_
	itemNamedRef                     // name_
	itemFootnoteRef                  // [label]_
)

var itemNames = [...]string{
	itemError:       "error",
	itemEOF:         "EOF",
	itemText:        "text",
	itemLiteral:     "literal",
	itemEmphasis:    "emphasis",
	itemStrong:      "strong",
	itemInterpreted: "interpreted",
	itemReference:   "reference",
	itemNamedRef:    "namedref",
	itemFootnoteRef: "footnoteref",
}

func (t itemType) String() string {
	if int(t) < len(itemNames) {
		return itemNames[t]
	}
	return fmt.Sprintf("item(%d)", int(t))
}

const eof = -1

// stateFn represents the state of the lexer as a function that returns the next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the inline scanner.
type lexer struct {
	name      string // the name of the input; used only for error reports
	input     string // the string being scanned
	pos       int    // current position in the input
	start     int    // start position of this item
	atEOF     bool   // we have hit the end of input and returned eof
	line      int    // 1+number of newlines seen
	startLine int    // start line of this item
	item      item   // item to return to parser
}

// next returns the next rune in the input.
func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.atEOF = true
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
	}
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// backup steps back one rune.
func (l *lexer) backup() {
	if !l.atEOF && l.pos > 0 {
		r, w := utf8.DecodeLastRuneInString(l.input[:l.pos])
		l.pos -= w
		// Correct newline count.
		if r == '\n' {
			l.line--
		}
	}
}

// thisItem returns the item at the current input point with the specified type
// and advances the input.
func (l *lexer) thisItem(t itemType) item {
	i := item{typ: t, pos: l.start, val: l.input[l.start:l.pos], line: l.startLine}
	l.start = l.pos
	l.startLine = l.line
	return i
}

// emitItem passes the specified item to the parser.
func (l *lexer) emitItem(i item) stateFn {
	l.item = i
	return nil
}

// skip advances over n bytes of markup that do not belong to any item.
func (l *lexer) skip(n int) {
	l.line += strings.Count(l.input[l.pos:l.pos+n], "\n")
	l.pos += n
	l.start = l.pos
	l.startLine = l.line
}

// markup emits an item whose content spans [from, to) and then skips to end.
func (l *lexer) markup(t itemType, from, to, end int) item {
	i := item{typ: t, pos: l.start, val: l.input[from:to], line: l.startLine}
	l.skip(end - l.pos)
	return i
}

// errorf emits an error item for an unterminated start string. The start
// string itself is consumed so scanning continues after it.
func (l *lexer) errorf(start string, format string, args ...any) stateFn {
	i := item{typ: itemError, pos: l.start, val: start, line: l.startLine, ref: fmt.Sprintf(format, args...)}
	l.skip(len(start))
	return l.emitItem(i)
}

// nextItem returns the next item from the input.
func (l *lexer) nextItem() item {
	l.item = item{typ: itemEOF, pos: l.pos, val: "EOF", line: l.startLine}
	state := lexInline
	for {
		state = state(l)
		if state == nil {
			return l.item
		}
	}
}

// lex creates a new lexer for the input string.
func lex(name, input string, line int) *lexer {
	return &lexer{
		name:      name,
		input:     input,
		line:      line,
		startLine: line,
	}
}

// items returns every item of the input, excluding EOF.
func (l *lexer) items() []item {
	var out []item
	for {
		i := l.nextItem()
		if i.typ == itemEOF {
			return out
		}
		out = append(out, i)
	}
}

const (
	startPreceders = "'\"([{<-/:‘“’«¡¿"
	endFollowers   = "'\")]}>-/:.,;!?\\’”»"
)

var (
	roleRE     = regexp.MustCompile("^:([A-Za-z0-9]+(?:[-_+.][A-Za-z0-9]+)*):`")
	suffixRE   = regexp.MustCompile("^:([A-Za-z0-9]+(?:[-_+.][A-Za-z0-9]+)*):")
	simpleRE   = regexp.MustCompile(`^[A-Za-z0-9]+(?:[-_.+:][A-Za-z0-9]+)*(__?)`)
	footRefRE  = regexp.MustCompile(`^\[([0-9]+|#|#[A-Za-z0-9][-_.A-Za-z0-9]*|[A-Za-z][-_.A-Za-z0-9]*)\]_`)
	embeddedRE = regexp.MustCompile(`(?s)^(.*?)\s*<([^<>]+)>$`)
	quotePairs = map[rune]rune{'"': '"', '\'': '\'', '(': ')', '[': ']', '{': '}', '<': '>', '‘': '’', '“': '”', '«': '»'}
)

// lexInline scans plain text up to the next inline markup construct.
func lexInline(l *lexer) stateFn {
	for {
		if l.pos > l.start && l.startsMarkup() {
			return l.emitItem(l.thisItem(itemText))
		}
		if l.pos == l.start && l.startsMarkup() {
			return lexMarkup
		}
		switch r := l.next(); r {
		case eof:
			if l.pos > l.start {
				return l.emitItem(l.thisItem(itemText))
			}
			return nil
		case '\\':
			l.next()
		}
	}
}

// startsMarkup reports whether a markup start string begins at l.pos.
func (l *lexer) startsMarkup() bool {
	s := l.input[l.pos:]
	if s == "" || !l.startBoundary() {
		return false
	}
	switch s[0] {
	case '`', '*', '[', ':':
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return (unicode.IsLetter(r) || unicode.IsDigit(r)) && simpleRE.MatchString(s) && l.simpleRefEnd(s) > 0
}

// startBoundary reports whether the character before l.pos permits a start string.
func (l *lexer) startBoundary() bool {
	if l.pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(l.input[:l.pos])
	return unicode.IsSpace(r) || strings.ContainsRune(startPreceders, r)
}

// opens reports whether start, beginning at l.pos, is a valid start string:
// followed by non-whitespace and not enclosed in matching quotes.
func (l *lexer) opens(start string) bool {
	after := l.input[l.pos+len(start):]
	if after == "" {
		return false
	}
	next, _ := utf8.DecodeRuneInString(after)
	if unicode.IsSpace(next) {
		return false
	}
	if l.pos > 0 {
		prev, _ := utf8.DecodeLastRuneInString(l.input[:l.pos])
		if closing, ok := quotePairs[prev]; ok && closing == next {
			return false
		}
	}
	return true
}

// findEnd returns the index of the end string in the input, searching from
// position from, or -1. The end string must follow non-whitespace, must not be
// escaped, and must be followed by whitespace, punctuation or the end.
func (l *lexer) findEnd(from int, end string, escapes bool) int {
	for i := from; i < len(l.input); {
		if escapes && l.input[i] == '\\' {
			i += 2
			continue
		}
		if strings.HasPrefix(l.input[i:], end) && i > from {
			prev, _ := utf8.DecodeLastRuneInString(l.input[:i])
			if !unicode.IsSpace(prev) && endBoundary(l.input[i+len(end):]) {
				return i
			}
		}
		_, w := utf8.DecodeRuneInString(l.input[i:])
		i += w
	}
	return -1
}

// endBoundary reports whether s may follow an end string.
func endBoundary(s string) bool {
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r) || strings.ContainsRune(endFollowers, r)
}

// simpleRefEnd returns the length of the simple reference "name_" or
// "name__" at the start of s, or 0.
func (l *lexer) simpleRefEnd(s string) int {
	m := simpleRE.FindString(s)
	if m == "" || !endBoundary(s[len(m):]) {
		return 0
	}
	return len(m)
}

// lexMarkup scans the markup construct starting at l.pos.
func lexMarkup(l *lexer) stateFn {
	s := l.input[l.pos:]
	switch {
	case strings.HasPrefix(s, "``"):
		return lexLiteral
	case strings.HasPrefix(s, "**"):
		return lexStrong
	case s[0] == '*':
		return lexEmphasis
	case s[0] == '`':
		return lexInterpreted
	case s[0] == ':':
		return lexRole
	case s[0] == '[':
		return lexFootnoteRef
	}
	return lexSimpleRef
}

// lexLiteral scans ``inline literal`` text. Backslashes are not escapes.
func lexLiteral(l *lexer) stateFn {
	if !l.opens("``") {
		return l.plain(2)
	}
	from := l.pos + 2
	end := l.findEnd(from, "``", false)
	if end < 0 {
		return l.errorf("``", "Inline literal start-string without end-string.")
	}
	return l.emitItem(l.markup(itemLiteral, from, end, end+2))
}

// lexStrong scans **strong** text.
func lexStrong(l *lexer) stateFn {
	if !l.opens("**") {
		return l.plain(2)
	}
	from := l.pos + 2
	end := l.findEnd(from, "**", true)
	if end < 0 {
		return l.errorf("**", "Inline strong start-string without end-string.")
	}
	return l.emitItem(l.markup(itemStrong, from, end, end+2))
}

// lexEmphasis scans *emphasis* text.
func lexEmphasis(l *lexer) stateFn {
	if !l.opens("*") {
		return l.plain(1)
	}
	from := l.pos + 1
	end := l.findEnd(from, "*", true)
	if end < 0 {
		return l.errorf("*", "Inline emphasis start-string without end-string.")
	}
	return l.emitItem(l.markup(itemEmphasis, from, end, end+1))
}

// lexInterpreted scans `interpreted text`, `references`_ and `anonymous`__,
// with an optional :role: suffix.
func lexInterpreted(l *lexer) stateFn {
	if !l.opens("`") {
		return l.plain(1)
	}
	return l.interpreted(l.pos, "")
}

// lexRole scans :role:`interpreted text`. A colon that does not start a role
// prefix is plain text.
func lexRole(l *lexer) stateFn {
	m := roleRE.FindStringSubmatch(l.input[l.pos:])
	if m == nil {
		return l.plain(1)
	}
	tick := l.pos + len(m[0]) - 1
	save := l.pos
	l.pos = tick
	if !l.opens("`") {
		l.pos = save
		return l.plain(len(m[0]))
	}
	l.pos = save
	return l.interpreted(tick, m[1])
}

// interpreted scans from the opening backquote at tick.
func (l *lexer) interpreted(tick int, role string) stateFn {
	from := tick + 1
	end := l.findClosingTick(from)
	if end < 0 {
		return l.errorf(l.input[l.pos:from], "Inline interpreted text or phrase reference start-string without end-string.")
	}
	after := l.input[end+1:]
	switch {
	case role == "" && strings.HasPrefix(after, "__") && endBoundary(after[2:]):
		i := l.markup(itemReference, from, end, end+3)
		i.anon = true
		return l.emitItem(l.embedded(i))
	case role == "" && strings.HasPrefix(after, "_") && endBoundary(after[1:]):
		return l.emitItem(l.embedded(l.markup(itemReference, from, end, end+2)))
	}
	stop := end + 1
	if m := suffixRE.FindStringSubmatch(after); m != nil && role == "" && endBoundary(after[len(m[0]):]) {
		role = m[1]
		stop += len(m[0])
	}
	i := l.markup(itemInterpreted, from, end, stop)
	i.role = role
	return l.emitItem(i)
}

// findClosingTick finds the backquote that ends interpreted text begun before
// from: it must follow non-whitespace and be followed by '_', ':' or an end
// boundary.
func (l *lexer) findClosingTick(from int) int {
	for i := from; i < len(l.input); i++ {
		switch l.input[i] {
		case '\\':
			i++
		case '`':
			if i == from {
				continue
			}
			prev, _ := utf8.DecodeLastRuneInString(l.input[:i])
			if unicode.IsSpace(prev) {
				continue
			}
			rest := l.input[i+1:]
			if strings.HasPrefix(rest, "_") || suffixRE.MatchString(rest) || endBoundary(rest) {
				return i
			}
		}
	}
	return -1
}

// embedded splits "text <uri>" reference content.
func (l *lexer) embedded(i item) item {
	if m := embeddedRE.FindStringSubmatch(i.val); m != nil {
		i.ref = strings.Join(strings.Fields(m[2]), "")
		i.val = m[1]
		if i.val == "" {
			i.val = i.ref
		}
	}
	return i
}

// lexFootnoteRef scans [label]_ footnote and citation references.
func lexFootnoteRef(l *lexer) stateFn {
	s := l.input[l.pos:]
	m := footRefRE.FindStringSubmatch(s)
	if m == nil || !endBoundary(s[len(m[0]):]) {
		return l.plain(1)
	}
	return l.emitItem(l.markup(itemFootnoteRef, l.pos+1, l.pos+1+len(m[1]), l.pos+len(m[0])))
}

// lexSimpleRef scans name_ and name__ references.
func lexSimpleRef(l *lexer) stateFn {
	s := l.input[l.pos:]
	n := l.simpleRefEnd(s)
	if n == 0 {
		return l.plain(1)
	}
	m := simpleRE.FindStringSubmatch(s)
	i := l.markup(itemNamedRef, l.pos, l.pos+n-len(m[1]), l.pos+n)
	i.anon = len(m[1]) == 2
	return l.emitItem(i)
}

// plain consumes n bytes of a start string that turned out not to open
// markup and continues scanning text.
func (l *lexer) plain(n int) stateFn {
	for range n {
		l.next()
	}
	return lexText
}

// lexText continues a text item until the next markup.
func lexText(l *lexer) stateFn {
	for {
		if l.startsMarkup() {
			return l.emitItem(l.thisItem(itemText))
		}
		switch r := l.next(); r {
		case eof:
			return l.emitItem(l.thisItem(itemText))
		case '\\':
			l.next()
		}
	}
}

// unescape removes backslash escapes from text. An escaped whitespace
// character is removed entirely.
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			if !unicode.IsSpace(r) {
				b.WriteRune(r)
			}
			escaped = false
		case r == '\\':
			escaped = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
