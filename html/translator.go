// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package html translates document trees into HTML.
//
// A [Translator] walks a tree depth-first and calls a visit hook when it
// enters a node and a depart hook when it leaves it. The base hooks produce
// docutils html4css1 markup; a [NodeTranslator] replaces hooks for the kinds
// it wants to render differently.
package html

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark/util"

	"github.com/matthewdargan/semantic-rst/internal/highlight"
	"github.com/matthewdargan/semantic-rst/nodes"
)

var (
	// ErrMalformedTree is returned when a node appears under a parent that
	// cannot hold it.
	ErrMalformedTree = errors.New("html: malformed document tree")
	// ErrUnknownKind is returned for a node kind without hooks.
	ErrUnknownKind = errors.New("html: no hooks for node kind")
)

// A Hook renders a node on entry (visit) or exit (depart). The status
// returned by a visit hook steers the walk; WalkSkipNode also skips the
// depart hook. Depart hooks should return WalkContinue.
type Hook func(t *Translator, n *nodes.Node) (nodes.WalkStatus, error)

// Registerer receives hooks. A nil hook keeps the one already registered.
type Registerer interface {
	Register(k nodes.Kind, visit, depart Hook)
}

// NodeTranslator installs hooks on a Registerer.
type NodeTranslator interface {
	RegisterFuncs(Registerer)
}

// Settings controls translation.
type Settings struct {
	InitialHeaderLevel int
	TableStyle         string // comma-separated classes
	CompactLists       bool
	CompactFieldLists  bool
	FieldNameLimit     int // longer field names span both columns; 0 disables
	FootnoteBacklinks  bool
	EmbedStylesheet    bool
	StylesheetPath     string
	HighlightStyle     string
}

// DefaultSettings returns the html4css1 writer defaults.
func DefaultSettings() Settings {
	return Settings{
		InitialHeaderLevel: 1,
		CompactLists:       true,
		CompactFieldLists:  true,
		FieldNameLimit:     14,
		FootnoteBacklinks:  true,
		EmbedStylesheet:    true,
		HighlightStyle:     "monokai",
	}
}

// Parts holds the pieces of a translated document.
type Parts struct {
	Title          string // document title, inner HTML
	Subtitle       string // document subtitle, inner HTML
	HTMLTitle      string // document title with its heading tag
	HTMLSubtitle   string // document subtitle with its heading tag
	Docinfo        string
	BodyPreDocinfo string // title and subtitle markup
	Body           string // everything after the docinfo
	Fragment       string
	Stylesheet     string
}

type hooks struct {
	visit, depart Hook
}

type compactState struct {
	simple, fieldList, p bool
}

// Translator holds the state of one walk. A Translator must not be shared
// between goroutines.
type Translator struct {
	Settings Settings

	// Body collects output fragments.
	Body []string
	// SectionLevel is the section nesting depth of the node being visited.
	SectionLevel int
	// DocumentTitleStart is the length of Body just after the document
	// title's open tag, or 0 outside the title.
	DocumentTitleStart int

	// Compact flags decide whether paragraphs are wrapped in <p>.
	CompactSimple    bool
	CompactFieldList bool
	CompactP         bool

	hooks    map[nodes.Kind]hooks
	closes   []string
	compacts []compactState
	columns  []int
	colspecs []*nodes.Node
	// inColgroup is set between the base tgroup hook and the first
	// thead or tbody.
	inColgroup bool

	topicClasses          []string
	documentSubtitleStart int
	inDocinfo             bool
	docinfoStart          int
	title, subtitle       []string
	htmlTitle, htmlSub    []string
	bodyPreDocinfo        []string
	docinfo               []string
}

// New returns a translator with the base hooks and then the hooks of each
// extension installed.
func New(settings Settings, exts ...NodeTranslator) *Translator {
	t := &Translator{Settings: settings, hooks: make(map[nodes.Kind]hooks)}
	base{}.RegisterFuncs(t)
	for _, ext := range exts {
		ext.RegisterFuncs(t)
	}
	return t
}

// Register implements Registerer.
func (t *Translator) Register(k nodes.Kind, visit, depart Hook) {
	h := t.hooks[k]
	if visit != nil {
		h.visit = visit
	}
	if depart != nil {
		h.depart = depart
	}
	t.hooks[k] = h
}

// Translate walks doc and returns the assembled parts.
func (t *Translator) Translate(doc *nodes.Node) (Parts, error) {
	if doc.Kind != nodes.Document {
		return Parts{}, fmt.Errorf("%w: root is %s", ErrMalformedTree, doc.Kind)
	}
	convertAdmonitions(doc)
	if err := t.Walk(doc); err != nil {
		return Parts{}, err
	}
	p := Parts{
		Title:          strings.Join(t.title, ""),
		Subtitle:       strings.Join(t.subtitle, ""),
		HTMLTitle:      strings.Join(t.htmlTitle, ""),
		HTMLSubtitle:   strings.Join(t.htmlSub, ""),
		Docinfo:        strings.Join(t.docinfo, ""),
		BodyPreDocinfo: strings.Join(t.bodyPreDocinfo, ""),
		Body:           strings.Join(t.Body, ""),
	}
	p.Fragment = p.Body
	css, err := t.stylesheet()
	if err != nil {
		return Parts{}, err
	}
	p.Stylesheet = css
	return p, nil
}

// Walk renders the tree rooted at n into Body.
func (t *Translator) Walk(n *nodes.Node) error {
	return nodes.Walk(n, func(n *nodes.Node, entering bool) (nodes.WalkStatus, error) {
		h, ok := t.hooks[n.Kind]
		if !ok {
			return nodes.WalkStop, fmt.Errorf("%w: %s", ErrUnknownKind, n.Kind)
		}
		fn := h.depart
		if entering {
			fn = h.visit
		}
		if fn == nil {
			return nodes.WalkContinue, nil
		}
		return fn(t, n)
	})
}

func (t *Translator) stylesheet() (string, error) {
	switch {
	case t.Settings.EmbedStylesheet:
		var b strings.Builder
		b.WriteString("<style type=\"text/css\">\n")
		if err := highlight.WriteCSS(&b, t.Settings.HighlightStyle); err != nil {
			return "", err
		}
		b.WriteString("</style>\n")
		return b.String(), nil
	case t.Settings.StylesheetPath != "":
		return fmt.Sprintf("<link rel=\"stylesheet\" href=%q type=\"text/css\" />\n", t.Settings.StylesheetPath), nil
	}
	return "", nil
}

// Append adds fragments to Body.
func (t *Translator) Append(s ...string) {
	t.Body = append(t.Body, s...)
}

// PushClose saves a fragment for the matching depart hook.
func (t *Translator) PushClose(s string) {
	t.closes = append(t.closes, s)
}

// PopClose returns the fragment most recently pushed.
func (t *Translator) PopClose() string {
	if len(t.closes) == 0 {
		return ""
	}
	s := t.closes[len(t.closes)-1]
	t.closes = t.closes[:len(t.closes)-1]
	return s
}

// PushCompact saves the compact flags and clears CompactP.
func (t *Translator) PushCompact() {
	t.compacts = append(t.compacts, compactState{t.CompactSimple, t.CompactFieldList, t.CompactP})
	t.CompactP = false
}

// PopCompact restores the compact flags saved by PushCompact.
func (t *Translator) PopCompact() {
	if len(t.compacts) == 0 {
		return
	}
	c := t.compacts[len(t.compacts)-1]
	t.compacts = t.compacts[:len(t.compacts)-1]
	t.CompactSimple, t.CompactFieldList, t.CompactP = c.simple, c.fieldList, c.p
}

// Attr is an HTML attribute. The "class" attribute is merged with the
// node's classes.
type Attr struct {
	Key, Value string
}

// StartTag returns the opening tag for n followed by suffix. The tag carries
// n's classes, the positional "first" and "last" classes, and n's first id;
// further ids become empty spans before the tag. n may be nil.
func (t *Translator) StartTag(n *nodes.Node, tag, suffix string, attrs ...Attr) string {
	var classes []string
	if n != nil {
		classes = n.Classes
	}
	return t.tag(n, classes, tag, suffix, false, attrs)
}

// StartTagClasses is like StartTag but uses classes in place of n's own.
func (t *Translator) StartTagClasses(n *nodes.Node, classes []string, tag, suffix string, attrs ...Attr) string {
	return t.tag(n, classes, tag, suffix, false, attrs)
}

// EmptyTag is like StartTag for elements without content.
func (t *Translator) EmptyTag(n *nodes.Node, tag, suffix string, attrs ...Attr) string {
	var classes []string
	if n != nil {
		classes = n.Classes
	}
	return t.tag(n, classes, tag, suffix, true, attrs)
}

func (t *Translator) tag(n *nodes.Node, own []string, tag, suffix string, empty bool, attrs []Attr) string {
	classes := append([]string(nil), own...)
	var ids []string
	if n != nil {
		classes = append(classes, t.positional(n)...)
		ids = n.IDs
	}
	atts := make(map[string]string)
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if key == "class" {
			classes = append(classes, strings.Fields(a.Value)...)
			continue
		}
		atts[key] = a.Value
	}
	if len(classes) > 0 {
		atts["class"] = strings.Join(classes, " ")
	}
	var b strings.Builder
	if len(ids) > 0 {
		atts["id"] = ids[0]
		for _, id := range ids[1:] {
			fmt.Fprintf(&b, "<span id=\"%s\"></span>", t.Attval(id))
		}
	}
	keys := make([]string, 0, len(atts))
	for k := range atts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("<" + strings.ToLower(tag))
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=\"%s\"", k, t.Attval(atts[k]))
	}
	if empty {
		b.WriteString(" /")
	}
	b.WriteString(">")
	b.WriteString(suffix)
	return b.String()
}

// Encode escapes text for HTML content.
func (t *Translator) Encode(text string) string {
	return string(util.EscapeHTML([]byte(text)))
}

// Attval escapes an attribute value, folding whitespace to spaces.
func (t *Translator) Attval(v string) string {
	v = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\t', '\r', '\v', '\f':
			return ' '
		}
		return r
	}, v)
	return t.Encode(v)
}

// admonitionTitles are the titles given to the specific admonitions.
var admonitionTitles = map[nodes.Kind]string{
	nodes.Attention: "Attention!",
	nodes.Caution:   "Caution!",
	nodes.Danger:    "!DANGER!",
	nodes.Error:     "Error",
	nodes.Hint:      "Hint",
	nodes.Important: "Important",
	nodes.Note:      "Note",
	nodes.Tip:       "Tip",
	nodes.Warning:   "Warning",
}

// convertAdmonitions rewrites specific admonitions such as notes into
// generic admonitions classed with their kind and titled with its label.
func convertAdmonitions(doc *nodes.Node) {
	for _, n := range doc.FindAll(func(n *nodes.Node) bool { return n.Kind.IsAdmonition() && n.Kind != nodes.Admonition }) {
		title := nodes.New(nodes.Title, nodes.NewText(admonitionTitles[n.Kind]))
		n.Classes = append([]string{n.Kind.String()}, n.Classes...)
		n.Kind = nodes.Admonition
		n.Insert(0, title)
	}
}
