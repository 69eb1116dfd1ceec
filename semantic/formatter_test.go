// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package semantic

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/parse"
)

func settings() html.Settings {
	s := html.DefaultSettings()
	s.EmbedStylesheet = false
	return s
}

func parseDoc(t *testing.T, src string) *nodes.Node {
	t.Helper()
	roles := parse.NewRoles()
	roles.Register(KeyboardRole, "kbd")
	doc, problems, err := parse.New(roles, parse.DefaultSettings()).ParseString(context.Background(), "test", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if nodes.MaxLevel(problems) > nodes.LevelInfo {
		t.Fatalf("unexpected problems: %v", problems)
	}
	return doc
}

func translate(t *testing.T, s html.Settings, doc *nodes.Node) html.Parts {
	t.Helper()
	parts, err := html.New(s, Formatter{}).Translate(doc)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	return parts
}

func render(t *testing.T, s html.Settings, src string) html.Parts {
	t.Helper()
	return translate(t, s, parseDoc(t, src))
}

// walk renders n alone and returns the output.
func walk(t *testing.T, n *nodes.Node) string {
	t.Helper()
	tr := html.New(settings(), Formatter{})
	if err := tr.Walk(n); err != nil {
		t.Fatalf("walk: %v", err)
	}
	return strings.Join(tr.Body, "")
}

func literal(text string, classes ...string) *nodes.Node {
	n := nodes.New(nodes.Literal, nodes.NewText(text))
	n.Classes = classes
	return n
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		text    string
		want    string
	}{
		{"code", []string{"code"}, "x=1", "<code>x=1</code>"},
		{"kbd", []string{"kbd"}, "Ctrl+C", "<kbd>Ctrl+C</kbd>"},
		{"default", nil, "plain", "<code>plain</code>"},
		{"code keeps other classes", []string{"code", "go"}, "f()", `<code class="go">f()</code>`},
		{"kbd keeps other classes", []string{"wide", "kbd"}, "Esc", `<kbd class="wide">Esc</kbd>`},
		{"code wins over kbd", []string{"kbd", "code"}, "k", `<code class="kbd">k</code>`},
		{"unknown marker", []string{"custom"}, "c", `<code class="custom">c</code>`},
		{"escaped", []string{"code"}, "a<b", "<code>a&lt;b</code>"},
	}
	for _, tt := range tests {
		n := literal(tt.text, tt.classes...)
		before := slices.Clone(n.Classes)
		if got := walk(t, n); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
		if diff := cmp.Diff(before, n.Classes); diff != "" {
			t.Errorf("%s: classes changed (-before +after):\n%s", tt.name, diff)
		}
	}
}

func TestKeyboardRole(t *testing.T) {
	out, err := KeyboardRole("kbd", "Ctrl+C")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d nodes, want 1", len(out))
	}
	n := out[0]
	if n.Kind != nodes.Literal || !n.HasClass("kbd") || n.AsText() != "Ctrl+C" {
		t.Errorf("got %s", nodes.Dump(n))
	}
	if got, want := walk(t, n), "<kbd>Ctrl+C</kbd>"; got != want {
		t.Errorf("rendered %q, want %q", got, want)
	}
}

func TestKeyboardRoleInDocument(t *testing.T) {
	parts := render(t, settings(), "Press :kbd:`Ctrl+C` to copy.\n")
	if want := "<p>Press <kbd>Ctrl+C</kbd> to copy.</p>\n"; parts.Body != want {
		t.Errorf("body = %q, want %q", parts.Body, want)
	}
}

func TestSectionsFlattened(t *testing.T) {
	s := settings()
	s.InitialHeaderLevel = 2
	parts := render(t, s, "Intro.\n\nOne\n===\n\nText.\n\nTwo\n---\n\nMore.\n")
	want := `<p>Intro.</p>
<h2 id="one">One</h2>
<p>Text.</p>
<h3 id="two">Two</h3>
<p>More.</p>
`
	if diff := cmp.Diff(want, parts.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

// nested returns a document holding depth nested sections, each titled with
// its depth.
func nested(depth int) *nodes.Node {
	doc := nodes.New(nodes.Document)
	parent := doc
	for d := 1; d <= depth; d++ {
		sec := nodes.New(nodes.Section, nodes.New(nodes.Title, nodes.NewText(fmt.Sprint(d))))
		sec.IDs = []string{fmt.Sprintf("s%d", d)}
		parent.Append(sec)
		parent = sec
	}
	return doc
}

func TestHeadingLevels(t *testing.T) {
	for level := 1; level <= 3; level++ {
		for depth := 1; depth <= 3; depth++ {
			s := settings()
			s.InitialHeaderLevel = level
			tr := html.New(s, Formatter{})
			if err := tr.Walk(nested(depth)); err != nil {
				t.Fatal(err)
			}
			h := depth + level - 1
			want := fmt.Sprintf("<h%d id=\"s%d\">%d</h%d>\n", h, depth, depth, h)
			if got := tr.Body[len(tr.Body)-3:]; strings.Join(got, "") != want {
				t.Errorf("L=%d d=%d: got %q, want %q", level, depth, strings.Join(got, ""), want)
			}
		}
	}
}

func TestHeadingLevelClamped(t *testing.T) {
	s := settings()
	s.InitialHeaderLevel = 6
	tr := html.New(s, Formatter{})
	if err := tr.Walk(nested(3)); err != nil {
		t.Fatal(err)
	}
	out := strings.Join(tr.Body, "")
	if strings.Contains(out, "<h7") || strings.Contains(out, "<h8") {
		t.Errorf("heading level above 6:\n%s", out)
	}
	if !strings.Contains(out, `<h6 id="s3">3</h6>`) {
		t.Errorf("deepest heading not h6:\n%s", out)
	}
}

func TestSectionLevelRestored(t *testing.T) {
	tr := html.New(settings(), Formatter{})
	tr.SectionLevel = 5
	if err := tr.Walk(nested(4)); err != nil {
		t.Fatal(err)
	}
	if tr.SectionLevel != 5 {
		t.Errorf("SectionLevel = %d after walk, want 5", tr.SectionLevel)
	}
}

func TestTocBackref(t *testing.T) {
	title := nodes.New(nodes.Title, nodes.NewText("T"))
	title.Set("refid", "r1")
	sec := nodes.New(nodes.Section, title)
	sec.IDs = []string{"t"}
	tr := html.New(settings(), Formatter{})
	if err := tr.Walk(nodes.New(nodes.Document, sec)); err != nil {
		t.Fatal(err)
	}
	want := `<h1 id="t"><a class="toc-backref" href="#r1">T</a></h1>` + "\n"
	if got := strings.Join(tr.Body, ""); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestContentsBackrefs(t *testing.T) {
	parts := render(t, settings(), ".. contents::\n\nOne\n===\n\nTwo\n===\n")
	for _, want := range []string{
		`<h1 id="one"><a class="toc-backref" href="#toc-entry-1">One</a></h1>`,
		`<h1 id="two"><a class="toc-backref" href="#toc-entry-2">Two</a></h1>`,
		`<p class="topic-title first">Contents</p>`,
		`<a class="reference internal" href="#one" id="toc-entry-1">One</a>`,
	} {
		if !strings.Contains(parts.Body, want) {
			t.Errorf("body lacks %q:\n%s", want, parts.Body)
		}
	}
	if strings.Contains(parts.Body, `class="section"`) {
		t.Errorf("section wrapper emitted:\n%s", parts.Body)
	}
}

func TestSubtitleClass(t *testing.T) {
	title := nodes.New(nodes.Title, nodes.NewText("T"))
	sec := nodes.New(nodes.Section, title, nodes.New(nodes.Subtitle, nodes.NewText("S")))
	tr := html.New(settings(), Formatter{})
	if err := tr.Walk(nodes.New(nodes.Document, sec)); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(tr.Body, ""); !strings.HasPrefix(got, `<h1 class="with-subtitle">T</h1>`) {
		t.Errorf("got %q", got)
	}
}

func TestEnumeratedListStart(t *testing.T) {
	parts := render(t, settings(), "3. three\n4. four\n")
	want := `<ol start="3">
<li><p class="first">three</p>
</li>
<li><p class="first">four</p>
</li>
</ol>
`
	if diff := cmp.Diff(want, parts.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
	parts = render(t, settings(), "- one\n")
	if !strings.HasPrefix(parts.Body, "<ul>\n") || !strings.HasSuffix(parts.Body, "</ul>\n") {
		t.Errorf("bullet list = %q", parts.Body)
	}
}

func TestDefinitionListAndTransition(t *testing.T) {
	parts := render(t, settings(), "term\n   definition\n\n----\n\nAfter.\n")
	for _, want := range []string{"<dl>\n<dt>term</dt>\n", "</dl>\n", "<hr>\n"} {
		if !strings.Contains(parts.Body, want) {
			t.Errorf("body lacks %q:\n%s", want, parts.Body)
		}
	}
}

const table = `=====  =====
A      B
=====  =====
1      2
=====  =====
`

func TestTableStyle(t *testing.T) {
	s := settings()
	s.TableStyle = "docutils, mytable"
	parts := render(t, s, table)
	if !strings.HasPrefix(parts.Body, "<table class=\"docutils mytable\">\n<thead>\n<tr>") {
		t.Errorf("table open = %q", parts.Body)
	}
	for _, unwanted := range []string{"<colgroup", "<col ", "valign", "border"} {
		if strings.Contains(parts.Body, unwanted) {
			t.Errorf("body contains %q:\n%s", unwanted, parts.Body)
		}
	}
	if !strings.Contains(parts.Body, "</thead>\n<tbody>\n") || !strings.HasSuffix(parts.Body, "</tbody>\n</table>\n") {
		t.Errorf("table sections wrong:\n%s", parts.Body)
	}
	if !strings.Contains(parts.Body, `<th class="head">`) {
		t.Errorf("header cells missing:\n%s", parts.Body)
	}
}

func TestTableWithoutStyle(t *testing.T) {
	parts := render(t, settings(), table)
	if !strings.HasPrefix(parts.Body, "<table>\n") {
		t.Errorf("table open = %q", parts.Body)
	}
}

func TestDocumentTitle(t *testing.T) {
	var start int
	var before string
	hook := textHook(func(tr *html.Translator) {
		if tr.DocumentTitleStart > 0 && start == 0 {
			start = tr.DocumentTitleStart
			before = tr.Body[start-1]
		}
	})
	doc := parseDoc(t, "Hello\n=====\n\nBody.\n")
	parts, err := html.New(settings(), Formatter{}, hook).Translate(doc)
	if err != nil {
		t.Fatal(err)
	}
	if want := "<h1 class=\"title\">Hello</h1>\n"; parts.HTMLTitle != want {
		t.Errorf("HTMLTitle = %q, want %q", parts.HTMLTitle, want)
	}
	if parts.Title != "Hello" {
		t.Errorf("Title = %q, want Hello", parts.Title)
	}
	if start != 1 || before != `<h1 class="title">` {
		t.Errorf("title start = %d preceded by %q", start, before)
	}
	if parts.Body != "<p>Body.</p>\n" {
		t.Errorf("Body = %q", parts.Body)
	}
}

// textHook renders text as usual and calls fn first.
type textHook func(*html.Translator)

func (p textHook) RegisterFuncs(r html.Registerer) {
	r.Register(nodes.Text, func(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
		p(t)
		t.Append(t.Encode(n.Text))
		return nodes.WalkSkipChildren, nil
	}, nil)
}

func TestAdmonitionTitle(t *testing.T) {
	parts := render(t, settings(), ".. note:: Careful.\n\n.. admonition:: Heads up\n\n   Look.\n")
	for _, want := range []string{
		"<div class=\"admonition note\">\n<p class=\"first admonition-title\">Note</p>\n",
		"<div class=\"admonition admonition-heads-up\">\n<p class=\"first admonition-title\">Heads up</p>\n",
	} {
		if !strings.Contains(parts.Body, want) {
			t.Errorf("body lacks %q:\n%s", want, parts.Body)
		}
	}
}

func TestTableCaption(t *testing.T) {
	src := ".. table:: Caption\n\n" + indent(table, "   ")
	parts := render(t, settings(), src)
	if want := "<table>\n<caption>Caption</caption>\n<thead>\n"; !strings.HasPrefix(parts.Body, want) {
		t.Errorf("body = %q, want prefix %q", parts.Body, want)
	}
}

func TestSidebarTitle(t *testing.T) {
	parts := render(t, settings(), ".. sidebar:: Side\n\n   Aside.\n")
	want := "<div class=\"sidebar\">\n<p class=\"first sidebar-title\">Side</p>\n"
	if !strings.HasPrefix(parts.Body, want) {
		t.Errorf("body = %q, want prefix %q", parts.Body, want)
	}
}

// indent prefixes every non-empty line of s.
func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "")
}

func TestMalformedTitle(t *testing.T) {
	doc := nodes.New(nodes.Document, nodes.New(nodes.Paragraph, nodes.New(nodes.Title, nodes.NewText("x"))))
	_, err := html.New(settings(), Formatter{}).Translate(doc)
	if !errors.Is(err, html.ErrMalformedTree) {
		t.Errorf("err = %v, want ErrMalformedTree", err)
	}
}

func TestFieldListCompact(t *testing.T) {
	doc := parseDoc(t, "Para.\n\n:a: one\n:b: two\n")
	parts := translate(t, settings(), doc)
	want := `<p>Para.</p>
<table class="docutils field-list">
<tbody>
<tr class="field"><th class="field-name">a:</th><td class="field-body">one</td>
</tr>
<tr class="field"><th class="field-name">b:</th><td class="field-body">two</td>
</tr>
</tbody>
</table>
`
	if diff := cmp.Diff(want, parts.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
	if fl := doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.FieldList }); !fl.Compact {
		t.Error("field list not marked compact")
	}
}

func TestFieldListNotCompact(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		setup func(doc *nodes.Node, s *html.Settings)
	}{
		{"open class", "Para.\n\n:a: one\n", func(doc *nodes.Node, _ *html.Settings) {
			doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.FieldList }).AddClass("open")
		}},
		{"setting off", "Para.\n\n:a: one\n", func(_ *nodes.Node, s *html.Settings) {
			s.CompactFieldLists = false
		}},
		{"two paragraphs", "Para.\n\n:a: one\n\n   two\n", func(*nodes.Node, *html.Settings) {}},
	}
	for _, tt := range tests {
		doc := parseDoc(t, tt.src)
		s := settings()
		tt.setup(doc, &s)
		parts := translate(t, s, doc)
		if !strings.Contains(parts.Body, `<td class="field-body"><p class="first`) {
			t.Errorf("%s: field body not wrapped:\n%s", tt.name, parts.Body)
		}
		if fl := doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.FieldList }); fl.Compact {
			t.Errorf("%s: field list marked compact", tt.name)
		}
	}
}

func TestFieldListForcedCompact(t *testing.T) {
	doc := parseDoc(t, "Para.\n\n:a: one\n")
	doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.FieldList }).AddClass("compact")
	s := settings()
	s.CompactFieldLists = false
	parts := translate(t, s, doc)
	if !strings.Contains(parts.Body, `<td class="field-body">one</td>`) {
		t.Errorf("compact class ignored:\n%s", parts.Body)
	}
}

func TestFootnotes(t *testing.T) {
	doc := parseDoc(t, "Note [1]_ and [CIT]_.\n\n.. [1] First.\n.. [CIT] Cited.\n")
	ref := doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.FootnoteReference })
	fn := doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.Footnote })
	cit := doc.Find(func(n *nodes.Node) bool { return n.Kind == nodes.Citation })
	parts := translate(t, settings(), doc)
	for _, want := range []string{
		fmt.Sprintf("<table class=\"docutils footnote\" id=\"%s\">\n<tbody>\n<tr><td class=\"label\"><a class=\"fn-backref\" href=\"#%s\">[1]</a></td><td>", fn.IDs[0], ref.IDs[0]),
		fmt.Sprintf("<table class=\"docutils citation\" id=\"%s\">\n<tbody>\n<tr>", cit.IDs[0]),
		"</td></tr>\n</tbody>\n</table>\n",
	} {
		if !strings.Contains(parts.Body, want) {
			t.Errorf("body lacks %q:\n%s", want, parts.Body)
		}
	}
	if strings.Contains(parts.Body, "<colgroup>") {
		t.Errorf("footnote column group emitted:\n%s", parts.Body)
	}
}

const rich = `Guide
=====

:Author: Me

.. contents::

Install
-------

Press :kbd:` + "`Ctrl+C`" + ` and run ` + "``make``" + ` [1]_.

.. code:: go

   fmt.Println("hi")

.. note:: Careful.

Usage
-----

3. three
4. four

=====  =====
A      B
=====  =====
1      2
=====  =====

:a: one
:b: two

.. [1] Footnote.
`

func TestIdempotent(t *testing.T) {
	s := settings()
	s.TableStyle = "docutils, mytable"
	doc := parseDoc(t, rich)
	first := translate(t, s, doc)
	second := translate(t, s, doc)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second walk differs (-first +second):\n%s", diff)
	}
	fresh := render(t, s, rich)
	if diff := cmp.Diff(first, fresh); diff != "" {
		t.Errorf("walk of a fresh tree differs (-first +fresh):\n%s", diff)
	}
}

func TestBaseKeepsColgroup(t *testing.T) {
	doc := parseDoc(t, table)
	parts, err := html.New(settings()).Translate(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(parts.Body, "<colgroup>") {
		t.Errorf("base translator lost the column group:\n%s", parts.Body)
	}
}
