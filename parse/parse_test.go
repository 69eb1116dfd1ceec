// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matthewdargan/semantic-rst/internal/highlight"
	"github.com/matthewdargan/semantic-rst/nodes"
)

type parseTest struct {
	name  string
	input string
	want  string
}

var parseTests = []parseTest{
	{
		"document title",
		`Title
=====

Para.
`,
		`<document ids="title" names="title" source="test">
    <title>
        Title
    <paragraph>
        Para.
`,
	},
	{
		"sections",
		`One
===

Alpha.

Two
===

Beta.
`,
		`<document source="test">
    <section ids="one" names="one">
        <title>
            One
        <paragraph>
            Alpha.
    <section ids="two" names="two">
        <title>
            Two
        <paragraph>
            Beta.
`,
	},
	{
		"bullet list",
		`- one
- two
`,
		`<document source="test">
    <bullet_list bullet="-">
        <list_item>
            <paragraph>
                one
        <list_item>
            <paragraph>
                two
`,
	},
	{
		"enumerated list",
		`1. one
2. two
`,
		`<document source="test">
    <enumerated_list enumtype="arabic" prefix="" suffix=".">
        <list_item>
            <paragraph>
                one
        <list_item>
            <paragraph>
                two
`,
	},
	{
		"docinfo",
		`Title
=====

:Author: Me
:Version: 1

Body.
`,
		`<document ids="title" names="title" source="test">
    <title>
        Title
    <docinfo>
        <field name="author">
            <field_name>
                Author
            <field_body>
                <paragraph>
                    Me
        <field name="version">
            <field_name>
                Version
            <field_body>
                <paragraph>
                    1
    <paragraph>
        Body.
`,
	},
	{
		"literal block",
		`Code::

    x = 1
`,
		`<document source="test">
    <paragraph>
        Code:
    <literal_block>
        x = 1
`,
	},
	{
		"definition list",
		`term
  definition
`,
		`<document source="test">
    <definition_list>
        <definition_list_item>
            <term>
                term
            <definition>
                <paragraph>
                    definition
`,
	},
	{
		"simple table",
		`=====  =====
A      B
=====  =====
1      2
=====  =====
`,
		`<document source="test">
    <table>
        <tgroup cols="2">
            <colspec colwidth="5">
            <colspec colwidth="5">
            <thead>
                <row>
                    <entry>
                        <paragraph>
                            A
                    <entry>
                        <paragraph>
                            B
            <tbody>
                <row>
                    <entry>
                        <paragraph>
                            1
                    <entry>
                        <paragraph>
                            2
`,
	},
	{
		"simple table non-ascii cells",
		`=====  =====
naïve  漢字
漢字     café
=====  =====
`,
		`<document source="test">
    <table>
        <tgroup cols="2">
            <colspec colwidth="5">
            <colspec colwidth="5">
            <tbody>
                <row>
                    <entry>
                        <paragraph>
                            naïve
                    <entry>
                        <paragraph>
                            漢字
                <row>
                    <entry>
                        <paragraph>
                            漢字
                    <entry>
                        <paragraph>
                            café
`,
	},
	{
		"note",
		`.. note:: Be careful.
`,
		`<document source="test">
    <note>
        <paragraph>
            Be careful.
`,
	},
	{
		"transition",
		`First.

----

Second.
`,
		`<document source="test">
    <paragraph>
        First.
    <transition>
    <paragraph>
        Second.
`,
	},
	{
		"comment",
		`.. a comment

Para.
`,
		`<document source="test">
    <comment>
        a comment
    <paragraph>
        Para.
`,
	},
}

func parse(t *testing.T, settings Settings, input string) (*nodes.Node, []nodes.Problem) {
	t.Helper()
	doc, problems, err := New(nil, settings).ParseString(context.Background(), "test", input)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc, problems
}

func TestParse(t *testing.T) {
	for _, test := range parseTests {
		t.Run(test.name, func(t *testing.T) {
			doc, problems := parse(t, DefaultSettings(), test.input)
			if diff := cmp.Diff(test.want, nodes.Dump(doc)); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
			if len(problems) > 0 {
				t.Errorf("unexpected problems: %v", problems)
			}
		})
	}
}

func TestDoctitleDisabled(t *testing.T) {
	s := DefaultSettings()
	s.DoctitleXform = false
	doc, _ := parse(t, s, "Title\n=====\n\nPara.\n")
	if doc.Child(0).Kind != nodes.Section {
		t.Fatalf("first child = %v, want section", doc.Child(0).Kind)
	}
	if len(doc.IDs) != 0 {
		t.Errorf("document ids = %v, want none", doc.IDs)
	}
}

func TestSubtitle(t *testing.T) {
	doc, _ := parse(t, DefaultSettings(), `Title
=====

Sub
---

Para.
`)
	want := []nodes.Kind{nodes.Title, nodes.Subtitle, nodes.Paragraph}
	var got []nodes.Kind
	for _, c := range doc.Children {
		got = append(got, c.Kind)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if sub := doc.Child(1); sub.AsText() != "Sub" || len(sub.IDs) == 0 {
		t.Errorf("subtitle = %q ids %v", sub.AsText(), sub.IDs)
	}
}

func TestSectionSubtitle(t *testing.T) {
	s := DefaultSettings()
	s.DoctitleXform = false
	s.SectsubtitleXform = true
	doc, _ := parse(t, s, `Title
=====

Sub
---

Para.
`)
	sec := doc.Child(0)
	if sec.Kind != nodes.Section || sec.Child(1).Kind != nodes.Subtitle {
		t.Fatalf("got tree:\n%s", nodes.Dump(doc))
	}
}

func TestReferences(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), `See Python_ and `+"`the docs`_"+` and `+"`Go <https://go.dev>`_"+`.

.. _Python: https://python.org
.. _the docs: Python_
`)
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	refs := doc.FindAll(isKind(nodes.Reference))
	want := []string{"https://python.org", "https://python.org", "https://go.dev"}
	if len(refs) != len(want) {
		t.Fatalf("got %d references, want %d", len(refs), len(want))
	}
	for i, r := range refs {
		if got := r.Get("refuri"); got != want[i] {
			t.Errorf("reference %d refuri = %q, want %q", i, got, want[i])
		}
		if r.Has("refname") {
			t.Errorf("reference %d still has refname %q", i, r.Get("refname"))
		}
	}
}

func TestInternalTarget(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), `Go to here_.

.. _here:

Target paragraph.
`)
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	para := doc.Child(-1)
	if para.Kind != nodes.Paragraph || len(para.IDs) != 1 || para.IDs[0] != "here" {
		t.Fatalf("target paragraph ids = %v", para.IDs)
	}
	r := doc.Find(isKind(nodes.Reference))
	if got := r.Get("refid"); got != "here" {
		t.Errorf("refid = %q, want here", got)
	}
}

func TestAnonymousReferences(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), `First__ and second__.

.. __: https://one.example
.. __: https://two.example
`)
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	refs := doc.FindAll(isKind(nodes.Reference))
	if len(refs) != 2 || refs[0].Get("refuri") != "https://one.example" || refs[1].Get("refuri") != "https://two.example" {
		t.Errorf("got tree:\n%s", nodes.Dump(doc))
	}
}

func TestUnknownReference(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), "nope_\n")
	if len(problems) != 1 || problems[0].Level != nodes.LevelError {
		t.Fatalf("problems = %v", problems)
	}
	if want := `Unknown target name: "nope".`; problems[0].Message != want {
		t.Errorf("message = %q, want %q", problems[0].Message, want)
	}
	if doc.Find(isKind(nodes.Problematic)) == nil {
		t.Errorf("no problematic node in:\n%s", nodes.Dump(doc))
	}
}

func TestFootnotes(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), `Note [#]_ and [2]_.

.. [#] First.
.. [2] Second.
`)
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	refs := doc.FindAll(isKind(nodes.FootnoteReference))
	notes := doc.FindAll(isKind(nodes.Footnote))
	if len(refs) != 2 || len(notes) != 2 {
		t.Fatalf("got tree:\n%s", nodes.Dump(doc))
	}
	for i, fn := range notes {
		r := refs[i]
		if r.Get("refid") != fn.IDs[0] {
			t.Errorf("reference %d refid = %q, want %q", i, r.Get("refid"), fn.IDs[0])
		}
		if diff := cmp.Diff(r.IDs, fn.Backrefs); diff != "" {
			t.Errorf("footnote %d backrefs (-ref ids +backrefs):\n%s", i, diff)
		}
	}
	if got := notes[0].Child(0).AsText(); got != "1" {
		t.Errorf("auto label = %q, want 1", got)
	}
	if got := refs[0].AsText(); got != "1" {
		t.Errorf("auto reference text = %q, want 1", got)
	}
}

func TestCitations(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), `See [CIT2002]_.

.. [CIT2002] A citation.
`)
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	r := doc.Find(isKind(nodes.CitationReference))
	c := doc.Find(isKind(nodes.Citation))
	if r == nil || c == nil || r.Get("refid") != c.IDs[0] || len(c.Backrefs) != 1 {
		t.Errorf("got tree:\n%s", nodes.Dump(doc))
	}
}

func TestContents(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), `.. contents::

One
===

Two
===
`)
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	topic := doc.Find(isKind(nodes.Topic))
	want := `<topic classes="contents" ids="contents" names="contents">
    <title>
        Contents
    <bullet_list>
        <list_item>
            <paragraph>
                <reference ids="toc-entry-1" refid="one">
                    One
        <list_item>
            <paragraph>
                <reference ids="toc-entry-2" refid="two">
                    Two
`
	if diff := cmp.Diff(want, nodes.Dump(topic)); diff != "" {
		t.Errorf("contents mismatch (-want +got):\n%s", diff)
	}
	title := doc.Child(1).Child(0)
	if got := title.Get("refid"); got != "toc-entry-1" {
		t.Errorf("section title refid = %q, want toc-entry-1", got)
	}
}

func TestContentsBacklinksNone(t *testing.T) {
	s := DefaultSettings()
	s.TocBacklinks = "none"
	doc, _ := parse(t, s, ".. contents::\n\nOne\n===\n\nTwo\n===\n")
	for _, title := range doc.FindAll(isKind(nodes.Title)) {
		if title.Has("refid") {
			t.Errorf("title %q has refid %q", title.AsText(), title.Get("refid"))
		}
	}
}

func TestContentsWithoutSections(t *testing.T) {
	doc, _ := parse(t, DefaultSettings(), ".. contents::\n\nPara.\n")
	if doc.Find(isKind(nodes.Topic)) != nil {
		t.Errorf("empty contents kept:\n%s", nodes.Dump(doc))
	}
}

func TestCodeDirective(t *testing.T) {
	s := DefaultSettings()
	s.SyntaxHighlight = highlight.Short
	doc, problems := parse(t, s, ".. code:: go\n\n   x := 1\n")
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	lb := doc.Find(isKind(nodes.LiteralBlock))
	if lb == nil {
		t.Fatalf("no literal block:\n%s", nodes.Dump(doc))
	}
	if diff := cmp.Diff([]string{"code", "go"}, lb.Classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if got := lb.AsText(); got != "x := 1" {
		t.Errorf("code text = %q, want %q", got, "x := 1")
	}
	if lb.Find(isKind(nodes.Inline)) == nil {
		t.Errorf("no highlighted tokens:\n%s", nodes.Dump(lb))
	}
}

func TestCodeDirectiveUnknownLanguage(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), ".. code:: nosuchlanguage\n\n   x\n")
	if len(problems) != 1 || problems[0].Level != nodes.LevelWarning {
		t.Fatalf("problems = %v", problems)
	}
	if lb := doc.Find(isKind(nodes.LiteralBlock)); lb == nil || lb.AsText() != "x" {
		t.Errorf("got tree:\n%s", nodes.Dump(doc))
	}
}

func TestRawDirective(t *testing.T) {
	doc, _ := parse(t, DefaultSettings(), ".. raw:: html\n\n   <hr>\n")
	raw := doc.Find(isKind(nodes.Raw))
	if raw == nil || raw.Get("format") != "html" || raw.Text != "<hr>" {
		t.Errorf("got tree:\n%s", nodes.Dump(doc))
	}
}

func TestDirectiveOptions(t *testing.T) {
	doc, problems := parse(t, DefaultSettings(), `.. admonition:: Heads Up
   :class: custom

   Body.
`)
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	ad := doc.Find(isKind(nodes.Admonition))
	if ad == nil || !ad.HasClass("custom") || ad.HasClass("admonition-heads-up") {
		t.Errorf("got tree:\n%s", nodes.Dump(doc))
	}
}

func TestProblems(t *testing.T) {
	tests := []struct {
		name  string
		input string
		level nodes.Level
		msg   string
	}{
		{"unknown role", ":bogus:`x`\n", nodes.LevelError, `Unknown interpreted text role "bogus".`},
		{"unknown directive", ".. nosuch::\n", nodes.LevelError, `Unknown directive type "nosuch".`},
		{"unterminated emphasis", "*open\n", nodes.LevelWarning, "Inline emphasis start-string without end-string."},
		{"literal block expected", "Para::\n\nNext.\n", nodes.LevelWarning, "Literal block expected; none found."},
		{"unexpected indentation", "Para\ncontinues.\n   indented\n", nodes.LevelError, "Unexpected indentation."},
		{"short underline", "Title text\n=====\n", nodes.LevelWarning, "Title underline too short."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, problems := parse(t, DefaultSettings(), tt.input)
			if len(problems) == 0 {
				t.Fatal("no problems reported")
			}
			p := problems[0]
			if p.Level != tt.level || p.Message != tt.msg {
				t.Errorf("got %v, want (%s) %s", p, tt.level, tt.msg)
			}
		})
	}
}

func TestHalt(t *testing.T) {
	s := DefaultSettings()
	s.HaltLevel = nodes.LevelWarning
	doc, problems, err := New(nil, s).ParseString(context.Background(), "test", ".. nosuch::\n\nPara.\n")
	if !errors.Is(err, ErrHalt) {
		t.Fatalf("err = %v, want ErrHalt", err)
	}
	if len(problems) != 1 {
		t.Errorf("problems = %v", problems)
	}
	if doc.Find(isKind(nodes.Paragraph)) != nil {
		t.Errorf("parsing continued after halt:\n%s", nodes.Dump(doc))
	}
}

func TestParseCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(nil, DefaultSettings()).Parse(ctx, "test", strings.NewReader("Para.\n"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRoles(t *testing.T) {
	roles := NewRoles()
	roles.Register(Wrap(nodes.Strong), "loud")
	doc, problems, err := New(roles, DefaultSettings()).ParseString(context.Background(), "test", ":loud:`hey` `title` :code:`x`\n")
	if err != nil || len(problems) > 0 {
		t.Fatalf("err = %v, problems = %v", err, problems)
	}
	para := doc.Child(0)
	var kinds []nodes.Kind
	for _, c := range para.Children {
		if c.Kind != nodes.Text {
			kinds = append(kinds, c.Kind)
		}
	}
	want := []nodes.Kind{nodes.Strong, nodes.TitleReference, nodes.Literal}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("inline kinds mismatch (-want +got):\n%s", diff)
	}
	if !para.Child(-1).HasClass("code") {
		t.Errorf("code role missing class: %s", nodes.Dump(para))
	}
}
