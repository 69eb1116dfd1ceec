// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package semantic renders reStructuredText as HTML5-leaning markup.
//
// The [Formatter] replaces a handful of the base translator hooks: literals
// become <code> or <kbd>, sections lose their wrapping element and only
// affect heading levels, and tables drop their column groups. [Register]
// installs the :kbd: role and binds the semantic reader to the "rst"
// extension.
package semantic

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matthewdargan/semantic-rst/html"
	"github.com/matthewdargan/semantic-rst/nodes"
)

// Formatter installs the semantic hooks on a translator.
type Formatter struct{}

// RegisterFuncs implements html.NodeTranslator. A nil hook keeps the base
// behavior for that half.
func (Formatter) RegisterFuncs(r html.Registerer) {
	r.Register(nodes.Literal, visitLiteral, departClose)
	r.Register(nodes.Section, visitSection, departSection)
	r.Register(nodes.Title, visitTitle, nil)
	r.Register(nodes.EnumeratedList, visitEnumeratedList, appendText("</ol>\n"))
	r.Register(nodes.BulletList, visitBulletList, appendText("</ul>\n"))
	r.Register(nodes.DefinitionList, visitDefinitionList, nil)
	r.Register(nodes.Transition, visitTransition, nil)
	r.Register(nodes.Table, visitTable, appendText("</table>\n"))
	r.Register(nodes.Tgroup, visitTgroup, nil)
	r.Register(nodes.Thead, tag("thead"), nil)
	r.Register(nodes.Tbody, tag("tbody"), nil)
	r.Register(nodes.FieldList, visitFieldList, nil)
	r.Register(nodes.Footnote, visitFootnote("docutils footnote"), nil)
	r.Register(nodes.Citation, visitFootnote("docutils citation"), nil)
}

func appendText(s string) html.Hook {
	return func(t *html.Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(s)
		return nodes.WalkContinue, nil
	}
}

func tag(name string) html.Hook {
	return func(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(t.StartTag(n, name, "\n"))
		return nodes.WalkContinue, nil
	}
}

func departClose(t *html.Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.PopClose())
	return nodes.WalkContinue, nil
}

// literalTag picks the element for a literal and the classes it keeps.
// The marker class is dropped from a copy, so the tree is unchanged.
func literalTag(n *nodes.Node) (name string, classes []string) {
	without := func(marker string) []string {
		return slices.DeleteFunc(slices.Clone(n.Classes), func(c string) bool { return c == marker })
	}
	switch {
	case n.HasClass("code"):
		return "code", without("code")
	case n.HasClass("kbd"):
		return "kbd", without("kbd")
	}
	return "code", n.Classes
}

func visitLiteral(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	name, classes := literalTag(n)
	t.Append(t.StartTagClasses(n, classes, name, ""))
	t.PushClose("</" + name + ">")
	return nodes.WalkContinue, nil
}

func visitSection(t *html.Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.SectionLevel++
	return nodes.WalkContinue, nil
}

func departSection(t *html.Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.SectionLevel--
	return nodes.WalkContinue, nil
}

// titleTags returns the open and close fragments of title n, chosen by the
// kind of its parent.
func titleTags(t *html.Translator, n *nodes.Node) (open, close string, err error) {
	p := n.Parent
	if p == nil {
		return "", "", fmt.Errorf("%w: title without parent", html.ErrMalformedTree)
	}
	switch p.Kind {
	case nodes.Topic:
		return t.StartTag(n, "p", "", html.Attr{Key: "class", Value: "topic-title first"}), "</p>\n", nil
	case nodes.Sidebar:
		return t.StartTag(n, "p", "", html.Attr{Key: "class", Value: "sidebar-title"}), "</p>\n", nil
	case nodes.Admonition, nodes.Attention, nodes.Caution, nodes.Danger, nodes.Error,
		nodes.Hint, nodes.Important, nodes.Note, nodes.Tip, nodes.Warning:
		return t.StartTag(n, "p", "", html.Attr{Key: "class", Value: "admonition-title"}), "</p>\n", nil
	case nodes.Table:
		return t.StartTag(n, "caption", ""), "</caption>\n", nil
	case nodes.Document:
		return t.StartTag(n, "h1", "", html.Attr{Key: "class", Value: "title"}), "</h1>\n", nil
	case nodes.Section:
		if len(p.IDs) > 0 {
			n.IDs = slices.Clone(p.IDs)
		}
		attrs, inner, close := t.SectionHeading(n)
		return t.StartTag(n, fmt.Sprintf("h%d", t.HeadingLevel()), "", attrs...) + inner, close, nil
	}
	return "", "", fmt.Errorf("%w: title in %s", html.ErrMalformedTree, p.Kind)
}

func visitTitle(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	open, close, err := titleTags(t, n)
	if err != nil {
		return nodes.WalkStop, err
	}
	t.Append(open)
	if n.Parent.Kind == nodes.Document {
		t.DocumentTitleStart = len(t.Body)
	}
	t.PushClose(close)
	return nodes.WalkContinue, nil
}

func visitEnumeratedList(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	var attrs []html.Attr
	if start := n.Get("start"); start != "" {
		attrs = append(attrs, html.Attr{Key: "start", Value: start})
	}
	t.Append(t.StartTag(n, "ol", "\n", attrs...))
	return nodes.WalkContinue, nil
}

func visitBulletList(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "ul", "\n"))
	return nodes.WalkContinue, nil
}

func visitDefinitionList(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "dl", "\n"))
	return nodes.WalkContinue, nil
}

func visitTransition(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "hr", "\n"))
	return nodes.WalkSkipChildren, nil
}

func visitTable(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	var attrs []html.Attr
	if classes := html.TableClasses(t.Settings.TableStyle); len(classes) > 0 {
		attrs = append(attrs, html.Attr{Key: "class", Value: strings.Join(classes, " ")})
	}
	t.Append(t.StartTag(n, "table", "\n", attrs...))
	return nodes.WalkContinue, nil
}

// visitTgroup leaves stub bookkeeping to the colspecs and opens no column
// group.
func visitTgroup(_ *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	n.Stubs = []bool{}
	return nodes.WalkContinue, nil
}

func visitFieldList(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.PushCompact()
	switch {
	case n.HasClass("compact"):
		t.CompactFieldList = true
	case t.Settings.CompactFieldLists && !n.HasClass("open"):
		t.CompactFieldList = true
	}
	if t.CompactFieldList {
		t.CompactFieldList = html.FieldListCompact(n)
	}
	n.Compact = t.CompactFieldList
	t.Append(t.StartTag(n, "table", "\n", html.Attr{Key: "class", Value: "docutils field-list"}))
	t.Append("<tbody>\n")
	return nodes.WalkContinue, nil
}

func visitFootnote(class string) html.Hook {
	return func(t *html.Translator, n *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(t.StartTag(n, "table", "\n", html.Attr{Key: "class", Value: class}))
		t.Append("<tbody>\n<tr>")
		t.FootnoteBackrefs(n)
		return nodes.WalkContinue, nil
	}
}
