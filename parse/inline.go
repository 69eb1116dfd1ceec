// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"strings"

	"github.com/matthewdargan/semantic-rst/nodes"
)

// paragraph returns a paragraph holding the inline markup of text.
func (s *state) paragraph(text string, line int) *nodes.Node {
	p := nodes.New(nodes.Paragraph, s.inline(text, line)...)
	p.Line = line
	return p
}

// inline parses inline markup starting on the given line.
func (s *state) inline(text string, line int) []*nodes.Node {
	var out []*nodes.Node
	l := lex(s.name, text, line)
	for _, it := range l.items() {
		out = append(out, s.inlineItem(it)...)
	}
	return mergeText(out)
}

func (s *state) inlineItem(it item) []*nodes.Node {
	switch it.typ {
	case itemText:
		return []*nodes.Node{nodes.NewText(unescape(it.val))}
	case itemLiteral:
		return []*nodes.Node{nodes.New(nodes.Literal, nodes.NewText(it.val))}
	case itemEmphasis:
		return []*nodes.Node{nodes.New(nodes.Emphasis, nodes.NewText(unescape(it.val)))}
	case itemStrong:
		return []*nodes.Node{nodes.New(nodes.Strong, nodes.NewText(unescape(it.val)))}
	case itemInterpreted:
		return s.interpreted(it)
	case itemReference, itemNamedRef:
		return []*nodes.Node{reference(it)}
	case itemFootnoteRef:
		return []*nodes.Node{footnoteReference(it.val)}
	case itemError:
		s.report(nodes.LevelWarning, it.line, "%s", it.ref)
		return []*nodes.Node{nodes.New(nodes.Problematic, nodes.NewText(it.val))}
	}
	return nil
}

// interpreted applies the role of interpreted text.
func (s *state) interpreted(it item) []*nodes.Node {
	raw := "`" + it.val + "`"
	if it.role != "" {
		raw = ":" + it.role + ":" + raw
	}
	name := it.role
	if name == "" {
		name = s.p.Roles.Default
	}
	fn, ok := s.p.Roles.Lookup(name)
	if !ok {
		s.report(nodes.LevelError, it.line, "%s", errUnknownRole(name))
		return []*nodes.Node{nodes.New(nodes.Problematic, nodes.NewText(raw))}
	}
	out, err := fn(strings.ToLower(name), unescape(it.val))
	if err != nil {
		s.report(nodes.LevelError, it.line, "%s", err)
		return []*nodes.Node{nodes.New(nodes.Problematic, nodes.NewText(raw))}
	}
	for _, n := range out {
		n.Line = it.line
	}
	return out
}

// reference builds a reference to a URI, a named target or the next
// anonymous target.
func reference(it item) *nodes.Node {
	text := unescape(it.val)
	ref := nodes.New(nodes.Reference, nodes.NewText(text))
	ref.Line = it.line
	ref.Set("name", text)
	switch {
	case it.ref != "":
		ref.Set("refuri", unescape(it.ref))
	case it.anon:
		ref.Set("anonymous", "1")
	default:
		ref.Set("refname", normalizeName(text))
	}
	return ref
}

// footnoteReference builds a reference to a footnote or citation label.
func footnoteReference(label string) *nodes.Node {
	switch {
	case numberRE.MatchString(label):
		n := nodes.New(nodes.FootnoteReference, nodes.NewText(label))
		n.Set("refname", label)
		return n
	case label == "#":
		n := nodes.New(nodes.FootnoteReference)
		n.Set("auto", "1")
		return n
	case strings.HasPrefix(label, "#"):
		n := nodes.New(nodes.FootnoteReference)
		n.Set("auto", "1")
		n.Set("refname", normalizeName(label[1:]))
		return n
	}
	n := nodes.New(nodes.CitationReference, nodes.NewText(label))
	n.Set("refname", normalizeName(label))
	return n
}

// mergeText joins adjacent text nodes.
func mergeText(in []*nodes.Node) []*nodes.Node {
	var out []*nodes.Node
	for _, n := range in {
		if n.Kind == nodes.Text && len(out) > 0 && out[len(out)-1].Kind == nodes.Text {
			out[len(out)-1].Text += n.Text
			continue
		}
		out = append(out, n)
	}
	return out
}
