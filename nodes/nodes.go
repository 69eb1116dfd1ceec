// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package nodes defines the reStructuredText document tree.
package nodes

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies the type of a document tree node.
type Kind int

const (
	Document           Kind = iota // document
	Section                        // section
	Title                          // title
	Subtitle                       // subtitle
	Paragraph                      // paragraph
	Text                           // #text
	Emphasis                       // emphasis
	Strong                         // strong
	Literal                        // literal
	LiteralBlock                   // literal_block
	Inline                         // inline
	TitleReference                 // title_reference
	Subscript                      // subscript
	Superscript                    // superscript
	Reference                      // reference
	Target                         // target
	FootnoteReference              // footnote_reference
	CitationReference              // citation_reference
	Problematic                    // problematic
	BulletList                     // bullet_list
	EnumeratedList                 // enumerated_list
	ListItem                       // list_item
	DefinitionList                 // definition_list
	DefinitionListItem             // definition_list_item
	Term                           // term
	Definition                     // definition
	FieldList                      // field_list
	Field                          // field
	FieldName                      // field_name
	FieldBody                      // field_body
	Docinfo                        // docinfo
	LineBlock                      // line_block
	Line                           // line
	BlockQuote                     // block_quote
	Transition                     // transition
	Table                          // table
	Tgroup                         // tgroup
	Colspec                        // colspec
	Thead                          // thead
	Tbody                          // tbody
	Row                            // row
	Entry                          // entry
	Topic                          // topic
	Sidebar                        // sidebar
	Admonition                     // admonition
	Attention                      // attention
	Caution                        // caution
	Danger                         // danger
	Error                          // error
	Hint                           // hint
	Important                      // important
	Note                           // note
	Tip                            // tip
	Warning                        // warning
	Footnote                       // footnote
	Citation                       // citation
	Label                          // label
	Comment                        // comment
	Raw                            // raw
)

var kindNames = map[Kind]string{
	Document: "document", Section: "section", Title: "title", Subtitle: "subtitle",
	Paragraph: "paragraph", Text: "#text", Emphasis: "emphasis", Strong: "strong",
	Literal: "literal", LiteralBlock: "literal_block", Inline: "inline",
	TitleReference: "title_reference", Subscript: "subscript", Superscript: "superscript",
	Reference: "reference", Target: "target", FootnoteReference: "footnote_reference",
	CitationReference: "citation_reference", Problematic: "problematic",
	BulletList: "bullet_list", EnumeratedList: "enumerated_list", ListItem: "list_item",
	DefinitionList: "definition_list", DefinitionListItem: "definition_list_item",
	Term: "term", Definition: "definition", FieldList: "field_list", Field: "field",
	FieldName: "field_name", FieldBody: "field_body", Docinfo: "docinfo",
	LineBlock: "line_block", Line: "line", BlockQuote: "block_quote",
	Transition: "transition", Table: "table", Tgroup: "tgroup", Colspec: "colspec",
	Thead: "thead", Tbody: "tbody", Row: "row", Entry: "entry", Topic: "topic",
	Sidebar: "sidebar", Admonition: "admonition", Attention: "attention",
	Caution: "caution", Danger: "danger", Error: "error", Hint: "hint",
	Important: "important", Note: "note", Tip: "tip", Warning: "warning",
	Footnote: "footnote", Citation: "citation", Label: "label", Comment: "comment",
	Raw: "raw",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsAdmonition reports whether k is the generic admonition or one of its
// specific variants.
func (k Kind) IsAdmonition() bool {
	return k >= Admonition && k <= Warning
}

// IsInvisible reports whether nodes of kind k produce no visible output.
func (k Kind) IsInvisible() bool {
	return k == Comment || k == Target
}

// Node is an element of the document tree.
type Node struct {
	Kind     Kind
	Classes  []string
	IDs      []string
	Names    []string
	Backrefs []string
	Attrs    map[string]string
	Text     string // content of Text, Comment, Raw and LiteralBlock source
	Line     int

	// Stubs records which table columns are stub columns; set on tgroup
	// nodes by the translator.
	Stubs []bool
	// Compact is set on field lists once the translator decides their
	// fields render without paragraph wrappers.
	Compact bool

	Parent   *Node
	Children []*Node
}

// New returns a node of kind k with the given children appended.
func New(k Kind, children ...*Node) *Node {
	n := &Node{Kind: k}
	n.Append(children...)
	return n
}

// NewText returns a text node.
func NewText(s string) *Node {
	return &Node{Kind: Text, Text: s}
}

// Append adds children to n and sets their parent.
func (n *Node) Append(children ...*Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
}

// Insert places c at index i among n's children.
func (n *Node) Insert(i int, c *Node) {
	c.Parent = n
	n.Children = slices.Insert(n.Children, i, c)
}

// Remove detaches c from n. It reports whether c was a child of n.
func (n *Node) Remove(c *Node) bool {
	i := n.Index(c)
	if i < 0 {
		return false
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	c.Parent = nil
	return true
}

// Index returns the position of c among n's children, or -1.
func (n *Node) Index(c *Node) int {
	return slices.Index(n.Children, c)
}

// Child returns the i'th child, or nil when out of range.
// Negative indexes count from the end.
func (n *Node) Child(i int) *Node {
	if i < 0 {
		i += len(n.Children)
	}
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Len returns the number of children.
func (n *Node) Len() int {
	return len(n.Children)
}

// HasClass reports whether n carries class c.
func (n *Node) HasClass(c string) bool {
	return slices.Contains(n.Classes, c)
}

// AddClass appends c unless n already carries it.
func (n *Node) AddClass(c string) {
	if !n.HasClass(c) {
		n.Classes = append(n.Classes, c)
	}
}

// RemoveClass drops every occurrence of c. It reports whether any was removed.
func (n *Node) RemoveClass(c string) bool {
	before := len(n.Classes)
	n.Classes = slices.DeleteFunc(n.Classes, func(s string) bool { return s == c })
	return len(n.Classes) != before
}

// Get returns the attribute value for key.
func (n *Node) Get(key string) string {
	return n.Attrs[key]
}

// Has reports whether the attribute key is set.
func (n *Node) Has(key string) bool {
	_, ok := n.Attrs[key]
	return ok
}

// Set assigns an attribute value.
func (n *Node) Set(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// Unset removes an attribute.
func (n *Node) Unset(key string) {
	delete(n.Attrs, key)
}

// AsText returns the text content of n and its descendants.
func (n *Node) AsText() string {
	if n.Kind == Text {
		return n.Text
	}
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	switch n.Kind {
	case Text:
		b.WriteString(n.Text)
		return
	case Comment, Raw:
		return
	}
	for i, c := range n.Children {
		if i > 0 && c.isBlock() && n.Children[i-1].isBlock() {
			b.WriteString("\n\n")
		}
		c.writeText(b)
	}
}

func (n *Node) isBlock() bool {
	switch n.Kind {
	case Text, Emphasis, Strong, Literal, Inline, TitleReference, Subscript,
		Superscript, Reference, FootnoteReference, CitationReference, Problematic:
		return false
	}
	return true
}

// NextSibling returns the node following n under the same parent.
func (n *Node) NextSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	return n.Parent.Child(n.Parent.Index(n) + 1)
}

// Root returns the top of the tree containing n.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Clone returns a deep copy of n without a parent.
func (n *Node) Clone() *Node {
	c := *n
	c.Parent = nil
	c.Classes = slices.Clone(n.Classes)
	c.IDs = slices.Clone(n.IDs)
	c.Names = slices.Clone(n.Names)
	c.Backrefs = slices.Clone(n.Backrefs)
	c.Stubs = slices.Clone(n.Stubs)
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	c.Children = nil
	for _, child := range n.Children {
		c.Append(child.Clone())
	}
	return &c
}

// Find returns the first descendant of n (n included) for which match is true.
func (n *Node) Find(match func(*Node) bool) *Node {
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(match); f != nil {
			return f
		}
	}
	return nil
}

// FindAll returns every descendant of n (n included) for which match is true,
// in document order.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	_ = Walk(n, func(c *Node, entering bool) (WalkStatus, error) {
		if entering && match(c) {
			out = append(out, c)
		}
		return WalkContinue, nil
	})
	return out
}
