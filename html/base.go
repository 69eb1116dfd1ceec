// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package html

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matthewdargan/semantic-rst/nodes"
)

// base holds the html4css1 hooks every translator starts from.
type base struct{}

func (base) RegisterFuncs(r Registerer) {
	r.Register(nodes.Document, visitNothing, visitNothing)
	r.Register(nodes.Text, visitText, nil)
	r.Register(nodes.Section, visitSection, departSection)
	r.Register(nodes.Title, visitTitle, DepartTitle)
	r.Register(nodes.Subtitle, visitSubtitle, departSubtitle)
	r.Register(nodes.Paragraph, visitParagraph, departClose)
	r.Register(nodes.Emphasis, simple("em"), departClose)
	r.Register(nodes.Strong, simple("strong"), departClose)
	r.Register(nodes.Subscript, simple("sub"), departClose)
	r.Register(nodes.Superscript, simple("sup"), departClose)
	r.Register(nodes.TitleReference, simple("cite"), departClose)
	r.Register(nodes.Inline, simple("span"), departClose)
	r.Register(nodes.Literal, visitLiteral, departClose)
	r.Register(nodes.LiteralBlock, visitLiteralBlock, appendText("\n</pre>\n"))
	r.Register(nodes.Reference, visitReference, appendText("</a>"))
	r.Register(nodes.Target, visitTarget, departClose)
	r.Register(nodes.FootnoteReference, visitFootnoteReference("footnote-reference"), departClose)
	r.Register(nodes.CitationReference, visitFootnoteReference("citation-reference"), departClose)
	r.Register(nodes.Problematic, visitProblematic, departProblematic)
	r.Register(nodes.BulletList, visitBulletList, departList("</ul>\n"))
	r.Register(nodes.EnumeratedList, visitEnumeratedList, departList("</ol>\n"))
	r.Register(nodes.ListItem, visitTag("li", ""), appendText("</li>\n"))
	r.Register(nodes.DefinitionList, visitTag("dl", "\n", Attr{"class", "docutils"}), appendText("</dl>\n"))
	r.Register(nodes.DefinitionListItem, visitNothing, visitNothing)
	r.Register(nodes.Term, visitTag("dt", ""), appendText("</dt>\n"))
	r.Register(nodes.Definition, visitTag("dd", ""), appendText("</dd>\n"))
	r.Register(nodes.FieldList, visitFieldList, DepartFieldList)
	r.Register(nodes.Field, visitTag("tr", "", Attr{"class", "field"}), appendText("</tr>\n"))
	r.Register(nodes.FieldName, visitFieldName, departFieldName)
	r.Register(nodes.FieldBody, visitTag("td", "", Attr{"class", "field-body"}), appendText("</td>\n"))
	r.Register(nodes.Docinfo, visitDocinfo, departDocinfo)
	r.Register(nodes.LineBlock, visitTag("div", "\n", Attr{"class", "line-block"}), appendText("</div>\n"))
	r.Register(nodes.Line, visitLine, appendText("</div>\n"))
	r.Register(nodes.BlockQuote, visitTag("blockquote", "\n"), appendText("</blockquote>\n"))
	r.Register(nodes.Transition, visitTransition, visitNothing)
	r.Register(nodes.Table, visitTable, departTable)
	r.Register(nodes.Tgroup, visitTgroup, visitNothing)
	r.Register(nodes.Colspec, visitColspec, visitNothing)
	r.Register(nodes.Thead, visitThead, appendText("</thead>\n"))
	r.Register(nodes.Tbody, visitTbody, appendText("</tbody>\n"))
	r.Register(nodes.Row, visitRow, departRow)
	r.Register(nodes.Entry, visitEntry, departClose)
	r.Register(nodes.Topic, visitTopic, departTopic)
	r.Register(nodes.Sidebar, visitTag("div", "\n", Attr{"class", "sidebar"}), appendText("</div>\n"))
	for k := nodes.Admonition; k <= nodes.Warning; k++ {
		r.Register(k, visitAdmonition, appendText("</div>\n"))
	}
	r.Register(nodes.Footnote, visitFootnote("docutils footnote"), DepartFootnote)
	r.Register(nodes.Citation, visitFootnote("docutils citation"), DepartFootnote)
	r.Register(nodes.Label, visitLabel, departLabel)
	r.Register(nodes.Comment, visitComment, nil)
	r.Register(nodes.Raw, visitRaw, nil)
}

func visitNothing(*Translator, *nodes.Node) (nodes.WalkStatus, error) {
	return nodes.WalkContinue, nil
}

// appendText returns a hook appending s.
func appendText(s string) Hook {
	return func(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(s)
		return nodes.WalkContinue, nil
	}
}

// visitTag returns a hook appending the open tag of n.
func visitTag(tag, suffix string, attrs ...Attr) Hook {
	return func(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(t.StartTag(n, tag, suffix, attrs...))
		return nodes.WalkContinue, nil
	}
}

// simple returns a hook for inline elements closed by departClose.
func simple(tag string) Hook {
	return func(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(t.StartTag(n, tag, ""))
		t.PushClose("</" + tag + ">")
		return nodes.WalkContinue, nil
	}
}

// departClose appends the fragment pushed by the visit hook.
func departClose(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.PopClose())
	return nodes.WalkContinue, nil
}

func visitText(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.Encode(n.Text))
	return nodes.WalkSkipChildren, nil
}

func visitSection(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.SectionLevel++
	t.Append(t.StartTag(n, "div", "\n", Attr{"class", "section"}))
	return nodes.WalkContinue, nil
}

func departSection(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.SectionLevel--
	t.Append("</div>\n")
	return nodes.WalkContinue, nil
}

// HeadingLevel returns the heading number for a title at the current
// section depth, between 1 and 6.
func (t *Translator) HeadingLevel() int {
	return min(max(t.SectionLevel+t.Settings.InitialHeaderLevel-1, 1), 6)
}

// SectionHeading returns the attributes and the open fragment of a section
// title: the heading tag followed by a toc-backref anchor when the title
// links back to a contents entry. It also returns the matching close.
func (t *Translator) SectionHeading(n *nodes.Node) (attrs []Attr, inner, close string) {
	sec := n.Parent
	if sec.Len() > 1 && sec.Child(1).Kind == nodes.Subtitle {
		attrs = append(attrs, Attr{"class", "with-subtitle"})
	}
	close = fmt.Sprintf("</h%d>\n", t.HeadingLevel())
	if refid := n.Get("refid"); refid != "" {
		inner = fmt.Sprintf("<a class=\"toc-backref\" href=\"#%s\">", t.Attval(refid))
		close = "</a>" + close
	}
	return attrs, inner, close
}

func visitTitle(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	p := n.Parent
	if p == nil {
		return nodes.WalkStop, fmt.Errorf("%w: title without parent", ErrMalformedTree)
	}
	close := "</p>\n"
	switch {
	case p.Kind == nodes.Topic:
		t.Append(t.StartTag(n, "p", "", Attr{"class", "topic-title first"}))
	case p.Kind == nodes.Sidebar:
		t.Append(t.StartTag(n, "p", "", Attr{"class", "sidebar-title"}))
	case p.Kind.IsAdmonition():
		t.Append(t.StartTag(n, "p", "", Attr{"class", "admonition-title"}))
	case p.Kind == nodes.Table:
		t.Append(t.StartTag(n, "caption", ""))
		close = "</caption>\n"
	case p.Kind == nodes.Document:
		t.Append(t.StartTag(n, "h1", "", Attr{"class", "title"}))
		close = "</h1>\n"
		t.DocumentTitleStart = len(t.Body)
	case p.Kind == nodes.Section:
		attrs, inner, c := t.SectionHeading(n)
		t.Append(t.StartTag(n, fmt.Sprintf("h%d", t.HeadingLevel()), "", attrs...) + inner)
		close = c
	default:
		return nodes.WalkStop, fmt.Errorf("%w: title in %s", ErrMalformedTree, p.Kind)
	}
	t.PushClose(close)
	return nodes.WalkContinue, nil
}

// DepartTitle closes a title. For the document title it moves everything
// rendered so far into the title parts.
func DepartTitle(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.PopClose())
	if t.DocumentTitleStart > 0 {
		t.title = slices.Clone(t.Body[t.DocumentTitleStart : len(t.Body)-1])
		t.bodyPreDocinfo = append(t.bodyPreDocinfo, t.Body...)
		t.htmlTitle = append(t.htmlTitle, t.Body...)
		t.Body = nil
		t.DocumentTitleStart = 0
	}
	return nodes.WalkContinue, nil
}

func visitSubtitle(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	p := n.Parent
	if p == nil {
		return nodes.WalkStop, fmt.Errorf("%w: subtitle without parent", ErrMalformedTree)
	}
	switch p.Kind {
	case nodes.Sidebar:
		t.Append(t.StartTag(n, "p", "", Attr{"class", "sidebar-subtitle"}))
		t.PushClose("</p>\n")
	case nodes.Document:
		t.Append(t.StartTag(n, "h2", "", Attr{"class", "subtitle"}))
		t.PushClose("</h2>\n")
		t.documentSubtitleStart = len(t.Body)
	case nodes.Section:
		h := fmt.Sprintf("h%d", t.HeadingLevel())
		t.Append(t.StartTag(n, h, "", Attr{"class", "section-subtitle"}) + `<span class="section-subtitle">`)
		t.PushClose("</span></" + h + ">\n")
	default:
		return nodes.WalkStop, fmt.Errorf("%w: subtitle in %s", ErrMalformedTree, p.Kind)
	}
	return nodes.WalkContinue, nil
}

func departSubtitle(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.PopClose())
	if t.documentSubtitleStart > 0 {
		t.subtitle = slices.Clone(t.Body[t.documentSubtitleStart : len(t.Body)-1])
		t.bodyPreDocinfo = append(t.bodyPreDocinfo, t.Body...)
		t.htmlSub = append(t.htmlSub, t.Body...)
		t.Body = nil
		t.documentSubtitleStart = 0
	}
	return nodes.WalkContinue, nil
}

// CompactParagraph reports whether paragraph n renders without <p> tags.
func (t *Translator) CompactParagraph(n *nodes.Node) bool {
	p := n.Parent
	if p == nil || p.Kind == nodes.Document || len(n.IDs) > 0 || len(n.Classes) > 0 {
		return false
	}
	children := p.Children
	if len(children) > 0 && children[0].Kind == nodes.Label {
		children = children[1:]
	}
	for _, c := range children {
		if c.Kind.IsInvisible() {
			continue
		}
		if c == n {
			break
		}
		return false
	}
	visible := 0
	for _, c := range children {
		if !c.Kind.IsInvisible() {
			visible++
		}
	}
	return t.CompactSimple || t.CompactFieldList || (t.CompactP && visible == 1)
}

func visitParagraph(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	if t.CompactParagraph(n) {
		t.PushClose("")
		return nodes.WalkContinue, nil
	}
	t.Append(t.StartTag(n, "p", ""))
	t.PushClose("</p>\n")
	return nodes.WalkContinue, nil
}

var (
	wordsAndSpaces = regexp.MustCompile(`\S+| +|\n`)
	wrapPoint      = regexp.MustCompile(`.+\W\W.+|[-?].+`)
)

func visitLiteral(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	if n.HasClass("code") {
		classes := slices.DeleteFunc(slices.Clone(n.Classes), func(c string) bool { return c == "code" })
		t.Append(t.StartTagClasses(n, classes, "code", ""))
		t.PushClose("</code>")
		return nodes.WalkContinue, nil
	}
	t.Append(t.StartTag(n, "tt", "", Attr{"class", "docutils literal"}))
	for _, tok := range wordsAndSpaces.FindAllString(n.AsText(), -1) {
		switch {
		case strings.TrimSpace(tok) != "":
			if wrapPoint.MatchString(tok) {
				t.Append(`<span class="pre">` + t.Encode(tok) + "</span>")
			} else {
				t.Append(t.Encode(tok))
			}
		case tok == " " || tok == "\n":
			t.Append(tok)
		default:
			t.Append(strings.Repeat("&nbsp;", len(tok)-1) + " ")
		}
	}
	t.Append("</tt>")
	return nodes.WalkSkipNode, nil
}

func visitLiteralBlock(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "pre", "\n", Attr{"class", "literal-block"}))
	return nodes.WalkContinue, nil
}

func visitReference(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	attrs := []Attr{{"class", "reference"}}
	switch {
	case n.Has("refuri"):
		attrs = append(attrs, Attr{"class", "external"}, Attr{"href", n.Get("refuri")})
	case n.Has("refid"):
		attrs = append(attrs, Attr{"class", "internal"}, Attr{"href", "#" + n.Get("refid")})
	}
	t.Append(t.StartTag(n, "a", "", attrs...))
	return nodes.WalkContinue, nil
}

func visitTarget(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	if !n.Has("refuri") && !n.Has("refid") && !n.Has("refname") {
		t.Append(t.StartTag(n, "span", "", Attr{"class", "target"}))
		t.PushClose("</span>")
		return nodes.WalkContinue, nil
	}
	t.PushClose("")
	return nodes.WalkContinue, nil
}

func visitFootnoteReference(class string) Hook {
	return func(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(t.StartTag(n, "a", "[", Attr{"class", class}, Attr{"href", "#" + n.Get("refid")}))
		t.PushClose("]</a>")
		return nodes.WalkContinue, nil
	}
}

func visitProblematic(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	if refid := n.Get("refid"); refid != "" {
		t.Append(fmt.Sprintf("<a href=\"#%s\">", t.Attval(refid)))
		t.PushClose("</a>")
	} else {
		t.PushClose("")
	}
	t.Append(t.StartTag(n, "span", "", Attr{"class", "problematic"}))
	return nodes.WalkContinue, nil
}

func departProblematic(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append("</span>" + t.PopClose())
	return nodes.WalkContinue, nil
}

// IsCompactable reports whether list n renders its items without
// paragraph tags.
func (t *Translator) IsCompactable(n *nodes.Node) bool {
	switch {
	case n.HasClass("compact"):
		return true
	case n.HasClass("open"):
		return false
	}
	switch n.Kind {
	case nodes.FieldList, nodes.DefinitionList:
		if !t.Settings.CompactFieldLists {
			return false
		}
	case nodes.BulletList, nodes.EnumeratedList:
		if !t.Settings.CompactLists {
			return false
		}
	}
	if slices.Contains(t.topicClasses, "contents") {
		return true
	}
	return simpleList(n)
}

// simpleList reports whether every item of list n holds at most one
// paragraph and, after it, at most one nested simple list.
func simpleList(n *nodes.Node) bool {
	switch n.Kind {
	case nodes.Text, nodes.Paragraph, nodes.Comment, nodes.Target:
		return true
	case nodes.BulletList, nodes.EnumeratedList:
	case nodes.ListItem:
		var visible []*nodes.Node
		for _, c := range n.Children {
			if !c.Kind.IsInvisible() {
				visible = append(visible, c)
			}
		}
		if len(visible) > 1 && visible[0].Kind == nodes.Paragraph {
			if k := visible[len(visible)-1].Kind; k == nodes.BulletList || k == nodes.EnumeratedList {
				visible = visible[:len(visible)-1]
			}
		}
		if len(visible) > 1 {
			return false
		}
	default:
		return false
	}
	for _, c := range n.Children {
		if !simpleList(c) {
			return false
		}
	}
	return true
}

// openList starts a compact context for list n and returns the class that
// marks it simple, if any.
func (t *Translator) openList(n *nodes.Node) []Attr {
	old := t.CompactSimple
	t.PushCompact()
	t.CompactSimple = t.IsCompactable(n)
	if t.CompactSimple && !old {
		return []Attr{{"class", "simple"}}
	}
	return nil
}

func visitBulletList(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "ul", "\n", t.openList(n)...))
	return nodes.WalkContinue, nil
}

func visitEnumeratedList(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	attrs := []Attr{{"class", n.Get("enumtype")}}
	if start := n.Get("start"); start != "" {
		attrs = append(attrs, Attr{"start", start})
	}
	attrs = append(attrs, t.openList(n)...)
	t.Append(t.StartTag(n, "ol", "\n", attrs...))
	return nodes.WalkContinue, nil
}

func departList(close string) Hook {
	return func(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
		t.PopCompact()
		t.Append(close)
		return nodes.WalkContinue, nil
	}
}

// fieldListCols opens the body of a two-column field table.
const fieldListCols = "<col class=\"field-name\" />\n<col class=\"field-body\" />\n<tbody valign=\"top\">\n"

// simpleFieldBody reports whether a field body is empty or holds a single
// paragraph or line block.
func simpleFieldBody(body *nodes.Node) bool {
	var visible []*nodes.Node
	for _, c := range body.Children {
		if !c.Kind.IsInvisible() {
			visible = append(visible, c)
		}
	}
	switch len(visible) {
	case 0:
		return true
	case 1:
		return visible[0].Kind == nodes.Paragraph || visible[0].Kind == nodes.LineBlock
	}
	return false
}

// FieldListCompact reports whether every field of n has a simple body.
func FieldListCompact(n *nodes.Node) bool {
	for _, f := range n.Children {
		if f.Kind != nodes.Field || f.Len() == 0 {
			continue
		}
		if body := f.Child(-1); body.Kind == nodes.FieldBody && !simpleFieldBody(body) {
			return false
		}
	}
	return true
}

func visitFieldList(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.PushCompact()
	switch {
	case n.HasClass("compact"):
		t.CompactFieldList = true
	case t.Settings.CompactFieldLists && !n.HasClass("open"):
		t.CompactFieldList = true
	}
	if t.CompactFieldList {
		t.CompactFieldList = FieldListCompact(n)
	}
	n.Compact = t.CompactFieldList
	t.Append(t.StartTag(n, "table", "\n",
		Attr{"class", "docutils field-list"}, Attr{"frame", "void"}, Attr{"rules", "none"}))
	t.Append(fieldListCols)
	return nodes.WalkContinue, nil
}

// DepartFieldList closes a field list and restores the compact state.
func DepartFieldList(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append("</tbody>\n</table>\n")
	t.PopCompact()
	return nodes.WalkContinue, nil
}

func visitFieldName(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	attrs := []Attr{{"class", "field-name"}}
	if t.inDocinfo {
		attrs[0].Value = "docinfo-name"
	}
	if limit := t.Settings.FieldNameLimit; limit > 0 && len(n.AsText()) > limit && n.Parent != nil {
		attrs = append(attrs, Attr{"colspan", "2"})
		t.PushClose("</tr>\n" + t.StartTag(n.Parent, "tr", "", Attr{"class", "field"}) + "<td>&nbsp;</td>")
	} else {
		t.PushClose("")
	}
	t.Append(t.StartTag(n, "th", "", attrs...))
	return nodes.WalkContinue, nil
}

func departFieldName(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(":</th>")
	t.Append(t.PopClose())
	return nodes.WalkContinue, nil
}

func visitDocinfo(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.docinfoStart = len(t.Body)
	t.Append(t.StartTag(n, "table", "\n", Attr{"class", "docinfo"}, Attr{"frame", "void"}, Attr{"rules", "none"}))
	t.Append("<col class=\"docinfo-name\" />\n<col class=\"docinfo-content\" />\n<tbody valign=\"top\">\n")
	t.inDocinfo = true
	t.PushCompact()
	t.CompactFieldList = true
	return nodes.WalkContinue, nil
}

func departDocinfo(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append("</tbody>\n</table>\n")
	t.inDocinfo = false
	t.PopCompact()
	t.docinfo = slices.Clone(t.Body[t.docinfoStart:])
	t.bodyPreDocinfo = append(t.bodyPreDocinfo, t.Body[:t.docinfoStart]...)
	t.Body = nil
	return nodes.WalkContinue, nil
}

func visitLine(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "div", "", Attr{"class", "line"}))
	if n.Len() == 0 {
		t.Append("<br />")
	}
	return nodes.WalkContinue, nil
}

func visitTransition(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.EmptyTag(n, "hr", "\n", Attr{"class", "docutils"}))
	return nodes.WalkSkipChildren, nil
}

// TableClasses splits a comma-separated table_style value into classes,
// dropping empty entries.
func TableClasses(style string) []string {
	var classes []string
	for _, c := range strings.Split(style, ",") {
		if c = strings.TrimSpace(c); c != "" {
			classes = append(classes, c)
		}
	}
	return classes
}

func visitTable(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.PushCompact()
	t.CompactP = true
	classes := append([]string{"docutils"}, TableClasses(t.Settings.TableStyle)...)
	t.Append(t.StartTag(n, "table", "\n", Attr{"class", strings.Join(classes, " ")}, Attr{"border", "1"}))
	return nodes.WalkContinue, nil
}

func departTable(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.PopCompact()
	t.Append("</table>\n")
	return nodes.WalkContinue, nil
}

func visitTgroup(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "colgroup", "\n"))
	t.PushClose("</colgroup>\n")
	t.colspecs = nil
	t.inColgroup = true
	n.Stubs = []bool{}
	return nodes.WalkContinue, nil
}

// visitColspec records stubs, and column widths only inside an open
// colgroup.
func visitColspec(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	if t.inColgroup {
		t.colspecs = append(t.colspecs, n)
	}
	if p := n.Parent; p != nil {
		p.Stubs = append(p.Stubs, n.Has("stub"))
	}
	return nodes.WalkSkipChildren, nil
}

// writeColspecs emits the pending column widths as percentages.
func (t *Translator) writeColspecs() {
	total := 0
	for _, cs := range t.colspecs {
		w, _ := strconv.Atoi(cs.Get("colwidth"))
		total += w
	}
	for _, cs := range t.colspecs {
		w, _ := strconv.Atoi(cs.Get("colwidth"))
		pct := 0
		if total > 0 {
			pct = (w*100 + total/2) / total
		}
		t.Append(t.EmptyTag(cs, "col", "\n", Attr{"width", fmt.Sprintf("%d%%", pct)}))
	}
	t.colspecs = nil
	t.inColgroup = false
}

func visitThead(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.writeColspecs()
	t.Append(t.PopClose())
	t.PushClose("")
	t.Append(t.StartTag(n, "thead", "\n", Attr{"valign", "bottom"}))
	return nodes.WalkContinue, nil
}

func visitTbody(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.writeColspecs()
	t.Append(t.PopClose())
	t.Append(t.StartTag(n, "tbody", "\n", Attr{"valign", "top"}))
	return nodes.WalkContinue, nil
}

func visitRow(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "tr", ""))
	t.columns = append(t.columns, 0)
	return nodes.WalkContinue, nil
}

func departRow(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append("</tr>\n")
	if len(t.columns) > 0 {
		t.columns = t.columns[:len(t.columns)-1]
	}
	return nodes.WalkContinue, nil
}

func visitEntry(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	row := n.Parent
	if row == nil || row.Parent == nil || row.Parent.Parent == nil || len(t.columns) == 0 {
		return nodes.WalkStop, fmt.Errorf("%w: entry outside a table row", ErrMalformedTree)
	}
	section, tgroup := row.Parent, row.Parent.Parent
	col := &t.columns[len(t.columns)-1]
	tag := "td"
	var attrs []Attr
	switch {
	case section.Kind == nodes.Thead:
		tag = "th"
		attrs = append(attrs, Attr{"class", "head"})
	case *col < len(tgroup.Stubs) && tgroup.Stubs[*col]:
		tag = "th"
		attrs = append(attrs, Attr{"class", "stub"})
	}
	if v := n.Get("morerows"); v != "" {
		rows, _ := strconv.Atoi(v)
		attrs = append(attrs, Attr{"rowspan", strconv.Itoa(rows + 1)})
	}
	if v := n.Get("morecols"); v != "" {
		cols, _ := strconv.Atoi(v)
		attrs = append(attrs, Attr{"colspan", strconv.Itoa(cols + 1)})
		*col += cols
	}
	*col++
	t.Append(t.StartTag(n, tag, "", attrs...))
	t.PushClose("</" + tag + ">\n")
	if n.Len() == 0 {
		t.Append("&nbsp;")
	}
	return nodes.WalkContinue, nil
}

func visitTopic(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "div", "\n", Attr{"class", "topic"}))
	t.topicClasses = n.Classes
	return nodes.WalkContinue, nil
}

func departTopic(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append("</div>\n")
	t.topicClasses = nil
	return nodes.WalkContinue, nil
}

func visitAdmonition(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	classes := append([]string{"admonition"}, n.Classes...)
	t.Append(t.StartTagClasses(n, classes, "div", "\n"))
	return nodes.WalkContinue, nil
}

// footnoteCols opens the body of a footnote or citation table.
const footnoteCols = "<colgroup><col class=\"label\" /><col /></colgroup>\n<tbody valign=\"top\">\n<tr>"

func visitFootnote(class string) Hook {
	return func(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
		t.Append(t.StartTag(n, "table", "\n", Attr{"class", class}, Attr{"frame", "void"}, Attr{"rules", "none"}))
		t.Append(footnoteCols)
		t.FootnoteBackrefs(n)
		return nodes.WalkContinue, nil
	}
}

// DepartFootnote closes a footnote or citation table.
func DepartFootnote(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	t.Append("</td></tr>\n</tbody>\n</table>\n")
	return nodes.WalkContinue, nil
}

// multipleBacklinks reports whether footnote n lists numbered back-links
// after its label.
func (t *Translator) multipleBacklinks(n *nodes.Node) bool {
	return t.Settings.FootnoteBacklinks && len(n.Backrefs) > 1
}

// FootnoteBackrefs pushes the three fragments the label hooks of footnote n
// consume: the text after the label cell, the close of the label link and
// its open.
func (t *Translator) FootnoteBackrefs(n *nodes.Node) {
	switch {
	case t.Settings.FootnoteBacklinks && len(n.Backrefs) == 1:
		t.PushClose("")
		t.PushClose("</a>")
		t.PushClose(fmt.Sprintf("<a class=\"fn-backref\" href=\"#%s\">", t.Attval(n.Backrefs[0])))
	case t.multipleBacklinks(n):
		links := make([]string, len(n.Backrefs))
		for i, id := range n.Backrefs {
			links[i] = fmt.Sprintf("<a class=\"fn-backref\" href=\"#%s\">%d</a>", t.Attval(id), i+1)
		}
		t.PushClose("<em>(" + strings.Join(links, ", ") + ")</em> ")
		t.PushClose("")
		t.PushClose("")
	default:
		t.PushClose("")
		t.PushClose("")
		t.PushClose("")
	}
}

func visitLabel(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append(t.StartTag(n, "td", t.PopClose()+"[", Attr{"class", "label"}))
	return nodes.WalkContinue, nil
}

func departLabel(t *Translator, _ *nodes.Node) (nodes.WalkStatus, error) {
	closeLink := t.PopClose()
	after := t.PopClose()
	t.Append("]" + closeLink + "</td><td>" + after)
	return nodes.WalkContinue, nil
}

func visitComment(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	t.Append("<!-- " + strings.ReplaceAll(n.Text, "--", "- -") + " -->\n")
	return nodes.WalkSkipNode, nil
}

func visitRaw(t *Translator, n *nodes.Node) (nodes.WalkStatus, error) {
	if !slices.Contains(strings.Fields(n.Get("format")), "html") {
		return nodes.WalkSkipNode, nil
	}
	if len(n.Classes) > 0 {
		t.Append(t.StartTag(n, "div", "") + n.Text + "</div>\n")
	} else {
		t.Append(n.Text)
	}
	return nodes.WalkSkipNode, nil
}

// positional returns the "first" and "last" classes n receives from its
// place among its siblings.
func (t *Translator) positional(n *nodes.Node) []string {
	p := n.Parent
	if p == nil {
		return nil
	}
	var first, last *nodes.Node
	switch p.Kind {
	case nodes.ListItem:
		first = p.Child(0)
	case nodes.Admonition, nodes.Definition, nodes.Entry, nodes.FieldBody, nodes.Sidebar:
		for _, c := range p.Children {
			if c.Kind.IsInvisible() {
				continue
			}
			if first == nil {
				first = c
			}
			last = c
		}
	case nodes.Footnote, nodes.Citation:
		if p.Len() > 1 {
			if !t.multipleBacklinks(p) {
				first = p.Child(1)
			}
			last = p.Child(-1)
		}
	default:
		return nil
	}
	var classes []string
	if n == first {
		classes = append(classes, "first")
	}
	if n == last {
		classes = append(classes, "last")
	}
	return classes
}
