// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matthewdargan/semantic-rst/nodes"
	"github.com/matthewdargan/semantic-rst/scan"
)

// blockParser parses one run of body elements.
type blockParser struct {
	s        *state
	toks     []scan.Token
	i        int
	offset   int
	stack    []*nodes.Node // open sections; stack[0] is the body's parent
	sections bool
}

func (b *blockParser) cur() scan.Token {
	return b.peek(0)
}

// peek returns the token n positions ahead, or EOF.
func (b *blockParser) peek(n int) scan.Token {
	if b.i+n < len(b.toks) {
		return b.toks[b.i+n]
	}
	return scan.Token{Type: scan.EOF}
}

func (b *blockParser) line(t scan.Token) int {
	return t.Line + b.offset
}

func (b *blockParser) parent() *nodes.Node {
	return b.stack[len(b.stack)-1]
}

func (b *blockParser) add(n *nodes.Node) {
	b.parent().Append(n)
}

func (b *blockParser) report(level nodes.Level, t scan.Token, format string, args ...any) {
	b.s.report(level, b.line(t), format, args...)
}

func (b *blockParser) skipBlank() {
	for b.cur().Type == scan.BlankLine {
		b.i++
	}
}

// isBlank reports whether t ends a block.
func isBlank(t scan.Token) bool {
	return t.Type == scan.BlankLine || t.Type == scan.EOF
}

// indented returns the lines following from that are blank or indented,
// excluding trailing blank lines, and the index after the last of them.
func (b *blockParser) indented(from int) ([]string, int) {
	var lines []string
	end := from
	for i := from; i < len(b.toks); i++ {
		t := b.toks[i]
		if t.Type == scan.EOF || (t.Type != scan.BlankLine && t.Indent == 0) {
			break
		}
		lines = append(lines, fullLine(t))
		if t.Type != scan.BlankLine {
			end = i + 1
		}
	}
	return lines[:end-from], end
}

// itemBody returns the dedented body of a list item, field or explicit
// markup block starting at token first, the line offset of its first line,
// and the index after it. List items take their indentation from the text
// after the marker; fields and explicit markup from the following lines.
func (b *blockParser) itemBody(first scan.Token, list bool) ([]string, int, int) {
	rest, end := b.indented(b.i + 1)
	indent := minIndent(rest)
	if list && first.Text != "" {
		indent = first.BodyIndent - first.Indent
	}
	rest = dedent(rest, indent)
	if first.Text == "" {
		return rest, b.line(first), end
	}
	return append([]string{first.Text}, rest...), b.line(first) - 1, end
}

func (b *blockParser) run() {
	for b.i < len(b.toks) && !b.s.halted {
		if b.s.ctx.Err() != nil {
			return
		}
		t := b.cur()
		switch {
		case t.Type == scan.EOF:
			return
		case t.Type == scan.BlankLine:
			b.i++
		case t.Indent > 0:
			b.blockQuote()
		default:
			b.element(t)
		}
	}
}

// element parses the construct starting at the unindented token t.
func (b *blockParser) element(t scan.Token) {
	switch t.Type {
	case scan.Text:
		b.text()
	case scan.Adornment:
		b.adornment()
	case scan.Bullet:
		b.bulletList()
	case scan.Enum:
		b.enumList()
	case scan.Field:
		b.fieldList()
	case scan.LineBlock:
		b.lineBlock()
	case scan.Comment:
		b.comment()
	case scan.Directive:
		b.directive()
	case scan.Target:
		b.target()
	case scan.Footnote:
		b.footnote()
	case scan.TableBorder:
		b.table()
	case scan.Error:
		b.report(nodes.LevelError, t, "%s", t.Text)
		_, end := b.indented(b.i + 1)
		b.i = end
	default:
		b.paragraph()
	}
}

// text parses a paragraph, section title or definition list.
func (b *blockParser) text() {
	t, next := b.cur(), b.peek(1)
	if next.Type == scan.Adornment && next.Indent == 0 && b.underlinedTitle(t, next) {
		return
	}
	if !isBlank(next) && next.Indent > 0 {
		b.definitionList()
		return
	}
	b.paragraph()
}

// underlinedTitle parses a title followed by an underline. It reports false
// when the underline is too short to be one.
func (b *blockParser) underlinedTitle(t, under scan.Token) bool {
	title := strings.TrimSpace(t.Raw)
	ulen, tlen := utf8.RuneCountInString(under.Text), utf8.RuneCountInString(title)
	if ulen < tlen {
		if ulen < 4 {
			b.report(nodes.LevelInfo, under, "Possible title underline, too short for the title.\nTreating it as ordinary text because it's so short.")
			return false
		}
		b.report(nodes.LevelWarning, under, "Title underline too short.")
	}
	b.i += 2
	r, _ := utf8.DecodeRuneInString(under.Text)
	b.section(title, style{char: r}, t)
	return true
}

// adornment parses an overlined title or a transition.
func (b *blockParser) adornment() {
	t, next, after := b.cur(), b.peek(1), b.peek(2)
	if isBlank(next) {
		if utf8.RuneCountInString(t.Text) < 4 {
			b.paragraph()
			return
		}
		b.i++
		tr := nodes.New(nodes.Transition)
		tr.Line = b.line(t)
		b.add(tr)
		return
	}
	if next.Type == scan.Adornment {
		b.report(nodes.LevelSevere, t, "Invalid section title or transition marker.")
		b.i += 2
		return
	}
	if after.Type != scan.Adornment {
		if utf8.RuneCountInString(t.Text) < 4 {
			b.paragraph()
			return
		}
		b.report(nodes.LevelSevere, t, "Missing matching underline for section title overline.")
		b.i++
		return
	}
	if after.Text != t.Text {
		b.report(nodes.LevelSevere, t, "Title overline & underline mismatch.")
		b.i += 3
		return
	}
	title := strings.TrimSpace(next.Raw)
	if utf8.RuneCountInString(t.Text) < utf8.RuneCountInString(title) {
		b.report(nodes.LevelWarning, t, "Title overline too short.")
	}
	b.i += 3
	r, _ := utf8.DecodeRuneInString(t.Text)
	b.section(title, style{char: r, over: true}, next)
}

// section opens a section titled title at the level of its adornment style.
func (b *blockParser) section(title string, st style, t scan.Token) {
	line := b.line(t)
	if !b.sections {
		b.report(nodes.LevelSevere, t, "Unexpected section title.")
		b.add(b.s.paragraph(title, line))
		return
	}
	level, isNew := b.s.levelOf(st)
	depth := len(b.stack) - 1
	if level > depth+1 {
		b.report(nodes.LevelSevere, t, "Title level inconsistent:\n%s", title)
		return
	}
	if isNew {
		b.s.styles = append(b.s.styles, st)
	}
	b.stack = b.stack[:level]
	tn := nodes.New(nodes.Title, b.s.inline(title, line)...)
	tn.Line = line
	sec := nodes.New(nodes.Section, tn)
	sec.Line = line
	sec.Names = []string{normalizeName(tn.AsText())}
	b.add(sec)
	b.stack = append(b.stack, sec)
}

// paragraph parses unindented lines up to a blank line. A paragraph ending
// in "::" introduces a literal block.
func (b *blockParser) paragraph() {
	first := b.cur()
	var lines []string
	for t := b.cur(); !isBlank(t) && t.Indent == 0; t = b.cur() {
		lines = append(lines, t.Raw)
		b.i++
	}
	text := strings.Join(lines, "\n")
	literal := strings.HasSuffix(text, "::") && !strings.HasSuffix(text, `\::`)
	if literal {
		switch body := text[:len(text)-2]; {
		case body == "":
			text = ""
		case strings.HasSuffix(body, " ") || strings.HasSuffix(body, "\n"):
			text = strings.TrimRight(body, " \n")
		default:
			text = text[:len(text)-1]
		}
	}
	if text != "" {
		b.add(b.s.paragraph(text, b.line(first)))
	}
	if t := b.cur(); !isBlank(t) && t.Indent > 0 {
		b.report(nodes.LevelError, t, "Unexpected indentation.")
		return
	}
	if literal {
		b.literalBlock(first)
	}
}

// literalBlock parses the indented block following a "::" paragraph.
func (b *blockParser) literalBlock(from scan.Token) {
	b.skipBlank()
	t := b.cur()
	if isBlank(t) || t.Indent == 0 {
		b.report(nodes.LevelWarning, from, "Literal block expected; none found.")
		return
	}
	lines, end := b.indented(b.i)
	b.i = end
	lines = dedent(lines, minIndent(lines))
	lb := nodes.New(nodes.LiteralBlock, nodes.NewText(strings.Join(lines, "\n")))
	lb.Line = b.line(t)
	b.add(lb)
}

// blockQuote parses an indented block.
func (b *blockParser) blockQuote() {
	t := b.cur()
	lines, end := b.indented(b.i)
	b.i = end
	bq := nodes.New(nodes.BlockQuote)
	bq.Line = b.line(t)
	b.s.nested(dedent(lines, minIndent(lines)), b.line(t)-1, bq)
	b.add(bq)
}

// definitionList parses terms followed by indented definitions.
func (b *blockParser) definitionList() {
	dl := nodes.New(nodes.DefinitionList)
	dl.Line = b.line(b.cur())
	for {
		t, next := b.cur(), b.peek(1)
		if isBlank(t) || t.Indent != 0 || isBlank(next) || next.Indent == 0 {
			break
		}
		if t.Type != scan.Text && t.Type != scan.Enum {
			break
		}
		line := b.line(t)
		lines, end := b.indented(b.i + 1)
		def := nodes.New(nodes.Definition)
		b.s.nested(dedent(lines, minIndent(lines)), line, def)
		term := nodes.New(nodes.Term, b.s.inline(strings.TrimSpace(t.Raw), line)...)
		item := nodes.New(nodes.DefinitionListItem, term, def)
		item.Line = line
		dl.Append(item)
		b.i = end
		b.skipBlank()
	}
	b.add(dl)
	b.endList("Definition list")
}

// endList warns when a list is followed directly by unindented text.
func (b *blockParser) endList(what string) {
	if b.i == 0 || isBlank(b.cur()) || b.toks[b.i-1].Type == scan.BlankLine {
		return
	}
	b.report(nodes.LevelWarning, b.cur(), "%s ends without a blank line; unexpected unindent.", what)
}

// bulletList parses items sharing the first item's bullet.
func (b *blockParser) bulletList() {
	first := b.cur()
	list := nodes.New(nodes.BulletList)
	list.Line = b.line(first)
	list.Set("bullet", first.Marker)
	for t := b.cur(); t.Type == scan.Bullet && t.Indent == 0 && t.Marker == first.Marker; t = b.cur() {
		item := nodes.New(nodes.ListItem)
		item.Line = b.line(t)
		lines, offset, end := b.itemBody(t, true)
		b.s.nested(lines, offset, item)
		list.Append(item)
		b.i = end
		b.skipBlank()
	}
	b.add(list)
	b.endList("Bullet list")
}

// enumList parses items whose enumerators continue the first one.
func (b *blockParser) enumList() {
	first, next := b.cur(), b.peek(1)
	if !isBlank(next) && next.Indent == 0 && next.Type != scan.Enum {
		b.text()
		return
	}
	e, _ := scan.ParseEnum(first.Marker, scan.Enumerator{})
	list := nodes.New(nodes.EnumeratedList)
	list.Line = b.line(first)
	list.Set("enumtype", e.Type.String())
	list.Set("prefix", e.Prefix)
	list.Set("suffix", e.Suffix)
	if e.Value != 1 {
		list.Set("start", strconv.Itoa(e.Value))
		b.report(nodes.LevelInfo, first, "Enumerated list start value not ordinal-1: %q (ordinal %d)", first.Marker, e.Value)
	}
	prev := e
	for t := b.cur(); t.Type == scan.Enum && t.Indent == 0; t = b.cur() {
		cur := e
		if list.Len() > 0 {
			var ok bool
			cur, ok = scan.ParseEnum(t.Marker, prev)
			if !ok || cur.Type != e.Type || cur.Prefix != e.Prefix || cur.Suffix != e.Suffix || cur.Value != prev.Value+1 {
				break
			}
		}
		item := nodes.New(nodes.ListItem)
		item.Line = b.line(t)
		lines, offset, end := b.itemBody(t, true)
		b.s.nested(lines, offset, item)
		list.Append(item)
		b.i = end
		b.skipBlank()
		prev = cur
	}
	b.add(list)
	b.endList("Enumerated list")
}

// fieldList parses consecutive fields.
func (b *blockParser) fieldList() {
	list := nodes.New(nodes.FieldList)
	list.Line = b.line(b.cur())
	for t := b.cur(); t.Type == scan.Field && t.Indent == 0; t = b.cur() {
		line := b.line(t)
		name := nodes.New(nodes.FieldName, b.s.inline(t.Marker, line)...)
		body := nodes.New(nodes.FieldBody)
		lines, offset, end := b.itemBody(t, false)
		b.s.nested(lines, offset, body)
		f := nodes.New(nodes.Field, name, body)
		f.Line = line
		list.Append(f)
		b.i = end
		b.skipBlank()
	}
	b.add(list)
	b.endList("Field list")
}

type lineBlockLine struct {
	indent int // -1 for empty lines
	text   string
	line   int
}

// lineBlock parses "|" lines. Indented lines continue the previous line.
func (b *blockParser) lineBlock() {
	start := b.cur()
	var lines []lineBlockLine
	for t := b.cur(); t.Type == scan.LineBlock && t.Indent == 0; t = b.cur() {
		l := lineBlockLine{indent: -1, text: t.Text, line: b.line(t)}
		if t.Text != "" {
			l.indent = t.BodyIndent - t.Indent - 2
		}
		b.i++
		for c := b.cur(); !isBlank(c) && c.Indent > 0; c = b.cur() {
			l.text += "\n" + c.Raw
			b.i++
		}
		lines = append(lines, l)
	}
	lb := b.s.lineBlock(lines, 0)
	lb.Line = b.line(start)
	b.add(lb)
	b.endList("Line block")
}

// lineBlock nests lines indented beyond base into child line blocks.
func (s *state) lineBlock(lines []lineBlockLine, base int) *nodes.Node {
	lb := nodes.New(nodes.LineBlock)
	for i := 0; i < len(lines); {
		if lines[i].indent <= base {
			ln := nodes.New(nodes.Line, s.inline(lines[i].text, lines[i].line)...)
			ln.Line = lines[i].line
			lb.Append(ln)
			i++
			continue
		}
		j, least := i, lines[i].indent
		for j < len(lines) && (lines[j].indent > base || (lines[j].indent < 0 && j+1 < len(lines) && lines[j+1].indent > base)) {
			if lines[j].indent >= 0 {
				least = min(least, lines[j].indent)
			}
			j++
		}
		lb.Append(s.lineBlock(lines[i:j], least))
		i = j
	}
	return lb
}

// comment parses explicit markup that is not a directive, target or
// footnote.
func (b *blockParser) comment() {
	t := b.cur()
	rest, end := b.indented(b.i + 1)
	var lines []string
	if t.Text != "" {
		lines = append(lines, t.Text)
	}
	lines = append(lines, dedent(rest, minIndent(rest))...)
	c := nodes.New(nodes.Comment)
	c.Text = strings.Join(trimBlank(lines), "\n")
	c.Line = b.line(t)
	b.add(c)
	b.i = end
}

// target parses a hyperlink target.
func (b *blockParser) target() {
	t := b.cur()
	rest, end := b.indented(b.i + 1)
	b.i = end
	ref := t.Text
	for _, line := range rest {
		ref += strings.TrimSpace(line)
	}
	tg := nodes.New(nodes.Target)
	tg.Line = b.line(t)
	if t.Marker == "_" {
		tg.Set("anonymous", "1")
	} else {
		tg.Names = []string{normalizeName(t.Marker)}
	}
	switch {
	case ref == "":
	case strings.HasSuffix(ref, "_") && !strings.HasSuffix(ref, `\_`) && !strings.Contains(strings.Trim(ref, "`"), "<"):
		tg.Set("refname", normalizeName(strings.Trim(ref[:len(ref)-1], "`")))
	default:
		tg.Set("refuri", unescape(strings.Join(strings.Fields(ref), "")))
	}
	b.add(tg)
}

var numberRE = regexp.MustCompile(`^[0-9]+$`)

// footnote parses a footnote or citation.
func (b *blockParser) footnote() {
	t := b.cur()
	label := t.Marker
	n := nodes.New(nodes.Footnote)
	n.Line = b.line(t)
	text := label
	switch {
	case numberRE.MatchString(label):
		n.Names = []string{label}
	case label == "#" || label == "*":
		n.Set("auto", "1")
		text = ""
	case strings.HasPrefix(label, "#"):
		n.Set("auto", "1")
		n.Names = []string{normalizeName(label[1:])}
		text = ""
	default:
		n.Kind = nodes.Citation
		n.Names = []string{normalizeName(label)}
	}
	n.Append(nodes.New(nodes.Label, nodes.NewText(text)))
	lines, offset, end := b.itemBody(t, false)
	b.s.nested(lines, offset, n)
	b.i = end
	b.add(n)
}

// table parses a simple table: rows of text between "=" borders.
func (b *blockParser) table() {
	start := b.i
	var borders []int
	end := -1
	for i := b.i; i < len(b.toks) && b.toks[i].Type != scan.EOF; i++ {
		t := b.toks[i]
		if t.Type == scan.TableBorder && t.Indent == 0 {
			borders = append(borders, i)
			if len(borders) >= 2 {
				if n := i + 1; n >= len(b.toks) || isBlank(b.toks[n]) {
					end = i + 1
					break
				}
			}
		}
	}
	if end < 0 || len(borders) > 3 {
		b.report(nodes.LevelError, b.cur(), "Malformed table.\nNo bottom table border found.")
		for b.i++; !isBlank(b.cur()); b.i++ {
		}
		return
	}
	b.i = end
	cols := columns(b.toks[start].Text)
	head, bodyFrom := []*nodes.Node(nil), borders[0]+1
	if len(borders) == 3 {
		head = b.tableRows(bodyFrom, borders[1], cols)
		bodyFrom = borders[1] + 1
	}
	body := b.tableRows(bodyFrom, borders[len(borders)-1], cols)

	tgroup := nodes.New(nodes.Tgroup)
	tgroup.Set("cols", strconv.Itoa(len(cols)))
	for _, c := range cols {
		cs := nodes.New(nodes.Colspec)
		cs.Set("colwidth", strconv.Itoa(c[1]-c[0]))
		tgroup.Append(cs)
	}
	if head != nil {
		tgroup.Append(nodes.New(nodes.Thead, head...))
	}
	tgroup.Append(nodes.New(nodes.Tbody, body...))
	table := nodes.New(nodes.Table, tgroup)
	table.Line = b.line(b.toks[start])
	b.add(table)
}

// columns returns the [start, end) spans of the "=" runs in a border.
func columns(border string) [][2]int {
	var cols [][2]int
	for i := 0; i < len(border); {
		if border[i] != '=' {
			i++
			continue
		}
		j := i
		for j < len(border) && border[j] == '=' {
			j++
		}
		cols = append(cols, [2]int{i, j})
		i = j
	}
	return cols
}

// tableRows builds rows from the lines in [from, to). Columns count runes.
// A line whose first column is blank continues the previous row.
func (b *blockParser) tableRows(from, to int, cols [][2]int) []*nodes.Node {
	type row struct {
		line  int
		cells [][]string
	}
	var rows []*row
	for i := from; i < to; i++ {
		t := b.toks[i]
		line := []rune(fullLine(t))
		cells := make([]string, len(cols))
		for k, c := range cols {
			hi := c[1]
			if k == len(cols)-1 {
				hi = len(line)
			}
			if c[0] < len(line) {
				cells[k] = strings.TrimRight(string(line[c[0]:min(hi, len(line))]), " ")
			}
		}
		if len(rows) > 0 && (isBlank(t) || strings.TrimSpace(cells[0]) == "") {
			last := rows[len(rows)-1]
			for k := range cells {
				last.cells[k] = append(last.cells[k], cells[k])
			}
			continue
		}
		if isBlank(t) {
			continue
		}
		r := &row{line: b.line(t), cells: make([][]string, len(cols))}
		for k := range cells {
			r.cells[k] = []string{cells[k]}
		}
		rows = append(rows, r)
	}
	var out []*nodes.Node
	for _, r := range rows {
		rn := nodes.New(nodes.Row)
		rn.Line = r.line
		for _, cell := range r.cells {
			entry := nodes.New(nodes.Entry)
			if lines := trimBlank(cell); len(lines) > 0 {
				b.s.nested(dedent(lines, minIndent(lines)), r.line-1, entry)
			}
			rn.Append(entry)
		}
		out = append(out, rn)
	}
	return out
}
