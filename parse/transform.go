// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"strconv"
	"unicode"

	"github.com/goliatone/go-slug"

	"github.com/matthewdargan/semantic-rst/nodes"
)

// refs tracks ids and reference names while transforming a document.
type refs struct {
	ids     map[string]bool
	names   map[string]*nodes.Node // name -> node that declared it
	nameIDs map[string]string      // name -> id of the element it points at
	auto    int
	entries int
}

// transform runs the standard transforms in order.
func (s *state) transform(doc *nodes.Node) {
	r := &refs{ids: map[string]bool{}, names: map[string]*nodes.Node{}, nameIDs: map[string]string{}}
	s.assignIDs(doc, r)
	if s.p.Settings.DoctitleXform && s.promoteTitle(doc) {
		s.promoteSubtitle(doc)
	}
	if s.p.Settings.SectsubtitleXform {
		for _, sec := range doc.FindAll(isKind(nodes.Section)) {
			s.promoteSubtitle(sec)
		}
	}
	s.docinfo(doc)
	s.propagateTargets(doc, r)
	s.footnotes(doc, r)
	s.citations(doc, r)
	s.references(doc, r)
	s.buildContents(doc, r)
	s.checkTransitions(doc)
}

func isKind(k nodes.Kind) func(*nodes.Node) bool {
	return func(n *nodes.Node) bool { return n.Kind == k }
}

// makeID derives a unique id from name, or an automatic one when the name
// has no usable characters.
func (r *refs) makeID(name string) string {
	base, err := slug.Normalize(name)
	if err != nil || base == "" || !unicode.IsLetter(rune(base[0])) {
		return r.autoID()
	}
	id := base
	for i := 1; r.ids[id]; i++ {
		id = base + "-" + strconv.Itoa(i)
	}
	r.ids[id] = true
	return id
}

// autoID returns the next unused "idN".
func (r *refs) autoID() string {
	for {
		r.auto++
		id := "id" + strconv.Itoa(r.auto)
		if !r.ids[id] {
			r.ids[id] = true
			return id
		}
	}
}

// assignIDs gives every named node an id and records its names.
func (s *state) assignIDs(doc *nodes.Node, r *refs) {
	for _, n := range doc.FindAll(func(n *nodes.Node) bool { return len(n.Names) > 0 }) {
		if len(n.IDs) == 0 {
			n.IDs = []string{r.makeID(n.Names[0])}
		}
		for _, name := range n.Names {
			if prev, dup := r.names[name]; dup {
				level := nodes.LevelInfo
				if n.Kind != nodes.Section || prev.Kind != nodes.Section {
					level = nodes.LevelWarning
				}
				s.report(level, n.Line, "Duplicate %s target name: %q.", implicitness(n), name)
				continue
			}
			r.names[name] = n
			r.nameIDs[name] = n.IDs[0]
		}
	}
}

func implicitness(n *nodes.Node) string {
	if n.Kind == nodes.Section {
		return "implicit"
	}
	return "explicit"
}

// candidate returns the index of the first child of n that is not a title,
// subtitle or comment when it is a section and the last child, or -1.
func candidate(n *nodes.Node) int {
	for i, c := range n.Children {
		switch c.Kind {
		case nodes.Title, nodes.Subtitle, nodes.Comment:
			continue
		}
		if c.Kind == nodes.Section && i == n.Len()-1 {
			return i
		}
		return -1
	}
	return -1
}

// promoteTitle makes a lone top-level section's title the document title.
func (s *state) promoteTitle(doc *nodes.Node) bool {
	i := candidate(doc)
	if i < 0 {
		return false
	}
	sec := doc.Child(i)
	doc.IDs = append(doc.IDs, sec.IDs...)
	doc.Names = append(doc.Names, sec.Names...)
	doc.Classes = append(doc.Classes, sec.Classes...)
	doc.Remove(sec)
	before := doc.Children
	doc.Children = nil
	children := sec.Children
	sec.Children = nil
	doc.Append(children[0])
	doc.Append(before...)
	doc.Append(children[1:]...)
	return true
}

// promoteSubtitle makes the title of n's lone subsection n's subtitle.
func (s *state) promoteSubtitle(n *nodes.Node) bool {
	i := candidate(n)
	if i < 0 || n.Len() == 0 || n.Child(0).Kind != nodes.Title {
		return false
	}
	sec := n.Child(i)
	title := sec.Child(0)
	sub := nodes.New(nodes.Subtitle, title.Children...)
	sub.IDs = sec.IDs
	sub.Names = sec.Names
	sub.Classes = sec.Classes
	sub.Line = title.Line
	n.Remove(sec)
	rest := n.Children[1:]
	children := sec.Children[1:]
	sec.Children = nil
	head := n.Child(0)
	n.Children = nil
	n.Append(head, sub)
	n.Append(rest...)
	n.Append(children...)
	return true
}

// docinfo turns the first field list after the document title into
// bibliographic fields.
func (s *state) docinfo(doc *nodes.Node) {
	for _, c := range doc.Children {
		switch c.Kind {
		case nodes.Title, nodes.Subtitle, nodes.Comment:
			continue
		case nodes.FieldList:
			c.Kind = nodes.Docinfo
			for _, f := range c.Children {
				f.Set("name", normalizeName(f.Child(0).AsText()))
			}
		}
		return
	}
}

// propagateTargets moves the ids and names of internal targets onto the
// element that follows them.
func (s *state) propagateTargets(doc *nodes.Node, r *refs) {
	for _, t := range doc.FindAll(isKind(nodes.Target)) {
		if t.Has("refuri") || t.Has("refname") {
			continue
		}
		next := nextElement(t)
		if next == nil {
			continue
		}
		if len(t.IDs) == 0 {
			t.IDs = []string{r.autoID()}
		}
		next.IDs = append(next.IDs, t.IDs...)
		next.Names = append(next.Names, t.Names...)
		t.Set("refid", t.IDs[0])
		t.IDs, t.Names = nil, nil
	}
}

// nextElement returns the visible element following n, ascending out of
// its parents when n is the last child.
func nextElement(n *nodes.Node) *nodes.Node {
	for n != nil {
		for sib := n.NextSibling(); sib != nil; sib = sib.NextSibling() {
			if !sib.Kind.IsInvisible() {
				return sib
			}
		}
		n = n.Parent
	}
	return nil
}

// footnotes numbers auto-numbered footnotes and links references to them.
func (s *state) footnotes(doc *nodes.Node, r *refs) {
	notes := doc.FindAll(isKind(nodes.Footnote))
	used := map[string]bool{}
	for _, fn := range notes {
		if !fn.Has("auto") {
			used[fn.Child(0).AsText()] = true
		}
	}
	var anon []*nodes.Node
	number := 0
	for _, fn := range notes {
		if !fn.Has("auto") {
			continue
		}
		for number++; used[strconv.Itoa(number)]; number++ {
		}
		label := strconv.Itoa(number)
		fn.Child(0).Children[0].Text = label
		if len(fn.Names) == 0 {
			anon = append(anon, fn)
			fn.Names = []string{label}
			r.names[label] = fn
		}
		if len(fn.IDs) == 0 {
			fn.IDs = []string{r.autoID()}
		}
		for _, name := range fn.Names {
			r.nameIDs[name] = fn.IDs[0]
		}
	}
	for _, ref := range doc.FindAll(isKind(nodes.FootnoteReference)) {
		var fn *nodes.Node
		switch {
		case ref.Has("auto") && !ref.Has("refname"):
			if len(anon) == 0 {
				s.report(nodes.LevelError, ref.Line, "Too many autonumbered footnote references: only %d corresponding footnotes available.", countAuto(notes))
				problematic(ref, "[#]_")
				continue
			}
			fn, anon = anon[0], anon[1:]
		default:
			fn = r.names[ref.Get("refname")]
		}
		if fn == nil || fn.Kind != nodes.Footnote {
			s.report(nodes.LevelError, ref.Line, "Unknown target name: %q.", ref.Get("refname"))
			problematic(ref, fmt.Sprintf("[%s]_", ref.Get("refname")))
			continue
		}
		link(ref, fn, r)
		ref.Children = nil
		ref.Append(nodes.NewText(fn.Child(0).AsText()))
	}
}

func countAuto(notes []*nodes.Node) int {
	n := 0
	for _, fn := range notes {
		if fn.Has("auto") {
			n++
		}
	}
	return n
}

// link points ref at target and records the back-reference.
func link(ref, target *nodes.Node, r *refs) {
	if len(ref.IDs) == 0 {
		ref.IDs = []string{r.autoID()}
	}
	ref.Set("refid", target.IDs[0])
	ref.Unset("refname")
	target.Backrefs = append(target.Backrefs, ref.IDs[0])
}

// problematic turns n into a problematic node showing raw.
func problematic(n *nodes.Node, raw string) {
	n.Kind = nodes.Problematic
	n.Attrs = nil
	n.Children = nil
	n.Append(nodes.NewText(raw))
}

// citations links citation references to their citations.
func (s *state) citations(doc *nodes.Node, r *refs) {
	for _, ref := range doc.FindAll(isKind(nodes.CitationReference)) {
		c := r.names[ref.Get("refname")]
		if c == nil || c.Kind != nodes.Citation {
			s.report(nodes.LevelError, ref.Line, "Unknown target name: %q.", ref.Get("refname"))
			problematic(ref, "["+ref.AsText()+"]_")
			continue
		}
		link(ref, c, r)
	}
}

// references resolves hyperlink references to URIs and internal ids.
func (s *state) references(doc *nodes.Node, r *refs) {
	var anonTargets []*nodes.Node
	for _, t := range doc.FindAll(isKind(nodes.Target)) {
		if t.Has("anonymous") {
			anonTargets = append(anonTargets, t)
		}
	}
	all := doc.FindAll(isKind(nodes.Reference))
	for _, ref := range all {
		if ref.Has("refuri") && ref.Has("name") {
			name := normalizeName(ref.Get("name"))
			if _, ok := r.names[name]; !ok && name != "" {
				r.names[name] = ref
			}
		}
	}
	var anonRefs []*nodes.Node
	for _, ref := range all {
		if ref.Has("anonymous") {
			anonRefs = append(anonRefs, ref)
		}
	}
	if len(anonRefs) != len(anonTargets) {
		s.report(nodes.LevelError, 0, "Anonymous hyperlink mismatch: %d references but %d targets.", len(anonRefs), len(anonTargets))
		for _, ref := range anonRefs {
			problematic(ref, ref.AsText()+"__")
		}
		anonRefs = nil
	}
	for i, ref := range anonRefs {
		ref.Unset("anonymous")
		s.resolve(ref, anonTargets[i], r, 0)
	}
	for _, ref := range all {
		if !ref.Has("refname") {
			continue
		}
		name := ref.Get("refname")
		target, ok := r.names[name]
		if !ok {
			s.report(nodes.LevelError, ref.Line, "Unknown target name: %q.", name)
			problematic(ref, ref.AsText()+"_")
			continue
		}
		s.resolve(ref, target, r, 0)
	}
}

// resolve copies the destination of target onto ref, following indirect
// targets.
func (s *state) resolve(ref, target *nodes.Node, r *refs, depth int) {
	switch {
	case target.Has("refuri"):
		ref.Set("refuri", target.Get("refuri"))
	case target.Kind == nodes.Target && target.Has("refname"):
		next, ok := r.names[target.Get("refname")]
		if !ok || depth > 8 {
			s.report(nodes.LevelError, ref.Line, "Indirect hyperlink target %q refers to target %q, which does not exist.", ref.Get("refname"), target.Get("refname"))
			problematic(ref, ref.AsText()+"_")
			return
		}
		s.resolve(ref, next, r, depth+1)
		return
	case target.Kind == nodes.Target && target.Has("refid"):
		ref.Set("refid", target.Get("refid"))
	case len(target.IDs) > 0:
		ref.Set("refid", target.IDs[0])
	}
	ref.Unset("refname")
}

// buildContents fills in each contents topic with a list of section links.
func (s *state) buildContents(doc *nodes.Node, r *refs) {
	for _, p := range s.contents {
		if p.topic.Parent == nil {
			continue
		}
		start := doc
		if p.local {
			for start = p.topic.Parent; start.Kind != nodes.Section && start.Kind != nodes.Document; start = start.Parent {
			}
		}
		list := s.tocList(start, p, r, 1)
		if list == nil {
			p.topic.Parent.Remove(p.topic)
			continue
		}
		p.topic.Append(list)
	}
}

func (s *state) tocList(n *nodes.Node, p *pendingContents, r *refs, level int) *nodes.Node {
	if p.depth > 0 && level > p.depth {
		return nil
	}
	list := nodes.New(nodes.BulletList)
	for _, sec := range n.Children {
		if sec.Kind != nodes.Section || len(sec.IDs) == 0 {
			continue
		}
		title := sec.Child(0)
		r.entries++
		entryID := fmt.Sprintf("toc-entry-%d", r.entries)
		r.ids[entryID] = true
		ref := nodes.New(nodes.Reference, tocText(title)...)
		ref.IDs = []string{entryID}
		ref.Set("refid", sec.IDs[0])
		item := nodes.New(nodes.ListItem, nodes.New(nodes.Paragraph, ref))
		switch p.backlinks {
		case "entry":
			title.Set("refid", entryID)
		case "top":
			if len(p.topic.IDs) > 0 {
				title.Set("refid", p.topic.IDs[0])
			}
		}
		if sub := s.tocList(sec, p, r, level+1); sub != nil {
			item.Append(sub)
		}
		list.Append(item)
	}
	if list.Len() == 0 {
		return nil
	}
	return list
}

// tocText copies a title's children without links and footnote references.
func tocText(title *nodes.Node) []*nodes.Node {
	var out []*nodes.Node
	for _, c := range title.Children {
		switch c.Kind {
		case nodes.FootnoteReference, nodes.CitationReference, nodes.Target:
			continue
		case nodes.Reference:
			out = append(out, tocText(c)...)
			continue
		}
		out = append(out, c.Clone())
	}
	return out
}

// checkTransitions reports transitions that begin or end a section or
// that follow another transition.
func (s *state) checkTransitions(doc *nodes.Node) {
	for _, tr := range doc.FindAll(isKind(nodes.Transition)) {
		parent := tr.Parent
		i := parent.Index(tr)
		first := 0
		for first < parent.Len() {
			switch parent.Child(first).Kind {
			case nodes.Title, nodes.Subtitle, nodes.Comment, nodes.Target:
				first++
				continue
			}
			break
		}
		switch {
		case i == first:
			s.report(nodes.LevelError, tr.Line, "Document or section may not begin with a transition.")
		case parent.Child(i-1).Kind == nodes.Transition:
			s.report(nodes.LevelError, tr.Line, "At least one body element must separate transitions; adjacent transitions are not allowed.")
		case i == parent.Len()-1 && parent.Kind == nodes.Document:
			s.report(nodes.LevelError, tr.Line, "Document may not end with a transition.")
		}
	}
}
