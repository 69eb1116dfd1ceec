// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/matthewdargan/semantic-rst/internal/highlight"
	"github.com/matthewdargan/semantic-rst/nodes"
)

// Argument says whether a directive takes an argument.
type Argument int

const (
	NoArgument Argument = iota
	OptionalArgument
	RequiredArgument
)

// Content says whether a directive takes a content block.
type Content int

const (
	NoContent Content = iota
	OptionalContent
	RequiredContent
)

// DirectiveSpec describes a directive. The "class" and "name" options are
// accepted by every directive and applied to the first node it returns.
type DirectiveSpec struct {
	Argument Argument
	Content  Content
	Options  []string
	Run      func(d *Directive) ([]*nodes.Node, error)
}

// Directive is one use of a directive in a document.
type Directive struct {
	Name     string
	Argument string
	Options  map[string]string
	Content  []string
	Line     int

	contentOffset int
	s             *state
}

// ParseContent parses the content block into parent.
func (d *Directive) ParseContent(parent *nodes.Node) {
	d.s.nested(d.Content, d.contentOffset, parent)
}

// Inline parses inline markup.
func (d *Directive) Inline(text string) []*nodes.Node {
	return d.s.inline(text, d.Line)
}

// Report records a problem at the directive's line.
func (d *Directive) Report(level nodes.Level, format string, args ...any) {
	d.s.report(level, d.Line, format, args...)
}

// Settings returns the parser settings.
func (d *Directive) Settings() Settings {
	return d.s.p.Settings
}

// Directives maps directive names to their specs.
type Directives struct {
	m map[string]DirectiveSpec
}

// NewDirectives returns a registry holding the standard directives.
func NewDirectives() *Directives {
	d := &Directives{}
	for _, k := range []nodes.Kind{
		nodes.Attention, nodes.Caution, nodes.Danger, nodes.Error, nodes.Hint,
		nodes.Important, nodes.Note, nodes.Tip, nodes.Warning,
	} {
		d.Register(DirectiveSpec{Content: RequiredContent, Run: admonition(k)}, k.String())
	}
	d.Register(DirectiveSpec{Argument: RequiredArgument, Content: RequiredContent, Run: genericAdmonition}, "admonition")
	d.Register(DirectiveSpec{Argument: RequiredArgument, Content: RequiredContent, Run: titled(nodes.Topic)}, "topic")
	d.Register(DirectiveSpec{Argument: RequiredArgument, Content: RequiredContent, Options: []string{"subtitle"}, Run: titled(nodes.Sidebar)}, "sidebar")
	d.Register(DirectiveSpec{Argument: OptionalArgument, Content: RequiredContent, Run: tableDirective}, "table")
	d.Register(DirectiveSpec{Argument: OptionalArgument, Content: RequiredContent, Options: []string{"number-lines"}, Run: codeDirective}, "code", "code-block", "sourcecode")
	d.Register(DirectiveSpec{Argument: OptionalArgument, Options: []string{"depth", "local", "backlinks"}, Run: contentsDirective}, "contents")
	d.Register(DirectiveSpec{Argument: RequiredArgument, Content: RequiredContent, Run: rawDirective}, "raw")
	return d
}

// Register binds spec to each name, replacing any earlier binding.
func (r *Directives) Register(spec DirectiveSpec, names ...string) {
	if r.m == nil {
		r.m = make(map[string]DirectiveSpec)
	}
	for _, name := range names {
		r.m[strings.ToLower(name)] = spec
	}
}

// Lookup returns the spec registered under name.
func (r *Directives) Lookup(name string) (DirectiveSpec, bool) {
	spec, ok := r.m[strings.ToLower(name)]
	return spec, ok
}

var optionRE = regexp.MustCompile(`^:((?:\\.|[^:\\])+):(?:\s+(.*))?$`)

// directive parses explicit markup of the form ".. name:: argument".
func (b *blockParser) directive() {
	t := b.cur()
	rest, end := b.indented(b.i + 1)
	b.i = end
	line := b.line(t)
	spec, ok := b.s.p.Directives.Lookup(t.Marker)
	if !ok {
		b.report(nodes.LevelError, t, "Unknown directive type %q.", t.Marker)
		return
	}
	d := &Directive{Name: t.Marker, Line: line, Options: map[string]string{}, s: b.s}
	body := dedent(rest, minIndent(rest))
	i := 0
	if spec.Argument == NoArgument {
		if t.Text != "" {
			body = append([]string{t.Text}, body...)
			line--
		}
	} else {
		arg := []string{t.Text}
		for ; i < len(body) && strings.TrimSpace(body[i]) != "" && !optionRE.MatchString(body[i]); i++ {
			arg = append(arg, body[i])
		}
		d.Argument = strings.TrimSpace(strings.Join(arg, " "))
	}
	if spec.Argument != NoArgument || t.Text == "" {
		for ; i < len(body); i++ {
			m := optionRE.FindStringSubmatch(body[i])
			if m == nil {
				break
			}
			name := strings.ToLower(m[1])
			if !slices.Contains(spec.Options, name) && name != "class" && name != "name" {
				b.report(nodes.LevelError, t, "Error in %q directive:\nunknown option: %q.", d.Name, name)
				return
			}
			d.Options[name] = strings.TrimSpace(m[2])
		}
	}
	for i < len(body) && strings.TrimSpace(body[i]) == "" {
		i++
	}
	d.Content = body[i:]
	d.contentOffset = line + i
	switch {
	case spec.Argument == RequiredArgument && d.Argument == "":
		b.report(nodes.LevelError, t, "Error in %q directive:\n1 argument(s) required, 0 supplied.", d.Name)
		return
	case spec.Content == RequiredContent && len(d.Content) == 0:
		b.report(nodes.LevelError, t, "Content block expected for the %q directive; none found.", d.Name)
		return
	case spec.Content == NoContent && len(d.Content) > 0:
		b.report(nodes.LevelError, t, "Error in %q directive:\nno content permitted.", d.Name)
		return
	}
	out, err := spec.Run(d)
	if err != nil {
		b.report(nodes.LevelError, t, "Error in %q directive:\n%s", d.Name, err)
		return
	}
	if len(out) > 0 {
		applyCommonOptions(out[0], d.Options)
	}
	for _, n := range out {
		if n.Line == 0 {
			n.Line = b.line(t)
		}
		b.add(n)
	}
}

// applyCommonOptions adds the "class" and "name" options to n.
func applyCommonOptions(n *nodes.Node, opts map[string]string) {
	for _, c := range strings.Fields(opts["class"]) {
		n.AddClass(classValue(c))
	}
	if name := opts["name"]; name != "" {
		n.Names = append(n.Names, normalizeName(name))
	}
}

// classValue lower-cases c and replaces characters that are not letters,
// digits or hyphens.
func classValue(c string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return '-'
	}, c)
}

func admonition(k nodes.Kind) func(*Directive) ([]*nodes.Node, error) {
	return func(d *Directive) ([]*nodes.Node, error) {
		n := nodes.New(k)
		d.ParseContent(n)
		return []*nodes.Node{n}, nil
	}
}

func genericAdmonition(d *Directive) ([]*nodes.Node, error) {
	title := nodes.New(nodes.Title, d.Inline(d.Argument)...)
	n := nodes.New(nodes.Admonition, title)
	if d.Options["class"] == "" {
		n.AddClass("admonition-" + classValue(title.AsText()))
	}
	d.ParseContent(n)
	return []*nodes.Node{n}, nil
}

// titled returns a directive building a node of kind k whose argument is
// its title.
func titled(k nodes.Kind) func(*Directive) ([]*nodes.Node, error) {
	return func(d *Directive) ([]*nodes.Node, error) {
		n := nodes.New(k, nodes.New(nodes.Title, d.Inline(d.Argument)...))
		if sub := d.Options["subtitle"]; sub != "" {
			n.Append(nodes.New(nodes.Subtitle, d.Inline(sub)...))
		}
		d.ParseContent(n)
		return []*nodes.Node{n}, nil
	}
}

func tableDirective(d *Directive) ([]*nodes.Node, error) {
	holder := nodes.New(nodes.Document)
	d.ParseContent(holder)
	if holder.Len() != 1 || holder.Child(0).Kind != nodes.Table {
		return nil, errors.New("exactly one table expected")
	}
	table := holder.Child(0)
	holder.Remove(table)
	if d.Argument != "" {
		title := nodes.New(nodes.Title, d.Inline(d.Argument)...)
		table.Insert(0, title)
	}
	return []*nodes.Node{table}, nil
}

func codeDirective(d *Directive) ([]*nodes.Node, error) {
	lang := strings.ToLower(strings.TrimSpace(d.Argument))
	code := strings.Join(trimBlank(d.Content), "\n")
	lb := nodes.New(nodes.LiteralBlock)
	lb.AddClass("code")
	if lang != "" {
		lb.AddClass(lang)
	}
	mode := d.Settings().SyntaxHighlight
	toks, err := highlight.Tokens(lang, code, mode)
	if errors.Is(err, highlight.ErrNoLexer) {
		d.Report(nodes.LevelWarning, "Cannot analyze code. No lexer found for %q.", lang)
	} else if err != nil {
		return nil, err
	}
	for _, tok := range toks {
		if len(tok.Classes) == 0 {
			lb.Append(nodes.NewText(tok.Text))
			continue
		}
		in := nodes.New(nodes.Inline, nodes.NewText(tok.Text))
		in.Classes = tok.Classes
		lb.Append(in)
	}
	if v, ok := d.Options["number-lines"]; ok {
		if v == "" {
			v = "1"
		}
		if _, err := strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("invalid number-lines value %q", v)
		}
		lb.Set("number-lines", v)
	}
	return []*nodes.Node{lb}, nil
}

func rawDirective(d *Directive) ([]*nodes.Node, error) {
	n := nodes.New(nodes.Raw)
	n.Set("format", strings.ToLower(strings.Join(strings.Fields(d.Argument), " ")))
	n.Text = strings.Join(trimBlank(d.Content), "\n")
	return []*nodes.Node{n}, nil
}

// pendingContents records a contents directive to fill in once sections
// have ids.
type pendingContents struct {
	topic     *nodes.Node
	depth     int
	local     bool
	backlinks string
}

func contentsDirective(d *Directive) ([]*nodes.Node, error) {
	topic := nodes.New(nodes.Topic)
	topic.AddClass("contents")
	p := &pendingContents{topic: topic, backlinks: d.Settings().TocBacklinks}
	if _, p.local = d.Options["local"]; p.local {
		topic.AddClass("local")
	}
	name := "Contents"
	if d.Argument != "" {
		title := nodes.New(nodes.Title, d.Inline(d.Argument)...)
		topic.Append(title)
		name = title.AsText()
	} else if !p.local {
		topic.Append(nodes.New(nodes.Title, nodes.NewText(name)))
	}
	topic.Names = []string{normalizeName(name)}
	if v := d.Options["depth"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid depth %q", v)
		}
		p.depth = n
	}
	if v, ok := d.Options["backlinks"]; ok {
		switch v {
		case "entry", "top", "none":
			p.backlinks = v
		default:
			return nil, fmt.Errorf(`"backlinks" must be one of "entry", "top" or "none", not %q`, v)
		}
	}
	d.s.contents = append(d.s.contents, p)
	return []*nodes.Node{topic}, nil
}
