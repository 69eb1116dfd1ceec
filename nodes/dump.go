// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nodes

import (
	"fmt"
	"sort"
	"strings"
)

// Dump renders the tree rooted at n as indented pseudo-XML.
func Dump(n *Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

func dump(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("    ", depth)
	if n.Kind == Text {
		for _, line := range strings.Split(n.Text, "\n") {
			fmt.Fprintf(b, "%s%s\n", indent, line)
		}
		return
	}
	fmt.Fprintf(b, "%s<%s%s>\n", indent, n.Kind, dumpAttrs(n))
	if n.Kind == Comment || n.Kind == Raw {
		for _, line := range strings.Split(n.Text, "\n") {
			fmt.Fprintf(b, "%s    %s\n", indent, line)
		}
	}
	for _, c := range n.Children {
		dump(b, c, depth+1)
	}
}

func dumpAttrs(n *Node) string {
	var parts []string
	list := func(name string, v []string) {
		if len(v) > 0 {
			parts = append(parts, fmt.Sprintf("%s=%q", name, strings.Join(v, " ")))
		}
	}
	list("backrefs", n.Backrefs)
	list("classes", n.Classes)
	list("ids", n.IDs)
	list("names", n.Names)
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, n.Attrs[k]))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}
