// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"strings"

	"github.com/matthewdargan/semantic-rst/nodes"
)

// A RoleFunc turns the text of an interpreted text role into inline nodes.
// The text has backslash escapes removed.
type RoleFunc func(name, text string) ([]*nodes.Node, error)

// Roles maps role names to their implementations. The zero value has no
// roles; use NewRoles for the standard set.
type Roles struct {
	m map[string]RoleFunc
	// Default names the role applied to interpreted text without an
	// explicit role.
	Default string
}

// NewRoles returns a registry holding the standard roles.
func NewRoles() *Roles {
	r := &Roles{Default: "title-reference"}
	r.Register(Wrap(nodes.Emphasis), "emphasis")
	r.Register(Wrap(nodes.Strong), "strong")
	r.Register(Wrap(nodes.Literal), "literal")
	r.Register(CodeRole, "code")
	r.Register(Wrap(nodes.Subscript), "subscript", "sub")
	r.Register(Wrap(nodes.Superscript), "superscript", "sup")
	r.Register(Wrap(nodes.TitleReference), "title-reference", "title", "t")
	return r
}

// Register binds fn to each name, replacing any earlier binding.
func (r *Roles) Register(fn RoleFunc, names ...string) {
	if r.m == nil {
		r.m = make(map[string]RoleFunc)
	}
	for _, name := range names {
		r.m[strings.ToLower(name)] = fn
	}
}

// Lookup returns the role registered under name.
func (r *Roles) Lookup(name string) (RoleFunc, bool) {
	if name == "" {
		name = r.Default
	}
	fn, ok := r.m[strings.ToLower(name)]
	return fn, ok
}

// Len returns the number of registered role names.
func (r *Roles) Len() int {
	return len(r.m)
}

// Wrap returns a role producing a single node of kind k around the text.
func Wrap(k nodes.Kind) RoleFunc {
	return func(_, text string) ([]*nodes.Node, error) {
		return []*nodes.Node{nodes.New(k, nodes.NewText(text))}, nil
	}
}

// CodeRole produces a literal marked with the "code" class.
func CodeRole(_, text string) ([]*nodes.Node, error) {
	n := nodes.New(nodes.Literal, nodes.NewText(text))
	n.AddClass("code")
	return []*nodes.Node{n}, nil
}

// errUnknownRole formats the problem reported for an unregistered role.
func errUnknownRole(name string) error {
	return fmt.Errorf("Unknown interpreted text role %q.", name)
}
