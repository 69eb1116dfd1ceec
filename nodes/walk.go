// Copyright 2023 Matthew P. Dargan. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nodes

// WalkStatus tells Walk how to continue after visiting a node.
type WalkStatus int

const (
	// WalkContinue visits the children and then departs the node.
	WalkContinue WalkStatus = iota
	// WalkSkipChildren departs the node without visiting its children.
	WalkSkipChildren
	// WalkSkipNode skips both the children and the departure.
	WalkSkipNode
	// WalkStop ends the walk.
	WalkStop
)

// Walker is called twice per node: once entering, once departing.
// The status returned when departing is only checked for WalkStop.
type Walker func(n *Node, entering bool) (WalkStatus, error)

// Walk traverses the tree rooted at n depth-first.
func Walk(n *Node, fn Walker) error {
	_, err := walk(n, fn)
	return err
}

func walk(n *Node, fn Walker) (WalkStatus, error) {
	status, err := fn(n, true)
	if err != nil || status == WalkStop {
		return WalkStop, err
	}
	if status == WalkSkipNode {
		return WalkContinue, nil
	}
	if status != WalkSkipChildren {
		// Hooks may replace children while walking; iterate over a snapshot.
		children := append([]*Node(nil), n.Children...)
		for _, c := range children {
			s, err := walk(c, fn)
			if err != nil || s == WalkStop {
				return WalkStop, err
			}
		}
	}
	status, err = fn(n, false)
	if err != nil || status == WalkStop {
		return WalkStop, err
	}
	return WalkContinue, nil
}
