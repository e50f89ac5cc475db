// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/gviegas/seascene/linear"
)

// Node represents a single node in a scene graph.
// Nodes have at most one immediate ancestor and
// an arbitrary number of immediate descendants.
type Node struct {
	next *Node
	prev *Node
	sub  *Node

	// Name for the node.
	// It is not used by node code.
	Name string

	// Local transform.
	Position linear.V3
	Rotation linear.Q
	Scale    linear.V3

	// Object attached to the node, if any.
	Object Object
}

// NewNode creates an initialized node holding obj.
// obj may be nil, in which case the node is a plain group.
func NewNode(name string, obj Object) *Node {
	return (&Node{Name: name, Object: obj}).Init()
}

// Init initializes node n with the identity transform.
func (n *Node) Init() *Node {
	n.Position = linear.V3{}
	n.Rotation.I()
	n.Scale = linear.V3{1, 1, 1}
	return n
}

// Insert inserts node sub as immediate descendant
// of node n.
// sub must be either a descendant of n or part of
// an unrelated graph - it must not be an ancestor
// of node n.
func (n *Node) Insert(sub *Node) {
	sub.Remove()
	sub.next = n.sub
	sub.prev = n
	if n.sub != nil {
		n.sub.prev = sub
	}
	n.sub = sub
}

// Remove removes node n from its immediate ancestor.
func (n *Node) Remove() {
	// Node.prev is only nil when the node has no
	// ancestor, since the prev field of the first
	// immediate descendant refers to the ancestor.
	if n.prev != nil {
		if n.prev.sub == n {
			n.prev.sub = n.next
		} else {
			n.prev.next = n.next
		}
		if n.next != nil {
			n.next.prev = n.prev
		}
		n.prev = nil
		n.next = nil
	}
}

// Parent returns the immediate ancestor of n, or nil
// if n is a root.
func (n *Node) Parent() *Node {
	for x := n; x.prev != nil; x = x.prev {
		if x.prev.sub == x {
			return x.prev
		}
	}
	return nil
}

// Children returns the immediate descendants of n,
// most recently inserted first.
func (n *Node) Children() []*Node {
	var s []*Node
	for x := n.sub; x != nil; x = x.next {
		s = append(s, x)
	}
	return s
}

// ForEach calls f for each descendant of node n.
// Traversal is breadth-first, so ancestors are
// processed first. If f returns false,
// ForEach returns immediately.
// The graph must not be changed until this method
// returns.
func (n *Node) ForEach(f func(*Node) bool) {
	if n.sub == nil {
		return
	}
	que := []*Node{n.sub}
	for len(que) > 0 {
		for nd := que[0]; nd != nil; nd = nd.next {
			if !f(nd) {
				return
			}
			if sub := nd.sub; sub != nil {
				que = append(que, sub)
			}
		}
		que = que[1:]
	}
}

// RotateX rotates n by angle radians about its local
// X axis.
func (n *Node) RotateX(angle float32) {
	var r linear.Q
	r.Rotate(angle, &linear.V3{1, 0, 0})
	n.Rotation.Mul(&n.Rotation, &r)
	n.Rotation.Norm(&n.Rotation)
}

// Local returns the local transform of n.
func (n *Node) Local() (m linear.M4) {
	m.Compose(&n.Position, &n.Rotation, &n.Scale)
	return
}

// World returns the world transform of n, which is the
// product of the local transforms from the root down to n.
func (n *Node) World() linear.M4 {
	m := n.Local()
	for p := n.Parent(); p != nil; p = p.Parent() {
		l := p.Local()
		m.Mul(&l, &m)
	}
	return m
}
