// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/chewxy/math32"

	"github.com/gviegas/seascene/linear"
)

// Kind identifies the kind of an Object.
type Kind int

// Object kinds.
const (
	KindGroup Kind = iota
	KindMesh
	KindAmbientLight
	KindWater
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindAmbientLight:
		return "ambient light"
	case KindWater:
		return "water"
	}
	return "unknown"
}

// Object is the interface of things that can be attached
// to a Node.
type Object interface {
	Kind() Kind
}

// Group is an Object with no content of its own.
type Group struct{}

// Kind implements Object.
func (Group) Kind() Kind { return KindGroup }

// Mesh describes renderable geometry.
// Only the bounds are needed to draw it; the vertex data
// itself may remain compressed.
type Mesh struct {
	Primitives int
	// Local space bounds.
	Min, Max linear.V3
	// BaseColor is the linear RGB color of the first
	// material, if any.
	BaseColor linear.V3
	// Compressed is set when at least one primitive was
	// not decoded.
	Compressed bool
	// Bounded is set once Min/Max hold valid bounds.
	Bounded bool
}

// Kind implements Object.
func (*Mesh) Kind() Kind { return KindMesh }

// Extend grows the bounds of m to contain p.
func (m *Mesh) Extend(p linear.V3) {
	if !m.Bounded {
		m.Min, m.Max = p, p
		m.Bounded = true
		return
	}
	for i := range p {
		m.Min[i] = math32.Min(m.Min[i], p[i])
		m.Max[i] = math32.Max(m.Max[i], p[i])
	}
}

// Corners returns the eight corners of the bounds of m.
func (m *Mesh) Corners() (c [8]linear.V3) {
	for i := range c {
		for j := range 3 {
			if i&(1<<j) != 0 {
				c[i][j] = m.Max[j]
			} else {
				c[i][j] = m.Min[j]
			}
		}
	}
	return
}
