// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package scene provides the scene graph: a root node
// holding every renderable object, plus the global
// background and environment textures.
package scene

import (
	"sync"

	"github.com/gviegas/seascene/texture"
)

// Scene defines a scene graph.
// Its methods are safe for concurrent use, so asset
// loaders may append nodes while a frame is drawn.
type Scene struct {
	mu          sync.RWMutex
	root        Node
	background  *texture.Texture
	environment *texture.Texture
}

// New creates an initialized scene.
func New() *Scene { return new(Scene).Init() }

// Init initializes a scene.
func (s *Scene) Init() *Scene {
	s.root.Init()
	s.root.Name = "root"
	return s
}

// Add inserts n as an immediate descendant of the root.
func (s *Scene) Add(n *Node) {
	s.mu.Lock()
	s.root.Insert(n)
	s.mu.Unlock()
}

// Remove removes n from the scene, if n is an immediate
// descendant of the root.
// It returns whether n was removed.
func (s *Scene) Remove(n *Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.Parent() != &s.root {
		return false
	}
	n.Remove()
	return true
}

// Len returns the number of immediate descendants of
// the root.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for x := s.root.sub; x != nil; x = x.next {
		n++
	}
	return n
}

// Children returns the immediate descendants of the root.
func (s *Scene) Children() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root.Children()
}

// Count returns the number of nodes in the whole graph
// whose Object is of kind k.
// Nodes with no Object count as KindGroup.
func (s *Scene) Count(k Kind) int {
	n := 0
	s.Walk(func(nd *Node) bool {
		if kindOf(nd) == k {
			n++
		}
		return true
	})
	return n
}

// Walk calls f for every node in the graph, ancestors
// first, until f returns false.
// f must not modify the scene.
func (s *Scene) Walk(f func(*Node) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.root.ForEach(f)
}

// SetBackground sets the texture drawn behind every
// object. nil clears it.
func (s *Scene) SetBackground(t *texture.Texture) {
	s.mu.Lock()
	s.background = t
	s.mu.Unlock()
}

// Background returns the background texture, or nil.
func (s *Scene) Background() *texture.Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.background
}

// SetEnvironment sets the texture used for image-based
// lighting. nil clears it.
func (s *Scene) SetEnvironment(t *texture.Texture) {
	s.mu.Lock()
	s.environment = t
	s.mu.Unlock()
}

// Environment returns the environment texture, or nil.
func (s *Scene) Environment() *texture.Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.environment
}

func kindOf(n *Node) Kind {
	if n.Object == nil {
		return KindGroup
	}
	return n.Object.Kind()
}
