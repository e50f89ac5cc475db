// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"errors"
	"strconv"
)

func newErr(reason string) error {
	return errors.New("gltf: " + reason)
}

func inRange(i *int64, n int) bool { return i == nil || (*i >= 0 && *i < int64(n)) }

// Check checks that f is valid glTF.
func (f *GLTF) Check() error {
	if f.Asset.Version == "" {
		return newErr("missing GLTF.Asset.Version")
	}
	if !inRange(f.Scene, len(f.Scenes)) {
		return newErr("invalid GLTF.Scene index")
	}
	for i := range f.Scenes {
		for _, n := range f.Scenes[i].Nodes {
			if !inRange(&n, len(f.Nodes)) {
				return newErr("invalid Scene.Nodes index " + strconv.FormatInt(n, 10))
			}
		}
	}
	for i := range f.Nodes {
		if err := f.Nodes[i].Check(f); err != nil {
			return err
		}
	}
	for i := range f.Meshes {
		if err := f.Meshes[i].Check(f); err != nil {
			return err
		}
	}
	for i := range f.Accessors {
		if err := f.Accessors[i].Check(f); err != nil {
			return err
		}
	}
	for i := range f.BufferViews {
		if err := f.BufferViews[i].Check(f); err != nil {
			return err
		}
	}
	return nil
}

// Check checks that n is valid glTF.nodes' element.
func (n *Node) Check(gltf *GLTF) error {
	if !inRange(n.Mesh, len(gltf.Meshes)) {
		return newErr("invalid Node.Mesh index")
	}
	for _, c := range n.Children {
		if !inRange(&c, len(gltf.Nodes)) {
			return newErr("invalid Node.Children index " + strconv.FormatInt(c, 10))
		}
	}
	if n.Matrix != nil && (n.Rotation != nil || n.Scale != nil || n.Translation != nil) {
		return newErr("Node.Matrix set alongside TRS properties")
	}
	return nil
}

// Check checks that m is valid glTF.meshes' element.
func (m *Mesh) Check(gltf *GLTF) error {
	if len(m.Primitives) == 0 {
		return newErr("Mesh.Primitives is empty")
	}
	for i := range m.Primitives {
		p := &m.Primitives[i]
		for k, a := range p.Attributes {
			if !inRange(&a, len(gltf.Accessors)) {
				return newErr("invalid Primitive.Attributes[" + k + "] index")
			}
		}
		if !inRange(p.Indices, len(gltf.Accessors)) {
			return newErr("invalid Primitive.Indices index")
		}
		if !inRange(p.Material, len(gltf.Materials)) {
			return newErr("invalid Primitive.Material index")
		}
		if p.Mode != nil && (*p.Mode < POINTS || *p.Mode > TRIANGLE_FAN) {
			return newErr("invalid Primitive.Mode value")
		}
		d, err := p.Draco()
		if err != nil {
			return err
		}
		if d != nil && !inRange(&d.BufferView, len(gltf.BufferViews)) {
			return newErr("invalid " + KHRDracoMeshCompression + ".bufferView index")
		}
	}
	return nil
}

// Check checks that a is valid glTF.accessors' element.
func (a *Accessor) Check(gltf *GLTF) error {
	if !inRange(a.BufferView, len(gltf.BufferViews)) {
		return newErr("invalid Accessor.BufferView index")
	}
	if a.ByteOffset < 0 {
		return newErr("invalid Accessor.ByteOffset value")
	}
	switch a.ComponentType {
	case BYTE, UNSIGNED_BYTE, SHORT, UNSIGNED_SHORT, UNSIGNED_INT, FLOAT:
	default:
		return newErr("invalid Accessor.ComponentType value")
	}
	if a.Count < 1 {
		return newErr("invalid Accessor.Count value")
	}
	switch a.Type {
	case SCALAR, VEC2, VEC3, VEC4, MAT2, MAT3, MAT4:
	default:
		return newErr("invalid Accessor.Type value")
	}
	if len(a.Min) != len(a.Max) {
		return newErr("Accessor.Min and Accessor.Max lengths differ")
	}
	return nil
}

// Check checks that v is valid glTF.bufferViews' element.
func (v *BufferView) Check(gltf *GLTF) error {
	if !inRange(&v.Buffer, len(gltf.Buffers)) {
		return newErr("invalid BufferView.Buffer index")
	}
	if v.ByteOffset < 0 || v.ByteLength < 1 {
		return newErr("invalid BufferView byte range")
	}
	if b := gltf.Buffers[v.Buffer]; v.ByteOffset > b.ByteLength || v.ByteLength > b.ByteLength-v.ByteOffset {
		return newErr("BufferView exceeds Buffer.ByteLength")
	}
	if v.ByteStride != 0 && (v.ByteStride < 4 || v.ByteStride > 252) {
		return newErr("invalid BufferView.ByteStride value")
	}
	return nil
}
