// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package model converts glTF assets into scene nodes.
package model

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path"
	"strings"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/asset"
	"github.com/gviegas/seascene/draco"
	"github.com/gviegas/seascene/gltf"
	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/scene"
)

const prefix = "model: "

func newErr(reason string) error { return errors.New(prefix + reason) }

// ErrNoDecoder means that the asset uses Draco compression
// but the Loader has no Draco decoder.
var ErrNoDecoder = errors.New(prefix + gltf.KHRDracoMeshCompression + " used but no Draco decoder set")

// Loader loads glTF models from a Source.
type Loader struct {
	src   *asset.Source
	draco *draco.Decoder
}

// NewLoader creates a Loader that reads from src.
func NewLoader(src *asset.Source) *Loader { return &Loader{src: src} }

// SetDRACOLoader sets the decoder used for compressed
// primitives. nil disables Draco support.
func (l *Loader) SetDRACOLoader(d *draco.Decoder) *Loader {
	l.draco = d
	return l
}

// Load loads the default scene of the glTF asset at ref.
// Both .gltf and .glb files are accepted.
// The returned node is a group holding the scene's root
// nodes.
func (l *Loader) Load(ctx context.Context, ref string) (*scene.Node, error) {
	data, err := l.src.ReadAll(ctx, ref)
	if err != nil {
		return nil, err
	}
	js, bin := data, []byte(nil)
	if gltf.IsGLB(bytes.NewReader(data)) {
		if js, bin, err = gltf.ReadGLB(bytes.NewReader(data)); err != nil {
			return nil, err
		}
	}
	doc, err := gltf.Decode(bytes.NewReader(js))
	if err != nil {
		return nil, err
	}
	if err := doc.Check(); err != nil {
		return nil, err
	}

	var supported []string
	if l.draco != nil {
		supported = append(supported, gltf.KHRDracoMeshCompression)
	}
	if s := doc.Unsupported(supported...); len(s) > 0 {
		if l.draco == nil && len(s) == 1 && s[0] == gltf.KHRDracoMeshCompression {
			return nil, ErrNoDecoder
		}
		return nil, newErr("unsupported required extensions: " + strings.Join(s, ", "))
	}
	if doc.UsesDraco() {
		if l.draco == nil {
			return nil, ErrNoDecoder
		}
		if err := l.draco.Preload(ctx); err != nil {
			return nil, err
		}
	}

	b := builder{doc: doc, ref: ref, draco: l.draco}
	if b.buffers, err = l.buffers(ctx, doc, ref, bin); err != nil {
		return nil, err
	}
	root, err := b.build()
	if err != nil {
		return nil, err
	}
	seascene.Logger().Debug("model loaded", "ref", ref, "nodes", len(doc.Nodes), "meshes", len(doc.Meshes))
	return root, nil
}

// buffers fetches every buffer of doc.
func (l *Loader) buffers(ctx context.Context, doc *gltf.GLTF, ref string, bin []byte) ([][]byte, error) {
	bufs := make([][]byte, len(doc.Buffers))
	for i, b := range doc.Buffers {
		var data []byte
		switch {
		case b.URI == "":
			if i != 0 || bin == nil {
				return nil, newErr(fmt.Sprintf("buffer %d has no data", i))
			}
			data = bin
		case strings.HasPrefix(b.URI, "data:"):
			var err error
			if data, err = decodeDataURI(b.URI); err != nil {
				return nil, fmt.Errorf(prefix+"buffer %d: %w", i, err)
			}
		default:
			var err error
			if data, err = l.src.ReadAll(ctx, asset.Join(ref, b.URI)); err != nil {
				return nil, err
			}
		}
		if int64(len(data)) < b.ByteLength {
			return nil, newErr(fmt.Sprintf("buffer %d is shorter than byteLength (%d < %d)", i, len(data), b.ByteLength))
		}
		bufs[i] = data[:b.ByteLength]
	}
	return bufs, nil
}

// decodeDataURI decodes a base64 data URI.
func decodeDataURI(uri string) ([]byte, error) {
	head, data, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasSuffix(head, ";base64") {
		return nil, errors.New("only base64 data URIs are supported")
	}
	return base64.StdEncoding.DecodeString(data)
}

type builder struct {
	doc     *gltf.GLTF
	ref     string
	draco   *draco.Decoder
	buffers [][]byte
	meshes  map[int64]*scene.Mesh
	visited map[int64]bool
}

func (b *builder) build() (*scene.Node, error) {
	b.meshes = make(map[int64]*scene.Mesh)
	b.visited = make(map[int64]bool)

	name := strings.TrimSuffix(path.Base(b.ref), path.Ext(b.ref))
	root := scene.NewNode(name, scene.Group{})
	s := b.doc.DefaultScene()
	if s < 0 {
		return root, nil
	}
	if b.doc.Scenes[s].Name != "" {
		root.Name = b.doc.Scenes[s].Name
	}
	nodes := b.doc.Scenes[s].Nodes
	// Insert prepends; walk backwards to keep document order.
	for i := len(nodes) - 1; i >= 0; i-- {
		n, err := b.node(nodes[i])
		if err != nil {
			return nil, err
		}
		root.Insert(n)
	}
	return root, nil
}

func (b *builder) node(idx int64) (*scene.Node, error) {
	if b.visited[idx] {
		return nil, newErr(fmt.Sprintf("node %d appears more than once in the hierarchy", idx))
	}
	b.visited[idx] = true
	gn := &b.doc.Nodes[idx]

	n := scene.NewNode(gn.Name, nil)
	switch {
	case gn.Matrix != nil:
		var m linear.M4
		for i := range 16 {
			m[i/4][i%4] = gn.Matrix[i]
		}
		n.Position, n.Rotation, n.Scale = m.Decompose()
	default:
		if t := gn.Translation; t != nil {
			n.Position = linear.V3(*t)
		}
		if r := gn.Rotation; r != nil {
			n.Rotation = linear.Q{V: linear.V3{r[0], r[1], r[2]}, R: r[3]}
		}
		if s := gn.Scale; s != nil {
			n.Scale = linear.V3(*s)
		}
	}
	if gn.Mesh != nil {
		m, err := b.mesh(*gn.Mesh)
		if err != nil {
			return nil, err
		}
		n.Object = m
	} else {
		n.Object = scene.Group{}
	}
	for i := len(gn.Children) - 1; i >= 0; i-- {
		c, err := b.node(gn.Children[i])
		if err != nil {
			return nil, err
		}
		n.Insert(c)
	}
	return n, nil
}

// mesh converts the mesh at idx. Nodes that share a glTF
// mesh share the scene.Mesh as well.
func (b *builder) mesh(idx int64) (*scene.Mesh, error) {
	if m, ok := b.meshes[idx]; ok {
		return m, nil
	}
	gm := &b.doc.Meshes[idx]
	m := &scene.Mesh{Primitives: len(gm.Primitives), BaseColor: linear.V3{1, 1, 1}}
	for i := range gm.Primitives {
		p := &gm.Primitives[i]
		if i == 0 && p.Material != nil {
			m.BaseColor = b.baseColor(*p.Material)
		}
		if err := b.primitive(m, p); err != nil {
			return nil, fmt.Errorf(prefix+"mesh %d, primitive %d: %w", idx, i, err)
		}
	}
	b.meshes[idx] = m
	return m, nil
}

func (b *builder) baseColor(idx int64) linear.V3 {
	pbr := b.doc.Materials[idx].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return linear.V3{1, 1, 1}
	}
	f := pbr.BaseColorFactor
	return linear.V3{f[0], f[1], f[2]}
}

func (b *builder) primitive(m *scene.Mesh, p *gltf.Primitive) error {
	ext, err := p.Draco()
	if err != nil {
		return err
	}
	if ext != nil {
		data := b.view(ext.BufferView)
		dm, err := b.draco.Decode(data, ext.Attributes)
		switch {
		case errors.Is(err, draco.ErrNoCodec):
			m.Compressed = true
		case err != nil:
			return err
		default:
			for i := 0; i < len(dm.Positions); i += 3 {
				m.Extend(linear.V3{dm.Positions[i], dm.Positions[i+1], dm.Positions[i+2]})
			}
			return nil
		}
	}

	pos, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	acc := &b.doc.Accessors[pos]
	if acc.Type != gltf.VEC3 {
		return newErr("POSITION accessor is not " + gltf.VEC3)
	}
	if len(acc.Min) == 3 && len(acc.Max) == 3 {
		m.Extend(linear.V3(acc.Min))
		m.Extend(linear.V3(acc.Max))
		return nil
	}
	// Compressed primitives have no readable vertex data;
	// the accessor bounds are all there is.
	if ext != nil || acc.BufferView == nil {
		return nil
	}
	return b.positions(acc, m.Extend)
}

// view returns the bytes of a buffer view.
func (b *builder) view(idx int64) []byte {
	v := &b.doc.BufferViews[idx]
	return b.buffers[v.Buffer][v.ByteOffset : v.ByteOffset+v.ByteLength]
}

// positions calls f for every element of a float VEC3
// accessor.
func (b *builder) positions(acc *gltf.Accessor, f func(linear.V3)) error {
	if acc.ComponentType != gltf.FLOAT {
		return newErr("POSITION accessor is not FLOAT")
	}
	v := &b.doc.BufferViews[*acc.BufferView]
	data := b.view(*acc.BufferView)
	stride := v.ByteStride
	if stride == 0 {
		stride = 12
	}
	// Must not overflow for any count or offset.
	if n := int64(len(data)) - 12; acc.Count > 0 &&
		(acc.ByteOffset > n || acc.Count-1 > (n-acc.ByteOffset)/stride) {
		return newErr("POSITION accessor out of buffer view bounds")
	}
	for i := range acc.Count {
		off := acc.ByteOffset + i*stride
		var p linear.V3
		for j := range 3 {
			bits := binary.LittleEndian.Uint32(data[off+int64(j)*4:])
			p[j] = math.Float32frombits(bits)
		}
		f(p)
	}
	return nil
}
