// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"encoding/json"
)

// KHR_draco_mesh_compression extension name.
const KHRDracoMeshCompression = "KHR_draco_mesh_compression"

// mesh.primitive.extensions.KHR_draco_mesh_compression.
type DracoExtension struct {
	BufferView int64            `json:"bufferView"`
	Attributes map[string]int64 `json:"attributes"`
}

// Draco returns the Draco compression extension of p,
// or nil if p is not compressed.
func (p *Primitive) Draco() (*DracoExtension, error) {
	raw, ok := p.Extensions[KHRDracoMeshCompression]
	if !ok {
		return nil, nil
	}
	var ext DracoExtension
	if err := json.Unmarshal(raw, &ext); err != nil {
		return nil, newErr("invalid " + KHRDracoMeshCompression + ": " + err.Error())
	}
	return &ext, nil
}

// UsesDraco returns whether any primitive of f is Draco
// compressed.
func (f *GLTF) UsesDraco() bool {
	for i := range f.Meshes {
		for j := range f.Meshes[i].Primitives {
			if _, ok := f.Meshes[i].Primitives[j].Extensions[KHRDracoMeshCompression]; ok {
				return true
			}
		}
	}
	return false
}
