// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package draco locates the Draco geometry decoder and
// dispatches compressed primitives to it.
//
// The decoder itself is provided by a Codec registered with
// Register. Without one, compressed data is kept as is and
// Decode reports ErrNoCodec.
package draco

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/asset"
)

var (
	// ErrNoCodec means that no Codec was registered.
	ErrNoCodec = errors.New("draco: no codec registered")

	// ErrDecoderMissing means that the decoder assets
	// could not be found at the decoder path.
	ErrDecoderMissing = errors.New("draco: decoder assets not found")
)

// DefaultDecoderPath is the decoder location used when none
// is set.
const DefaultDecoderPath = "https://www.gstatic.com/draco/versioned/decoders/1.5.6/"

// Decoder file sets, in order of preference.
var decoderFiles = [][]string{
	{"draco_wasm_wrapper.js", "draco_decoder.wasm"},
	{"draco_decoder.js"},
}

// Mesh is decoded geometry.
type Mesh struct {
	// Positions holds x, y, z triplets.
	Positions []float32
	Indices   []uint32
}

// Codec decodes Draco bitstreams.
type Codec interface {
	// Decode decodes data. attrs maps glTF attribute
	// semantics to Draco attribute IDs.
	Decode(data []byte, attrs map[string]int64) (*Mesh, error)
}

var (
	codecMu sync.RWMutex
	codec   Codec
)

// Register sets the Codec used by every Decoder.
// Passing nil unregisters it.
func Register(c Codec) {
	codecMu.Lock()
	codec = c
	codecMu.Unlock()
}

func registered() Codec {
	codecMu.RLock()
	defer codecMu.RUnlock()
	return codec
}

// Decoder is the geometry-decompression helper handed to
// the model loader.
type Decoder struct {
	src *asset.Source

	mu     sync.Mutex
	path   string
	loaded bool
	files  []string
}

// NewDecoder creates a Decoder that looks up its assets
// in src.
func NewDecoder(src *asset.Source) *Decoder {
	return &Decoder{src: src, path: DefaultDecoderPath}
}

// SetDecoderPath sets the directory holding the decoder
// assets. It invalidates a previous Preload.
func (d *Decoder) SetDecoderPath(path string) *Decoder {
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	d.mu.Lock()
	d.path = path
	d.loaded = false
	d.files = nil
	d.mu.Unlock()
	return d
}

// DecoderPath returns the decoder directory.
func (d *Decoder) DecoderPath() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Preload checks that the decoder assets exist.
// It is called by the model loader before the first
// compressed primitive is decoded; calling it earlier only
// moves the check. Successful checks are cached.
func (d *Decoder) Preload(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return nil
	}
	for _, set := range decoderFiles {
		ok := true
		for _, f := range set {
			if !d.src.Exists(ctx, d.path+f) {
				ok = false
				break
			}
		}
		if ok {
			d.loaded = true
			d.files = set
			seascene.Logger().Debug("draco: decoder found", "path", d.path, "files", set)
			return nil
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrDecoderMissing, d.path)
}

// Files returns the decoder files found by Preload.
func (d *Decoder) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files...)
}

// Decode decodes a compressed primitive.
// Preload must have succeeded.
func (d *Decoder) Decode(data []byte, attrs map[string]int64) (*Mesh, error) {
	d.mu.Lock()
	loaded := d.loaded
	d.mu.Unlock()
	if !loaded {
		return nil, fmt.Errorf("%w: %s (not preloaded)", ErrDecoderMissing, d.DecoderPath())
	}
	c := registered()
	if c == nil {
		return nil, ErrNoCodec
	}
	m, err := c.Decode(data, attrs)
	switch {
	case err != nil:
		return nil, fmt.Errorf("draco: %w", err)
	case m == nil:
		return nil, errors.New("draco: codec returned no mesh")
	}
	if len(m.Positions)%3 != 0 {
		return nil, errors.New("draco: codec returned a partial position triplet")
	}
	return m, nil
}
