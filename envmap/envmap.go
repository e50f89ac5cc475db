// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package envmap loads environment maps.
//
// Radiance HDR (RGBE) files keep their full dynamic range;
// PNG and JPEG images are accepted as low dynamic range maps.
package envmap

import (
	"bufio"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/asset"
	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/texture"
)

// DecodeFunc decodes an image.
type DecodeFunc func(io.Reader) (image.Image, error)

func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

// Loader loads environment maps from a Source.
type Loader struct {
	src    *asset.Source
	decode DecodeFunc
}

// NewLoader creates a Loader that reads from src.
func NewLoader(src *asset.Source) *Loader {
	return &Loader{src: src, decode: decodeImage}
}

// SetDecoder replaces the image decoder.
// nil restores the default, which uses the formats
// registered with package image.
func (l *Loader) SetDecoder(f DecodeFunc) {
	if f == nil {
		f = decodeImage
	}
	l.decode = f
}

// Load fetches and decodes the image at ref.
// The returned texture uses UVMapping; callers that use it
// as an environment must set the mapping themselves.
func (l *Loader) Load(ctx context.Context, ref string) (*texture.Texture, error) {
	rc, err := l.src.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := l.decode(bufio.NewReader(rc))
	if err != nil {
		return nil, fmt.Errorf("envmap: decode %s: %w", ref, err)
	}
	tex, err := Convert(img)
	if err != nil {
		return nil, fmt.Errorf("envmap: %s: %w", ref, err)
	}
	tex.Name = ref
	seascene.Logger().Debug("envmap: decoded", "ref", ref,
		"width", tex.Width, "height", tex.Height, "hdr", isHDR(img))
	return tex, nil
}

// Convert turns img into a texture.
// HDR images keep their floating-point values.
func Convert(img image.Image) (*texture.Texture, error) {
	hi, ok := img.(hdr.Image)
	if !ok {
		return texture.FromImage(img)
	}
	b := hi.Bounds()
	tex, err := texture.New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := range tex.Height {
		for x := range tex.Width {
			r, g, bl, _ := hi.HDRAt(b.Min.X+x, b.Min.Y+y).HDRRGBA()
			tex.Set(x, y, linear.V3{float32(r), float32(g), float32(bl)})
		}
	}
	return tex, nil
}

func isHDR(img image.Image) bool {
	_, ok := img.(hdr.Image)
	return ok
}
