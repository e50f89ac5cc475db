// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package texture implements CPU-side textures in linear
// RGB, including equirectangular environment lookup.
package texture

import (
	"errors"
	"image"

	"github.com/chewxy/math32"

	"github.com/gviegas/seascene/linear"
)

const texPrefix = "texture: "

func newErr(reason string) error { return errors.New(texPrefix + reason) }

// Mapping describes how a texture is projected.
type Mapping int

// Mappings.
const (
	// UVMapping uses the texture coordinates of the
	// geometry.
	UVMapping Mapping = iota
	// EquirectangularReflectionMapping projects the
	// texture onto a sphere around the scene.
	EquirectangularReflectionMapping
)

func (m Mapping) String() string {
	switch m {
	case UVMapping:
		return "uv"
	case EquirectangularReflectionMapping:
		return "equirectangular"
	}
	return "unknown"
}

// Texture is a 2D image of linear RGB triplets.
// Pix holds Width⋅Height⋅3 values, row by row from the top.
type Texture struct {
	Name    string
	Width   int
	Height  int
	Pix     []float32
	Mapping Mapping
}

// New creates a black texture of the given size.
func New(width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, newErr("invalid size")
	}
	return &Texture{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}, nil
}

// FromImage converts img into a Texture.
// Channels are divided by the alpha maximum, with no
// gamma conversion.
func FromImage(img image.Image) (*Texture, error) {
	b := img.Bounds()
	t, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := range t.Height {
		for x := range t.Width {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			t.Set(x, y, linear.V3{float32(r) / 0xffff, float32(g) / 0xffff, float32(bl) / 0xffff})
		}
	}
	return t, nil
}

// At returns the texel at (x, y).
// Coordinates are clamped to the texture bounds.
func (t *Texture) At(x, y int) linear.V3 {
	x = max(0, min(x, t.Width-1))
	y = max(0, min(y, t.Height-1))
	i := (y*t.Width + x) * 3
	return linear.V3{t.Pix[i], t.Pix[i+1], t.Pix[i+2]}
}

// Set sets the texel at (x, y).
// It panics if (x, y) is out of bounds.
func (t *Texture) Set(x, y int, c linear.V3) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		panic(texPrefix + "Set out of bounds")
	}
	i := (y*t.Width + x) * 3
	copy(t.Pix[i:i+3], c[:])
}

// SampleUV returns the bilinear sample at (u, v).
// u wraps around; v is clamped. v = 1 is the top row.
func (t *Texture) SampleUV(u, v float32) linear.V3 {
	u -= math32.Floor(u)
	v = max(0, min(v, 1))
	fx := u*float32(t.Width) - 0.5
	fy := (1-v)*float32(t.Height) - 0.5
	x0 := int(math32.Floor(fx))
	y0 := int(math32.Floor(fy))
	tx := fx - float32(x0)
	ty := fy - float32(y0)
	wrap := func(x int) int { return (x%t.Width + t.Width) % t.Width }
	c00 := t.At(wrap(x0), y0)
	c10 := t.At(wrap(x0+1), y0)
	c01 := t.At(wrap(x0), y0+1)
	c11 := t.At(wrap(x0+1), y0+1)
	var top, bot, c linear.V3
	top.Lerp(&c00, &c10, tx)
	bot.Lerp(&c01, &c11, tx)
	c.Lerp(&top, &bot, ty)
	return c
}

// SampleDir returns the environment radiance seen along the
// world-space direction dir. dir need not be normalized.
// The texture is treated as an equirectangular projection
// regardless of its Mapping.
func (t *Texture) SampleDir(dir linear.V3) linear.V3 {
	dir.Norm(&dir)
	u, v := EquirectUV(dir)
	return t.SampleUV(u, v)
}

// EquirectUV maps the unit direction dir to equirectangular
// texture coordinates.
func EquirectUV(dir linear.V3) (u, v float32) {
	u = math32.Atan2(dir[2], dir[0])/(2*math32.Pi) + 0.5
	v = math32.Asin(max(-1, min(dir[1], 1)))/math32.Pi + 0.5
	return
}

// Average returns the mean texel value.
// For equirectangular maps, rows are weighted by their
// solid angle.
func (t *Texture) Average() linear.V3 {
	var sum linear.V3
	var wsum float32
	for y := range t.Height {
		w := float32(1)
		if t.Mapping == EquirectangularReflectionMapping {
			lat := (float32(y)+0.5)/float32(t.Height)*math32.Pi - math32.Pi/2
			w = math32.Cos(lat)
		}
		for x := range t.Width {
			c := t.At(x, y)
			c.Scale(w, &c)
			sum.Add(&sum, &c)
			wsum += w
		}
	}
	if wsum == 0 {
		return linear.V3{}
	}
	sum.Scale(1/wsum, &sum)
	return sum
}
