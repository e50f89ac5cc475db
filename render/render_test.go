// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/seascene/camera"
	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/scene"
	"github.com/gviegas/seascene/texture"
	"github.com/gviegas/seascene/water"
)

func TestToneMapping(t *testing.T) {
	v := linear.V3{0.25, 1, 4}
	assert.Equal(t, linear.V3{0.25, 1, 1}, NoToneMapping.Map(v, 10))
	c := LinearToneMapping.Map(v, 2)
	assert.InDeltaSlice(t, []float32{0.5, 1, 1}, c[:], 1e-6)
	c = ReinhardToneMapping.Map(v, 1)
	assert.InDeltaSlice(t, []float32{0.2, 0.5, 0.8}, c[:], 1e-6)

	c = ACESFilmicToneMapping.Map(linear.V3{}, 1.8)
	assert.Equal(t, linear.V3{}, c)
	c = ACESFilmicToneMapping.Map(linear.V3{100, 100, 100}, 1.8)
	assert.InDeltaSlice(t, []float32{1, 1, 1}, c[:], 0.02)
	lo := ACESFilmicToneMapping.Map(linear.V3{0.1, 0.1, 0.1}, 1)
	hi := ACESFilmicToneMapping.Map(linear.V3{0.1, 0.1, 0.1}, 1.8)
	assert.Less(t, lo[1], hi[1])

	for _, s := range []string{"none", "linear", "reinhard", "aces"} {
		tm, err := ParseToneMapping(s)
		require.NoError(t, err)
		assert.Equal(t, s, tm.String())
	}
	_, err := ParseToneMapping("filmic")
	assert.Error(t, err)
	assert.Equal(t, "ToneMapping(9)", ToneMapping(9).String())
}

func TestEncoding(t *testing.T) {
	c := SRGBEncoding.Encode(linear.V3{0, 0.5, 1})
	assert.InDeltaSlice(t, []float32{0, 0.7354, 1}, c[:], 1e-4)
	c = SRGBEncoding.Encode(linear.V3{0.001, 0, 0})
	assert.InDelta(t, 0.01292, c[0], 1e-6)
	assert.Equal(t, linear.V3{0.5, 0.5, 0.5}, LinearEncoding.Encode(linear.V3{0.5, 0.5, 0.5}))

	e, err := ParseEncoding("srgb")
	require.NoError(t, err)
	assert.Equal(t, SRGBEncoding, e)
	_, err = ParseEncoding("rec709")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	_, err := New(Options{Width: 0, Height: 10})
	assert.Error(t, err)

	r, err := New(Options{Width: 64, Height: 32, Antialias: true})
	require.NoError(t, err)
	defer r.Close()
	w, h := r.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)
	assert.True(t, r.Antialias())
	assert.Equal(t, float32(1), r.ToneMappingExposure)

	require.NoError(t, r.SetSize(40, 30))
	w, h = r.Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
	assert.Equal(t, image.Rect(0, 0, 40, 30), r.Image().Bounds())
	assert.Error(t, r.SetSize(-1, 30))
	w, _ = r.Size()
	assert.Equal(t, 40, w)
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func newCamera(aspect float32) *camera.Perspective {
	cam := camera.New(45, aspect, 0.1, 1000)
	cam.SetPosition(0, 70, 50)
	cam.LookAt(linear.V3{})
	return cam
}

func TestRenderEmpty(t *testing.T) {
	r, err := New(Options{Width: 32, Height: 16})
	require.NoError(t, err)
	s := scene.New()
	require.NoError(t, r.Render(s, newCamera(2)))
	assert.Equal(t, 1, r.Frames())
	img := r.Image()
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(img, 5, 5))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(img, 31, 15))
}

func uniform(t *testing.T, c linear.V3) *texture.Texture {
	tex, err := texture.New(8, 4)
	require.NoError(t, err)
	for y := range 4 {
		for x := range 8 {
			tex.Set(x, y, c)
		}
	}
	tex.Mapping = texture.EquirectangularReflectionMapping
	return tex
}

func TestRenderBackground(t *testing.T) {
	for _, aa := range []bool{false, true} {
		r, err := New(Options{Width: 40, Height: 20, Antialias: aa})
		require.NoError(t, err)
		s := scene.New()
		s.SetBackground(uniform(t, linear.V3{0.5, 0.25, 1}))
		require.NoError(t, r.Render(s, newCamera(2)))
		img := r.Image()
		for _, p := range [][2]int{{0, 0}, {20, 10}, {39, 19}} {
			c := rgba(img, p[0], p[1])
			want := [4]float64{128, 64, 255, 255}
			have := [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
			assert.InDeltaSlice(t, want[:], have[:], 1, "antialias %t at %v", aa, p)
		}
	}
}

func TestRenderWater(t *testing.T) {
	r, err := New(Options{Width: 64, Height: 48})
	require.NoError(t, err)
	r.ToneMapping = ACESFilmicToneMapping
	r.ToneMappingExposure = 1.8
	r.OutputEncoding = SRGBEncoding

	s := scene.New()
	s.Add(scene.NewNode("light", scene.NewAmbientLight(0.25, 0.25, 0.25, 1)))
	plane, err := water.NewPlane(1000, 1000, 1, 1)
	require.NoError(t, err)
	plane.RotateX(-math32.Pi / 2)
	opts := water.DefaultOptions()
	opts.Color = linear.V3{0.8, 0.78, 0.6}
	surf, err := water.New(plane, opts)
	require.NoError(t, err)
	s.Add(scene.NewNode("water", surf))

	require.NoError(t, r.Render(s, newCamera(64.0/48)))
	img := r.Image()
	// The camera looks down at the water: the bottom of the
	// frame is covered and is not the clear color.
	assert.NotEqual(t, color.RGBA{0, 0, 0, 255}, rgba(img, 32, 47))
	assert.NotEqual(t, color.RGBA{0, 0, 0, 255}, rgba(img, 32, 24))

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf))
	dec, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 48), dec.Bounds())
}

func TestRenderMesh(t *testing.T) {
	r, err := New(Options{Width: 64, Height: 64})
	require.NoError(t, err)
	s := scene.New()
	s.Add(scene.NewNode("light", scene.NewAmbientLight(1, 1, 1, 1)))
	m := &scene.Mesh{Primitives: 1, BaseColor: linear.V3{1, 1, 1}}
	m.Extend(linear.V3{-10, -10, -10})
	m.Extend(linear.V3{10, 10, 10})
	s.Add(scene.NewNode("box", m))
	// Unbounded meshes are skipped.
	s.Add(scene.NewNode("empty", &scene.Mesh{}))

	cam := camera.New(45, 1, 0.1, 1000)
	cam.SetPosition(0, 0, 60)
	cam.LookAt(linear.V3{})
	require.NoError(t, r.Render(s, cam))
	img := r.Image()

	lit := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if rgba(img, x, y).R > 0 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 0)
	// Only edges are drawn.
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(img, 32, 32))

	// Behind the camera: nothing to draw.
	cam.SetPosition(0, 0, -5)
	cam.LookAt(linear.V3{0, 0, -100})
	require.NoError(t, r.Render(s, cam))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, rgba(r.Image(), 0, 0))
}
