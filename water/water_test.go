// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package water

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/scene"
)

func TestNewPlane(t *testing.T) {
	p, err := NewPlane(1000, 1000, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []linear.V3{
		{-500, 500, 0}, {500, 500, 0},
		{-500, -500, 0}, {500, -500, 0},
	}, p.Positions)
	assert.Equal(t, []uint32{0, 2, 1, 2, 3, 1}, p.Indices)
	assert.Equal(t, []linear.V2{{0, 1}, {1, 1}, {0, 0}, {1, 0}}, p.UVs)
	assert.Equal(t, linear.V3{0, 0, 1}, p.Normal())

	p, err = NewPlane(4, 2, 4, 2)
	require.NoError(t, err)
	assert.Len(t, p.Positions, 15)
	assert.Len(t, p.Indices, 4*2*6)
	assert.Equal(t, [4]linear.V3{{-1, 1, 0}, {-1, 0, 0}, {0, 0, 0}, {0, 1, 0}}, p.Cell(1, 0))

	_, err = NewPlane(0, 1, 1, 1)
	assert.Error(t, err)
	_, err = NewPlane(1, 1, 0, 1)
	assert.Error(t, err)
}

func TestPlaneRotateX(t *testing.T) {
	p, err := NewPlane(2, 2, 1, 1)
	require.NoError(t, err)
	p.RotateX(-math32.Pi / 2)
	n := p.Normal()
	assert.InDelta(t, 0, n[0], 1e-6)
	assert.InDelta(t, 1, n[1], 1e-6)
	assert.InDelta(t, 0, n[2], 1e-6)
	for _, v := range p.Positions {
		assert.InDelta(t, 0, v[1], 1e-6)
	}
	// The top edge moves away from the viewer.
	assert.InDelta(t, -1, p.Positions[0][2], 1e-6)
}

func newSurface(t *testing.T, opts Options) *Surface {
	p, err := NewPlane(10, 10, 2, 2)
	require.NoError(t, err)
	s, err := New(p, opts)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	s := newSurface(t, DefaultOptions())
	assert.Equal(t, scene.KindWater, s.Kind())
	o0, o1 := s.FlowOffsets()
	assert.Equal(t, float32(0), o0)
	assert.Equal(t, float32(HalfCycle), o1)
	assert.Equal(t, float32(1), s.Alpha())

	p, _ := NewPlane(1, 1, 1, 1)
	for _, f := range []func(*Options){
		func(o *Options) { o.Scale = 0 },
		func(o *Options) { o.TextureWidth = 0 },
		func(o *Options) { o.Reflectivity = 1.5 },
		func(o *Options) { o.Opacity = -1 },
		func(o *Options) { o.FlowSpeed = -1 },
	} {
		o := DefaultOptions()
		f(&o)
		_, err := New(p, o)
		assert.Error(t, err)
	}
	_, err := New(nil, DefaultOptions())
	assert.Error(t, err)
}

func TestAnimate(t *testing.T) {
	o := DefaultOptions()
	o.FlowSpeed = 0.03
	s := newSurface(t, o)

	s.Animate(1)
	o0, o1 := s.FlowOffsets()
	assert.InDelta(t, 0.03, o0, 1e-6)
	assert.InDelta(t, 0.105, o1, 1e-6)

	// offset1 wraps first.
	s.Animate(1)
	o0, o1 = s.FlowOffsets()
	assert.InDelta(t, 0.06, o0, 1e-6)
	assert.InDelta(t, 0.135, o1, 1e-6)
	s.Animate(1)
	o0, o1 = s.FlowOffsets()
	assert.InDelta(t, 0.09, o0, 1e-6)
	assert.InDelta(t, 0.015, o1, 1e-6)

	// Then offset0 resets both.
	s.Animate(3)
	o0, o1 = s.FlowOffsets()
	assert.Equal(t, float32(0), o0)
	assert.Equal(t, float32(HalfCycle), o1)

	for range 1000 {
		s.Animate(0.37)
		o0, o1 = s.FlowOffsets()
		require.True(t, o0 >= 0 && o0 < Cycle)
		require.True(t, o1 >= 0 && o1 < Cycle)
	}

	before0, before1 := s.FlowOffsets()
	s.Animate(-1)
	s.Animate(0)
	o0, o1 = s.FlowOffsets()
	assert.Equal(t, before0, o0)
	assert.Equal(t, before1, o1)
}

func TestShade(t *testing.T) {
	o := DefaultOptions()
	o.Color = linear.V3{0.8, 0.8, 0.6}
	s := newSurface(t, o)

	assert.InDelta(t, 0.02, s.Reflectance(1), 1e-6)
	assert.InDelta(t, 1, s.Reflectance(0), 1e-6)
	assert.InDelta(t, 1, s.Reflectance(-0.5), 1e-6)
	assert.Less(t, s.Reflectance(0.9), s.Reflectance(0.3))

	sky := linear.V3{1, 1, 1}
	deep := linear.V3{0, 0, 0}
	c := s.Shade(0, sky, deep)
	assert.InDeltaSlice(t, []float32{0.8, 0.8, 0.6}, c[:], 1e-6)
	c = s.Shade(1, sky, deep)
	assert.InDeltaSlice(t, []float32{0.016, 0.016, 0.012}, c[:], 1e-6)
}

func TestSetters(t *testing.T) {
	s := newSurface(t, DefaultOptions())
	s.SetOpacity(0.5)
	assert.Equal(t, float32(1), s.Alpha())

	o := DefaultOptions()
	o.Transparent = true
	s = newSurface(t, o)
	s.SetOpacity(0.5)
	assert.Equal(t, float32(0.5), s.Alpha())
	s.SetOpacity(2)
	assert.Equal(t, float32(1), s.Alpha())

	s.SetReflectivity(-1)
	assert.Equal(t, float32(0), s.Options().Reflectivity)
	s.SetFlowSpeed(-3)
	assert.Equal(t, float32(0), s.Options().FlowSpeed)
	s.Animate(10)
	o0, _ := s.FlowOffsets()
	assert.Equal(t, float32(0), o0)
}

func TestNormal(t *testing.T) {
	s := newSurface(t, DefaultOptions())
	for _, uv := range [][2]float32{{0, 0}, {0.3, 0.7}, {0.9, 0.1}} {
		n := s.Normal(uv[0], uv[1])
		assert.InDelta(t, 1, n.Len(), 1e-5)
		assert.Greater(t, n[1], float32(0.8))
	}
	a := s.Normal(0.3, 0.7)
	s.Animate(1)
	b := s.Normal(0.3, 0.7)
	assert.NotEqual(t, a, b)
}
