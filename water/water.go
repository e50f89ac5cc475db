// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package water implements an animated, reflective water
// surface.
//
// The surface scrolls two ripple layers along a flow
// direction, half a cycle apart, and blends between them so
// that the reset of either layer is never visible.
// Reflection and refraction are mixed with a Fresnel term.
package water

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/scene"
)

// Flow cycle length, in offset units.
const (
	Cycle     = 0.15
	HalfCycle = Cycle / 2
)

// Options configures a Surface.
type Options struct {
	// Linear RGB tint.
	Color linear.V3
	// Ripple texture repetition.
	Scale float32
	// Ripple scroll direction.
	FlowDirection linear.V2
	// Resolution of the reflection and refraction maps.
	// Validated and kept for parity with a GPU renderer;
	// the software renderer samples the environment directly.
	TextureWidth  int
	TextureHeight int
	// Offset increment per second.
	FlowSpeed float32
	// Reflectance at normal incidence.
	Reflectivity float32
	Transparent  bool
	Opacity      float32
}

// DefaultOptions returns the default surface options.
func DefaultOptions() Options {
	return Options{
		Color:         linear.V3{1, 1, 1},
		Scale:         1,
		FlowDirection: linear.V2{1, 0},
		TextureWidth:  512,
		TextureHeight: 512,
		FlowSpeed:     0.03,
		Reflectivity:  0.02,
		Opacity:       1,
	}
}

// Validate checks that o is usable.
func (o *Options) Validate() error {
	switch {
	case o.Scale <= 0:
		return errors.New("water: scale must be positive")
	case o.TextureWidth < 1 || o.TextureHeight < 1:
		return fmt.Errorf("water: invalid texture size %dx%d", o.TextureWidth, o.TextureHeight)
	case o.Reflectivity < 0 || o.Reflectivity > 1:
		return errors.New("water: reflectivity must be in [0, 1]")
	case o.Opacity < 0 || o.Opacity > 1:
		return errors.New("water: opacity must be in [0, 1]")
	case o.FlowSpeed < 0:
		return errors.New("water: flow speed must not be negative")
	}
	return nil
}

// Surface is a water mesh.
// It is not safe for concurrent use; the render loop owns
// it once it is part of a scene.
type Surface struct {
	plane   *Plane
	opts    Options
	offset0 float32
	offset1 float32
}

// New creates a water surface over plane.
func New(plane *Plane, opts Options) (*Surface, error) {
	if plane == nil {
		return nil, errors.New("water: nil plane")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Surface{plane: plane, opts: opts, offset1: HalfCycle}, nil
}

// Kind implements scene.Object.
func (*Surface) Kind() scene.Kind { return scene.KindWater }

// Plane returns the geometry of s.
func (s *Surface) Plane() *Plane { return s.plane }

// Options returns the current options of s.
func (s *Surface) Options() Options { return s.opts }

// Animate advances the flow by dt seconds.
func (s *Surface) Animate(dt float32) {
	if dt <= 0 {
		return
	}
	s.offset0 += s.opts.FlowSpeed * dt
	s.offset1 = s.offset0 + HalfCycle
	if s.offset0 >= Cycle {
		s.offset0 = 0
		s.offset1 = HalfCycle
	} else if s.offset1 >= Cycle {
		s.offset1 -= Cycle
	}
}

// FlowOffsets returns the scroll offsets of the two ripple
// layers. Both are in [0, Cycle).
func (s *Surface) FlowOffsets() (float32, float32) { return s.offset0, s.offset1 }

// flowLerp is the weight of the second layer.
func (s *Surface) flowLerp() float32 {
	return math32.Abs(HalfCycle-s.offset0) / HalfCycle
}

// Normal returns the perturbed surface normal at texture
// coordinates (u, v). It is expressed in a frame whose
// Y axis is the unperturbed normal.
func (s *Surface) Normal(u, v float32) linear.V3 {
	u *= s.opts.Scale
	v *= s.opts.Scale
	f := s.opts.FlowDirection
	x0, z0 := ripple(u+f[0]*s.offset0, v+f[1]*s.offset0)
	x1, z1 := ripple(u+f[0]*s.offset1, v+f[1]*s.offset1)
	t := s.flowLerp()
	n := linear.V3{x0 + (x1-x0)*t, 1, z0 + (z1-z0)*t}
	n.Norm(&n)
	return n
}

// ripple is a procedural stand-in for a tiling normal map.
// It returns the slope along both texture axes.
func ripple(u, v float32) (du, dv float32) {
	const tau = 2 * math32.Pi
	du = 0.12*math32.Cos(tau*(7*u+3*v)) + 0.06*math32.Cos(tau*(13*u-5*v))
	dv = 0.12*math32.Sin(tau*(4*u-9*v)) + 0.05*math32.Sin(tau*(11*u+17*v))
	return
}

// Reflectance returns the Fresnel reflectance for a view
// direction making an angle with cosine cosTheta with the
// surface normal.
func (s *Surface) Reflectance(cosTheta float32) float32 {
	r := s.opts.Reflectivity
	c := 1 - max(0, min(cosTheta, 1))
	return r + (1-r)*c*c*c*c*c
}

// Shade combines the reflected and refracted radiance seen
// at an angle with cosine cosTheta and tints the result.
func (s *Surface) Shade(cosTheta float32, reflected, refracted linear.V3) (c linear.V3) {
	k := s.Reflectance(cosTheta)
	c.Lerp(&refracted, &reflected, k)
	for i := range c {
		c[i] *= s.opts.Color[i]
	}
	return
}

// Alpha returns the opacity of s.
func (s *Surface) Alpha() float32 {
	if s.opts.Transparent {
		return s.opts.Opacity
	}
	return 1
}

// Color returns the tint of s.
func (s *Surface) Color() linear.V3 { return s.opts.Color }

// SetOpacity sets the opacity, clamped to [0, 1].
// It has no visible effect unless the surface is
// transparent.
func (s *Surface) SetOpacity(a float32) { s.opts.Opacity = max(0, min(a, 1)) }

// SetFlowSpeed sets the flow speed. Negative values are
// treated as zero.
func (s *Surface) SetFlowSpeed(v float32) { s.opts.FlowSpeed = max(0, v) }

// SetReflectivity sets the reflectance at normal incidence,
// clamped to [0, 1].
func (s *Surface) SetReflectivity(r float32) { s.opts.Reflectivity = max(0, min(r, 1)) }
