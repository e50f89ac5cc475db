// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package camera implements a perspective camera.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/gviegas/seascene/linear"
)

// Perspective is a pinhole camera.
//
// Changes to FOV, Aspect, Near or Far take effect on the
// next call to UpdateProjection. Position, Target and Up
// are read whenever the view is needed.
type Perspective struct {
	// Vertical field of view, in degrees.
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32

	Position linear.V3
	Target   linear.V3
	Up       linear.V3

	proj     linear.M4
	tanHalf  float32
	projAspt float32
}

// New creates a camera at the origin looking down -Z.
func New(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Target: linear.V3{0, 0, -1},
		Up:     linear.V3{0, 1, 0},
	}
	c.UpdateProjection()
	return c
}

// SetPosition moves the camera to (x, y, z) keeping its
// orientation.
func (c *Perspective) SetPosition(x, y, z float32) {
	p := linear.V3{x, y, z}
	var d linear.V3
	d.Sub(&p, &c.Position)
	c.Target.Add(&c.Target, &d)
	c.Position = p
}

// LookAt turns the camera towards target.
func (c *Perspective) LookAt(target linear.V3) { c.Target = target }

// SetAspect sets the aspect ratio (width / height).
// Call UpdateProjection afterwards.
func (c *Perspective) SetAspect(aspect float32) { c.Aspect = aspect }

// UpdateProjection recomputes the projection matrix.
func (c *Perspective) UpdateProjection() {
	fovy := c.FOV * math32.Pi / 180
	c.proj.Perspective(fovy, c.Aspect, c.Near, c.Far)
	c.tanHalf = math32.Tan(fovy / 2)
	c.projAspt = c.Aspect
}

// Projection returns the projection matrix as of the last
// UpdateProjection call.
func (c *Perspective) Projection() linear.M4 { return c.proj }

// View returns the world-to-view transform.
func (c *Perspective) View() (m linear.M4) {
	m.LookAt(&c.Position, &c.Target, &c.Up)
	return
}

// ViewProjection returns Projection ⋅ View.
func (c *Perspective) ViewProjection() (m linear.M4) {
	v := c.View()
	m.Mul(&c.proj, &v)
	return
}

// Basis returns the camera's right, up and forward
// directions in world space.
func (c *Perspective) Basis() (right, up, forward linear.V3) {
	forward.Sub(&c.Target, &c.Position)
	forward.Norm(&forward)
	right.Cross(&forward, &c.Up)
	right.Norm(&right)
	up.Cross(&right, &forward)
	return
}

// Project transforms p to normalized device coordinates.
// ok is false when p lies behind the near plane, in which
// case ndc is meaningless. The Z component of ndc is the
// depth in [-1, 1].
func (c *Perspective) Project(p linear.V3) (ndc linear.V3, ok bool) {
	vp := c.ViewProjection()
	var clip linear.V4
	clip.Mul(&vp, &linear.V4{p[0], p[1], p[2], 1})
	if clip[3] < c.Near {
		return
	}
	return linear.V3{clip[0] / clip[3], clip[1] / clip[3], clip[2] / clip[3]}, true
}

// Ray returns the world space direction of the view ray
// through the point (ndcX, ndcY) of the image plane.
// The ray starts at Position.
func (c *Perspective) Ray(ndcX, ndcY float32) (dir linear.V3) {
	right, up, forward := c.Basis()
	var x, y linear.V3
	x.Scale(ndcX*c.tanHalf*c.projAspt, &right)
	y.Scale(ndcY*c.tanHalf, &up)
	dir.Add(&forward, &x)
	dir.Add(&dir, &y)
	dir.Norm(&dir)
	return
}

// Distance returns the distance between Position and
// Target.
func (c *Perspective) Distance() float32 {
	var d linear.V3
	d.Sub(&c.Target, &c.Position)
	return d.Len()
}
