// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package orbit implements orbit controls for a camera.
//
// The camera circles a target point. Dragging with the left
// button rotates it, dragging with the right button pans the
// target, and the wheel or a middle button drag dollies it
// towards or away from the target.
package orbit

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/gviegas/seascene/camera"
	"github.com/gviegas/seascene/host"
	"github.com/gviegas/seascene/linear"
)

const eps = 1e-6

// Spherical is a position relative to the target.
// Phi is the polar angle from +Y and Theta the azimuth
// around +Y, measured from +Z.
type Spherical struct {
	Radius float32
	Phi    float32
	Theta  float32
}

// FromOffset sets s from a cartesian offset.
func (s *Spherical) FromOffset(v linear.V3) {
	s.Radius = v.Len()
	if s.Radius == 0 {
		s.Phi, s.Theta = 0, 0
		return
	}
	s.Theta = math32.Atan2(v[0], v[2])
	s.Phi = math32.Acos(max(-1, min(v[1]/s.Radius, 1)))
}

// Offset returns s in cartesian coordinates.
func (s *Spherical) Offset() linear.V3 {
	sp, cp := math32.Sincos(s.Phi)
	st, ct := math32.Sincos(s.Theta)
	r := s.Radius * sp
	return linear.V3{r * st, s.Radius * cp, r * ct}
}

// Controls moves a camera around a target.
//
// Pointer events only accumulate motion; the camera is
// written by Update. Pointer methods can thus be called from
// any goroutine while Update runs in the render loop.
// Limit fields must not change concurrently with Update.
type Controls struct {
	cam *camera.Perspective
	el  host.Element

	// Point the camera orbits.
	Target linear.V3

	// Distance limits.
	MinDistance, MaxDistance float32
	// Polar limits, within [0, π].
	MinPolarAngle, MaxPolarAngle float32
	// Azimuth limits. They apply only when both are finite;
	// the range may wrap around ±π.
	MinAzimuthAngle, MaxAzimuthAngle float32

	RotateSpeed float32
	ZoomSpeed   float32
	PanSpeed    float32

	EnableRotate bool
	EnableZoom   bool
	EnablePan    bool

	mu    sync.Mutex
	sph   Spherical
	dsph  Spherical
	scale float32
	panX  float32
	panY  float32
	state state
	lastX int
	lastY int
}

type state int

const (
	idle state = iota
	rotating
	dollying
	panning
)

// New creates controls for cam, with pointer motion scaled
// by the size of el. el may be nil, in which case the
// viewport is taken to be square with side 1.
func New(cam *camera.Perspective, el host.Element) *Controls {
	c := &Controls{
		cam:             cam,
		el:              el,
		MaxDistance:     math32.Inf(1),
		MaxPolarAngle:   math32.Pi,
		MinAzimuthAngle: math32.Inf(-1),
		MaxAzimuthAngle: math32.Inf(1),
		RotateSpeed:     1,
		ZoomSpeed:       1,
		PanSpeed:        1,
		EnableRotate:    true,
		EnableZoom:      true,
		EnablePan:       true,
		scale:           1,
	}
	c.sph.FromOffset(c.offset())
	return c
}

func (c *Controls) offset() (v linear.V3) {
	v.Sub(&c.cam.Position, &c.Target)
	return
}

// Camera returns the controlled camera.
func (c *Controls) Camera() *camera.Perspective { return c.cam }

// Spherical returns the camera placement computed by the
// last Update.
func (c *Controls) Spherical() Spherical {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sph
}

// Update applies accumulated motion, enforces the limits
// and moves the camera. It returns whether the camera
// moved.
func (c *Controls) Update() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.cam.Position
	var s Spherical
	s.FromOffset(c.offset())
	s.Theta += c.dsph.Theta
	s.Phi += c.dsph.Phi

	if minA, maxA := c.MinAzimuthAngle, c.MaxAzimuthAngle; !math32.IsInf(minA, 0) && !math32.IsInf(maxA, 0) {
		s.Theta = wrap(s.Theta)
		minA, maxA = wrap(minA), wrap(maxA)
		if minA <= maxA {
			s.Theta = max(minA, min(s.Theta, maxA))
		} else if s.Theta > (minA+maxA)/2 {
			s.Theta = max(minA, s.Theta)
		} else {
			s.Theta = min(maxA, s.Theta)
		}
	}
	s.Phi = max(c.MinPolarAngle, min(s.Phi, c.MaxPolarAngle))
	s.Phi = max(eps, min(s.Phi, math32.Pi-eps))

	s.Radius *= c.scale
	s.Radius = max(c.MinDistance, min(s.Radius, c.MaxDistance))

	if c.panX != 0 || c.panY != 0 {
		right, up, _ := c.cam.Basis()
		right.Scale(-c.panX, &right)
		up.Scale(c.panY, &up)
		c.Target.Add(&c.Target, &right)
		c.Target.Add(&c.Target, &up)
	}
	off := s.Offset()
	c.cam.Position.Add(&c.Target, &off)
	c.cam.LookAt(c.Target)

	c.sph = s
	c.dsph = Spherical{}
	c.scale = 1
	c.panX, c.panY = 0, 0

	var d linear.V3
	d.Sub(&c.cam.Position, &before)
	return d.Dot(&d) > eps
}

// wrap maps an angle into [-π, π].
// Angles already in range are returned unchanged.
func wrap(a float32) float32 {
	const twoPi = 2 * math32.Pi
	if a >= -math32.Pi && a <= math32.Pi {
		return a
	}
	a = math32.Mod(a+math32.Pi, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a - math32.Pi
}

// RotateLeft rotates the camera around the target by angle
// radians, clockwise as seen from above.
func (c *Controls) RotateLeft(angle float32) {
	c.mu.Lock()
	c.dsph.Theta -= angle
	c.mu.Unlock()
}

// RotateUp tilts the camera towards the top of the target
// by angle radians.
func (c *Controls) RotateUp(angle float32) {
	c.mu.Lock()
	c.dsph.Phi -= angle
	c.mu.Unlock()
}

// Dolly multiplies the distance to the target by factor.
// Factors below 1 move the camera closer.
func (c *Controls) Dolly(factor float32) {
	if factor <= 0 {
		return
	}
	c.mu.Lock()
	c.scale *= factor
	c.mu.Unlock()
}

// Pan moves the target (and the camera along with it) by
// dx, dy along the camera's right and up directions.
// Positive dx moves the view left.
func (c *Controls) Pan(dx, dy float32) {
	c.mu.Lock()
	c.panX += dx
	c.panY += dy
	c.mu.Unlock()
}

func (c *Controls) zoomScale() float32 { return math32.Pow(0.95, c.ZoomSpeed) }

func (c *Controls) height() float32 {
	if c.el == nil {
		return 1
	}
	_, h := c.el.Size()
	return float32(max(1, h))
}

// PointerButton implements host.PointerHandler.
func (c *Controls) PointerButton(btn host.Button, pressed bool, x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !pressed {
		c.state = idle
		return
	}
	switch {
	case btn == host.BtnLeft && c.EnableRotate:
		c.state = rotating
	case btn == host.BtnMiddle && c.EnableZoom:
		c.state = dollying
	case btn == host.BtnRight && c.EnablePan:
		c.state = panning
	default:
		c.state = idle
	}
	c.lastX, c.lastY = x, y
}

// PointerMotion implements host.PointerHandler.
func (c *Controls) PointerMotion(newX, newY int) {
	c.mu.Lock()
	st := c.state
	dx, dy := float32(newX-c.lastX), float32(newY-c.lastY)
	c.lastX, c.lastY = newX, newY
	radius := c.sph.Radius
	c.mu.Unlock()

	h := c.height()
	switch st {
	case rotating:
		c.RotateLeft(2 * math32.Pi * dx / h * c.RotateSpeed)
		c.RotateUp(2 * math32.Pi * dy / h * c.RotateSpeed)
	case dollying:
		if dy > 0 {
			c.Dolly(1 / c.zoomScale())
		} else if dy < 0 {
			c.Dolly(c.zoomScale())
		}
	case panning:
		// Half the visible height at the target's distance.
		half := radius * math32.Tan(c.cam.FOV/2*math32.Pi/180)
		c.Pan(2*dx*half/h*c.PanSpeed, 2*dy*half/h*c.PanSpeed)
	}
}

// PointerWheel implements host.PointerHandler.
func (c *Controls) PointerWheel(_, dy float64) {
	if !c.EnableZoom {
		return
	}
	switch {
	case dy < 0:
		c.Dolly(c.zoomScale())
	case dy > 0:
		c.Dolly(1 / c.zoomScale())
	}
}
