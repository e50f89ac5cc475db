// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package debug provides live tuning of a running scene.
//
// Tweaks are queued by Set, from any goroutine, and take
// effect when the render loop calls Apply. A Panel can be
// fed from a watched configuration file (Watch) or from a
// websocket client (Handler).
package debug

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/camera"
	"github.com/gviegas/seascene/config"
	"github.com/gviegas/seascene/orbit"
	"github.com/gviegas/seascene/render"
	"github.com/gviegas/seascene/water"
)

// Tunable paths.
const (
	CameraX          = "camera.position.x"
	CameraY          = "camera.position.y"
	CameraZ          = "camera.position.z"
	CameraFOV        = "camera.fov"
	Exposure         = "renderer.exposure"
	WaterOpacity     = "water.opacity"
	WaterFlowSpeed   = "water.flow_speed"
	WaterReflectance = "water.reflectivity"
	OrbitMaxDistance = "orbit.max_distance"
	OrbitMinDistance = "orbit.min_distance"
)

var paths = []string{
	CameraX, CameraY, CameraZ, CameraFOV,
	Exposure,
	WaterOpacity, WaterFlowSpeed, WaterReflectance,
	OrbitMaxDistance, OrbitMinDistance,
}

// Paths returns the paths accepted by Set.
func Paths() []string { return slices.Clone(paths) }

// ErrPath is returned (wrapped) by Set for unknown paths.
var ErrPath = errors.New("debug: unknown path")

// ErrValue is returned (wrapped) by Set for NaN, and for
// infinities anywhere but orbit.max_distance.
var ErrValue = errors.New("debug: non-finite value")

// Targets are the objects a Panel mutates.
// Nil targets are skipped.
type Targets struct {
	Camera   *camera.Perspective
	Controls *orbit.Controls
	Renderer *render.Renderer
	Water    *water.Surface
}

type tweak struct {
	path  string
	value float64
}

// Panel holds pending tweaks and the last known value of
// every tunable.
type Panel struct {
	mu      sync.Mutex
	pending []tweak
	values  map[string]float64
	base    *config.Config
}

// NewPanel creates a panel whose values start from cfg.
// cfg is also the base over which watched files are
// decoded.
func NewPanel(cfg *config.Config) *Panel {
	p := &Panel{values: make(map[string]float64), base: cfg}
	if cfg != nil {
		for _, t := range tunables(cfg) {
			p.values[t.path] = t.value
		}
	}
	return p
}

func tunables(c *config.Config) []tweak {
	return []tweak{
		{CameraX, float64(c.Camera.Position[0])},
		{CameraY, float64(c.Camera.Position[1])},
		{CameraZ, float64(c.Camera.Position[2])},
		{CameraFOV, float64(c.Camera.FOV)},
		{Exposure, float64(c.Renderer.Exposure)},
		{WaterOpacity, float64(c.Water.Opacity)},
		{WaterFlowSpeed, float64(c.Water.FlowSpeed)},
		{WaterReflectance, float64(c.Water.Reflectivity)},
		{OrbitMaxDistance, c.Orbit.MaxDistance},
		{OrbitMinDistance, c.Orbit.MinDistance},
	}
}

// Set queues a tweak.
func (p *Panel) Set(path string, value float64) error {
	if !slices.Contains(paths, path) {
		return fmt.Errorf("%w: %q", ErrPath, path)
	}
	if math.IsNaN(value) || (math.IsInf(value, 0) && !(path == OrbitMaxDistance && value > 0)) {
		return fmt.Errorf("%w: %s = %v", ErrValue, path, value)
	}
	p.mu.Lock()
	p.pending = append(p.pending, tweak{path, value})
	p.values[path] = value
	p.mu.Unlock()
	return nil
}

// Pending returns the number of queued tweaks.
func (p *Panel) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Values returns a copy of the last known values.
func (p *Panel) Values() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := make(map[string]float64, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}

// Apply applies the queued tweaks to t, in the order they
// were set, and returns how many were applied.
// It must be called from the goroutine that owns t.
func (p *Panel) Apply(t Targets) int {
	p.mu.Lock()
	q := p.pending
	p.pending = nil
	p.mu.Unlock()
	if len(q) == 0 {
		return 0
	}

	proj := false
	for _, tw := range q {
		v := float32(tw.value)
		if math.IsNaN(tw.value) {
			continue
		}
		switch tw.path {
		case CameraX, CameraY, CameraZ:
			if c := t.Camera; c != nil && !math.IsInf(tw.value, 0) {
				pos := c.Position
				pos[tw.path[len(tw.path)-1]-'x'] = v
				c.SetPosition(pos[0], pos[1], pos[2])
			}
		case CameraFOV:
			if c := t.Camera; c != nil && v > 0 && v < 180 {
				c.FOV = v
				proj = true
			}
		case Exposure:
			if t.Renderer != nil && v > 0 {
				t.Renderer.ToneMappingExposure = v
			}
		case WaterOpacity:
			if t.Water != nil {
				t.Water.SetOpacity(v)
			}
		case WaterFlowSpeed:
			if t.Water != nil {
				t.Water.SetFlowSpeed(v)
			}
		case WaterReflectance:
			if t.Water != nil {
				t.Water.SetReflectivity(v)
			}
		case OrbitMaxDistance:
			if c := t.Controls; c != nil && v >= c.MinDistance {
				c.MaxDistance = v
			}
		case OrbitMinDistance:
			if c := t.Controls; c != nil && v >= 0 && v <= c.MaxDistance {
				c.MinDistance = v
			}
		}
		seascene.Logger().Debug("debug: applied", "path", tw.path, "value", tw.value)
	}
	if proj {
		t.Camera.UpdateProjection()
	}
	p.sync(t)
	return len(q)
}

// sync records the values the targets actually hold,
// which differ from the requested ones when clamped or
// rejected.
func (p *Panel) sync(t Targets) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c := t.Camera; c != nil {
		p.values[CameraX] = float64(c.Position[0])
		p.values[CameraY] = float64(c.Position[1])
		p.values[CameraZ] = float64(c.Position[2])
		p.values[CameraFOV] = float64(c.FOV)
	}
	if t.Renderer != nil {
		p.values[Exposure] = float64(t.Renderer.ToneMappingExposure)
	}
	if t.Water != nil {
		o := t.Water.Options()
		p.values[WaterOpacity] = float64(o.Opacity)
		p.values[WaterFlowSpeed] = float64(o.FlowSpeed)
		p.values[WaterReflectance] = float64(o.Reflectivity)
	}
	if c := t.Controls; c != nil {
		p.values[OrbitMaxDistance] = float64(c.MaxDistance)
		p.values[OrbitMinDistance] = float64(c.MinDistance)
	}
}
