// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package bootstrap assembles and runs a sea scene.
//
// Start builds the renderer, camera, controls, light and
// water synchronously, kicks off the environment and model
// loads, and registers the render loop with the host.
// The two loads complete in any order; each one changes the
// scene on its own, and a failed load only leaves its part
// of the scene missing.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/asset"
	"github.com/gviegas/seascene/camera"
	"github.com/gviegas/seascene/config"
	"github.com/gviegas/seascene/debug"
	"github.com/gviegas/seascene/draco"
	"github.com/gviegas/seascene/envmap"
	"github.com/gviegas/seascene/host"
	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/model"
	"github.com/gviegas/seascene/orbit"
	"github.com/gviegas/seascene/render"
	"github.com/gviegas/seascene/scene"
	"github.com/gviegas/seascene/texture"
	"github.com/gviegas/seascene/water"
)

// ErrNoContainer is returned by Start when the host has no
// element matching the configured container selector.
var ErrNoContainer = errors.New("bootstrap: container not found")

// Option configures Start.
type Option func(*options)

type options struct {
	src   *asset.Source
	panel *debug.Panel
}

// WithSource sets the source of the environment map and
// model. The default reads from the working directory.
func WithSource(src *asset.Source) Option {
	return func(o *options) { o.src = src }
}

// WithPanel sets the debug panel applied by the render
// loop. Without it, a panel is created only if the
// configuration enables debugging.
func WithPanel(p *debug.Panel) Option {
	return func(o *options) { o.panel = p }
}

// App is a running scene.
type App struct {
	host  host.Host
	cfg   *config.Config
	panel *debug.Panel

	ctx    context.Context
	cancel context.CancelFunc
	stop   sync.Once
	done   chan struct{}

	// mu serializes frames and resizes.
	mu       sync.Mutex
	scene    *scene.Scene
	camera   *camera.Perspective
	controls *orbit.Controls
	renderer *render.Renderer
	light    *scene.AmbientLight
	water    *water.Surface
	frames   int

	env   *Load[*texture.Texture]
	model *Load[*scene.Node]
}

// Start sets up the scene described by cfg in h and starts
// the render loop. It fails if cfg is invalid, if the host
// has no container or if the renderer cannot be created;
// asset loads never make it fail.
// The scene stops when ctx is done or Stop is called.
func Start(ctx context.Context, h host.Host, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, f := range opts {
		f(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := h.Ready(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap: host not ready: %w", err)
	}
	if o.src == nil {
		src, err := asset.NewSource("")
		if err != nil {
			return nil, err
		}
		o.src = src
	}
	if o.panel == nil && cfg.Debug.Enabled {
		o.panel = debug.NewPanel(cfg)
	}

	a := &App{
		host:  h,
		cfg:   cfg,
		panel: o.panel,
		done:  make(chan struct{}),
		scene: scene.New(),
	}

	el, err := a.initRenderer()
	if err != nil {
		return nil, err
	}
	a.initCamera(el)
	a.initLight()
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.loadEnvironment(o.src)
	a.loadModel(o.src)
	if err := a.initWater(); err != nil {
		a.cancel()
		a.renderer.Close()
		return nil, err
	}

	h.SetResizeHandler(a)
	h.SetPointerHandler(a.controls)
	h.SetAnimationLoop(a.frame)
	go func() {
		select {
		case <-a.ctx.Done():
			a.Stop()
		case <-a.done:
		}
	}()

	w, ht := a.renderer.Size()
	seascene.Logger().Info("bootstrap: started", "width", w, "height", ht,
		"debug", a.panel != nil)
	return a, nil
}

func (a *App) initRenderer() (host.Element, error) {
	rc := &a.cfg.Renderer
	el := a.host.Query(rc.Container)
	if el == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoContainer, rc.Container)
	}
	w, h := a.host.Viewport()
	r, err := render.New(render.Options{Width: w, Height: h, Antialias: rc.Antialias})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	// Validate has checked both already.
	r.ToneMapping, _ = a.cfg.ToneMapping()
	r.OutputEncoding, _ = a.cfg.Encoding()
	r.ToneMappingExposure = rc.Exposure
	el.Attach(r)
	a.renderer = r
	return el, nil
}

func (a *App) initCamera(el host.Element) {
	cc := &a.cfg.Camera
	w, h := a.renderer.Size()
	a.camera = camera.New(cc.FOV, float32(w)/float32(h), cc.Near, cc.Far)
	a.camera.SetPosition(cc.Position[0], cc.Position[1], cc.Position[2])

	oc := &a.cfg.Orbit
	c := orbit.New(a.camera, el)
	c.MinDistance, c.MaxDistance = float32(oc.MinDistance), float32(oc.MaxDistance)
	c.MinPolarAngle, c.MaxPolarAngle = float32(oc.MinPolarAngle), float32(oc.MaxPolarAngle)
	c.MinAzimuthAngle, c.MaxAzimuthAngle = float32(oc.MinAzimuthAngle), float32(oc.MaxAzimuthAngle)
	c.RotateSpeed = oc.RotateSpeed
	c.ZoomSpeed = oc.ZoomSpeed
	c.EnablePan = oc.EnablePan
	c.Update()
	a.controls = c
}

func (a *App) initLight() {
	c := a.cfg.Light.Color.V3()
	a.light = scene.NewAmbientLight(c[0], c[1], c[2], a.cfg.Light.Intensity)
	a.scene.Add(scene.NewNode("ambient", a.light))
}

func (a *App) loadEnvironment(src *asset.Source) {
	ref := a.cfg.Environment.URL
	l := envmap.NewLoader(src)
	a.env = load(a.ctx, ref, func(ctx context.Context) (*texture.Texture, error) {
		return l.Load(ctx, ref)
	}, func(t *texture.Texture) {
		t.Mapping = texture.EquirectangularReflectionMapping
		a.scene.SetBackground(t)
		a.scene.SetEnvironment(t)
	})
}

func (a *App) loadModel(src *asset.Source) {
	mc := &a.cfg.Model
	dec := draco.NewDecoder(src).SetDecoderPath(mc.DracoPath)
	l := model.NewLoader(src).SetDRACOLoader(dec)
	a.model = load(a.ctx, mc.URL, func(ctx context.Context) (*scene.Node, error) {
		return l.Load(ctx, mc.URL)
	}, func(n *scene.Node) {
		n.Position = linear.V3(mc.Position)
		n.RotateX(mc.Rotation)
		a.scene.Add(n)
	})
}

func (a *App) initWater() error {
	wc := &a.cfg.Water
	plane, err := water.NewPlane(wc.Width, wc.Height, wc.WidthSegments, wc.HeightSegments)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	plane.RotateX(wc.Rotation)
	surf, err := water.New(plane, water.Options{
		Color:         wc.Color.V3(),
		Scale:         wc.Scale,
		FlowDirection: linear.V2(wc.FlowDirection),
		TextureWidth:  wc.TextureSize,
		TextureHeight: wc.TextureSize,
		FlowSpeed:     wc.FlowSpeed,
		Reflectivity:  wc.Reflectivity,
		Transparent:   wc.Transparent,
		Opacity:       wc.Opacity,
	})
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	a.water = surf
	a.scene.Add(scene.NewNode("water", surf))
	return nil
}

// frame is the animation loop.
func (a *App) frame(dt time.Duration) {
	select {
	case <-a.done:
		return
	default:
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.panel != nil {
		a.panel.Apply(debug.Targets{
			Camera:   a.camera,
			Controls: a.controls,
			Renderer: a.renderer,
			Water:    a.water,
		})
	}
	a.water.Animate(float32(dt.Seconds()))
	a.controls.Update()
	if err := a.renderer.Render(a.scene, a.camera); err != nil {
		seascene.Logger().Warn("bootstrap: render failed", "err", err)
		return
	}
	a.frames++
}

// ViewportResize implements host.ResizeHandler.
func (a *App) ViewportResize(width, height int) { a.Resize(width, height) }

// Resize adapts the camera and the renderer to a new
// viewport size. Non-positive sizes are ignored.
func (a *App) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		seascene.Logger().Debug("bootstrap: resize ignored", "width", width, "height", height)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera.SetAspect(float32(width) / float32(height))
	a.camera.UpdateProjection()
	if err := a.renderer.SetSize(width, height); err != nil {
		seascene.Logger().Warn("bootstrap: resize failed", "err", err)
		return
	}
	seascene.Logger().Debug("bootstrap: resized", "width", width, "height", height)
}

// Stop stops the render loop and cancels pending loads.
// It is safe to call more than once.
func (a *App) Stop() {
	a.stop.Do(func() {
		a.cancel()
		a.host.SetAnimationLoop(nil)
		a.host.SetResizeHandler(nil)
		a.host.SetPointerHandler(nil)
		close(a.done)
		a.mu.Lock()
		frames := a.frames
		a.mu.Unlock()
		seascene.Logger().Info("bootstrap: stopped", "frames", frames)
	})
}

// Done returns a channel that is closed when the app
// stops.
func (a *App) Done() <-chan struct{} { return a.done }

// Wait blocks until the app stops or ctx is done.
func (a *App) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frames returns the number of frames rendered.
func (a *App) Frames() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frames
}

// Config returns the app's configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Scene returns the scene graph.
func (a *App) Scene() *scene.Scene { return a.scene }

// Camera returns the camera.
// It must not be changed concurrently with frames.
func (a *App) Camera() *camera.Perspective { return a.camera }

// Controls returns the orbit controls.
func (a *App) Controls() *orbit.Controls { return a.controls }

// Renderer returns the renderer.
func (a *App) Renderer() *render.Renderer { return a.renderer }

// Light returns the ambient light.
func (a *App) Light() *scene.AmbientLight { return a.light }

// Water returns the water surface.
func (a *App) Water() *water.Surface { return a.water }

// Panel returns the debug panel, if any.
func (a *App) Panel() *debug.Panel { return a.panel }

// Environment returns the environment map load.
func (a *App) Environment() *Load[*texture.Texture] { return a.env }

// Model returns the model load.
func (a *App) Model() *Load[*scene.Node] { return a.model }
