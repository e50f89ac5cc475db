// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package config defines the settings of a sea scene.
//
// A Config starts from a preset and is optionally
// overridden by a TOML document. Only the keys present in
// the document change; everything else keeps the preset's
// value.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chewxy/math32"
	"github.com/gogpu/gg"
	"github.com/pelletier/go-toml/v2"

	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/render"
)

// Config is the complete scene configuration.
type Config struct {
	Renderer    Renderer    `toml:"renderer"`
	Camera      Camera      `toml:"camera"`
	Orbit       Orbit       `toml:"orbit"`
	Light       Light       `toml:"light"`
	Environment Environment `toml:"environment"`
	Model       Model       `toml:"model"`
	Water       Water       `toml:"water"`
	Debug       Debug       `toml:"debug"`
}

// Renderer configures the output surface.
type Renderer struct {
	// Selector of the element the surface is attached to.
	Container   string  `toml:"container"`
	Antialias   bool    `toml:"antialias"`
	ToneMapping string  `toml:"tone_mapping"`
	Exposure    float32 `toml:"exposure"`
	Encoding    string  `toml:"encoding"`
}

// Camera configures the perspective camera.
// FOV is vertical and in degrees.
type Camera struct {
	FOV      float32    `toml:"fov"`
	Near     float32    `toml:"near"`
	Far      float32    `toml:"far"`
	Position [3]float32 `toml:"position"`
}

// Orbit configures the orbit controls.
// Angles are in radians. Unbounded limits are written as
// inf in TOML, which only decodes into float64 fields.
type Orbit struct {
	MinDistance     float64 `toml:"min_distance"`
	MaxDistance     float64 `toml:"max_distance"`
	MinPolarAngle   float64 `toml:"min_polar_angle"`
	MaxPolarAngle   float64 `toml:"max_polar_angle"`
	MinAzimuthAngle float64 `toml:"min_azimuth_angle"`
	MaxAzimuthAngle float64 `toml:"max_azimuth_angle"`
	RotateSpeed     float32 `toml:"rotate_speed"`
	ZoomSpeed       float32 `toml:"zoom_speed"`
	EnablePan       bool    `toml:"enable_pan"`
}

// Light configures the ambient light.
type Light struct {
	Color     Color   `toml:"color"`
	Intensity float32 `toml:"intensity"`
}

// Environment configures the environment map.
type Environment struct {
	URL string `toml:"url"`
}

// Model configures the ship model.
// Rotation is applied about the local X axis after the
// position is set.
type Model struct {
	URL       string     `toml:"url"`
	DracoPath string     `toml:"draco_path"`
	Position  [3]float32 `toml:"position"`
	Rotation  float32    `toml:"rotation"`
}

// Water configures the water plane and its material.
type Water struct {
	Width          float32    `toml:"width"`
	Height         float32    `toml:"height"`
	WidthSegments  int        `toml:"width_segments"`
	HeightSegments int        `toml:"height_segments"`
	Rotation       float32    `toml:"rotation"`
	Color          Color      `toml:"color"`
	Scale          float32    `toml:"scale"`
	FlowDirection  [2]float32 `toml:"flow_direction"`
	TextureSize    int        `toml:"texture_size"`
	FlowSpeed      float32    `toml:"flow_speed"`
	Reflectivity   float32    `toml:"reflectivity"`
	Transparent    bool       `toml:"transparent"`
	Opacity        float32    `toml:"opacity"`
}

// Debug configures the debug panel.
type Debug struct {
	Enabled bool `toml:"enabled"`
	// Listen address of the websocket endpoint.
	// Empty means no server.
	Addr string `toml:"addr"`
}

// Color is a #rrggbb hex string.
type Color string

// Valid reports whether c is well formed.
func (c Color) Valid() bool {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, r := range s[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// V3 returns c as an RGB triplet in [0, 1].
// The components are used as linear values, unconverted.
func (c Color) V3() linear.V3 {
	x := gg.Hex(string(c))
	return linear.V3{float32(x.R), float32(x.G), float32(x.B)}
}

// Frigate returns the default configuration: the frigate
// seen from above and behind, on an opaque sea.
func Frigate() *Config {
	return &Config{
		Renderer: Renderer{
			Container:   ".container-scene",
			Antialias:   true,
			ToneMapping: render.ACESFilmicToneMapping.String(),
			Exposure:    1.8,
			Encoding:    render.SRGBEncoding.String(),
		},
		Camera: Camera{
			FOV:      45,
			Near:     0.1,
			Far:      1000,
			Position: [3]float32{0, 70, 50},
		},
		Orbit: Orbit{
			MaxDistance:     math.Inf(1),
			MaxPolarAngle:   math.Pi,
			MinAzimuthAngle: math.Inf(-1),
			MaxAzimuthAngle: math.Inf(1),
			RotateSpeed:     1,
			ZoomSpeed:       1,
			EnablePan:       true,
		},
		Light: Light{Color: "#404040", Intensity: 1},
		Environment: Environment{
			URL: "hdr/sea_4k.hdr",
		},
		Model: Model{
			URL:       "models/aleksandr_frigate/scene.gltf",
			DracoPath: "three/examples/js/libs/draco/",
			Rotation:  -0.65,
		},
		Water: Water{
			Width:          1000,
			Height:         1000,
			WidthSegments:  1,
			HeightSegments: 1,
			Rotation:       -math32.Pi / 2,
			Color:          "#ccc999",
			Scale:          1,
			FlowDirection:  [2]float32{0.5, -0.5},
			TextureSize:    256,
			FlowSpeed:      0.03,
			Reflectivity:   0.02,
			Opacity:        1,
		},
		Debug: Debug{Addr: "localhost:8765"},
	}
}

// Harbor returns a configuration with a farther camera
// that cannot go below the horizon, a larger translucent
// sea and the model slightly sunk.
func Harbor() *Config {
	c := Frigate()
	c.Camera.Position = [3]float32{0, 30, 90}
	c.Camera.Far = 2000
	c.Orbit.MinDistance = 20
	c.Orbit.MaxDistance = 300
	c.Orbit.MaxPolarAngle = math.Pi/2 - 0.05
	c.Model.Position = [3]float32{0, -2, 0}
	c.Water.Width = 2000
	c.Water.Height = 2000
	c.Water.Transparent = true
	c.Water.Opacity = 0.8
	return c
}

var presets = map[string]func() *Config{
	"frigate": Frigate,
	"harbor":  Harbor,
}

// Presets returns the names accepted by Preset.
func Presets() []string { return []string{"frigate", "harbor"} }

// Preset returns the configuration named name.
// The empty name selects Frigate.
func Preset(name string) (*Config, error) {
	if name == "" {
		return Frigate(), nil
	}
	f, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("config: unknown preset %q", name)
	}
	return f(), nil
}

// Decode reads a TOML document from r over base and
// validates the result. base is not modified.
// Unknown keys are errors.
func Decode(r io.Reader, base *Config) (*Config, error) {
	if base == nil {
		base = Frigate()
	}
	c := *base
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("config: %s", sme.String())
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the TOML file at path over base.
func Load(path string, base *Config) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Decode(f, base)
}

// Encode writes c to w as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// ToneMapping returns the parsed tone mapping operator.
func (c *Config) ToneMapping() (render.ToneMapping, error) {
	return render.ParseToneMapping(c.Renderer.ToneMapping)
}

// Encoding returns the parsed output encoding.
func (c *Config) Encoding() (render.Encoding, error) {
	return render.ParseEncoding(c.Renderer.Encoding)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("config: invalid "+format, args...)
}

func finite(v ...float32) bool {
	for _, x := range v {
		if math32.IsNaN(x) || math32.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Validate checks that c describes a scene that can be set
// up.
func (c *Config) Validate() error {
	if c.Renderer.Container == "" {
		return invalid("renderer.container: empty selector")
	}
	if _, err := c.ToneMapping(); err != nil {
		return fmt.Errorf("config: renderer.tone_mapping: %w", err)
	}
	if _, err := c.Encoding(); err != nil {
		return fmt.Errorf("config: renderer.encoding: %w", err)
	}
	if !finite(c.Renderer.Exposure) || c.Renderer.Exposure <= 0 {
		return invalid("renderer.exposure: %v", c.Renderer.Exposure)
	}

	cam := &c.Camera
	if !(cam.FOV > 0 && cam.FOV < 180) {
		return invalid("camera.fov: %v", cam.FOV)
	}
	if !finite(cam.Near, cam.Far) || cam.Near <= 0 || cam.Near >= cam.Far {
		return invalid("camera planes: near %v, far %v", cam.Near, cam.Far)
	}
	if !finite(cam.Position[:]...) {
		return invalid("camera.position: %v", cam.Position)
	}

	o := &c.Orbit
	switch {
	case math.IsNaN(o.MinDistance) || math.IsNaN(o.MaxDistance) || math.IsInf(o.MinDistance, 0):
		return invalid("orbit distance: [%v, %v]", o.MinDistance, o.MaxDistance)
	case math.IsNaN(o.MinPolarAngle) || math.IsNaN(o.MaxPolarAngle):
		return invalid("orbit polar angle: [%v, %v]", o.MinPolarAngle, o.MaxPolarAngle)
	case math.IsNaN(o.MinAzimuthAngle) || math.IsNaN(o.MaxAzimuthAngle) ||
		math.IsInf(o.MinAzimuthAngle, 1) || math.IsInf(o.MaxAzimuthAngle, -1):
		return invalid("orbit azimuth angle: [%v, %v]", o.MinAzimuthAngle, o.MaxAzimuthAngle)
	case !finite(o.RotateSpeed, o.ZoomSpeed):
		return invalid("orbit speed")
	case o.MinDistance < 0 || o.MinDistance > o.MaxDistance:
		return invalid("orbit distance: [%v, %v]", o.MinDistance, o.MaxDistance)
	case o.MinPolarAngle < 0 || o.MaxPolarAngle > math.Pi || o.MinPolarAngle > o.MaxPolarAngle:
		return invalid("orbit polar angle: [%v, %v]", o.MinPolarAngle, o.MaxPolarAngle)
	case math.IsInf(o.MinAzimuthAngle, 0) != math.IsInf(o.MaxAzimuthAngle, 0):
		return invalid("orbit azimuth angle: [%v, %v]", o.MinAzimuthAngle, o.MaxAzimuthAngle)
	case o.RotateSpeed < 0 || o.ZoomSpeed < 0:
		return invalid("orbit speed")
	}

	if !c.Light.Color.Valid() {
		return invalid("light.color: %q", c.Light.Color)
	}
	if !finite(c.Light.Intensity) || c.Light.Intensity < 0 {
		return invalid("light.intensity: %v", c.Light.Intensity)
	}

	if !finite(c.Model.Position[:]...) || !finite(c.Model.Rotation) {
		return invalid("model transform: position %v, rotation %v", c.Model.Position, c.Model.Rotation)
	}

	w := &c.Water
	switch {
	case !finite(w.Width, w.Height, w.Rotation, w.Scale, w.FlowSpeed, w.Reflectivity, w.Opacity):
		return invalid("water: non-finite value")
	case !finite(w.FlowDirection[:]...):
		return invalid("water.flow_direction: %v", w.FlowDirection)
	case w.Width <= 0 || w.Height <= 0:
		return invalid("water size: %vx%v", w.Width, w.Height)
	case w.WidthSegments < 1 || w.HeightSegments < 1:
		return invalid("water segments: %dx%d", w.WidthSegments, w.HeightSegments)
	case !w.Color.Valid():
		return invalid("water.color: %q", w.Color)
	case w.Scale <= 0:
		return invalid("water.scale: %v", w.Scale)
	case w.TextureSize < 1:
		return invalid("water.texture_size: %d", w.TextureSize)
	case w.FlowSpeed < 0:
		return invalid("water.flow_speed: %v", w.FlowSpeed)
	case w.Reflectivity < 0 || w.Reflectivity > 1:
		return invalid("water.reflectivity: %v", w.Reflectivity)
	case w.Opacity < 0 || w.Opacity > 1:
		return invalid("water.opacity: %v", w.Opacity)
	}
	return nil
}
