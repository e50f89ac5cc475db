// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package scene

import (
	"github.com/gviegas/seascene/linear"
)

// AmbientLight is a light that illuminates every object
// equally, regardless of position or orientation.
// The zero value is a black light.
type AmbientLight struct {
	color     linear.V3
	intensity float32
}

// NewAmbientLight creates an ambient light.
// r/g/b are clamped to [0, 1]; intensity is clamped to
// be non-negative.
func NewAmbientLight(r, g, b, intensity float32) *AmbientLight {
	l := new(AmbientLight)
	l.SetColor(r, g, b)
	l.SetIntensity(intensity)
	return l
}

// Kind implements Object.
func (*AmbientLight) Kind() Kind { return KindAmbientLight }

// SetIntensity sets the intensity of l.
func (l *AmbientLight) SetIntensity(i float32) { l.intensity = max(0, i) }

// Intensity returns the intensity of l.
func (l *AmbientLight) Intensity() float32 { return l.intensity }

// SetColor sets the RGB color of l.
func (l *AmbientLight) SetColor(r, g, b float32) {
	l.color = linear.V3{clamp01(r), clamp01(g), clamp01(b)}
}

// Color returns the RGB color of l.
func (l *AmbientLight) Color() (r, g, b float32) {
	return l.color[0], l.color[1], l.color[2]
}

// Radiance returns color ⋅ intensity.
func (l *AmbientLight) Radiance() (v linear.V3) {
	v.Scale(l.intensity, &l.color)
	return
}

func clamp01(x float32) float32 { return max(0, min(x, 1)) }
