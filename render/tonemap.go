// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package render

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/gviegas/seascene/linear"
)

// ToneMapping is the type of tone mapping operators.
type ToneMapping int

// Tone mapping operators.
const (
	NoToneMapping ToneMapping = iota
	LinearToneMapping
	ReinhardToneMapping
	ACESFilmicToneMapping
)

var toneNames = [...]string{"none", "linear", "reinhard", "aces"}

func (t ToneMapping) String() string {
	if t < 0 || int(t) >= len(toneNames) {
		return fmt.Sprintf("ToneMapping(%d)", int(t))
	}
	return toneNames[t]
}

// ParseToneMapping returns the operator named s.
func ParseToneMapping(s string) (ToneMapping, error) {
	for i, n := range toneNames {
		if n == s {
			return ToneMapping(i), nil
		}
	}
	return 0, fmt.Errorf("render: unknown tone mapping %q", s)
}

// Map maps the linear HDR color c to [0, 1].
// NoToneMapping ignores exposure and only clamps.
func (t ToneMapping) Map(c linear.V3, exposure float32) linear.V3 {
	switch t {
	case LinearToneMapping:
		c.Scale(exposure, &c)
	case ReinhardToneMapping:
		c.Scale(exposure, &c)
		for i := range c {
			c[i] /= 1 + c[i]
		}
	case ACESFilmicToneMapping:
		c = acesFilmic(c, exposure)
	}
	return saturate(c)
}

// acesFilmic is the Stephen Hill fit of the ACES RRT+ODT,
// with the exposure boost used by common real-time
// renderers.
func acesFilmic(c linear.V3, exposure float32) linear.V3 {
	c.Scale(exposure/0.6, &c)
	c = linear.V3{
		0.59719*c[0] + 0.35458*c[1] + 0.04823*c[2],
		0.07600*c[0] + 0.90834*c[1] + 0.01566*c[2],
		0.02840*c[0] + 0.13383*c[1] + 0.83777*c[2],
	}
	for i, v := range c {
		a := v*(v+0.0245786) - 0.000090537
		b := v*(0.983729*v+0.4329510) + 0.238081
		c[i] = a / b
	}
	return linear.V3{
		1.60475*c[0] - 0.53108*c[1] - 0.07367*c[2],
		-0.10208*c[0] + 1.10813*c[1] - 0.00605*c[2],
		-0.00327*c[0] - 0.07276*c[1] + 1.07602*c[2],
	}
}

func saturate(c linear.V3) linear.V3 {
	for i := range c {
		c[i] = max(0, min(c[i], 1))
	}
	return c
}

// Encoding is the type of output color encodings.
type Encoding int

// Output encodings.
const (
	LinearEncoding Encoding = iota
	SRGBEncoding
)

var encNames = [...]string{"linear", "srgb"}

func (e Encoding) String() string {
	if e < 0 || int(e) >= len(encNames) {
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
	return encNames[e]
}

// ParseEncoding returns the encoding named s.
func ParseEncoding(s string) (Encoding, error) {
	for i, n := range encNames {
		if n == s {
			return Encoding(i), nil
		}
	}
	return 0, fmt.Errorf("render: unknown encoding %q", s)
}

// Encode converts the linear color c, in [0, 1], to e.
func (e Encoding) Encode(c linear.V3) linear.V3 {
	if e != SRGBEncoding {
		return c
	}
	for i, v := range c {
		if v < 0.0031308 {
			c[i] = v * 12.92
		} else {
			c[i] = 1.055*math32.Pow(v, 1/2.4) - 0.055
		}
	}
	return c
}
