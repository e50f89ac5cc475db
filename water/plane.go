// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package water

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/gviegas/seascene/linear"
)

// Plane is a subdivided rectangle.
// It is created on the XY plane facing +Z, centered at the
// origin. Vertices are laid out row by row from the top
// edge (+Y) to the bottom one, each row from -X to +X.
type Plane struct {
	Width, Height float32
	WSeg, HSeg    int

	Positions []linear.V3
	Normals   []linear.V3
	UVs       []linear.V2
	// Two counter-clockwise triangles per cell.
	Indices []uint32
}

// NewPlane creates a width by height plane divided into
// wSeg by hSeg cells.
func NewPlane(width, height float32, wSeg, hSeg int) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("water: plane dimensions must be positive")
	}
	if wSeg < 1 || hSeg < 1 {
		return nil, errors.New("water: plane needs at least one segment per side")
	}
	gx1, gy1 := wSeg+1, hSeg+1
	segW := width / float32(wSeg)
	segH := height / float32(hSeg)
	p := &Plane{
		Width:     width,
		Height:    height,
		WSeg:      wSeg,
		HSeg:      hSeg,
		Positions: make([]linear.V3, 0, gx1*gy1),
		Normals:   make([]linear.V3, 0, gx1*gy1),
		UVs:       make([]linear.V2, 0, gx1*gy1),
		Indices:   make([]uint32, 0, wSeg*hSeg*6),
	}
	for iy := range gy1 {
		y := float32(iy)*segH - height/2
		for ix := range gx1 {
			x := float32(ix)*segW - width/2
			p.Positions = append(p.Positions, linear.V3{x, -y, 0})
			p.Normals = append(p.Normals, linear.V3{0, 0, 1})
			p.UVs = append(p.UVs, linear.V2{float32(ix) / float32(wSeg), 1 - float32(iy)/float32(hSeg)})
		}
	}
	for iy := range hSeg {
		for ix := range wSeg {
			a := uint32(ix + gx1*iy)
			b := uint32(ix + gx1*(iy+1))
			c := uint32(ix + 1 + gx1*(iy+1))
			d := uint32(ix + 1 + gx1*iy)
			p.Indices = append(p.Indices, a, b, d, b, c, d)
		}
	}
	return p, nil
}

// RotateX rotates the vertices and normals of p about the
// X axis by angle radians.
func (p *Plane) RotateX(angle float32) {
	s, c := math32.Sincos(angle)
	rot := func(v *linear.V3) {
		y, z := v[1], v[2]
		v[1] = y*c - z*s
		v[2] = y*s + z*c
	}
	for i := range p.Positions {
		rot(&p.Positions[i])
		rot(&p.Normals[i])
	}
}

// Normal returns the normal shared by all vertices of p.
func (p *Plane) Normal() linear.V3 { return p.Normals[0] }

// Cell returns the four corners of the cell at column ix
// and row iy, in the order top-left, bottom-left,
// bottom-right, top-right.
func (p *Plane) Cell(ix, iy int) [4]linear.V3 {
	gx1 := p.WSeg + 1
	return [4]linear.V3{
		p.Positions[ix+gx1*iy],
		p.Positions[ix+gx1*(iy+1)],
		p.Positions[ix+1+gx1*(iy+1)],
		p.Positions[ix+1+gx1*iy],
	}
}
