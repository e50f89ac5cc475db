// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package render draws scenes in software.
//
// The renderer is a painter: it fills the background from
// the scene's equirectangular texture, then draws water
// cells and mesh bounds from far to near. Colors are
// computed in linear space, tone mapped and then encoded
// for output.
package render

import (
	"errors"
	"image"
	"io"
	"sort"
	"sync"

	"github.com/chewxy/math32"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/camera"
	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/scene"
	"github.com/gviegas/seascene/texture"
	"github.com/gviegas/seascene/water"
)

// Options configures a Renderer.
type Options struct {
	Width     int
	Height    int
	Antialias bool
}

// Background resolution divisor.
// The background is sampled at reduced resolution and
// scaled up.
const bgDiv = 4

// Water cells are split so that the whole surface spans
// about this many cells per side.
const waterGrid = 48

// Radiance seen where there is no environment.
var (
	clearColor = linear.V3{}
	skyColor   = linear.V3{0.35, 0.45, 0.55}
	deepColor  = linear.V3{0.01, 0.04, 0.06}
)

// Renderer draws into an off-screen image.
//
// ToneMapping, ToneMappingExposure and OutputEncoding may
// only be changed by the goroutine that calls Render.
type Renderer struct {
	ToneMapping         ToneMapping
	ToneMappingExposure float32
	OutputEncoding      Encoding

	mu     sync.Mutex
	opts   Options
	dc     *gg.Context
	bg     *image.RGBA
	frames int

	envTex *texture.Texture
	envAvg linear.V3
}

// New creates a renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("render: non-positive size")
	}
	r := &Renderer{
		ToneMappingExposure: 1,
		opts:                opts,
		dc:                  gg.NewContext(opts.Width, opts.Height),
	}
	r.dc.ClearWithColor(gg.RGBA{A: 1})
	return r, nil
}

// SetSize resizes the drawing buffer.
func (r *Renderer) SetSize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.dc.Resize(width, height); err != nil {
		return err
	}
	r.opts.Width, r.opts.Height = width, height
	return nil
}

// Size returns the size of the drawing buffer.
func (r *Renderer) Size() (width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.Width, r.opts.Height
}

// Antialias returns whether antialiasing was requested.
func (r *Renderer) Antialias() bool { return r.opts.Antialias }

// Frames returns the number of frames rendered.
func (r *Renderer) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Image returns a copy of the last frame.
func (r *Renderer) Image() image.Image {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.Image()
}

// EncodePNG writes the last frame to w as PNG.
func (r *Renderer) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.EncodePNG(w)
}

// Close releases the drawing context.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.Close()
}

// output converts a linear radiance into a display color.
func (r *Renderer) output(c linear.V3, alpha float32) gg.RGBA {
	c = r.ToneMapping.Map(c, r.ToneMappingExposure)
	c = r.OutputEncoding.Encode(c)
	return gg.RGBA{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(alpha)}
}

// item is something drawn with the painter's algorithm.
type item struct {
	dist float32
	draw func()
}

// Render draws s as seen by cam.
// Any part of the scene may be missing; an empty scene
// renders the background alone.
func (r *Renderer) Render(s *scene.Scene, cam *camera.Perspective) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	env := s.Environment()
	if env != r.envTex {
		r.envTex = env
		if env != nil {
			r.envAvg = env.Average()
		} else {
			r.envAvg = linear.V3{}
		}
	}

	if bg := s.Background(); bg != nil {
		r.background(bg, cam)
	} else {
		r.dc.ClearWithColor(r.output(clearColor, 1))
	}

	var ambient linear.V3
	s.Walk(func(n *scene.Node) bool {
		if l, ok := n.Object.(*scene.AmbientLight); ok {
			rad := l.Radiance()
			ambient.Add(&ambient, &rad)
		}
		return true
	})
	var items []item
	s.Walk(func(n *scene.Node) bool {
		switch o := n.Object.(type) {
		case *water.Surface:
			items = append(items, r.waterItems(n, o, cam, env, &ambient)...)
		case *scene.Mesh:
			if it, ok := r.meshItem(n, o, cam, &ambient); ok {
				items = append(items, it)
			}
		}
		return true
	})
	sort.SliceStable(items, func(i, j int) bool { return items[i].dist > items[j].dist })
	for _, it := range items {
		it.draw()
	}

	r.frames++
	if r.frames%600 == 1 {
		seascene.Logger().Debug("frame rendered", "frame", r.frames, "items", len(items))
	}
	return nil
}

// background fills the frame with the environment seen
// through cam.
func (r *Renderer) background(t *texture.Texture, cam *camera.Perspective) {
	w, h := r.opts.Width, r.opts.Height
	sw, sh := max(1, w/bgDiv), max(1, h/bgDiv)
	if r.bg == nil || r.bg.Rect.Dx() != sw || r.bg.Rect.Dy() != sh {
		r.bg = image.NewRGBA(image.Rect(0, 0, sw, sh))
	}
	for y := range sh {
		ny := 1 - 2*(float32(y)+0.5)/float32(sh)
		for x := range sw {
			nx := 2*(float32(x)+0.5)/float32(sw) - 1
			c := r.output(t.SampleDir(cam.Ray(nx, ny)), 1)
			i := r.bg.PixOffset(x, y)
			r.bg.Pix[i+0] = uint8(c.R*255 + 0.5)
			r.bg.Pix[i+1] = uint8(c.G*255 + 0.5)
			r.bg.Pix[i+2] = uint8(c.B*255 + 0.5)
			r.bg.Pix[i+3] = 255
		}
	}
	// Scale straight into the context's pixels.
	pm := r.dc.ResizeTarget()
	dst := &image.RGBA{Pix: pm.Data(), Stride: 4 * pm.Width(), Rect: image.Rect(0, 0, pm.Width(), pm.Height())}
	var scaler draw.Scaler = draw.NearestNeighbor
	if r.opts.Antialias {
		scaler = draw.BiLinear
	}
	scaler.Scale(dst, dst.Rect, r.bg, r.bg.Rect, draw.Src, nil)
}

// toScreen maps normalized device coordinates to pixels.
func (r *Renderer) toScreen(ndc linear.V3) (float64, float64) {
	x := (float64(ndc[0]) + 1) / 2 * float64(r.opts.Width)
	y := (1 - float64(ndc[1])) / 2 * float64(r.opts.Height)
	return x, y
}

func dist(cam *camera.Perspective, p *linear.V3) float32 {
	var d linear.V3
	d.Sub(p, &cam.Position)
	return d.Len()
}

func (r *Renderer) waterItems(n *scene.Node, w *water.Surface, cam *camera.Perspective, env *texture.Texture, ambient *linear.V3) []item {
	world := n.World()
	plane := w.Plane()

	// Frame of the perturbed normals: Y is the surface normal.
	var normal, tangent, bitangent linear.V3
	pn := plane.Normal()
	normal = world.Point(&pn)
	origin := world.Point(&linear.V3{})
	normal.Sub(&normal, &origin)
	normal.Norm(&normal)
	axis := linear.V3{1, 0, 0}
	if math32.Abs(normal[0]) > 0.9 {
		axis = linear.V3{0, 0, 1}
	}
	bitangent.Cross(&axis, &normal)
	bitangent.Norm(&bitangent)
	tangent.Cross(&normal, &bitangent)

	// Light that reaches the water body from above.
	var body linear.V3
	body.Add(ambient, &r.envAvg)
	for i := range body {
		body[i] = deepColor[i] + body[i]*deepColor[i]
	}

	sub := max(1, waterGrid/max(plane.WSeg, plane.HSeg))
	alpha := w.Alpha()
	var items []item
	for iy := range plane.HSeg {
		for ix := range plane.WSeg {
			cell := plane.Cell(ix, iy)
			for sy := range sub {
				for sx := range sub {
					var q [4]linear.V3
					u0, v0 := float32(sx)/float32(sub), float32(sy)/float32(sub)
					u1, v1 := float32(sx+1)/float32(sub), float32(sy+1)/float32(sub)
					q[0] = bilerp(&cell, u0, v0)
					q[1] = bilerp(&cell, u0, v1)
					q[2] = bilerp(&cell, u1, v1)
					q[3] = bilerp(&cell, u1, v0)
					var pts [4][2]float64
					visible := true
					for k := range q {
						q[k] = world.Point(&q[k])
						ndc, ok := cam.Project(q[k])
						if !ok {
							visible = false
							break
						}
						pts[k][0], pts[k][1] = r.toScreen(ndc)
					}
					if !visible || offscreen(&pts, r.opts.Width, r.opts.Height) {
						continue
					}
					var center linear.V3
					for k := range q {
						center.Add(&center, &q[k])
					}
					center.Scale(0.25, &center)

					// Texture coordinates across the whole plane.
					tu := (float32(ix) + (u0+u1)/2) / float32(plane.WSeg)
					tv := 1 - (float32(iy)+(v0+v1)/2)/float32(plane.HSeg)
					pn := w.Normal(tu, tv)
					var nw, t linear.V3
					nw.Scale(pn[1], &normal)
					t.Scale(pn[0], &tangent)
					nw.Add(&nw, &t)
					t.Scale(pn[2], &bitangent)
					nw.Add(&nw, &t)
					nw.Norm(&nw)

					var view linear.V3
					view.Sub(&center, &cam.Position)
					view.Norm(&view)
					cos := -view.Dot(&nw)
					var refl linear.V3
					refl.Scale(2*view.Dot(&nw), &nw)
					refl.Sub(&view, &refl)
					sky := skyColor
					if env != nil {
						sky = env.SampleDir(refl)
					}
					col := r.output(w.Shade(cos, sky, body), alpha)

					items = append(items, item{
						dist: dist(cam, &center),
						draw: func() {
							r.dc.SetRGBA(col.R, col.G, col.B, col.A)
							r.dc.MoveTo(pts[0][0], pts[0][1])
							for k := 1; k < 4; k++ {
								r.dc.LineTo(pts[k][0], pts[k][1])
							}
							r.dc.ClosePath()
							if err := r.dc.Fill(); err != nil {
								seascene.Logger().Debug("water fill", "err", err)
							}
						},
					})
				}
			}
		}
	}
	return items
}

// bilerp interpolates the corners of a cell, ordered as
// returned by water.Plane.Cell.
func bilerp(c *[4]linear.V3, u, v float32) linear.V3 {
	var top, bot, p linear.V3
	top.Lerp(&c[0], &c[3], u)
	bot.Lerp(&c[1], &c[2], u)
	p.Lerp(&top, &bot, v)
	return p
}

func offscreen(pts *[4][2]float64, w, h int) bool {
	minX, minY := pts[0][0], pts[0][1]
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = min(minX, p[0]), max(maxX, p[0])
		minY, maxY = min(minY, p[1]), max(maxY, p[1])
	}
	return maxX < 0 || maxY < 0 || minX > float64(w) || minY > float64(h)
}

// Edges of a box, as indices into scene.Mesh.Corners.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7},
	{0, 2}, {1, 3}, {4, 6}, {5, 7},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func (r *Renderer) meshItem(n *scene.Node, m *scene.Mesh, cam *camera.Perspective, ambient *linear.V3) (item, bool) {
	if !m.Bounded {
		return item{}, false
	}
	world := n.World()
	corners := m.Corners()
	var pts [8][2]float64
	var center linear.V3
	for i := range corners {
		p := world.Point(&corners[i])
		ndc, ok := cam.Project(p)
		if !ok {
			return item{}, false
		}
		pts[i][0], pts[i][1] = r.toScreen(ndc)
		center.Add(&center, &p)
	}
	center.Scale(1.0/8, &center)

	var light linear.V3
	light.Add(ambient, &r.envAvg)
	c := m.BaseColor
	for i := range c {
		c[i] *= light[i]
	}
	col := r.output(c, 1)
	dashed := m.Compressed
	return item{
		dist: dist(cam, &center),
		draw: func() {
			r.dc.SetRGBA(col.R, col.G, col.B, col.A)
			r.dc.SetLineWidth(1.5)
			if dashed {
				r.dc.SetDash(6, 4)
			}
			for _, e := range boxEdges {
				r.dc.MoveTo(pts[e[0]][0], pts[e[0]][1])
				r.dc.LineTo(pts[e[1]][0], pts[e[1]][1])
			}
			if err := r.dc.Stroke(); err != nil {
				seascene.Logger().Debug("mesh stroke", "err", err)
			}
			r.dc.SetDash()
		},
	}, true
}
