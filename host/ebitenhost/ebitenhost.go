// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package ebitenhost implements host.Host with a desktop
// window.
//
// The window has a single element, whose size is always
// that of the window. Run must be called from the main
// goroutine; the scene is started from another goroutine
// once Ready returns.
package ebitenhost

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.org/x/image/draw"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/host"
)

// Window is a host.Host backed by an ebiten game.
type Window struct {
	title    string
	selector string

	mu      sync.Mutex
	width   int
	height  int
	el      *element
	resize  host.ResizeHandler
	pointer host.PointerHandler
	loop    host.FrameFunc
	closing bool

	ready     chan struct{}
	readyOnce sync.Once

	// Owned by the game goroutine.
	last   time.Time
	curX   int
	curY   int
	screen *ebiten.Image
	rgba   *image.RGBA
}

// New creates a window with the given title and initial
// size. selector names its only element.
func New(title string, width, height int, selector string) *Window {
	w := &Window{
		title:    title,
		selector: selector,
		width:    width,
		height:   height,
		ready:    make(chan struct{}),
	}
	w.el = &element{win: w}
	return w
}

// Run opens the window and blocks until it is closed or
// Close is called.
func (w *Window) Run() error {
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowSize(w.Viewport())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(w)
	seascene.Logger().Info("ebitenhost: window closed", "err", err)
	return err
}

// Close makes Run return at the next update.
func (w *Window) Close() {
	w.mu.Lock()
	w.closing = true
	w.mu.Unlock()
}

// Ready implements host.Host. It returns once the window
// has been laid out.
func (w *Window) Ready(ctx context.Context) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query implements host.Host.
func (w *Window) Query(selector string) host.Element {
	if selector != w.selector {
		return nil
	}
	return w.el
}

// Viewport implements host.Host.
func (w *Window) Viewport() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// SetResizeHandler implements host.Host.
func (w *Window) SetResizeHandler(rh host.ResizeHandler) {
	w.mu.Lock()
	w.resize = rh
	w.mu.Unlock()
}

// SetPointerHandler implements host.Host.
func (w *Window) SetPointerHandler(ph host.PointerHandler) {
	w.mu.Lock()
	w.pointer = ph
	w.mu.Unlock()
}

// SetAnimationLoop implements host.Host.
func (w *Window) SetAnimationLoop(f host.FrameFunc) {
	w.mu.Lock()
	w.loop = f
	w.mu.Unlock()
}

var buttons = [...]struct {
	eb  ebiten.MouseButton
	btn host.Button
}{
	{ebiten.MouseButtonLeft, host.BtnLeft},
	{ebiten.MouseButtonRight, host.BtnRight},
	{ebiten.MouseButtonMiddle, host.BtnMiddle},
}

// Update implements ebiten.Game.
// It forwards mouse input to the pointer handler.
func (w *Window) Update() error {
	w.mu.Lock()
	ph, closing := w.pointer, w.closing
	w.mu.Unlock()
	if closing {
		return ebiten.Termination
	}
	if ph == nil {
		return nil
	}

	x, y := ebiten.CursorPosition()
	for _, b := range buttons {
		switch {
		case inpututil.IsMouseButtonJustPressed(b.eb):
			ph.PointerButton(b.btn, true, x, y)
		case inpututil.IsMouseButtonJustReleased(b.eb):
			ph.PointerButton(b.btn, false, x, y)
		}
	}
	if x != w.curX || y != w.curY {
		w.curX, w.curY = x, y
		ph.PointerMotion(x, y)
	}
	// Ebiten's yoff is positive when scrolling up.
	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		ph.PointerWheel(-dx, -dy)
	}
	return nil
}

// Draw implements ebiten.Game.
// It runs one iteration of the animation loop and displays
// the element's surface.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	f := w.loop
	w.mu.Unlock()

	now := time.Now()
	if f != nil {
		var dt time.Duration
		if !w.last.IsZero() {
			dt = now.Sub(w.last)
		}
		f(dt)
	}
	w.last = now

	s := w.el.Surface()
	if s == nil {
		return
	}
	img := s.Image()
	b := img.Bounds()
	if b.Empty() {
		return
	}
	if w.screen == nil || w.screen.Bounds().Size() != b.Size() {
		if w.screen != nil {
			w.screen.Deallocate()
		}
		w.screen = ebiten.NewImage(b.Dx(), b.Dy())
		w.rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	pix := w.rgba.Pix
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() {
		pix = rgba.Pix[:4*b.Dx()*b.Dy()]
	} else {
		draw.Draw(w.rgba, w.rgba.Rect, img, b.Min, draw.Src)
	}
	w.screen.WritePixels(pix)
	screen.DrawImage(w.screen, nil)
}

// Layout implements ebiten.Game.
// Changes of the outside size are reported to the resize
// handler.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.mu.Lock()
	changed := outsideWidth != w.width || outsideHeight != w.height
	w.width, w.height = outsideWidth, outsideHeight
	rh := w.resize
	w.mu.Unlock()
	w.readyOnce.Do(func() { close(w.ready) })
	if changed && rh != nil {
		rh.ViewportResize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

type element struct {
	win *Window
	mu  sync.Mutex
	s   host.Surface
}

func (e *element) Attach(s host.Surface) {
	e.mu.Lock()
	e.s = s
	e.mu.Unlock()
}

func (e *element) Surface() host.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s
}

func (e *element) Size() (int, int) { return e.win.Viewport() }
