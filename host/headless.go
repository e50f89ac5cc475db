// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Headless is a Host with no display.
// The viewport, input and frame pacing are driven by the
// caller. It is safe for concurrent use.
type Headless struct {
	mu      sync.Mutex
	width   int
	height  int
	elems   map[string]*element
	resize  ResizeHandler
	pointer PointerHandler
	loop    FrameFunc
	frames  int
}

// NewHeadless creates a headless host with the given
// viewport size and one element per selector.
func NewHeadless(width, height int, selectors ...string) *Headless {
	h := &Headless{width: width, height: height, elems: make(map[string]*element)}
	for _, s := range selectors {
		h.elems[s] = &element{host: h}
	}
	return h
}

// Ready implements Host. A headless host is always ready.
func (h *Headless) Ready(ctx context.Context) error { return ctx.Err() }

// Query implements Host.
func (h *Headless) Query(selector string) Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.elems[selector]; ok {
		return e
	}
	return nil
}

// Viewport implements Host.
func (h *Headless) Viewport() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// SetResizeHandler implements Host.
func (h *Headless) SetResizeHandler(rh ResizeHandler) {
	h.mu.Lock()
	h.resize = rh
	h.mu.Unlock()
}

// SetPointerHandler implements Host.
func (h *Headless) SetPointerHandler(ph PointerHandler) {
	h.mu.Lock()
	h.pointer = ph
	h.mu.Unlock()
}

// SetAnimationLoop implements Host.
func (h *Headless) SetAnimationLoop(f FrameFunc) {
	h.mu.Lock()
	h.loop = f
	h.mu.Unlock()
}

// Resize changes the viewport size and notifies the
// resize handler.
func (h *Headless) Resize(width, height int) {
	h.mu.Lock()
	h.width, h.height = width, height
	rh := h.resize
	h.mu.Unlock()
	if rh != nil {
		rh.ViewportResize(width, height)
	}
}

// Step runs one frame. It returns false if no animation
// loop is set.
func (h *Headless) Step(dt time.Duration) bool {
	h.mu.Lock()
	f := h.loop
	if f != nil {
		h.frames++
	}
	h.mu.Unlock()
	if f == nil {
		return false
	}
	f(dt)
	return true
}

// Frames returns the number of frames run so far.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// ErrNoLoop is returned by Run when the animation loop is
// removed while running.
var ErrNoLoop = errors.New("host: no animation loop")

// Run steps at hz frames per second until ctx is done or,
// if frames is positive, until that many frames have run.
func (h *Headless) Run(ctx context.Context, hz float64, frames int) error {
	if !(hz > 0) {
		return fmt.Errorf("host: invalid frame rate %v", hz)
	}
	period := time.Duration(float64(time.Second) / hz)
	if period <= 0 {
		return fmt.Errorf("host: frame rate %v too high", hz)
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	last := time.Now()
	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tick.C:
			if !h.Step(now.Sub(last)) {
				return ErrNoLoop
			}
			last = now
		}
	}
	return nil
}

func (h *Headless) pointerHandler() PointerHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pointer
}

// Move injects a pointer motion event.
func (h *Headless) Move(x, y int) {
	if ph := h.pointerHandler(); ph != nil {
		ph.PointerMotion(x, y)
	}
}

// Press injects a button press event.
func (h *Headless) Press(btn Button, x, y int) {
	if ph := h.pointerHandler(); ph != nil {
		ph.PointerButton(btn, true, x, y)
	}
}

// Release injects a button release event.
func (h *Headless) Release(btn Button, x, y int) {
	if ph := h.pointerHandler(); ph != nil {
		ph.PointerButton(btn, false, x, y)
	}
}

// Wheel injects a wheel event.
func (h *Headless) Wheel(dx, dy float64) {
	if ph := h.pointerHandler(); ph != nil {
		ph.PointerWheel(dx, dy)
	}
}

// Drag injects a press at (x0, y0), steps of motion to
// (x1, y1) and a release.
func (h *Headless) Drag(btn Button, x0, y0, x1, y1, steps int) {
	h.Press(btn, x0, y0)
	for i := 1; i <= steps; i++ {
		h.Move(x0+(x1-x0)*i/steps, y0+(y1-y0)*i/steps)
	}
	h.Release(btn, x1, y1)
}

type element struct {
	host *Headless
	mu   sync.Mutex
	s    Surface
}

func (e *element) Attach(s Surface) {
	e.mu.Lock()
	e.s = s
	e.mu.Unlock()
}

func (e *element) Surface() Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s
}

// Size of headless elements always matches the viewport.
func (e *element) Size() (int, int) { return e.host.Viewport() }
