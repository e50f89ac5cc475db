// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package host defines the environment a scene runs in.
//
// A host provides a viewport, named elements to which a
// drawing surface can be attached, input events and a
// per-frame callback. Two implementations exist: Headless,
// in this package, and the desktop window in ebitenhost.
package host

import (
	"context"
	"image"
	"time"
)

// Surface is the interface of anything that produces
// frames to be displayed by a host.
type Surface interface {
	// Size returns the surface's size in pixels.
	Size() (width, height int)

	// Image returns the last frame.
	Image() image.Image
}

// Element is a host node into which a surface is drawn.
type Element interface {
	// Attach makes s the element's content.
	// It replaces any surface attached before.
	Attach(s Surface)

	// Surface returns the attached surface, if any.
	Surface() Surface

	// Size returns the element's client size.
	Size() (width, height int)
}

// FrameFunc is called once per displayed frame with the
// time elapsed since the previous call.
type FrameFunc func(dt time.Duration)

// Host is the interface that an environment must
// implement to run a scene.
type Host interface {
	// Ready blocks until the host can be queried.
	Ready(ctx context.Context) error

	// Query returns the element matching selector,
	// or nil if there is none.
	Query(selector string) Element

	// Viewport returns the current viewport size.
	Viewport() (width, height int)

	// SetResizeHandler sets the handler for viewport
	// changes. nil removes it.
	SetResizeHandler(rh ResizeHandler)

	// SetPointerHandler sets the handler for pointer
	// events. nil removes it.
	SetPointerHandler(ph PointerHandler)

	// SetAnimationLoop sets the per-frame callback.
	// nil stops the loop.
	SetAnimationLoop(f FrameFunc)
}

// ResizeHandler is the interface that defines the method
// for handling viewport changes.
type ResizeHandler interface {
	// ViewportResize is called when the viewport changes
	// size.
	ViewportResize(newWidth, newHeight int)
}

// PointerHandler is the interface that defines the methods
// for handling pointer events.
type PointerHandler interface {
	// PointerMotion is called when the pointer changes position.
	PointerMotion(newX, newY int)

	// PointerButton is called when a button is pressed/released.
	PointerButton(btn Button, pressed bool, x, y int)

	// PointerWheel is called when the wheel scrolls.
	// Positive dy scrolls down (away from the user).
	PointerWheel(dx, dy float64)
}

// Button is the type of pointer buttons.
type Button int

// Pointer buttons.
const (
	BtnUnknown Button = iota
	BtnLeft
	BtnRight
	BtnMiddle
)
