// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package host

import (
	"context"
	"fmt"
	"image"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type E struct {
	events []string
}

func (e *E) ViewportResize(newWidth, newHeight int) {
	e.events = append(e.events, fmt.Sprintf("resize %d %d", newWidth, newHeight))
}

func (e *E) PointerMotion(newX, newY int) {
	e.events = append(e.events, fmt.Sprintf("motion %d %d", newX, newY))
}

func (e *E) PointerButton(btn Button, pressed bool, x, y int) {
	e.events = append(e.events, fmt.Sprintf("button %d %t %d %d", btn, pressed, x, y))
}

func (e *E) PointerWheel(dx, dy float64) {
	e.events = append(e.events, fmt.Sprintf("wheel %g %g", dx, dy))
}

type surf struct{}

func (surf) Size() (int, int)    { return 1, 1 }
func (surf) Image() image.Image { return image.NewRGBA(image.Rect(0, 0, 1, 1)) }

func TestHeadless(t *testing.T) {
	h := NewHeadless(800, 600, ".container-scene")
	require.NoError(t, h.Ready(context.Background()))

	assert.Nil(t, h.Query("#missing"))
	el := h.Query(".container-scene")
	require.NotNil(t, el)
	assert.Nil(t, el.Surface())
	el.Attach(surf{})
	assert.Equal(t, surf{}, el.Surface())

	w, ht := h.Viewport()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, ht)

	var e E
	h.Resize(10, 10) // No handler yet.
	h.SetResizeHandler(&e)
	h.SetPointerHandler(&e)
	h.Resize(1920, 1080)
	w, ht = el.Size()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, ht)

	h.Drag(BtnLeft, 0, 0, 10, 20, 2)
	h.Wheel(0, -100)
	assert.Equal(t, []string{
		"resize 1920 1080",
		"button 1 true 0 0",
		"motion 5 10",
		"motion 10 20",
		"button 1 false 10 20",
		"wheel 0 -100",
	}, e.events)

	h.SetPointerHandler(nil)
	h.Move(1, 1)
	assert.Len(t, e.events, 6)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Ready(ctx), context.Canceled)
}

func TestHeadlessLoop(t *testing.T) {
	h := NewHeadless(1, 1)
	assert.False(t, h.Step(time.Millisecond))
	assert.ErrorIs(t, h.Run(context.Background(), 1000, 3), ErrNoLoop)

	var total time.Duration
	n := 0
	h.SetAnimationLoop(func(dt time.Duration) {
		total += dt
		n++
	})
	require.True(t, h.Step(16*time.Millisecond))
	assert.Equal(t, 16*time.Millisecond, total)

	require.NoError(t, h.Run(context.Background(), 1000, 5))
	assert.Equal(t, 6, n)
	assert.Equal(t, 6, h.Frames())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, h.Run(ctx, 500, 0), context.DeadlineExceeded)
	assert.Greater(t, n, 6)

	assert.Error(t, h.Run(context.Background(), 0, 1))
	assert.Error(t, h.Run(context.Background(), math.NaN(), 1))
	assert.Error(t, h.Run(context.Background(), 1e10, 1))
	assert.Error(t, h.Run(context.Background(), math.Inf(1), 1))

	h.SetAnimationLoop(nil)
	assert.False(t, h.Step(time.Millisecond))
}
