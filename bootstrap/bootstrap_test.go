// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package bootstrap

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/seascene/asset"
	"github.com/gviegas/seascene/config"
	"github.com/gviegas/seascene/debug"
	"github.com/gviegas/seascene/gltf"
	"github.com/gviegas/seascene/host"
	"github.com/gviegas/seascene/linear"
	"github.com/gviegas/seascene/scene"
	"github.com/gviegas/seascene/texture"
)

const (
	container = ".container-scene"
	envRef    = "hdr/sea.png"
	modelRef  = "models/ship/scene.gltf"
)

func envPNG(t *testing.T) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := range 4 {
		for x := range 8 {
			img.SetNRGBA(x, y, color.NRGBA{40, 80, 160, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }

func shipGLTF(t *testing.T) []byte {
	pos := []float32{-4, 0, -10, 4, 0, -10, 0, 6, 10}
	data := make([]byte, 4*len(pos))
	for i, f := range pos {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(f))
	}
	doc := &gltf.GLTF{
		Asset: gltf.Asset{Version: "2.0"},
		Accessors: []gltf.Accessor{{
			BufferView:    ptr[int64](0),
			ComponentType: gltf.FLOAT,
			Count:         3,
			Type:          gltf.VEC3,
			Min:           []float32{-4, 0, -10},
			Max:           []float32{4, 6, 10},
		}},
		Buffers: []gltf.Buffer{{
			URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(data),
			ByteLength: int64(len(data)),
		}},
		BufferViews: []gltf.BufferView{{Buffer: 0, ByteLength: int64(len(data))}},
		Meshes: []gltf.Mesh{{Primitives: []gltf.Primitive{{
			Attributes: map[string]int64{gltf.POSITION: 0},
		}}}},
		Nodes:  []gltf.Node{{Name: "hull", Mesh: ptr[int64](0)}},
		Scenes: []gltf.Scene{{Nodes: []int64{0}}},
	}
	var buf bytes.Buffer
	require.NoError(t, gltf.Encode(&buf, doc))
	return buf.Bytes()
}

func testConfig() *config.Config {
	cfg := config.Frigate()
	cfg.Environment.URL = envRef
	cfg.Model.URL = modelRef
	return cfg
}

func assets(t *testing.T) *asset.Source {
	return asset.NewFSSource(fstest.MapFS{
		envRef:   {Data: envPNG(t)},
		modelRef: {Data: shipGLTF(t)},
	})
}

func waitLoads(t *testing.T, app *App) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = app.Environment().Wait(ctx)
	_, _ = app.Model().Wait(ctx)
	require.NoError(t, ctx.Err())
}

func TestStart(t *testing.T) {
	h := host.NewHeadless(1920, 1080, container)
	app, err := Start(context.Background(), h, testConfig(), WithSource(assets(t)))
	require.NoError(t, err)
	defer app.Stop()
	waitLoads(t, app)

	assert.InDelta(t, 1.778, app.Camera().Aspect, 1e-3)
	w, ht := app.Renderer().Size()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, ht)
	assert.Same(t, app.Renderer(), h.Query(container).Surface())

	s := app.Scene()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.Count(scene.KindAmbientLight))
	assert.Equal(t, 1, s.Count(scene.KindWater))
	require.NotNil(t, s.Background())
	assert.Same(t, s.Background(), s.Environment())
	assert.Equal(t, texture.EquirectangularReflectionMapping, s.Background().Mapping)

	root, err := app.Model().Result()
	require.NoError(t, err)
	var rot linear.Q
	rot.Rotate(-0.65, &linear.V3{1, 0, 0})
	assert.InDelta(t, rot.R, root.Rotation.R, 1e-5)
	assert.InDelta(t, rot.V[0], root.Rotation.V[0], 1e-5)
	assert.Len(t, root.Children(), 1)

	// The camera starts at the configured position, aimed
	// at the origin.
	cam := app.Camera()
	assert.InDeltaSlice(t, []float32{0, 70, 50}, cam.Position[:], 1e-3)

	require.True(t, h.Step(time.Second/60))
	require.True(t, h.Step(time.Second/60))
	assert.Equal(t, 2, app.Frames())
	assert.Equal(t, 2, app.Renderer().Frames())
	o0, _ := app.Water().FlowOffsets()
	assert.Greater(t, o0, float32(0))
}

func TestResize(t *testing.T) {
	h := host.NewHeadless(1920, 1080, container)
	app, err := Start(context.Background(), h, testConfig(), WithSource(assets(t)))
	require.NoError(t, err)
	defer app.Stop()

	for _, sz := range [][2]int{{800, 600}, {300, 900}, {1, 1}} {
		h.Resize(sz[0], sz[1])
		assert.InDelta(t, float32(sz[0])/float32(sz[1]), app.Camera().Aspect, 1e-6)
		w, ht := app.Renderer().Size()
		assert.Equal(t, sz[0], w)
		assert.Equal(t, sz[1], ht)
		require.True(t, h.Step(time.Second/60))
		assert.Equal(t, image.Rect(0, 0, sz[0], sz[1]), app.Renderer().Image().Bounds())
	}

	app.Resize(0, 100)
	app.Resize(100, -1)
	assert.InDelta(t, 1, app.Camera().Aspect, 1e-6)
	w, ht := app.Renderer().Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, ht)
}

func TestNoContainer(t *testing.T) {
	h := host.NewHeadless(640, 480, "#other")
	_, err := Start(context.Background(), h, testConfig(), WithSource(assets(t)))
	assert.ErrorIs(t, err, ErrNoContainer)
	assert.False(t, h.Step(time.Second/60))

	cfg := testConfig()
	cfg.Camera.Near = 2000
	_, err = Start(context.Background(), host.NewHeadless(640, 480, container), cfg)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Start(ctx, host.NewHeadless(640, 480, container), testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFailure(t *testing.T) {
	h := host.NewHeadless(320, 240, container)
	src := asset.NewFSSource(fstest.MapFS{
		modelRef: {Data: []byte("{not json")},
	})
	app, err := Start(context.Background(), h, testConfig(), WithSource(src))
	require.NoError(t, err)
	defer app.Stop()
	waitLoads(t, app)

	_, err = app.Environment().Result()
	assert.ErrorIs(t, err, asset.ErrNotFound)
	_, err = app.Model().Result()
	assert.Error(t, err)

	for range 3 {
		require.True(t, h.Step(time.Second/60))
	}
	assert.Equal(t, 3, app.Frames())
	s := app.Scene()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.Count(scene.KindAmbientLight))
	assert.Equal(t, 1, s.Count(scene.KindWater))
	assert.Equal(t, 0, s.Count(scene.KindMesh))
	assert.Nil(t, s.Background())
	assert.Nil(t, s.Environment())
}

func TestDelayedLoad(t *testing.T) {
	release := make(chan struct{})
	env, ship := envPNG(t), shipGLTF(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		switch r.URL.Path {
		case "/" + envRef:
			w.Write(env)
		case "/" + modelRef:
			w.Write(ship)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	src, err := asset.NewSource(srv.URL)
	require.NoError(t, err)

	h := host.NewHeadless(320, 240, container)
	app, err := Start(context.Background(), h, testConfig(), WithSource(src))
	require.NoError(t, err)
	defer app.Stop()

	// Frames run while both loads are pending.
	for range 3 {
		require.True(t, h.Step(time.Second/60))
	}
	_, err = app.Environment().Result()
	assert.ErrorIs(t, err, ErrPending)
	_, err = app.Model().Result()
	assert.ErrorIs(t, err, ErrPending)
	s := app.Scene()
	assert.Equal(t, 2, s.Len())
	assert.Nil(t, s.Background())

	close(release)
	waitLoads(t, app)
	require.True(t, h.Step(time.Second/60))
	assert.Equal(t, 3, s.Len())
	assert.NotNil(t, s.Environment())
	assert.Equal(t, 4, app.Frames())
}

func TestStop(t *testing.T) {
	h := host.NewHeadless(320, 240, container)
	ctx, cancel := context.WithCancel(context.Background())
	app, err := Start(ctx, h, testConfig(), WithSource(assets(t)))
	require.NoError(t, err)

	require.True(t, h.Step(time.Second/60))
	cancel()
	select {
	case <-app.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	require.NoError(t, app.Wait(context.Background()))
	assert.False(t, h.Step(time.Second/60))
	assert.Equal(t, 1, app.Frames())

	// Stopped apps ignore the host.
	h.Resize(100, 100)
	w, _ := app.Renderer().Size()
	assert.Equal(t, 320, w)
	app.Stop()

	short, done := context.WithTimeout(context.Background(), time.Millisecond)
	defer done()
	app2, err := Start(context.Background(), host.NewHeadless(32, 32, container), testConfig(), WithSource(assets(t)))
	require.NoError(t, err)
	defer app2.Stop()
	assert.ErrorIs(t, app2.Wait(short), context.DeadlineExceeded)
}

func TestRun(t *testing.T) {
	h := host.NewHeadless(64, 48, container)
	app, err := Start(context.Background(), h, testConfig(), WithSource(assets(t)))
	require.NoError(t, err)
	defer app.Stop()
	require.NoError(t, h.Run(context.Background(), 1000, 5))
	assert.Equal(t, 5, app.Frames())
}

func TestOrbitThroughHost(t *testing.T) {
	h := host.NewHeadless(400, 300, container)
	cfg := testConfig()
	harbor := config.Harbor()
	cfg.Orbit = harbor.Orbit
	app, err := Start(context.Background(), h, cfg, WithSource(assets(t)))
	require.NoError(t, err)
	defer app.Stop()

	c := app.Controls()
	assert.Equal(t, float32(300), c.MaxDistance)
	for i := range 50 {
		h.Drag(host.BtnLeft, 200, 150, 200+(i%7-3)*40, 150+(i%5-2)*60, 3)
		if i%2 == 0 {
			h.Wheel(0, 120)
		} else {
			h.Wheel(0, -30)
		}
		require.True(t, h.Step(time.Second/60))
		s := c.Spherical()
		require.GreaterOrEqual(t, s.Radius, c.MinDistance-1e-3)
		require.LessOrEqual(t, s.Radius, c.MaxDistance+1e-3)
		require.LessOrEqual(t, s.Phi, c.MaxPolarAngle+1e-5)
		require.GreaterOrEqual(t, s.Phi, c.MinPolarAngle-1e-5)
	}
}

func TestDebugPanel(t *testing.T) {
	h := host.NewHeadless(64, 48, container)
	cfg := testConfig()
	cfg.Debug.Enabled = true
	app, err := Start(context.Background(), h, cfg, WithSource(assets(t)))
	require.NoError(t, err)
	defer app.Stop()

	p := app.Panel()
	require.NotNil(t, p)
	require.NoError(t, p.Set(debug.Exposure, 0.5))
	require.NoError(t, p.Set(debug.WaterOpacity, 0.3))
	require.True(t, h.Step(time.Second/60))
	assert.Equal(t, float32(0.5), app.Renderer().ToneMappingExposure)
	assert.Equal(t, float32(0.3), app.Water().Options().Opacity)
	assert.Equal(t, 0, p.Pending())

	app2, err := Start(context.Background(), host.NewHeadless(8, 8, container), testConfig(), WithSource(assets(t)))
	require.NoError(t, err)
	defer app2.Stop()
	assert.Nil(t, app2.Panel())
}

func TestLoadResult(t *testing.T) {
	gate := make(chan struct{})
	var applied int
	l := load(context.Background(), "x", func(context.Context) (int, error) {
		<-gate
		return 7, nil
	}, func(v int) { applied = v })
	assert.Equal(t, "x", l.Name())
	_, err := l.Result()
	assert.ErrorIs(t, err, ErrPending)

	short, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err = l.Wait(short)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	v, err := l.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 7, applied)

	boom := errors.New("boom")
	l2 := load(context.Background(), "y", func(context.Context) (int, error) {
		return 0, boom
	}, func(int) { t.Error("applied after failure") })
	_, err = l2.Wait(context.Background())
	assert.ErrorIs(t, err, boom)

	l3 := load(context.Background(), "z", func(context.Context) (int, error) {
		var b []byte
		return int(b[3]), nil
	}, func(int) { t.Error("applied after panic") })
	_, err = l3.Wait(context.Background())
	assert.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "index out of range")
}
