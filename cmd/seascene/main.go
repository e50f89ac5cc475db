// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Command seascene shows the sea scene in a window, or
// renders it headless.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/asset"
	"github.com/gviegas/seascene/bootstrap"
	"github.com/gviegas/seascene/config"
	"github.com/gviegas/seascene/debug"
	"github.com/gviegas/seascene/host"
	"github.com/gviegas/seascene/host/ebitenhost"
)

type flags struct {
	config    string
	preset    string
	assets    string
	headless  bool
	width     int
	height    int
	frames    int
	hz        float64
	snapshot  string
	debug     bool
	debugAddr string
	verbose   bool
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "TOML file overriding the preset; watched for changes with -debug")
	flag.StringVar(&f.preset, "preset", "frigate", fmt.Sprintf("base configuration %v", config.Presets()))
	flag.StringVar(&f.assets, "assets", "", "asset directory or URL (default: working directory)")
	flag.BoolVar(&f.headless, "headless", false, "render without a window")
	flag.IntVar(&f.width, "width", 1280, "viewport width")
	flag.IntVar(&f.height, "height", 720, "viewport height")
	flag.IntVar(&f.frames, "frames", 0, "stop after N frames in headless mode (0 = run until interrupted)")
	flag.Float64Var(&f.hz, "hz", 60, "frame rate in headless mode")
	flag.StringVar(&f.snapshot, "snapshot", "", "write the last frame to this PNG file")
	flag.BoolVar(&f.debug, "debug", false, "enable the debug panel")
	flag.StringVar(&f.debugAddr, "debug-addr", "", "debug websocket address (overrides the configuration)")
	flag.BoolVar(&f.verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	seascene.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(&f); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "seascene:", err)
		os.Exit(1)
	}
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Preset(f.preset)
	if err != nil {
		return nil, err
	}
	if f.config != "" {
		if cfg, err = config.Load(f.config, cfg); err != nil {
			return nil, err
		}
	}
	if f.debug {
		cfg.Debug.Enabled = true
	}
	if f.debugAddr != "" {
		cfg.Debug.Addr = f.debugAddr
	}
	return cfg, nil
}

func run(f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	src, err := asset.NewSource(f.assets)
	if err != nil {
		return err
	}
	opts := []bootstrap.Option{bootstrap.WithSource(src)}
	var panel *debug.Panel
	if cfg.Debug.Enabled {
		panel = debug.NewPanel(cfg)
		opts = append(opts, bootstrap.WithPanel(panel))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if panel != nil {
		serveDebug(ctx, g, panel, cfg.Debug.Addr, f.config)
	}

	if f.headless {
		h := host.NewHeadless(f.width, f.height, cfg.Renderer.Container)
		app, err := bootstrap.Start(ctx, h, cfg, opts...)
		if err != nil {
			cancel()
			return errors.Join(err, g.Wait())
		}
		g.Go(func() error {
			defer cancel()
			defer app.Stop()
			return h.Run(ctx, f.hz, f.frames)
		})
		err = g.Wait()
		return errors.Join(err, snapshot(app, f.snapshot))
	}

	win := ebitenhost.New("seascene", f.width, f.height, cfg.Renderer.Container)
	var app *bootstrap.App
	g.Go(func() error {
		defer win.Close()
		a, err := bootstrap.Start(ctx, win, cfg, opts...)
		if err != nil {
			return err
		}
		app = a
		<-ctx.Done()
		a.Stop()
		return nil
	})
	// The window must run on the main goroutine.
	err = win.Run()
	cancel()
	err = errors.Join(err, g.Wait())
	if app != nil {
		err = errors.Join(err, snapshot(app, f.snapshot))
	}
	return err
}

// serveDebug starts the debug endpoint and, if path is set,
// the configuration watcher.
func serveDebug(ctx context.Context, g *errgroup.Group, panel *debug.Panel, addr, path string) {
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", panel.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			seascene.Logger().Info("debug: listening", "addr", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	if path != "" {
		g.Go(func() error { return panel.Watch(ctx, path) })
	}
}

func snapshot(app *bootstrap.App, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := app.Renderer().EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	seascene.Logger().Info("snapshot written", "path", path, "frames", app.Frames())
	return f.Close()
}
