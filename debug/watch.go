// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package debug

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gviegas/seascene"
	"github.com/gviegas/seascene/config"
)

// Watch reloads the configuration file at path whenever it
// changes and queues every tunable whose value differs
// from the current one. Files that fail to decode are
// logged and ignored.
// It blocks until ctx is done.
func (p *Panel) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("debug: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file rather than write to
	// it, so the directory is watched instead.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("debug: watch %s: %w", path, err)
	}
	seascene.Logger().Info("debug: watching", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				p.reload(path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			seascene.Logger().Warn("debug: watcher", "err", err)
		}
	}
}

func (p *Panel) reload(path string) {
	c, err := config.Load(path, p.base)
	if err != nil {
		seascene.Logger().Warn("debug: reload failed", "path", path, "err", err)
		return
	}
	vals := p.Values()
	n := 0
	for _, t := range tunables(c) {
		if v, ok := vals[t.path]; ok && v == t.value {
			continue
		}
		if err := p.Set(t.path, t.value); err != nil {
			seascene.Logger().Warn("debug: reload", "err", err)
			continue
		}
		n++
	}
	seascene.Logger().Info("debug: reloaded", "path", path, "changes", n)
}
