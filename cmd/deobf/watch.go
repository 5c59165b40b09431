package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/aledsdavies/deobf/pkg/cache"
	"github.com/aledsdavies/deobf/pkg/config"
)

// runWatch re-runs the pipeline over inputPath every time the file changes,
// until the watcher's channel is closed (Ctrl+C). Most editors replace a
// file on save rather than writing in place, which shows up as a Remove
// event followed by a Create of the same name — the Create triggers a
// re-run, same as a plain Write; the Remove itself is ignored.
func runWatch(inputPath, outputPath string, cfg *config.Config, c *cache.Cache) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(inputPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	slog.Info("watching for changes", "file", inputPath)
	if err := runOnce(inputPath, outputPath, cfg, c); err != nil {
		slog.Error("pipeline run failed", "error", err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(inputPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("input changed, re-running", "event", event.String())
			if err := runOnce(inputPath, outputPath, cfg, c); err != nil {
				slog.Error("pipeline run failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("watcher error", "error", err)
		}
	}
}
