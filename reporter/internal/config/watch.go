package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long a file must stay quiet after its last event
// before onWrite runs. An in-place rewrite emits one event for the truncate
// and more for the writes; only the settled content is reported.
const DebounceInterval = 100 * time.Millisecond

// WatchFile calls onWrite once path has been written or re-created and then
// left alone for DebounceInterval. It watches the parent directory, so path
// may be replaced atomically or not exist yet. It runs until ctx is
// cancelled; a pending call is dropped.
func WatchFile(ctx context.Context, path string, onWrite func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	timer := time.NewTimer(DebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var settled <-chan time.Time // nil while no event is pending

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-settled:
			settled = nil
			onWrite()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			// Editors often write via rename (atomic save), so also catch Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if settled != nil && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(DebounceInterval)
			settled = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// Watch monitors path and calls onChange with the newly loaded Config each
// time the file is written. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous config remains active; onChange is not called.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	return WatchFile(ctx, path, func() {
		cfg, err := Load(path)
		if err != nil {
			slog.Error("config: reload failed, keeping previous config",
				"path", path, "err", err)
			return
		}
		slog.Info("config: reloaded", "path", path)
		onChange(cfg)
	})
}
