package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// rewriteUntil rewrites path with content until fired reports a callback,
// since the watcher starts asynchronously. Attempts are spaced well beyond
// DebounceInterval so each one can settle.
func rewriteUntil(t *testing.T, path, content string, fired func(time.Duration) bool) {
	t.Helper()
	for attempt := 0; attempt < 5; attempt++ {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		if fired(time.Second) {
			return
		}
	}
	t.Fatalf("no callback after rewriting %s", path)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "reporter:\n  top_categories: 3\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 16)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, p, func(c *Config) { got <- c }) }()

	var cfg *Config
	rewriteUntil(t, p, "reporter:\n  top_categories: 7\n", func(d time.Duration) bool {
		select {
		case cfg = <-got:
			return true
		case <-time.After(d):
			return false
		}
	})
	if cfg.Reporter.TopCategories != 7 {
		t.Errorf("top_categories: got %d, want 7", cfg.Reporter.TopCategories)
	}

	// The truncate event of the rewrite must not surface as a default config.
	select {
	case extra := <-got:
		t.Errorf("extra reload: top_categories=%d", extra.Reporter.TopCategories)
	case <-time.After(3 * DebounceInterval):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchFile_DebouncesBurst(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data.csv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hits := make(chan struct{}, 32)
	go WatchFile(ctx, target, func() { hits <- struct{}{} }) //nolint:errcheck

	rewriteUntil(t, target, "a\n0\n", func(d time.Duration) bool {
		select {
		case <-hits:
			return true
		case <-time.After(d):
			return false
		}
	})

	// Several quick rewrites collapse into one call.
	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(target, []byte(fmt.Sprintf("a\n%d\n", i)), 0o600); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
		time.Sleep(DebounceInterval / 10)
	}
	select {
	case <-hits:
	case <-time.After(5 * time.Second):
		t.Fatal("onWrite not called after burst")
	}
	select {
	case <-hits:
		t.Error("onWrite called more than once for one burst")
	case <-time.After(3 * DebounceInterval):
	}
}

func TestWatch_InvalidReloadIgnored(t *testing.T) {
	p := writeConfig(t, "reporter:\n  top_categories: 3\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	go Watch(ctx, p, func(c *Config) { got <- c }) //nolint:errcheck

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(p, []byte("reporter:\n  top_categories: 0\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	select {
	case c := <-got:
		t.Errorf("onChange called with invalid config: %+v", c.Reporter)
	case <-time.After(5 * DebounceInterval):
	}
}

func TestWatchFile_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.csv")
	sibling := filepath.Join(dir, "other.csv")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hits := make(chan struct{}, 16)
	go WatchFile(ctx, target, func() { hits <- struct{}{} }) //nolint:errcheck

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(sibling, []byte("a\n1\n"), 0o600); err != nil {
		t.Fatalf("write sibling: %v", err)
	}
	select {
	case <-hits:
		t.Fatal("onWrite fired for a sibling file")
	case <-time.After(300 * time.Millisecond):
	}

	// The target may be created after the watch starts.
	if err := os.WriteFile(target, []byte("a\n1\n"), 0o600); err != nil {
		t.Fatalf("write target: %v", err)
	}
	select {
	case <-hits:
	case <-time.After(5 * time.Second):
		t.Fatal("onWrite not called for target")
	}
}
