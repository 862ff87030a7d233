package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"govkernel/internal/api"
)

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.yaml")
	if err := os.WriteFile(path, []byte("id: orders\nversion: \"1.0.0\"\n"), 0o644); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}

	var mu sync.Mutex
	var seen []api.Version
	w := NewWatcher(dir, 50*time.Millisecond, func(def *api.ModuleDefinition) {
		mu.Lock()
		seen = append(seen, def.Version)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("id: orders\nversion: \"1.0.1\"\n"), 0o644); err != nil {
			t.Fatalf("rewrite failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("expected at least one debounced reload callback")
	}
	if len(seen) > 1 {
		t.Fatalf("expected writes within the debounce window to collapse into one reload, got %d", len(seen))
	}
	if seen[0] != "1.0.1" {
		t.Fatalf("expected final content 1.0.1, got %s", seen[0])
	}
}

func TestWatcherIgnoresNonYAMLFiles(t *testing.T) {
	dir := t.TempDir()

	called := false
	w := NewWatcher(dir, 20*time.Millisecond, func(def *api.ModuleDefinition) { called = true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if called {
		t.Fatal("non-YAML file change should not trigger a reload")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, time.Millisecond, func(def *api.ModuleDefinition) {})

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got: %v", err)
	}
}
