package hotreload

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() returned error: %v", err)
	}
	defer w.Stop()

	if w.events == nil {
		t.Error("events channel is nil")
	}

	w.Start()
}

func TestWatcher_Add_NonexistentPath(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() returned error: %v", err)
	}
	defer w.Stop()
	w.Start()

	if err := w.Add("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Add() expected error for nonexistent path")
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "healthd.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"8000\"\n"), 0o600); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() returned error: %v", err)
	}
	defer w.Stop()

	if err := w.Add(path); err != nil {
		t.Fatalf("Add() returned error: %v", err)
	}
	w.Start()

	if err := os.WriteFile(path, []byte("server:\n  port: \"8001\"\n"), 0o600); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}

	select {
	case event := <-w.Events():
		if event.Path == "" {
			t.Error("event has empty path")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for file event")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() returned error: %v", err)
	}

	w.Start()
	w.Stop()
	w.Stop()
}
