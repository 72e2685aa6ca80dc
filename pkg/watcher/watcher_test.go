package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.stl")
	if err := os.WriteFile(path, []byte("solid t\nendsolid t\n"), 0644); err != nil {
		t.Fatal(err)
	}

	fw, err := NewFileWatcher(50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	defer fw.Close()

	changed := make(chan string, 1)
	if err := fw.Watch([]string{path}, func(p string) {
		select {
		case changed <- p:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	fw.Start()

	if err := os.WriteFile(path, []byte("solid t2\nendsolid t2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		if p != abs {
			t.Errorf("callback path: got %q, want %q", p, abs)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no callback within timeout")
	}
}

// Several writes inside one debounce window collapse into a single
// callback.
func TestWatchDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.stl")
	if err := os.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	fw, err := NewFileWatcher(200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	defer fw.Close()

	calls := make(chan struct{}, 16)
	if err := fw.Watch([]string{path}, func(string) {
		calls <- struct{}{}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	fw.Start()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Wait past the debounce window, then a little longer to catch any
	// stray extra callbacks.
	time.Sleep(600 * time.Millisecond)

	if got := len(calls); got != 1 {
		t.Errorf("callback count: got %d, want 1", got)
	}
}

func TestRemoveAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.stl")
	if err := os.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	fw, err := NewFileWatcher(50*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	defer fw.Close()

	if err := fw.Watch([]string{path}, func(string) {}); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := fw.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if len(fw.callbacks) != 0 {
		t.Errorf("callbacks not cleared: %d remain", len(fw.callbacks))
	}
}
