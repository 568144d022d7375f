// # internal/watcher/watcher_test.go
package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, root string, opts Options) chan []string {
	t.Helper()

	batches := make(chan []string, 4)
	w, err := New(opts, nil, func(paths []string) {
		batches <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })

	if err := w.Watch(root); err != nil {
		t.Fatal(err)
	}
	return batches
}

func waitFor(t *testing.T, batches chan []string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-batches:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestWatch_SourceFileChange(t *testing.T) {
	root := t.TempDir()
	batches := newTestWatcher(t, root, Options{
		Debounce:   50 * time.Millisecond,
		Extensions: []string{".py", ".go"},
	})

	target := filepath.Join(root, "module_a.py")
	if err := os.WriteFile(target, []byte("import os\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, batches, target)
}

func TestWatch_IrrelevantExtensionIgnored(t *testing.T) {
	root := t.TempDir()
	batches := newTestWatcher(t, root, Options{
		Debounce:   50 * time.Millisecond,
		Extensions: []string{".py"},
	})

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-batches:
		t.Errorf("non-source file triggered a batch: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_IgnoredFilePattern(t *testing.T) {
	root := t.TempDir()
	batches := newTestWatcher(t, root, Options{
		Debounce:    50 * time.Millisecond,
		IgnoreFiles: []string{"generated_*"},
		Extensions:  []string{".py"},
	})

	if err := os.WriteFile(filepath.Join(root, "generated_pb.py"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-batches:
		t.Errorf("ignored file triggered a batch: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_NewDirectoryIsFollowed(t *testing.T) {
	root := t.TempDir()
	batches := newTestWatcher(t, root, Options{
		Debounce:   50 * time.Millisecond,
		Extensions: []string{".py"},
	})

	subdir := filepath.Join(root, "pkg")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "worker.py")
	if err := os.WriteFile(nested, []byte("import os\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, batches, nested)
}

func TestWatch_BatchesBurst(t *testing.T) {
	root := t.TempDir()
	batches := newTestWatcher(t, root, Options{
		Debounce:   150 * time.Millisecond,
		Extensions: []string{".py"},
	})

	first := filepath.Join(root, "a.py")
	second := filepath.Join(root, "b.py")
	if err := os.WriteFile(first, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-batches:
		seen := make(map[string]bool, len(paths))
		for _, p := range paths {
			seen[p] = true
		}
		if !seen[first] || !seen[second] {
			t.Errorf("burst should arrive as one batch, got %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}
