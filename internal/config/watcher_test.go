package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingLoader counts the definition files in dir.
func countingLoader(dir string, loads *atomic.Int32) func() (int, error) {
	return func() (int, error) {
		loads.Add(1)
		files, err := definitionFiles(dir)
		return len(files), err
	}
}

func startWatcher(t *testing.T, w *Watcher[int]) {
	t.Helper()
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	// Let the watcher settle before touching files.
	time.Sleep(50 * time.Millisecond)
}

func TestWatcher_ReloadsOnDefinitionChange(t *testing.T) {
	dir := t.TempDir()
	var loads atomic.Int32
	received := make(chan int, 10)

	w := NewWatcher([]string{dir}, countingLoader(dir, &loads), newTestLogger(), WithDebounce[int](50*time.Millisecond))
	w.OnReload(func(n int) { received <- n })
	startWatcher(t, w)

	writeFile(t, dir, "wan.json", `{"patterns": []}`)
	select {
	case n := <-received:
		if n != 1 {
			t.Errorf("files after create = %d, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after create")
	}

	if err := os.Remove(filepath.Join(dir, "wan.json")); err != nil {
		t.Fatal(err)
	}
	select {
	case n := <-received:
		if n != 0 {
			t.Errorf("files after remove = %d, want 0", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload after remove")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var loads atomic.Int32

	w := NewWatcher([]string{dir}, countingLoader(dir, &loads), newTestLogger(), WithDebounce[int](20*time.Millisecond))
	startWatcher(t, w)

	writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, "wan.json.swp", "x")
	time.Sleep(200 * time.Millisecond)

	if got := loads.Load(); got != 0 {
		t.Errorf("loads = %d, want 0", got)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	var loads atomic.Int32
	received := make(chan int, 10)

	w := NewWatcher([]string{dir}, countingLoader(dir, &loads), newTestLogger(), WithDebounce[int](200*time.Millisecond))
	w.OnReload(func(n int) { received <- n })
	startWatcher(t, w)

	for i := range 5 {
		writeFile(t, dir, "p.json", `{"patterns": []}`+string(rune('0'+i)))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for debounced reload")
	}
	time.Sleep(300 * time.Millisecond)

	if got := loads.Load(); got != 1 {
		t.Errorf("loads = %d, want 1", got)
	}
}

func TestWatcher_MultipleDirsAndHandlers(t *testing.T) {
	patternsDir := t.TempDir()
	aliasesDir := t.TempDir()
	var loads atomic.Int32
	var mu sync.Mutex
	var calls int
	done := make(chan struct{}, 3)

	w := NewWatcher([]string{patternsDir, "", aliasesDir}, countingLoader(patternsDir, &loads), newTestLogger(), WithDebounce[int](50*time.Millisecond))
	for range 3 {
		w.OnReload(func(int) {
			mu.Lock()
			calls++
			mu.Unlock()
			done <- struct{}{}
		})
	}
	startWatcher(t, w)

	writeFile(t, aliasesDir, "board.yaml", "aliases: []\n")
	for range 3 {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for handlers")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Errorf("handler calls = %d, want 3", calls)
	}
}

func TestWatcher_Unsubscribe(t *testing.T) {
	dir := t.TempDir()
	var loads atomic.Int32
	var removedCalls atomic.Int32
	kept := make(chan int, 10)

	w := NewWatcher([]string{dir}, countingLoader(dir, &loads), newTestLogger(), WithDebounce[int](50*time.Millisecond))
	unsubscribe := w.OnReload(func(int) { removedCalls.Add(1) })
	w.OnReload(func(n int) { kept <- n })
	unsubscribe()
	startWatcher(t, w)

	writeFile(t, dir, "a.json", "{}")
	select {
	case <-kept:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
	if got := removedCalls.Load(); got != 0 {
		t.Errorf("unsubscribed handler calls = %d, want 0", got)
	}
}

func TestWatcher_ErrorHandler(t *testing.T) {
	dir := t.TempDir()
	loadErr := errors.New("bad definitions")
	errs := make(chan error, 1)
	var handled atomic.Int32

	w := NewWatcher([]string{dir},
		func() (int, error) { return 0, loadErr },
		newTestLogger(),
		WithDebounce[int](50*time.Millisecond),
		WithErrorHandler[int](func(err error) { errs <- err }),
	)
	w.OnReload(func(int) { handled.Add(1) })
	startWatcher(t, w)

	writeFile(t, dir, "a.json", "{}")
	select {
	case err := <-errs:
		if !errors.Is(err, loadErr) {
			t.Errorf("error = %v, want %v", err, loadErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
	if got := handled.Load(); got != 0 {
		t.Errorf("reload handler calls = %d, want 0", got)
	}
}

func TestWatcher_StartErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	w := NewWatcher([]string{missing, ""}, func() (int, error) { return 0, nil }, newTestLogger())
	if err := w.Start(); err == nil {
		t.Error("Start() with no existing dirs error = nil, want error")
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() after failed start error = %v", err)
	}
}

func TestWatcher_SkipsMissingDir(t *testing.T) {
	dir := t.TempDir()
	var loads atomic.Int32
	received := make(chan int, 1)

	w := NewWatcher([]string{filepath.Join(dir, "missing"), dir}, countingLoader(dir, &loads), newTestLogger(), WithDebounce[int](50*time.Millisecond))
	w.OnReload(func(n int) { received <- n })
	startWatcher(t, w)

	writeFile(t, dir, "a.yml", "patterns: []\n")
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}
