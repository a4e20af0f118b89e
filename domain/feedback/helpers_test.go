package feedback

import (
	"context"
	"log/slog"
	"os/exec"
	"sync"
	"testing"
	"time"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeRunner records every command instead of starting a process.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	missing bool
	err     error
	delay   time.Duration
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	return f.err
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// waitForCalls waits up to timeout for the runner to record n commands.
func waitForCalls(t *testing.T, r *fakeRunner, n int, timeout time.Duration) [][]string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c := r.snapshot(); len(c) >= n {
			return c
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %d calls (got %d)", n, len(r.snapshot()))
	return nil
}

type observedResult struct {
	backend Backend
	result  RenderResult
}

type recordingObserver struct {
	mu  sync.Mutex
	got []observedResult
}

func (o *recordingObserver) ObserveRender(b Backend, r RenderResult) {
	o.mu.Lock()
	o.got = append(o.got, observedResult{b, r})
	o.mu.Unlock()
}

func (o *recordingObserver) results() []observedResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observedResult(nil), o.got...)
}

func equalArgs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
