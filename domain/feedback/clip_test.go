package feedback

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeClip(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func newTestClips(t *testing.T, r *fakeRunner) (*ClipBackend, string) {
	t.Helper()
	dir := t.TempDir()
	red := writeClip(t, dir, "red.mp3")
	pula := writeClip(t, dir, "pula.mp3")
	c := NewClipBackend(ClipOptions{
		Player:     "mpg123",
		PlayerArgs: []string{"-q"},
		Paths: map[string]map[string]string{
			"en": {"red": red, "stop": filepath.Join(dir, "absent.mp3")},
			"tl": {"red": pula},
		},
		RepeatGap: 20 * time.Millisecond,
		Language:  "en",
	}, r, discardLogger)
	return c, dir
}

func TestClip_PlaysRepeatsWithPlayerArgs(t *testing.T) {
	r := &fakeRunner{}
	c, dir := newTestClips(t, r)
	if err := c.Enqueue("red", 2); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	start := time.Now()
	c.Start()
	defer c.Stop()
	calls := waitForCalls(t, r, 2, time.Second)
	want := []string{"mpg123", "-q", filepath.Join(dir, "red.mp3")}
	for i, call := range calls {
		if !equalArgs(call, want) {
			t.Fatalf("call %d = %v, want %v", i, call, want)
		}
	}
	if el := time.Since(start); el < 20*time.Millisecond {
		t.Fatalf("repeat gap not honored, both clips played within %v", el)
	}
}

func TestClip_LanguageSelectsClipSet(t *testing.T) {
	c, dir := newTestClips(t, &fakeRunner{})
	c.SetLanguage("tl")
	if got := c.Resolve("red"); got != filepath.Join(dir, "pula.mp3") {
		t.Fatalf("resolve = %q", got)
	}
	if got := c.Resolve("yield"); got != "" {
		t.Fatalf("unconfigured label resolved to %q", got)
	}
}

func TestClip_Rejections(t *testing.T) {
	c, _ := newTestClips(t, &fakeRunner{})
	if err := c.Enqueue("yield", 1); !errors.Is(err, ErrClipMissing) {
		t.Fatalf("unconfigured label: %v", err)
	}
	if err := c.Enqueue("stop", 1); !errors.Is(err, ErrClipMissing) {
		t.Fatalf("absent file: %v", err)
	}
	if c.PlayLabel("stop", 2) {
		t.Fatalf("PlayLabel should report false for missing clip")
	}
	c.Mute(true)
	if err := c.Enqueue("red", 1); !errors.Is(err, ErrMuted) {
		t.Fatalf("muted: %v", err)
	}
	if c.Pending() != 0 {
		t.Fatalf("rejected clips were queued: %d", c.Pending())
	}
}

func TestClip_UnavailablePlayer(t *testing.T) {
	c, _ := newTestClips(t, &fakeRunner{missing: true})
	if c.Available() {
		t.Fatalf("expected unavailable")
	}
	if err := c.Enqueue("red", 1); !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("enqueue on unavailable backend: %v", err)
	}
	c.Start()
	c.Stop()
	if !c.Wait(100 * time.Millisecond) {
		t.Fatalf("stop on never-started backend should not hang")
	}
}

func TestClip_StopDuringGap(t *testing.T) {
	r := &fakeRunner{}
	c, _ := newTestClips(t, r)
	c.opts.RepeatGap = 10 * time.Second
	if err := c.Enqueue("red", 2); err != nil {
		t.Fatal(err)
	}
	c.Start()
	waitForCalls(t, r, 1, time.Second)
	c.Stop()
	if !c.Wait(time.Second) {
		t.Fatalf("worker stuck in repeat gap")
	}
	if n := len(r.snapshot()); n != 1 {
		t.Fatalf("second repeat played after stop: %d calls", n)
	}
}
