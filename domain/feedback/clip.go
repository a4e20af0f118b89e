package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// ClipOptions parameterizes prerecorded clip playback.
type ClipOptions struct {
	Player     string
	PlayerArgs []string
	Paths      map[string]map[string]string // language -> label -> file
	RepeatGap  time.Duration
	Language   string
}

type clipItem struct {
	path  string
	delay time.Duration
}

// ClipBackend plays one audio file per label through an external player.
// Playback is serialized on a single worker goroutine.
type ClipBackend struct {
	opts      ClipOptions
	runner    CommandRunner
	logger    *slog.Logger
	observer  ResultObserver
	available bool
	reason    string

	mu    sync.RWMutex
	lang  string
	muted atomic.Bool

	w *worker[clipItem]
}

// NewClipBackend probes for the player binary. An unavailable backend stays
// unavailable for its whole lifetime.
func NewClipBackend(opts ClipOptions, runner CommandRunner, logger *slog.Logger) *ClipBackend {
	if runner == nil {
		runner = ExecRunner{}
	}
	if opts.Player == "" {
		opts.Player = "mpg123"
	}
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	c := &ClipBackend{opts: opts, runner: runner, logger: logger, lang: lang, w: newWorker[clipItem]("clip", logger)}
	if path, err := runner.LookPath(opts.Player); err != nil {
		c.reason = "player not found: " + err.Error()
	} else {
		c.available = true
		c.reason = "player at " + path
	}
	if logger != nil {
		if c.available {
			logger.Info("clip backend ready", "reason", c.reason)
		} else {
			logger.Warn("clip backend unavailable", "reason", c.reason)
		}
	}
	return c
}

// SetObserver installs a render observer. Call before Start.
func (c *ClipBackend) SetObserver(o ResultObserver) {
	if c != nil {
		c.observer = o
	}
}

// Start launches the consumer goroutine when the backend is available.
func (c *ClipBackend) Start() {
	if c == nil || !c.available {
		return
	}
	c.w.start(c.render)
}

// Stop signals the worker to exit, cutting off the current clip.
func (c *ClipBackend) Stop() {
	if c != nil {
		c.w.stop()
	}
}

// Wait blocks until the worker exited or timeout elapsed.
func (c *ClipBackend) Wait(timeout time.Duration) bool {
	if c == nil {
		return true
	}
	return c.w.wait(timeout)
}

func (c *ClipBackend) Available() bool { return c != nil && c.available }

func (c *ClipBackend) Reason() string {
	if c == nil {
		return "no clip backend"
	}
	return c.reason
}

func (c *ClipBackend) Pending() int {
	if c == nil {
		return 0
	}
	return c.w.q.Len()
}

// SetLanguage selects which language's clip set is used.
func (c *ClipBackend) SetLanguage(lang string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lang = lang
	c.mu.Unlock()
}

func (c *ClipBackend) Mute(flag bool) {
	if c != nil {
		c.muted.Store(flag)
	}
}

// Resolve returns the absolute clip path for label in the current language,
// or "" when none is configured.
func (c *ClipBackend) Resolve(label string) string {
	c.mu.RLock()
	lang := c.lang
	c.mu.RUnlock()
	p := c.opts.Paths[lang][label]
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// Enqueue queues the label's clip repeat times (at least once). Repeats after
// the first wait RepeatGap before playing.
func (c *ClipBackend) Enqueue(label string, repeat int) error {
	if c == nil || !c.available {
		return ErrBackendUnavailable
	}
	if c.muted.Load() {
		return ErrMuted
	}
	p := c.Resolve(label)
	if p == "" {
		return fmt.Errorf("%w: no clip configured for %q", ErrClipMissing, label)
	}
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("%w: %s", ErrClipMissing, p)
	}
	for i := 0; i < max(1, repeat); i++ {
		it := clipItem{path: p}
		if i > 0 {
			it.delay = c.opts.RepeatGap
		}
		c.w.q.Push(it)
	}
	return nil
}

// PlayLabel is Enqueue reduced to success or failure.
func (c *ClipBackend) PlayLabel(label string, repeat int) bool {
	return c.Enqueue(label, repeat) == nil
}

func (c *ClipBackend) render(ctx context.Context, it clipItem) {
	if !sleepCtx(ctx, it.delay) {
		return
	}
	args := append(append([]string(nil), c.opts.PlayerArgs...), it.path)
	res := classify(c.runner.Run(ctx, c.opts.Player, args...))
	if c.logger != nil {
		c.logger.Debug("clip played", "path", it.path, "result", res.String())
	}
	if c.observer != nil {
		c.observer.ObserveRender(BackendClip, res)
	}
}
