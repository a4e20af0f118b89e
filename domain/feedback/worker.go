package feedback

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/queue"
)

// DefaultPollInterval bounds how long a backend worker waits on its queue
// before re-checking the stop flag.
const DefaultPollInterval = 100 * time.Millisecond

// worker is the single consumer of a backend queue. Items are rendered one at
// a time in FIFO order so a backend never overlaps its own output.
type worker[T any] struct {
	name   string
	logger *slog.Logger
	q      *queue.Queue[T]
	poll   time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
	stopped atomic.Bool
	done    chan struct{}
}

func newWorker[T any](name string, logger *slog.Logger) *worker[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &worker[T]{
		name:   name,
		logger: logger,
		q:      queue.New[T](),
		poll:   DefaultPollInterval,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (w *worker[T]) start(render func(context.Context, T)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped.Load() {
		return
	}
	w.started = true
	go func() {
		defer close(w.done)
		for !w.stopped.Load() {
			item, ok := w.q.Pop(w.poll)
			if !ok || w.stopped.Load() {
				continue
			}
			w.renderOne(render, item)
		}
	}()
}

// renderOne renders a single item; a panic drops that item only.
func (w *worker[T]) renderOne(render func(context.Context, T), item T) {
	defer recoverLog(w.logger, w.name+" render panic")
	render(w.ctx, item)
}

// stop asks the worker to exit. The in-flight render is cancelled and
// queued items are abandoned.
func (w *worker[T]) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped.Swap(true) {
		return
	}
	w.cancel()
	if !w.started {
		close(w.done)
	}
}

// wait blocks until the worker exited or timeout elapsed.
func (w *worker[T]) wait(timeout time.Duration) bool {
	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// sleepCtx pauses for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r, "stack", string(debug.Stack()))
		}
	}
}
