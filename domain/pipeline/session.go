package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detector"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/overlay"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/source"
)

var (
	// ErrSourceOpen wraps the failure to open the frame source; the session does not start.
	ErrSourceOpen = errors.New("source open failed")
	// ErrAlreadyRunning is returned by Start while a session is active.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrStopTimeout is returned by Stop when the pipeline goroutine did not exit in time.
	ErrStopTimeout = errors.New("session stop timed out")
)

const (
	stopJoinTimeout         = 1500 * time.Millisecond
	noFrameBackoff          = 10 * time.Millisecond
	sessionStatsLogInterval = 5 * time.Second
)

// SessionOptions tunes the pipeline goroutine.
type SessionOptions struct {
	// FPS paces frame reads; zero reads as fast as the source delivers.
	FPS       int
	DrawBoxes bool
	Style     overlay.Style
	// Now stamps decisions; defaults to time.Now.
	Now func() time.Time
}

// SessionStats summarises the current or last session.
type SessionStats struct {
	ID             string
	Running        bool
	StartedAt      time.Time
	Frames         uint64
	DetectorErrors uint64
	Dispatches     uint64
	AvgProcess     time.Duration
}

// Session owns the pipeline goroutine between Start and Stop.
type Session struct {
	pipeline *Pipeline
	src      source.Source
	det      detector.Detector
	out      *Presentation
	obs      Observer
	logger   *slog.Logger
	opts     SessionOptions

	mu        sync.Mutex
	running   atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
	id        string
	startedAt time.Time
	endErr    error

	frames       atomic.Uint64
	detErrors    atomic.Uint64
	dispatches   atomic.Uint64
	processNanos atomic.Uint64
}

func NewSession(p *Pipeline, src source.Source, det detector.Detector, out *Presentation, opts SessionOptions, logger *slog.Logger) *Session {
	if det == nil {
		det = detector.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Style.Thickness <= 0 {
		opts.Style = overlay.DefaultStyle
	}
	if logger == nil {
		logger = slog.Default()
	}
	closed := make(chan struct{})
	close(closed)
	return &Session{
		pipeline: p,
		src:      src,
		det:      det,
		out:      out,
		obs:      nopObserver{},
		logger:   logger,
		opts:     opts,
		done:     closed,
	}
}

// SetObserver installs o on the session and its pipeline.
func (s *Session) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	s.obs = o
	s.pipeline.SetObserver(o)
}

// Start opens the source, resets all gate state and launches the pipeline goroutine.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return ErrAlreadyRunning
	}
	// a loop left behind by a timed out Stop still owns the source and gate state
	select {
	case <-s.done:
	default:
		return ErrAlreadyRunning
	}
	if err := s.src.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrSourceOpen, err)
	}

	s.id = uuid.NewString()
	s.startedAt = time.Now()
	s.endErr = nil
	s.frames.Store(0)
	s.detErrors.Store(0)
	s.dispatches.Store(0)
	s.processNanos.Store(0)
	s.pipeline.Reset(s.id)

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)
	s.logger.Info("session started", "session_id", s.id)
	go s.loop(loopCtx, s.done)
	return nil
}

// Stop clears the running flag and joins the pipeline goroutine for a bounded time.
// After ErrStopTimeout, Start refuses with ErrAlreadyRunning until Done is closed.
func (s *Session) Stop() error {
	s.mu.Lock()
	done, cancel := s.done, s.cancel
	s.mu.Unlock()
	if !s.running.Swap(false) {
		return nil
	}
	if cancel != nil {
		cancel()
	}
	select {
	case <-done:
		return nil
	case <-time.After(stopJoinTimeout):
		s.logger.Warn("session stop timed out", "session_id", s.ID())
		return ErrStopTimeout
	}
}

// Done is closed when the current session's goroutine exits.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Err reports why the last session ended: io.EOF when the source ran out,
// nil after Stop.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endErr
}

func (s *Session) Running() bool { return s.running.Load() }

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	id, started := s.id, s.startedAt
	s.mu.Unlock()
	frames := s.frames.Load()
	var avg time.Duration
	if frames > 0 {
		avg = time.Duration(s.processNanos.Load() / frames)
	}
	return SessionStats{
		ID:             id,
		Running:        s.running.Load(),
		StartedAt:      started,
		Frames:         frames,
		DetectorErrors: s.detErrors.Load(),
		Dispatches:     s.dispatches.Load(),
		AvgProcess:     avg,
	}
}

func (s *Session) loop(ctx context.Context, done chan struct{}) {
	var endErr error
	defer func() {
		if err := s.src.Close(); err != nil {
			s.logger.Warn("source close", "error", err)
		}
		s.mu.Lock()
		if s.done == done {
			s.endErr = endErr
			s.running.Store(false)
		}
		s.mu.Unlock()
		s.logger.Info("session ended", "session_id", s.ID(), "frames", s.frames.Load(), "reason", reason(endErr))
		close(done)
	}()
	defer recoverLog(s.logger, "session loop panic")

	var interval time.Duration
	if s.opts.FPS > 0 {
		interval = time.Second / time.Duration(s.opts.FPS)
	}
	logTicker := time.NewTicker(sessionStatsLogInterval)
	defer logTicker.Stop()

	for s.running.Load() && ctx.Err() == nil {
		start := time.Now()
		frame, err := s.src.ReadFrame()
		switch {
		case errors.Is(err, io.EOF):
			endErr = io.EOF
			return
		case err != nil:
			if !errors.Is(err, source.ErrNoFrame) {
				s.logger.Debug("read frame", "error", err)
			}
			if !sleepCtx(ctx, noFrameBackoff) {
				return
			}
			continue
		}

		if !s.processFrame(ctx, frame) {
			return
		}
		elapsed := time.Since(start)
		s.processNanos.Add(uint64(elapsed.Nanoseconds()))
		s.frames.Add(1)
		s.obs.ObserveFrame(elapsed)

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}
		if interval > 0 && !sleepCtx(ctx, interval-elapsed) {
			return
		}
	}
}

// processFrame runs one frame end to end. It returns false when the session
// was cancelled while the detector was busy; that frame's decisions are skipped.
func (s *Session) processFrame(ctx context.Context, frame source.Frame) bool {
	dets, err := s.det.Predict(ctx, frame)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.detErrors.Add(1)
		s.obs.ObserveDetectorError()
		s.logger.Debug("detector error, treating frame as empty", "seq", frame.Sequence, "error", err)
		dets = nil
	}
	if s.opts.DrawBoxes && frame.Image != nil {
		overlay.Draw(frame.Image, dets, s.opts.Style)
	}
	now := s.opts.Now()
	if res := s.pipeline.Process(dets, now); res.Dispatched {
		s.dispatches.Add(1)
	}
	if s.out != nil {
		s.out.Push(Message{Kind: KindImage, Image: frame.Image, Sequence: frame.Sequence, At: now})
	}
	return true
}

func (s *Session) logStats() {
	st := s.Stats()
	s.logger.Debug("session.stats",
		"session_id", st.ID,
		"frames", st.Frames,
		"detector_errors", st.DetectorErrors,
		"dispatches", st.Dispatches,
		"avg_process", st.AvgProcess,
	)
}

func reason(err error) string {
	if errors.Is(err, io.EOF) {
		return "source exhausted"
	}
	return "stopped"
}

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
		logger.Error(msg, "error", r, "stack", string(debug.Stack()))
	}
}
