package detector

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detection"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/source"
)

const defaultPredictTimeout = 2 * time.Second

// ProcessOptions describes the inference worker subprocess.
type ProcessOptions struct {
	Command string
	Args    []string
	Env     []string // appended to the inherited environment
	Timeout time.Duration
	Quality int // JPEG quality, default 85
}

// Process talks to an external inference worker over stdin/stdout using
// length-prefixed msgpack messages, one request and one response per frame.
type Process struct {
	opts   ProcessOptions
	logger *slog.Logger

	mu      sync.Mutex // serializes Predict
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	results chan Response
	exited  chan struct{}
	running atomic.Bool
	seq     uint64
	wg      sync.WaitGroup
}

// NewProcess returns an unstarted worker.
func NewProcess(opts ProcessOptions, logger *slog.Logger) *Process {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultPredictTimeout
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	return &Process{opts: opts, logger: logger}
}

// Start spawns the worker. The worker is killed when ctx is cancelled.
func (p *Process) Start(ctx context.Context) error {
	if p.opts.Command == "" {
		return fmt.Errorf("detector command not configured")
	}
	if p.running.Load() {
		return nil
	}
	cmd := exec.CommandContext(ctx, p.opts.Command, p.opts.Args...)
	if len(p.opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), p.opts.Env...)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start detector worker: %w", err)
	}
	p.cmd, p.stdin = cmd, stdin
	p.results = make(chan Response, 1)
	p.exited = make(chan struct{})
	p.running.Store(true)
	if p.logger != nil {
		p.logger.Info("detector worker started", "command", p.opts.Command, "pid", cmd.Process.Pid)
	}

	p.wg.Add(2)
	go p.readResults(stdout)
	go p.logStderr(stderr)
	go p.waitProcess()
	return nil
}

func (p *Process) readResults(stdout io.Reader) {
	defer p.wg.Done()
	for {
		var res Response
		if err := ReadMessage(stdout, &res); err != nil {
			if !errors.Is(err, io.EOF) && p.logger != nil {
				p.logger.Error("failed to read detector result", "error", err)
			}
			return
		}
		// drop a stale result rather than block the reader
		select {
		case p.results <- res:
		default:
			select {
			case <-p.results:
			default:
			}
			p.results <- res
		}
	}
}

func (p *Process) logStderr(stderr io.Reader) {
	defer p.wg.Done()
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if p.logger == nil {
			continue
		}
		if strings.Contains(line, "[ERROR]") || strings.Contains(line, "Traceback") {
			p.logger.Error("detector worker error", "log", line)
		} else {
			p.logger.Debug("detector worker log", "log", line)
		}
	}
}

func (p *Process) waitProcess() {
	p.wg.Wait()
	err := p.cmd.Wait()
	p.running.Store(false)
	close(p.exited)
	if p.logger == nil {
		return
	}
	if err != nil {
		p.logger.Warn("detector worker exited", "error", err)
	} else {
		p.logger.Info("detector worker exited cleanly")
	}
}

// Predict sends frame to the worker and waits for its detections.
func (p *Process) Predict(ctx context.Context, frame source.Frame) ([]detection.Detection, error) {
	if !p.running.Load() {
		return nil, ErrWorkerStopped
	}
	if frame.Image == nil {
		return nil, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: p.opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	p.seq++
	b := frame.Image.Bounds()
	req := Request{Seq: p.seq, Width: b.Dx(), Height: b.Dy(), Format: "jpeg", Image: buf.Bytes()}
	if err := WriteMessage(p.stdin, req); err != nil {
		return nil, err
	}

	timer := time.NewTimer(p.opts.Timeout)
	defer timer.Stop()
	for {
		select {
		case res := <-p.results:
			if res.Seq != req.Seq {
				continue
			}
			if res.Error != "" {
				return nil, fmt.Errorf("detector worker: %s", res.Error)
			}
			return toDetections(res.Detections), nil
		case <-p.exited:
			return nil, ErrWorkerStopped
		case <-timer.C:
			return nil, fmt.Errorf("detector timeout after %v", p.opts.Timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Close closes the worker's stdin and waits briefly for it to exit.
func (p *Process) Close() error {
	if p.cmd == nil {
		return nil
	}
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	select {
	case <-p.exited:
	case <-time.After(2 * time.Second):
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		<-p.exited
	}
	return nil
}
