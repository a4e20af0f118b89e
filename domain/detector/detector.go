package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detection"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/source"
)

// ErrWorkerStopped is returned when the inference worker is not running.
var ErrWorkerStopped = errors.New("detector worker stopped")

// Detector runs inference on one frame. Errors are per-frame; callers treat
// them as an empty result.
type Detector interface {
	Predict(ctx context.Context, frame source.Frame) ([]detection.Detection, error)
	Close() error
}

// Nop never detects anything.
type Nop struct{}

func (Nop) Predict(context.Context, source.Frame) ([]detection.Detection, error) { return nil, nil }
func (Nop) Close() error                                                        { return nil }

var (
	_ Detector = Nop{}
	_ Detector = (*Process)(nil)
	_ Detector = (*Replay)(nil)
)

// New builds and starts the detector selected by cfg.Mode.
func New(ctx context.Context, cfg config.DetectorConfig, logger *slog.Logger) (Detector, error) {
	switch cfg.Mode {
	case "", "none":
		return Nop{}, nil
	case "replay":
		return OpenReplay(cfg.ReplayPath)
	case "process":
		p := NewProcess(ProcessOptions{
			Command: cfg.Command,
			Args:    cfg.Args,
			Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond,
		}, logger)
		if err := p.Start(ctx); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown detector mode %q", cfg.Mode)
	}
}
