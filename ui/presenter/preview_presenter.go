package presenter

import (
	"image"
	"log/slog"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/model"
)

// PreviewView renders a frame snapshot.
type PreviewView interface {
	ShowFrame(img image.Image) error
}

// PreviewPresenter forwards the newest frame to the view at most once per interval.
type PreviewPresenter struct {
	frames   *model.FrameModel
	view     PreviewView
	interval time.Duration
	logger   *slog.Logger

	lastSeq  uint64
	lastShow time.Time
}

func NewPreviewPresenter(frames *model.FrameModel, view PreviewView, interval time.Duration, logger *slog.Logger) *PreviewPresenter {
	return &PreviewPresenter{frames: frames, view: view, interval: interval, logger: logger}
}

func (p *PreviewPresenter) OnImage(img *image.RGBA, seq uint64, at time.Time) {
	if p == nil {
		return
	}
	p.frames.Set(img, seq, at)
}

func (p *PreviewPresenter) Tick(now time.Time) {
	if p == nil || p.view == nil || p.frames == nil {
		return
	}
	img, seq, _ := p.frames.Latest()
	if img == nil || seq == p.lastSeq {
		return
	}
	if !p.lastShow.IsZero() && now.Sub(p.lastShow) < p.interval {
		return
	}
	p.lastSeq, p.lastShow = seq, now
	if err := p.view.ShowFrame(img); err != nil && p.logger != nil {
		p.logger.Warn("preview update failed", "seq", seq, "error", err)
	}
}

// Reset forgets the last shown frame so a new session's first frame is shown.
func (p *PreviewPresenter) Reset() {
	if p == nil {
		return
	}
	p.frames.Clear()
	p.lastSeq = 0
	p.lastShow = time.Time{}
}
