package source

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
)

// ErrNoFrame is returned by ReadFrame when no frame is ready yet. Callers
// should retry; io.EOF instead means the source is exhausted.
var ErrNoFrame = errors.New("no frame available")

// Frame is one captured image plus capture metadata.
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// Source yields frames until closed or exhausted.
type Source interface {
	Open() error
	ReadFrame() (Frame, error)
	Close() error
}

// New builds the source selected by cfg.Mode. The source is not opened.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Mode {
	case "camera", "screen":
		return NewScreen(cfg.CamIndex, cfg.Width, cfg.Height), nil
	case "video", "dir":
		return NewDir(cfg.VideoPath, cfg.LoopVideo), nil
	case "synthetic":
		return NewSynthetic(cfg.Width, cfg.Height, cfg.Frames), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Mode)
	}
}

// toRGBA returns img as *image.RGBA anchored at the origin, copying when needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
