package source

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/vova616/screenshot"
)

// Screen captures a region of the display. It stands in for a camera on
// hosts without a video device: index selects a horizontal band offset of
// width pixels, so several regions can be watched side by side.
type Screen struct {
	index, width, height int

	region   image.Rectangle
	open     atomic.Bool
	sequence atomic.Uint64

	// overridable for tests
	screenRect  func() (image.Rectangle, error)
	captureRect func(image.Rectangle) (*image.RGBA, error)
}

// NewScreen returns an unopened screen source. Zero width or height captures
// the full screen.
func NewScreen(index, width, height int) *Screen {
	return &Screen{
		index:       index,
		width:       width,
		height:      height,
		screenRect:  screenshot.ScreenRect,
		captureRect: screenshot.CaptureRect,
	}
}

func (s *Screen) Open() error {
	full, err := s.screenRect()
	if err != nil {
		return fmt.Errorf("query screen: %w", err)
	}
	r := full
	if s.width > 0 && s.height > 0 {
		x0 := full.Min.X + s.index*s.width
		r = image.Rect(x0, full.Min.Y, x0+s.width, full.Min.Y+s.height).Intersect(full)
	}
	if r.Empty() {
		return fmt.Errorf("capture region %d outside screen %v", s.index, full)
	}
	s.region = r
	s.open.Store(true)
	return nil
}

func (s *Screen) ReadFrame() (Frame, error) {
	if !s.open.Load() {
		return Frame{}, ErrNoFrame
	}
	img, err := s.captureRect(s.region)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrNoFrame, err)
	}
	if img == nil {
		return Frame{}, ErrNoFrame
	}
	return Frame{Image: toRGBA(img), CapturedAt: time.Now(), Sequence: s.sequence.Add(1)}, nil
}

func (s *Screen) Close() error {
	s.open.Store(false)
	return nil
}

// Region returns the captured rectangle after Open.
func (s *Screen) Region() image.Rectangle { return s.region }
