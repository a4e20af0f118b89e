package source

import (
	"image"
	"image/color"
	"io"
	"time"
)

// Synthetic produces flat test frames. It pairs with the replay detector for
// dry runs on hosts without a display or camera.
type Synthetic struct {
	width, height int
	limit         int // 0 = endless
	seq           uint64
	open          bool
}

var syntheticPalette = []color.RGBA{
	{0x20, 0x20, 0x28, 0xff},
	{0x28, 0x20, 0x20, 0xff},
	{0x20, 0x28, 0x20, 0xff},
}

// NewSynthetic returns a source of frames sized width x height.
func NewSynthetic(width, height, frames int) *Synthetic {
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}
	if frames < 0 {
		frames = 0
	}
	return &Synthetic{width: width, height: height, limit: frames}
}

func (s *Synthetic) Open() error {
	s.open = true
	s.seq = 0
	return nil
}

func (s *Synthetic) ReadFrame() (Frame, error) {
	if !s.open {
		return Frame{}, ErrNoFrame
	}
	if s.limit > 0 && s.seq >= uint64(s.limit) {
		return Frame{}, io.EOF
	}
	s.seq++
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	c := syntheticPalette[int(s.seq)%len(syntheticPalette)]
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return Frame{Image: img, CapturedAt: time.Now(), Sequence: s.seq}, nil
}

func (s *Synthetic) Close() error {
	s.open = false
	return nil
}
