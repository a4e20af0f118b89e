// Package overlay draws detection boxes and captions onto frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detection"
)

// Style controls box rendering.
type Style struct {
	Color     color.RGBA
	Thickness int
}

// DefaultStyle draws 3px green boxes.
var DefaultStyle = Style{Color: color.RGBA{0, 255, 0, 255}, Thickness: 3}

// Caption returns the text drawn above a detection box.
func Caption(d detection.Detection) string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Confidence)
}

// Draw renders every detection onto img in place. Boxes are clamped to the
// image and degenerate boxes are skipped.
func Draw(img *image.RGBA, dets []detection.Detection, st Style) int {
	if img == nil {
		return 0
	}
	if st.Thickness < 1 {
		st.Thickness = 1
	}
	b := img.Bounds()
	drawn := 0
	for _, d := range dets {
		r, ok := clampBox(d.Box, b)
		if !ok {
			continue
		}
		strokeRect(img, r, st)
		drawCaption(img, Caption(d), r.Min, st.Color)
		drawn++
	}
	return drawn
}

func clampBox(bx detection.Box, b image.Rectangle) (image.Rectangle, bool) {
	clamp := func(v float64, lo, hi int) int {
		i := int(math.Floor(v))
		if i < lo {
			return lo
		}
		if i > hi {
			return hi
		}
		return i
	}
	x1 := clamp(bx.X1, b.Min.X, b.Max.X-1)
	x2 := clamp(bx.X2, b.Min.X, b.Max.X-1)
	y1 := clamp(bx.Y1, b.Min.Y, b.Max.Y-1)
	y2 := clamp(bx.Y2, b.Min.Y, b.Max.Y-1)
	if x2 <= x1 || y2 <= y1 {
		return image.Rectangle{}, false
	}
	return image.Rect(x1, y1, x2+1, y2+1), true
}

func strokeRect(img *image.RGBA, r image.Rectangle, st Style) {
	t := st.Thickness
	fill := func(rr image.Rectangle) {
		rr = rr.Intersect(r)
		for y := rr.Min.Y; y < rr.Max.Y; y++ {
			for x := rr.Min.X; x < rr.Max.X; x++ {
				img.SetRGBA(x, y, st.Color)
			}
		}
	}
	fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t))
	fill(image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y))
	fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y))
	fill(image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y))
}

func drawCaption(img *image.RGBA, text string, at image.Point, c color.RGBA) {
	face := basicfont.Face7x13
	baseline := at.Y - 6
	if baseline < face.Ascent {
		baseline = face.Ascent
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(at.X, baseline),
	}
	d.DrawString(text)
}
