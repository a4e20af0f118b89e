package detection

// Box is an axis-aligned rectangle in frame pixel coordinates (left, top, right, bottom).
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Area returns the box area, zero for degenerate boxes.
func (b Box) Area() float64 {
	w, h := b.X2-b.X1, b.Y2-b.Y1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Detection is a single labelled box produced by the detector for one frame.
// Confidence is in [0,1].
type Detection struct {
	Label      string
	Confidence float64
	Box        Box
}
