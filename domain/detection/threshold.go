package detection

// PresentLabels returns the labels of detections whose confidence reaches the
// effective per-class threshold. Duplicates are kept so the arbiter can count them.
func PresentLabels(dets []Detection, threshold func(string) float64) []string {
	labels := make([]string, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= threshold(d.Label) {
			labels = append(labels, d.Label)
		}
	}
	return labels
}
