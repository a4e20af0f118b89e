package detection

import "sort"

// DefaultIoU is the overlap threshold used by both same-class suppression and
// exclusive-set clustering.
const DefaultIoU = 0.5

// Deduplicate performs same-class non-max suppression. Within each label the
// detections are visited in descending confidence (stable on input order) and a
// detection survives only if its IoU with every survivor of that label is <= thr.
// Labels appear in order of first occurrence.
func Deduplicate(dets []Detection, thr float64) []Detection {
	if len(dets) == 0 {
		return nil
	}
	var order []string
	groups := make(map[string][]Detection)
	for _, d := range dets {
		if _, ok := groups[d.Label]; !ok {
			order = append(order, d.Label)
		}
		groups[d.Label] = append(groups[d.Label], d)
	}
	out := make([]Detection, 0, len(dets))
	for _, label := range order {
		group := groups[label]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Confidence > group[j].Confidence })
		kept := make([]Detection, 0, len(group))
		for _, d := range group {
			overlaps := false
			for _, k := range kept {
				if IoU(d.Box, k.Box) > thr {
					overlaps = true
					break
				}
			}
			if !overlaps {
				kept = append(kept, d)
			}
		}
		out = append(out, kept...)
	}
	return out
}
