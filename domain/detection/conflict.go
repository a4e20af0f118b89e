package detection

// ResolveConflicts collapses spatially overlapping readings of the
// mutually-exclusive set. Exclusive detections are joined into clusters (IoU >
// thr, transitively) and each cluster is replaced by its most confident member;
// on equal confidence the earlier detection wins. Non-exclusive detections pass
// through first, in input order, followed by one representative per cluster.
func ResolveConflicts(dets []Detection, exclusive func(string) bool, thr float64) []Detection {
	if len(dets) == 0 {
		return nil
	}
	var others, excl []Detection
	for _, d := range dets {
		if exclusive != nil && exclusive(d.Label) {
			excl = append(excl, d)
		} else {
			others = append(others, d)
		}
	}
	if len(excl) == 0 {
		return others
	}
	sets := newDSU(len(excl))
	for i := 0; i < len(excl); i++ {
		for j := i + 1; j < len(excl); j++ {
			if IoU(excl[i].Box, excl[j].Box) > thr {
				sets.union(i, j)
			}
		}
	}
	best := make(map[int]int, len(excl)) // cluster root -> index of representative
	var roots []int
	for i := range excl {
		r := sets.find(i)
		cur, ok := best[r]
		if !ok {
			best[r] = i
			roots = append(roots, r)
			continue
		}
		if excl[i].Confidence > excl[cur].Confidence {
			best[r] = i
		}
	}
	out := make([]Detection, 0, len(others)+len(roots))
	out = append(out, others...)
	for _, r := range roots {
		out = append(out, excl[best[r]])
	}
	return out
}
