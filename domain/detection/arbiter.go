package detection

// Arbiter picks the single winning label of a frame.
type Arbiter struct {
	// Exclusive lists the mutually-exclusive labels in tie-break order.
	Exclusive []string
	// Priority is the fallback order over all recognized labels.
	Priority []string
}

// Winner returns the frame's winning label. Exclusive-set labels are ranked by
// frequency and then by their position in Exclusive. When none is present the
// first Priority label found in labels wins. ok is false when nothing qualifies.
func (a Arbiter) Winner(labels []string) (string, bool) {
	if len(labels) == 0 {
		return "", false
	}
	rank := make(map[string]int, len(a.Exclusive))
	for i, l := range a.Exclusive {
		if _, dup := rank[l]; !dup {
			rank[l] = i
		}
	}
	counts := make(map[string]int)
	for _, l := range labels {
		if _, ok := rank[l]; ok {
			counts[l]++
		}
	}
	if len(counts) > 0 {
		winner, best := "", 0
		for _, l := range a.Exclusive {
			n := counts[l]
			if n > best {
				winner, best = l, n
			}
		}
		return winner, true
	}
	present := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		present[l] = struct{}{}
	}
	for _, p := range a.Priority {
		if _, ok := present[p]; ok {
			return p, true
		}
	}
	return "", false
}
