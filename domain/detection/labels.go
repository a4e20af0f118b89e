package detection

import "strings"

var labelAliases = map[string]string{
	"no-u-turn":           "no u turn",
	"no_parking":          "no parking",
	"no-parking":          "no parking",
	"pedestrian_crossing": "pedestrian crossing",
	"t-intersection":      "t intersection",
	"slippery_when_wet":   "slippery when wet",
}

// NormalizeLabel maps detector class names onto the canonical lower-case,
// space separated form used by configuration ("No_Parking" -> "no parking").
func NormalizeLabel(label string) string {
	if label == "" {
		return label
	}
	l := strings.ToLower(strings.TrimSpace(label))
	if alias, ok := labelAliases[l]; ok {
		return alias
	}
	l = strings.NewReplacer("-", " ", "_", " ").Replace(l)
	if alias, ok := labelAliases[l]; ok {
		return alias
	}
	return l
}

// Normalize returns a copy of dets with every label normalized.
func Normalize(dets []Detection) []Detection {
	out := make([]Detection, len(dets))
	for i, d := range dets {
		d.Label = NormalizeLabel(d.Label)
		out[i] = d
	}
	return out
}
