package detection

import "testing"

func defaultArbiter() Arbiter {
	return Arbiter{
		Exclusive: []string{"red", "yellow", "green"},
		Priority:  []string{"red", "green", "yellow", "no u turn", "no parking", "yield", "stop", "pedestrian crossing"},
	}
}

func TestArbiter_Winner(t *testing.T) {
	a := defaultArbiter()
	cases := []struct {
		in     []string
		want   string
		wantOK bool
	}{
		{[]string{"red", "red", "green"}, "red", true},
		{[]string{"green", "green", "red"}, "green", true},
		{[]string{"yellow", "green"}, "yellow", true},
		{[]string{"green", "yellow", "red"}, "red", true},
		{[]string{"stop"}, "stop", true},
		{[]string{"stop", "yield"}, "yield", true},
		{[]string{"stop", "green"}, "green", true},
		{[]string{"speed bump"}, "", false},
		{nil, "", false},
	}
	for _, tc := range cases {
		got, ok := a.Winner(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("Winner(%v) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestPresentLabels(t *testing.T) {
	thr := map[string]float64{"red": 0.65}
	threshold := func(l string) float64 {
		if v, ok := thr[l]; ok {
			return v
		}
		return 0.5
	}
	dets := []Detection{
		{Label: "red", Confidence: 0.65},
		{Label: "red", Confidence: 0.64},
		{Label: "stop", Confidence: 0.5},
		{Label: "yield", Confidence: 0.49},
	}
	got := PresentLabels(dets, threshold)
	if len(got) != 2 || got[0] != "red" || got[1] != "stop" {
		t.Fatalf("PresentLabels = %v", got)
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"No_Parking":           "no parking",
		"No-U-Turn":            "no u turn",
		" Pedestrian Crossing ": "pedestrian crossing",
		"RED":                  "red",
		"":                     "",
	}
	for in, want := range cases {
		if got := NormalizeLabel(in); got != want {
			t.Fatalf("NormalizeLabel(%q) = %q want %q", in, got, want)
		}
	}
}
