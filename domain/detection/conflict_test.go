package detection

import "testing"

func trafficLight(l string) bool { return l == "red" || l == "yellow" || l == "green" }

func TestResolveConflicts_KeepsMostConfident(t *testing.T) {
	dets := []Detection{
		{Label: "green", Confidence: 0.7, Box: Box{0, 2.5, 10, 12.5}},
		{Label: "red", Confidence: 0.9, Box: Box{0, 0, 10, 10}},
	}
	got := ResolveConflicts(dets, trafficLight, DefaultIoU)
	if len(got) != 1 || got[0].Label != "red" || got[0].Confidence != 0.9 {
		t.Fatalf("expected single red 0.9, got %+v", got)
	}
}

func TestResolveConflicts_TransitiveCluster(t *testing.T) {
	// a-b and b-c overlap above threshold while a-c do not; all three form one cluster.
	dets := []Detection{
		{Label: "red", Confidence: 0.6, Box: Box{0, 0, 10, 10}},
		{Label: "yellow", Confidence: 0.8, Box: Box{2, 0, 12, 10}},
		{Label: "green", Confidence: 0.7, Box: Box{4, 0, 14, 10}},
	}
	if IoU(dets[0].Box, dets[2].Box) > DefaultIoU {
		t.Fatalf("test setup: a and c must not overlap directly")
	}
	got := ResolveConflicts(dets, trafficLight, DefaultIoU)
	if len(got) != 1 || got[0].Label != "yellow" {
		t.Fatalf("expected single yellow representative, got %+v", got)
	}
}

func TestResolveConflicts_SeparateLightsAndPassThrough(t *testing.T) {
	dets := []Detection{
		{Label: "red", Confidence: 0.9, Box: Box{0, 0, 10, 10}},
		{Label: "stop", Confidence: 0.8, Box: Box{0, 0, 10, 10}},
		{Label: "green", Confidence: 0.7, Box: Box{100, 100, 110, 110}},
		{Label: "yield", Confidence: 0.6, Box: Box{100, 100, 110, 110}},
	}
	got := ResolveConflicts(dets, trafficLight, DefaultIoU)
	want := []string{"stop", "yield", "red", "green"}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i, l := range want {
		if got[i].Label != l {
			t.Fatalf("position %d: got %s want %s (%+v)", i, got[i].Label, l, got)
		}
	}
}
