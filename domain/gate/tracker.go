package gate

import "time"

// Tracker owns all gate state for one session. It is not safe for concurrent
// use; the pipeline goroutine is its only caller.
type Tracker struct {
	rules   Rules
	classes map[string]*ClassState
	latch   Latch
	latched bool
}

// NewTracker returns an empty tracker bound to rules.
func NewTracker(rules Rules) *Tracker {
	return &Tracker{rules: rules, classes: make(map[string]*ClassState)}
}

// Reset forgets every class state and the latch. Called on session start.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.classes = make(map[string]*ClassState)
	t.latch = Latch{}
	t.latched = false
}

func (t *Tracker) class(label string) *ClassState {
	s, ok := t.classes[label]
	if !ok {
		s = &ClassState{}
		t.classes[label] = s
	}
	return s
}

// State returns a copy of label's bookkeeping (zero value if never seen).
func (t *Tracker) State(label string) ClassState {
	if s, ok := t.classes[label]; ok {
		return *s
	}
	return ClassState{}
}

// Latched returns the current latch, if any.
func (t *Tracker) Latched() (Latch, bool) { return t.latch, t.latched }

// Hysteresis damps flips within the exclusive set. A change away from the
// latched label is honored only once the hysteresis window has elapsed since
// the latch was last set; otherwise the latched label is returned and
// overridden is true. Non-exclusive winners pass through and leave the latch alone.
func (t *Tracker) Hysteresis(winner string, now time.Time) (label string, overridden bool) {
	if !t.rules.Exclusive(winner) {
		return winner, false
	}
	if !t.latched {
		t.latch = Latch{Label: winner, At: now}
		t.latched = true
		return winner, false
	}
	if winner == t.latch.Label {
		return winner, false
	}
	if now.Sub(t.latch.At) < t.rules.Hysteresis() {
		return t.latch.Label, true
	}
	t.latch = Latch{Label: winner, At: now}
	return winner, false
}

// Stability counts winner's consecutive frames and zeroes every other known
// label. It returns the new count and whether the label's requirement is met.
func (t *Tracker) Stability(winner string) (count int, stable bool) {
	for label, s := range t.classes {
		if label != winner {
			s.StableCount = 0
		}
	}
	s := t.class(winner)
	s.StableCount++
	return s.StableCount, s.StableCount >= t.rules.RequiredStableFrames(winner)
}

// CoolingDown reports whether label was dispatched less than its cooldown ago.
// A label that was never dispatched is never cooling down.
func (t *Tracker) CoolingDown(label string, now time.Time) bool {
	s, ok := t.classes[label]
	if !ok || !s.emittedBefore() {
		return false
	}
	return now.Sub(s.LastEmitted) < t.rules.Cooldown(label)
}

// CapReached reports whether label has used up its lifetime announcements.
func (t *Tracker) CapReached(label string) bool {
	limit, ok := t.rules.EventCap(label)
	if !ok {
		return false
	}
	return t.State(label).EmittedCount >= limit
}

// consume records a dispatch. It runs before rendering so a later frame cannot
// spend the same cooldown window twice.
func (t *Tracker) consume(label string, now time.Time) {
	s := t.class(label)
	s.EmittedCount++
	s.LastEmitted = now
}

// Evaluate runs winner through hysteresis, stability, cooldown and the event
// cap. An actionable decision has already been charged against cooldown and cap.
func (t *Tracker) Evaluate(winner string, now time.Time) Decision {
	label, overridden := t.Hysteresis(winner, now)
	count, stable := t.Stability(label)
	d := Decision{Label: label, Overridden: overridden, StableCount: count}
	switch {
	case !stable:
		d.Stage = StageNotStable
	case t.CoolingDown(label, now):
		d.Stage = StageCoolingDown
	case t.CapReached(label):
		d.Stage = StageCapReached
	default:
		t.consume(label, now)
		d.Stage = StageActionable
	}
	return d
}
