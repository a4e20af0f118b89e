package gate

import "time"

// Rules is the per-label configuration the gates consult. *config.Config satisfies it.
type Rules interface {
	RequiredStableFrames(label string) int
	Cooldown(label string) time.Duration
	EventCap(label string) (limit int, ok bool)
	Hysteresis() time.Duration
	Exclusive(label string) bool
}

// ClassState is the cross-frame bookkeeping kept for one label.
type ClassState struct {
	StableCount  int
	LastEmitted  time.Time
	EmittedCount int
}

// emittedBefore reports whether the label was ever dispatched this session.
func (s *ClassState) emittedBefore() bool { return s.EmittedCount > 0 }

// Latch is the currently believed exclusive-set label and when it was accepted.
type Latch struct {
	Label string
	At    time.Time
}

// Stage is how far a frame's winner progressed through the gates.
type Stage int

const (
	StageNotStable Stage = iota
	StageCoolingDown
	StageCapReached
	StageActionable
)

func (s Stage) String() string {
	switch s {
	case StageNotStable:
		return "stability"
	case StageCoolingDown:
		return "cooldown"
	case StageCapReached:
		return "cap"
	case StageActionable:
		return "actionable"
	default:
		return "unknown"
	}
}

// Decision is the outcome of running one winner through every gate.
type Decision struct {
	// Label is the winner after hysteresis; it may differ from the arbiter's winner.
	Label       string
	Overridden  bool
	StableCount int
	Stage       Stage
}

// Actionable reports whether the decision should be dispatched.
func (d Decision) Actionable() bool { return d.Stage == StageActionable }
