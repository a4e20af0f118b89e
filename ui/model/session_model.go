package model

import (
	"time"
)

// SessionModel tracks the current detection session duration and the time
// accumulated over all sessions. Presenters poll Values() and update views.
// The zero value is ready to use.
type SessionModel struct {
	active       bool
	sessionStart time.Time
	current      time.Duration
	accumulated  time.Duration
	sessions     int
}

func NewSessionModel() *SessionModel { return &SessionModel{} }

// OnTick advances the model from the session's running flag at now. It
// reports whether running flipped since the previous tick.
func (m *SessionModel) OnTick(running bool, now time.Time) (changed bool) {
	if m == nil {
		return false
	}
	switch {
	case running && !m.active:
		m.active = true
		m.sessionStart = now
		m.current = 0
		m.sessions++
		changed = true
	case !running && m.active:
		m.current = now.Sub(m.sessionStart)
		m.accumulated += m.current
		m.active = false
		return true
	}
	if m.active {
		m.current = now.Sub(m.sessionStart)
	}
	return changed
}

// Values returns the current (or last) session duration and the total. The
// total includes the ongoing session when active.
func (m *SessionModel) Values() (session, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	session = m.current
	total = m.accumulated
	if m.active {
		total += session
	}
	return
}

func (m *SessionModel) Active() bool { return m != nil && m.active }

// Sessions returns how many sessions have started.
func (m *SessionModel) Sessions() int {
	if m == nil {
		return 0
	}
	return m.sessions
}
