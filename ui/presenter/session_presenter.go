package presenter

import (
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/pipeline"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/model"
)

// SessionSource reports the detection session's state.
type SessionSource interface {
	Running() bool
	Stats() pipeline.SessionStats
}

// SessionView displays session durations and counters.
type SessionView interface {
	SetSession(session, total time.Duration)
	ShowStats(pipeline.SessionStats)
}

// SessionPresenter advances the session model and reports start/stop
// transitions through OnStart and OnStop.
type SessionPresenter struct {
	sess       *model.SessionModel
	src        SessionSource
	view       SessionView
	statsEvery time.Duration
	lastStats  time.Time

	OnStart func(now time.Time)
	OnStop  func(now time.Time)
}

// NewSessionPresenter returns a presenter that pushes stats every statsEvery
// while a session runs. Zero disables stats output.
func NewSessionPresenter(sess *model.SessionModel, src SessionSource, view SessionView, statsEvery time.Duration) *SessionPresenter {
	return &SessionPresenter{sess: sess, src: src, view: view, statsEvery: statsEvery}
}

func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.src == nil {
		return
	}
	running := p.src.Running()
	if p.sess.OnTick(running, now) {
		if running && p.OnStart != nil {
			p.OnStart(now)
		}
		if !running {
			if p.OnStop != nil {
				p.OnStop(now)
			}
			if p.view != nil {
				p.view.ShowStats(p.src.Stats())
			}
		}
	}
	if p.view == nil {
		return
	}
	s, t := p.sess.Values()
	p.view.SetSession(s, t)
	if running && p.statsEvery > 0 && now.Sub(p.lastStats) >= p.statsEvery {
		p.lastStats = now
		p.view.ShowStats(p.src.Stats())
	}
}
