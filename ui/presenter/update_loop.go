package presenter

import (
	"context"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/pipeline"
)

// DefaultDrainInterval is how often the presentation channel is drained.
const DefaultDrainInterval = 60 * time.Millisecond

// Loop drains the presentation channel without blocking and drives the
// feature presenters. The zero value is usable (methods are nil-safe).
type Loop struct {
	Out      *pipeline.Presentation
	Session  *SessionPresenter
	Banner   *BannerPresenter
	Recent   *RecentPresenter
	Preview  *PreviewPresenter
	Schedule func()
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewLoop wires the presenters and resets banner, log and preview whenever a
// new session starts.
func NewLoop(out *pipeline.Presentation, sess *SessionPresenter, banner *BannerPresenter, recent *RecentPresenter, preview *PreviewPresenter) *Loop {
	l := &Loop{Out: out, Session: sess, Banner: banner, Recent: recent, Preview: preview}
	if sess != nil {
		sess.OnStart = func(now time.Time) {
			l.Banner.Reset(now)
			l.Recent.Reset()
			l.Preview.Reset()
		}
		sess.OnStop = func(now time.Time) {
			l.Banner.Stopped(now)
		}
	}
	return l
}

// Tick drains every queued message, then lets each presenter update its view.
func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	// Session first so a fresh session clears stale state before its messages land.
	if l.Session != nil {
		l.Session.Tick(now)
	}
	l.drain(now)
	if l.Banner != nil {
		l.Banner.Tick(now)
	}
	if l.Preview != nil {
		l.Preview.Tick(now)
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}

// drain routes queued messages to the presenters and returns how many were handled.
func (l *Loop) drain(now time.Time) int {
	if l.Out == nil {
		return 0
	}
	n := 0
	for {
		msg, ok := l.Out.TryPop()
		if !ok {
			return n
		}
		n++
		switch msg.Kind {
		case pipeline.KindImage:
			l.Preview.OnImage(msg.Image, msg.Sequence, msg.At)
		case pipeline.KindBanner:
			l.Banner.OnBanner(msg.Banner)
		case pipeline.KindLogLine:
			l.Recent.OnLine(msg.Text, now)
		}
	}
}

// Run ticks every interval until ctx is cancelled, then drains once more.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	if l == nil {
		return
	}
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Tick()
			return
		case <-t.C:
			l.Tick()
		}
	}
}
