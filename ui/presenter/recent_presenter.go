package presenter

import (
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/model"
)

// RecentView appends accepted log lines.
type RecentView interface{ AppendRecent(model.RecentEntry) }

// RecentPresenter throttles log lines through the recent-detections model.
type RecentPresenter struct {
	log  *model.RecentLog
	view RecentView
}

func NewRecentPresenter(log *model.RecentLog, view RecentView) *RecentPresenter {
	return &RecentPresenter{log: log, view: view}
}

// OnLine offers text to the log; lines inside the throttle window are dropped.
func (p *RecentPresenter) OnLine(text string, now time.Time) {
	if p == nil || p.log == nil {
		return
	}
	if !p.log.Add(text, now) || p.view == nil {
		return
	}
	entries := p.log.Entries()
	p.view.AppendRecent(entries[len(entries)-1])
}

func (p *RecentPresenter) Reset() {
	if p == nil {
		return
	}
	p.log.Clear()
}
