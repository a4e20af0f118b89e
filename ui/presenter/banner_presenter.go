package presenter

import (
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/model"
)

// BannerView shows the banner text in its tone.
type BannerView interface{ SetBanner(feedback.Banner) }

// BannerPresenter collects banners drained from the presentation channel and
// reflects the newest one on the next Tick.
type BannerPresenter struct {
	model   *model.BannerModel
	view    BannerView
	pending []feedback.Banner
}

func NewBannerPresenter(m *model.BannerModel, view BannerView) *BannerPresenter {
	return &BannerPresenter{model: m, view: view}
}

// OnBanner queues b; only the latest queued banner reaches the view.
func (p *BannerPresenter) OnBanner(b feedback.Banner) {
	if p == nil {
		return
	}
	p.pending = append(p.pending, b)
}

func (p *BannerPresenter) Tick(now time.Time) {
	if p == nil || p.model == nil || len(p.pending) == 0 {
		return
	}
	last := p.pending[len(p.pending)-1]
	p.pending = p.pending[:0]
	if p.model.Set(last, now) && p.view != nil {
		p.view.SetBanner(last)
	}
}

// Reset blanks the banner for a new session.
func (p *BannerPresenter) Reset(now time.Time) {
	if p == nil || p.model == nil {
		return
	}
	p.pending = p.pending[:0]
	if p.model.Clear(now) && p.view != nil {
		p.view.SetBanner(p.model.Current())
	}
}

// Stopped shows the end-of-session banner.
func (p *BannerPresenter) Stopped(now time.Time) {
	if p == nil || p.model == nil {
		return
	}
	p.pending = p.pending[:0]
	if p.model.Stopped(now) && p.view != nil {
		p.view.SetBanner(p.model.Current())
	}
}
