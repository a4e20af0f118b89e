package model

import (
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
)

// StoppedText is shown in the banner area once a session ends.
const StoppedText = "Stopped."

// BannerModel holds the banner currently on display. The zero value shows nothing.
type BannerModel struct {
	current feedback.Banner
	shownAt time.Time
	updates int
}

func NewBannerModel() *BannerModel { return &BannerModel{} }

// Set replaces the banner. It reports whether text or tone changed.
func (m *BannerModel) Set(b feedback.Banner, now time.Time) bool {
	if m == nil {
		return false
	}
	m.updates++
	changed := b.Text != m.current.Text || b.Tone != m.current.Tone
	m.current = b
	m.shownAt = now
	return changed
}

// Clear blanks the banner.
func (m *BannerModel) Clear(now time.Time) bool {
	return m.Set(feedback.Banner{}, now)
}

// Stopped shows the neutral end-of-session text.
func (m *BannerModel) Stopped(now time.Time) bool {
	return m.Set(feedback.Banner{Text: StoppedText, Tone: feedback.ToneNeutral}, now)
}

func (m *BannerModel) Current() feedback.Banner {
	if m == nil {
		return feedback.Banner{}
	}
	return m.current
}

// Age returns how long the current banner has been displayed.
func (m *BannerModel) Age(now time.Time) time.Duration {
	if m == nil || m.shownAt.IsZero() {
		return 0
	}
	return now.Sub(m.shownAt)
}

// Updates counts every Set call, including unchanged repeats.
func (m *BannerModel) Updates() int {
	if m == nil {
		return 0
	}
	return m.updates
}
