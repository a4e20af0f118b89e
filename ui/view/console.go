package view

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/pipeline"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/model"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/presenter"
)

var (
	_ presenter.BannerView  = (*Console)(nil)
	_ presenter.RecentView  = (*Console)(nil)
	_ presenter.SessionView = (*Console)(nil)
	_ presenter.ControlView = (*Console)(nil)
	_ presenter.PreviewView = (*PNGPreview)(nil)
)

// Console is a line-oriented text view for headless runs.
type Console struct {
	mu          sync.Mutex
	w           io.Writer
	lastSession int64
	now         func() time.Time
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w, lastSession: -1, now: time.Now}
}

func (c *Console) printf(format string, args ...any) {
	if c == nil || c.w == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format+"\n", args...)
}

// SetBanner prints the banner with its tone and color.
func (c *Console) SetBanner(b feedback.Banner) {
	if strings.TrimSpace(b.Text) == "" {
		return
	}
	c.printf("[banner] %s (%s %s)", b.Text, b.Tone, b.Tone.Color())
}

func (c *Console) AppendRecent(e model.RecentEntry) {
	c.printf("[recent] %s", e)
}

// SetSession prints "Session: mm:ss  Total: mm:ss" every ten seconds of session time.
func (c *Console) SetSession(session, total time.Duration) {
	if c == nil {
		return
	}
	sec := int64(session.Seconds())
	c.mu.Lock()
	if sec == c.lastSession || sec%10 != 0 {
		c.mu.Unlock()
		return
	}
	c.lastSession = sec
	c.mu.Unlock()
	c.printf("[session] Session: %s  Total: %s", clock(session), clock(total))
}

// ShowStats prints the session counters in human-readable form.
func (c *Console) ShowStats(st pipeline.SessionStats) {
	if c == nil {
		return
	}
	started := "never"
	if !st.StartedAt.IsZero() {
		started = humanize.RelTime(st.StartedAt, c.now(), "ago", "from now")
	}
	c.printf("[stats] session=%s running=%v started=%s frames=%s detector_errors=%s dispatches=%s avg_frame=%s",
		shortID(st.ID), st.Running, started,
		humanize.Comma(int64(st.Frames)),
		humanize.Comma(int64(st.DetectorErrors)),
		humanize.Comma(int64(st.Dispatches)),
		st.AvgProcess.Round(time.Microsecond))
}

func (c *Console) PreviewReset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lastSession = -1
	c.mu.Unlock()
}

func (c *Console) ShowError(err error) {
	if err == nil {
		return
	}
	c.printf("[error] %v", err)
}

// Reply prints the confirmation of a console command.
func (c *Console) Reply(text string) {
	if text == "" {
		return
	}
	c.printf("> %s", text)
}

func clock(d time.Duration) string {
	seconds := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}
