package presenter

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/pipeline"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/model"
)

type fakeSession struct {
	running  bool
	startErr error
	starts   int
	stops    int
}

func (f *fakeSession) Start(context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	f.running = true
	return nil
}

func (f *fakeSession) Stop() error {
	f.stops++
	f.running = false
	return nil
}

func (f *fakeSession) Running() bool { return f.running }

func (f *fakeSession) Stats() pipeline.SessionStats {
	return pipeline.SessionStats{ID: "s", Running: f.running, Frames: 42}
}

type fakeView struct {
	banners  []feedback.Banner
	recent   []model.RecentEntry
	frames   int
	resets   int
	errs     []error
	stats    int
	sessionD time.Duration
}

func (v *fakeView) SetBanner(b feedback.Banner)             { v.banners = append(v.banners, b) }
func (v *fakeView) AppendRecent(e model.RecentEntry)        { v.recent = append(v.recent, e) }
func (v *fakeView) PreviewReset()                           { v.resets++ }
func (v *fakeView) ShowError(err error)                     { v.errs = append(v.errs, err) }
func (v *fakeView) ShowStats(pipeline.SessionStats)         { v.stats++ }
func (v *fakeView) SetSession(session, total time.Duration) { v.sessionD = session }

func (v *fakeView) ShowFrame(image.Image) error {
	v.frames++
	return nil
}

type fakeFeedback struct {
	lang  string
	muted bool
	mode  feedback.VoiceMode
}

func (f *fakeFeedback) SetLanguage(lang string)           { f.lang = lang }
func (f *fakeFeedback) Language() string                  { return f.lang }
func (f *fakeFeedback) SetMuted(flag bool)                { f.muted = flag }
func (f *fakeFeedback) Muted() bool                       { return f.muted }
func (f *fakeFeedback) SetVoiceMode(m feedback.VoiceMode) { f.mode = m }
func (f *fakeFeedback) VoiceMode() feedback.VoiceMode     { return f.mode }

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLoop(sess *fakeSession, view *fakeView, clock *testClock) (*Loop, *pipeline.Presentation) {
	out := pipeline.NewPresentation()
	l := NewLoop(out,
		NewSessionPresenter(model.NewSessionModel(), sess, view, 0),
		NewBannerPresenter(model.NewBannerModel(), view),
		NewRecentPresenter(model.NewRecentLog(30, 600*time.Millisecond), view),
		NewPreviewPresenter(model.NewFrameModel(), view, 0, nil),
	)
	l.Now = clock.Now
	return l, out
}

func TestLoop_RoutesMessages(t *testing.T) {
	sess := &fakeSession{running: true}
	view := &fakeView{}
	clock := &testClock{t: time.Unix(100, 0)}
	l, out := newTestLoop(sess, view, clock)

	out.Push(pipeline.Message{Kind: pipeline.KindBanner, Banner: feedback.Banner{Text: "GREEN", Tone: feedback.ToneGo}})
	out.Push(pipeline.Message{Kind: pipeline.KindBanner, Banner: feedback.Banner{Text: "RED", Tone: feedback.ToneStop}})
	out.Push(pipeline.Message{Kind: pipeline.KindLogLine, Text: "Detected: RED"})
	out.Push(pipeline.Message{Kind: pipeline.KindLogLine, Text: "Detected: STOP"})
	out.Push(pipeline.Message{Kind: pipeline.KindImage, Image: image.NewRGBA(image.Rect(0, 0, 4, 4)), Sequence: 1})
	l.Tick()

	// only the newest queued banner reaches the view
	if len(view.banners) != 1 || view.banners[0].Text != "RED" {
		t.Fatalf("banners = %+v", view.banners)
	}
	if len(view.recent) != 1 || view.recent[0].Text != "Detected: RED" {
		t.Fatalf("recent = %+v", view.recent)
	}
	if view.frames != 1 {
		t.Fatalf("frames = %d", view.frames)
	}
	if out.Len() != 0 {
		t.Fatalf("presentation not drained: %d left", out.Len())
	}

	clock.Advance(700 * time.Millisecond)
	out.Push(pipeline.Message{Kind: pipeline.KindLogLine, Text: "Detected: STOP"})
	l.Tick()
	if len(view.recent) != 2 {
		t.Fatalf("line after throttle window dropped: %+v", view.recent)
	}
	if view.sessionD != 700*time.Millisecond {
		t.Fatalf("session duration = %v", view.sessionD)
	}
}

func TestLoop_StopShowsStoppedBanner(t *testing.T) {
	sess := &fakeSession{running: true}
	view := &fakeView{}
	clock := &testClock{t: time.Unix(0, 0)}
	l, _ := newTestLoop(sess, view, clock)
	l.Tick()
	sess.running = false
	clock.Advance(time.Second)
	l.Tick()
	last := view.banners[len(view.banners)-1]
	if last.Text != model.StoppedText {
		t.Fatalf("last banner = %+v", last)
	}
	if view.stats != 1 {
		t.Fatalf("stats shown %d times, want 1 at stop", view.stats)
	}
}

func TestPreview_SkipsRepeatsAndHonorsInterval(t *testing.T) {
	view := &fakeView{}
	p := NewPreviewPresenter(model.NewFrameModel(), view, time.Second, nil)
	now := time.Unix(0, 0)
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	p.OnImage(img, 1, now)
	p.Tick(now)
	p.Tick(now.Add(2 * time.Second))
	p.OnImage(img, 2, now)
	p.Tick(now.Add(2500 * time.Millisecond))
	p.OnImage(img, 3, now)
	p.Tick(now.Add(3 * time.Second))
	if view.frames != 2 {
		t.Fatalf("frames shown = %d, want 2", view.frames)
	}
}

func TestControl_EnableDisable(t *testing.T) {
	sess := &fakeSession{}
	view := &fakeView{}
	c := NewControlPresenter(sess, view)
	if err := c.Enable(context.Background()); err != nil {
		t.Fatalf("enable: %v", err)
	}
	_ = c.Enable(context.Background())
	if sess.starts != 1 || view.resets != 1 {
		t.Fatalf("starts=%d resets=%d", sess.starts, view.resets)
	}
	if err := c.Toggle(context.Background()); err != nil || sess.running {
		t.Fatalf("toggle should stop: err=%v running=%v", err, sess.running)
	}
	_ = c.Disable()
	if sess.stops != 1 {
		t.Fatalf("stops = %d", sess.stops)
	}
}

func TestControl_StartFailureShown(t *testing.T) {
	sess := &fakeSession{startErr: pipeline.ErrSourceOpen}
	view := &fakeView{}
	c := NewControlPresenter(sess, view)
	if err := c.Enable(context.Background()); !errors.Is(err, pipeline.ErrSourceOpen) {
		t.Fatalf("err = %v", err)
	}
	if len(view.errs) != 1 {
		t.Fatalf("error not shown")
	}
}

func TestCommands(t *testing.T) {
	sess := &fakeSession{}
	fb := &fakeFeedback{lang: "tl", mode: feedback.VoiceAI}
	cmds := NewCommands(NewControlPresenter(sess, &fakeView{}), fb)
	ctx := context.Background()

	cases := []struct {
		line string
		want string
	}{
		{"start", "started"},
		{"MUTE", "muted"},
		{"lang en", "language en"},
		{"voice mp3", "voice mp3"},
		{"status", "language=en voice=mp3 muted=true"},
		{"unmute", "unmuted"},
		{"stop", "stopped"},
	}
	for _, tc := range cases {
		got, err := cmds.Handle(ctx, tc.line)
		if err != nil || got != tc.want {
			t.Fatalf("%q: got %q err=%v, want %q", tc.line, got, err, tc.want)
		}
	}
	if sess.starts != 1 || sess.stops != 1 || fb.muted {
		t.Fatalf("session starts=%d stops=%d muted=%v", sess.starts, sess.stops, fb.muted)
	}
	if _, err := cmds.Handle(ctx, "lang fr"); err == nil {
		t.Fatalf("expected usage error")
	}
	if _, err := cmds.Handle(ctx, "dance"); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if _, err := cmds.Handle(ctx, "quit"); !errors.Is(err, ErrQuit) {
		t.Fatalf("quit err = %v", err)
	}
}
