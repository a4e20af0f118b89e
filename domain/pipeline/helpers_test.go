package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detection"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/source"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/emitter"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []string
	banners    []string
}

func (f *fakeDispatcher) Dispatch(label string) feedback.Result {
	b := f.ShowBanner(label)
	f.mu.Lock()
	f.dispatched = append(f.dispatched, label)
	f.mu.Unlock()
	return feedback.Result{Label: label, Phrase: label + "!", Banner: b, Backend: feedback.BackendSpeech}
}

func (f *fakeDispatcher) ShowBanner(label string) feedback.Banner {
	f.mu.Lock()
	f.banners = append(f.banners, label)
	f.mu.Unlock()
	return feedback.Banner{Label: label, Text: strings.ToUpper(label), Tone: feedback.ToneFor(label)}
}

func (f *fakeDispatcher) Dispatched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.dispatched...)
}

type recordingObserver struct {
	mu      sync.Mutex
	blocked map[string]int
	winners []string
	errors  int
	frames  int
	sent    []string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{blocked: map[string]int{}}
}

func (o *recordingObserver) ObserveFrame(time.Duration) {
	o.mu.Lock()
	o.frames++
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveDetectorError() {
	o.mu.Lock()
	o.errors++
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveDetections(string, int) {}

func (o *recordingObserver) ObserveWinner(label string) {
	o.mu.Lock()
	o.winners = append(o.winners, label)
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveHysteresisOverride() {}

func (o *recordingObserver) ObserveBlocked(gate string) {
	o.mu.Lock()
	o.blocked[gate]++
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveDispatch(label, backend string) {
	o.mu.Lock()
	o.sent = append(o.sent, label+"/"+backend)
	o.mu.Unlock()
}

type recordingAlerts struct {
	alerts []emitter.Alert
}

func (r *recordingAlerts) Publish(a emitter.Alert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

// scriptedDetector returns script[i] on the i-th call and an error for calls
// listed in fail. Calls past the script return no detections.
type scriptedDetector struct {
	mu     sync.Mutex
	script [][]detection.Detection
	fail   map[int]bool
	calls  int
}

func (d *scriptedDetector) Predict(ctx context.Context, _ source.Frame) ([]detection.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.calls
	d.calls++
	if d.fail[i] {
		return nil, errors.New("inference failed")
	}
	if i < len(d.script) {
		return d.script[i], nil
	}
	return nil, nil
}

func (d *scriptedDetector) Close() error { return nil }

type failingSource struct{}

func (failingSource) Open() error                      { return errors.New("no camera") }
func (failingSource) ReadFrame() (source.Frame, error) { return source.Frame{}, source.ErrNoFrame }
func (failingSource) Close() error                     { return nil }

func red(conf float64) detection.Detection {
	return detection.Detection{Label: "red", Confidence: conf, Box: detection.Box{X1: 10, Y1: 10, X2: 50, Y2: 90}}
}

// e2eConfig makes red stable after two frames with a one second cooldown.
func e2eConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.ClassStableFrames["red"] = 2
	cfg.ClassCooldownsMs["red"] = 1000
	cfg.MaxEventsPerClass = config.Unlimited
	cfg.AlwaysUpdateBanner = false
	return cfg
}

// e2eScript is ten frames of red: 0.9 for the first two, 0.7 afterwards.
func e2eScript() [][]detection.Detection {
	script := make([][]detection.Detection, 10)
	for i := range script {
		conf := 0.7
		if i < 2 {
			conf = 0.9
		}
		script[i] = []detection.Detection{red(conf)}
	}
	return script
}

// stepClock returns a clock that advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	base := time.Unix(1_700_000_000, 0)
	n := -1
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		n++
		return base.Add(time.Duration(n) * step)
	}
}

func drain(t *testing.T, out *Presentation) []Message {
	t.Helper()
	var msgs []Message
	for {
		m, ok := out.TryPop()
		if !ok {
			return msgs
		}
		msgs = append(msgs, m)
	}
}

// stuckDetector blocks its first call until release is closed, ignoring ctx.
type stuckDetector struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStuckDetector() *stuckDetector {
	return &stuckDetector{entered: make(chan struct{}), release: make(chan struct{})}
}

func (d *stuckDetector) Predict(context.Context, source.Frame) ([]detection.Detection, error) {
	first := false
	d.once.Do(func() { first = true })
	if first {
		close(d.entered)
		<-d.release
	}
	return nil, nil
}

func (d *stuckDetector) Close() error { return nil }
