package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detection"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/gate"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/emitter"
)

var _ gate.Rules = (*config.Config)(nil)

// Dispatcher is the feedback side of the pipeline.
type Dispatcher interface {
	Dispatch(label string) feedback.Result
	ShowBanner(label string) feedback.Banner
}

var _ Dispatcher = (*feedback.Dispatcher)(nil)

// AlertPublisher receives every dispatched alert. Publish must not block.
type AlertPublisher interface {
	Publish(emitter.Alert) error
}

var _ AlertPublisher = (*emitter.MQTTEmitter)(nil)

// Observer is notified of per-frame pipeline activity.
type Observer interface {
	ObserveFrame(d time.Duration)
	ObserveDetectorError()
	ObserveDetections(stage string, n int)
	ObserveWinner(label string)
	ObserveHysteresisOverride()
	ObserveBlocked(gate string)
	ObserveDispatch(label, backend string)
}

type nopObserver struct{}

func (nopObserver) ObserveFrame(time.Duration)     {}
func (nopObserver) ObserveDetectorError()          {}
func (nopObserver) ObserveDetections(string, int)  {}
func (nopObserver) ObserveWinner(string)           {}
func (nopObserver) ObserveHysteresisOverride()     {}
func (nopObserver) ObserveBlocked(string)          {}
func (nopObserver) ObserveDispatch(string, string) {}

// Outcome summarizes one Process call.
type Outcome struct {
	Raw      int
	Kept     int
	Winner   string
	Decision gate.Decision
	// Dispatched is true when Decision was actionable and Result holds the dispatch.
	Dispatched bool
	Result     feedback.Result
}

// Pipeline runs one frame's detections through every decision stage. It is
// owned by a single goroutine; none of its methods are safe for concurrent use.
type Pipeline struct {
	cfg        *config.Config
	tracker    *gate.Tracker
	arbiter    detection.Arbiter
	dispatcher Dispatcher
	out        *Presentation
	obs        Observer
	alerts     AlertPublisher
	logger     *slog.Logger
	sessionID  string
}

func New(cfg *config.Config, dispatcher Dispatcher, out *Presentation, logger *slog.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		tracker:    gate.NewTracker(cfg),
		arbiter:    detection.Arbiter{Exclusive: cfg.ExclusiveSet, Priority: cfg.Priority},
		dispatcher: dispatcher,
		out:        out,
		obs:        nopObserver{},
		logger:     logger,
	}
}

// SetObserver installs o; nil restores the no-op observer.
func (p *Pipeline) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	p.obs = o
}

func (p *Pipeline) SetAlerts(a AlertPublisher) { p.alerts = a }

// Reset clears all cross-frame gate state and tags later alerts with sessionID.
func (p *Pipeline) Reset(sessionID string) {
	p.tracker.Reset()
	p.sessionID = sessionID
}

func (p *Pipeline) Tracker() *gate.Tracker { return p.tracker }

// Process runs dets through dedup, conflict resolution, thresholding,
// arbitration and the temporal gates, dispatching when the winner is actionable.
// A frame without a winner leaves all gate state untouched.
func (p *Pipeline) Process(dets []detection.Detection, now time.Time) Outcome {
	out := Outcome{Raw: len(dets)}
	p.obs.ObserveDetections("raw", out.Raw)
	if p.cfg.Debug && out.Raw > 0 {
		p.logLine(fmt.Sprintf("raw: %d detections", out.Raw), now)
	}

	dets = detection.Normalize(dets)
	dets = detection.Deduplicate(dets, p.cfg.DedupIoU)
	dets = detection.ResolveConflicts(dets, p.cfg.Exclusive, p.cfg.ConflictIoU)
	present := detection.PresentLabels(dets, p.cfg.Threshold)
	out.Kept = len(present)
	p.obs.ObserveDetections("kept", out.Kept)

	winner, ok := p.arbiter.Winner(present)
	if !ok {
		return out
	}
	dec := p.tracker.Evaluate(winner, now)
	out.Winner, out.Decision = winner, dec
	p.obs.ObserveWinner(dec.Label)
	if dec.Overridden {
		p.obs.ObserveHysteresisOverride()
	}
	if p.cfg.AlwaysUpdateBanner && p.dispatcher != nil {
		p.dispatcher.ShowBanner(dec.Label)
	}
	if !dec.Actionable() {
		p.obs.ObserveBlocked(dec.Stage.String())
		p.logger.Debug("pipeline.blocked", "label", dec.Label, "gate", dec.Stage.String(), "stable_count", dec.StableCount)
		return out
	}
	if p.dispatcher == nil {
		return out
	}

	res := p.dispatcher.Dispatch(dec.Label)
	out.Dispatched, out.Result = true, res
	p.obs.ObserveDispatch(dec.Label, res.Backend.String())
	p.logLine("Detected: "+strings.ToUpper(dec.Label), now)
	p.publish(res, now)
	return out
}

func (p *Pipeline) publish(res feedback.Result, now time.Time) {
	if p.alerts == nil {
		return
	}
	err := p.alerts.Publish(emitter.Alert{
		SessionID: p.sessionID,
		Label:     res.Label,
		Phrase:    res.Phrase,
		Banner:    res.Banner.Text,
		Tone:      res.Banner.Tone.String(),
		Backend:   res.Backend.String(),
		At:        now,
	})
	if err != nil {
		p.logger.Debug("alert publish skipped", "label", res.Label, "error", err)
	}
}

func (p *Pipeline) logLine(text string, now time.Time) {
	if p.out == nil {
		return
	}
	p.out.Push(Message{Kind: KindLogLine, Text: text, At: now})
}
