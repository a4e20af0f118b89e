package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detector"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/pipeline"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/source"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/emitter"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/metrics"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/model"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/presenter"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/ui/view"
)

var _ pipeline.Observer = (*metrics.Metrics)(nil)

const (
	backendJoinTimeout = time.Second
	statsInterval      = 30 * time.Second
)

// Overrides replaces collaborators that normally come from the config.
// Zero fields use the configured implementation.
type Overrides struct {
	Runner   feedback.CommandRunner
	Source   source.Source
	Detector detector.Detector
	Console  io.Writer
}

// Container assembles backends, the pipeline, presenters and views.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	Metrics      *metrics.Metrics
	Speech       *feedback.SpeechBackend
	Clips        *feedback.ClipBackend
	Dispatcher   *feedback.Dispatcher
	Presentation *pipeline.Presentation
	Pipeline     *pipeline.Pipeline
	Session      *pipeline.Session
	Source       source.Source
	Detector     detector.Detector
	Emitter      *emitter.MQTTEmitter

	Console  *view.Console
	Preview  *view.PNGPreview
	Control  *presenter.ControlPresenter
	Commands *presenter.Commands
	Loop     *presenter.Loop
}

// BuildContainer constructs all components. Backend workers, the session and
// the MQTT connection are not started; see App.Run.
func BuildContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, ov Overrides) (*Container, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{Config: cfg, Logger: logger, Metrics: metrics.New()}

	book, err := feedback.DefaultPhraseBook()
	if err != nil {
		return nil, fmt.Errorf("load phrases: %w", err)
	}
	c.Speech = feedback.NewSpeechBackend(feedback.SpeechOptions{
		Binary:    cfg.Speech.Binary,
		Voices:    cfg.Speech.Voices,
		RateWPM:   cfg.Speech.RateWPM,
		Amplitude: cfg.Speech.Amplitude,
		Language:  cfg.Language,
	}, ov.Runner, logger)
	c.Clips = feedback.NewClipBackend(feedback.ClipOptions{
		Player:     cfg.Clips.Player,
		PlayerArgs: cfg.Clips.PlayerArgs,
		Paths:      cfg.Clips.Paths,
		RepeatGap:  cfg.ClipRepeatGap(),
		Language:   cfg.Language,
	}, ov.Runner, logger)
	c.Speech.SetObserver(c.Metrics)
	c.Clips.SetObserver(c.Metrics)
	c.Metrics.RegisterQueueDepth(feedback.BackendSpeech.String(), c.Speech.Pending)
	c.Metrics.RegisterQueueDepth(feedback.BackendClip.String(), c.Clips.Pending)

	c.Presentation = pipeline.NewPresentation()
	c.Dispatcher = feedback.NewDispatcher(book, c.Speech, c.Clips, pipeline.BannerQueue{Out: c.Presentation}, feedback.DispatcherOptions{
		Language:     cfg.Language,
		Mode:         feedback.ParseVoiceMode(cfg.VoiceMode),
		Muted:        cfg.Muted,
		SpeechRepeat: cfg.SpeechRepeat,
		ClipRepeat:   cfg.Clips.Repeat,
	}, logger)

	c.Pipeline = pipeline.New(cfg, c.Dispatcher, c.Presentation, logger)
	if cfg.MQTT.Enabled {
		c.Emitter = emitter.NewMQTTEmitter(cfg.MQTT, logger)
		c.Pipeline.SetAlerts(c.Emitter)
	}

	c.Source = ov.Source
	if c.Source == nil {
		if c.Source, err = source.New(cfg.Source); err != nil {
			return nil, fmt.Errorf("frame source: %w", err)
		}
	}
	c.Detector = ov.Detector
	if c.Detector == nil {
		if c.Detector, err = detector.New(ctx, cfg.Detector, logger); err != nil {
			return nil, fmt.Errorf("detector: %w", err)
		}
	}
	c.Session = pipeline.NewSession(c.Pipeline, c.Source, c.Detector, c.Presentation, pipeline.SessionOptions{
		FPS:       cfg.Source.FPS,
		DrawBoxes: cfg.DrawBoxes,
	}, logger)
	c.Session.SetObserver(c.Metrics)

	out := ov.Console
	if out == nil {
		out = os.Stdout
	}
	c.Console = view.NewConsole(out)
	var preview presenter.PreviewView
	if cfg.PreviewPath != "" {
		c.Preview = view.NewPNGPreview(cfg.PreviewPath, cfg.PreviewMaxWidth, cfg.PreviewMaxHeight)
		preview = c.Preview
	}

	c.Control = presenter.NewControlPresenter(c.Session, c.Console)
	c.Commands = presenter.NewCommands(c.Control, c.Dispatcher)
	c.Loop = presenter.NewLoop(c.Presentation,
		presenter.NewSessionPresenter(model.NewSessionModel(), c.Session, c.Console, statsInterval),
		presenter.NewBannerPresenter(model.NewBannerModel(), c.Console),
		presenter.NewRecentPresenter(model.NewRecentLog(cfg.RecentLimit, time.Duration(cfg.RecentThrottleMs)*time.Millisecond), c.Console),
		presenter.NewPreviewPresenter(model.NewFrameModel(), preview, time.Duration(cfg.PreviewIntervalMs)*time.Millisecond, logger),
	)
	return c, nil
}

// Close stops the session and both backends, then releases the detector and
// the broker connection. Queued audio is abandoned.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if err := c.Session.Stop(); err != nil {
		firstErr = err
	}
	c.Speech.Stop()
	c.Clips.Stop()
	if !c.Speech.Wait(backendJoinTimeout) {
		c.Logger.Warn("speech worker did not exit in time")
	}
	if !c.Clips.Wait(backendJoinTimeout) {
		c.Logger.Warn("clip worker did not exit in time")
	}
	if c.Detector != nil {
		if err := c.Detector.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close detector: %w", err)
		}
	}
	c.Emitter.Disconnect()
	return firstErr
}
