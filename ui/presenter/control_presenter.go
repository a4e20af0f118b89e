package presenter

import (
	"context"
	"errors"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/pipeline"
)

// SessionControl narrows what the presenter needs from the detection session.
type SessionControl interface {
	Start(ctx context.Context) error
	Stop() error
	Running() bool
}

var _ SessionControl = (*pipeline.Session)(nil)

// FeedbackControl is the runtime-adjustable part of the dispatcher.
type FeedbackControl interface {
	SetLanguage(lang string)
	Language() string
	SetMuted(flag bool)
	Muted() bool
	SetVoiceMode(m feedback.VoiceMode)
	VoiceMode() feedback.VoiceMode
}

var _ FeedbackControl = (*feedback.Dispatcher)(nil)

// ControlView updates the surfaces affected by starting or stopping a session.
type ControlView interface {
	PreviewReset()
	ShowError(err error)
}

// ControlPresenter coordinates starting and stopping the detection session.
type ControlPresenter struct {
	session SessionControl
	view    ControlView
}

func NewControlPresenter(session SessionControl, view ControlView) *ControlPresenter {
	return &ControlPresenter{session: session, view: view}
}

// Enable starts a session. Idempotent; a source-open failure is shown and returned.
func (c *ControlPresenter) Enable(ctx context.Context) error {
	if c == nil || c.session == nil {
		return nil
	}
	if c.session.Running() {
		return nil
	}
	if c.view != nil {
		c.view.PreviewReset()
	}
	if err := c.session.Start(ctx); err != nil && !errors.Is(err, pipeline.ErrAlreadyRunning) {
		if c.view != nil {
			c.view.ShowError(err)
		}
		return err
	}
	return nil
}

// Disable stops the running session. Idempotent.
func (c *ControlPresenter) Disable() error {
	if c == nil || c.session == nil || !c.session.Running() {
		return nil
	}
	err := c.session.Stop()
	if err != nil && c.view != nil {
		c.view.ShowError(err)
	}
	return err
}

// Toggle flips the session state delegating to Enable/Disable.
func (c *ControlPresenter) Toggle(ctx context.Context) error {
	if c == nil || c.session == nil {
		return nil
	}
	if c.session.Running() {
		return c.Disable()
	}
	return c.Enable(ctx)
}
