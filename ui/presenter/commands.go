package presenter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
)

// ErrQuit is returned by Handle for the quit command.
var ErrQuit = errors.New("quit requested")

// Commands interprets console command lines against the session and dispatcher.
type Commands struct {
	control  *ControlPresenter
	feedback FeedbackControl
}

func NewCommands(control *ControlPresenter, fb FeedbackControl) *Commands {
	return &Commands{control: control, feedback: fb}
}

// Handle executes one command line and returns a short confirmation.
// Recognized: start, stop, toggle, mute, unmute, lang <en|tl>, voice <ai|mp3>, status, quit.
func (c *Commands) Handle(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return "", nil
	}
	switch fields[0] {
	case "start":
		return "started", c.control.Enable(ctx)
	case "stop":
		return "stopped", c.control.Disable()
	case "toggle":
		return "toggled", c.control.Toggle(ctx)
	case "mute", "unmute":
		if c.feedback == nil {
			return "", errors.New("feedback unavailable")
		}
		c.feedback.SetMuted(fields[0] == "mute")
		return fields[0] + "d", nil
	case "lang", "language":
		if len(fields) < 2 || (fields[1] != "en" && fields[1] != "tl") {
			return "", fmt.Errorf("usage: lang <en|tl>")
		}
		if c.feedback == nil {
			return "", errors.New("feedback unavailable")
		}
		c.feedback.SetLanguage(fields[1])
		return "language " + fields[1], nil
	case "voice":
		if len(fields) < 2 {
			return "", fmt.Errorf("usage: voice <ai|mp3>")
		}
		if c.feedback == nil {
			return "", errors.New("feedback unavailable")
		}
		mode := feedback.ParseVoiceMode(fields[1])
		c.feedback.SetVoiceMode(mode)
		return "voice " + string(mode), nil
	case "status":
		if c.feedback == nil {
			return "", errors.New("feedback unavailable")
		}
		return fmt.Sprintf("language=%s voice=%s muted=%v", c.feedback.Language(), c.feedback.VoiceMode(), c.feedback.Muted()), nil
	case "quit", "exit":
		return "", ErrQuit
	default:
		return "", fmt.Errorf("unknown command %q", fields[0])
	}
}
