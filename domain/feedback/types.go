package feedback

import (
	"errors"
	"strings"
)

var (
	// ErrBackendUnavailable is returned when a backend failed its capability probe.
	ErrBackendUnavailable = errors.New("feedback backend unavailable")
	// ErrClipMissing is returned when no clip file exists for a label in the current language.
	ErrClipMissing = errors.New("clip missing")
	// ErrMuted is returned when a backend rejects work because it is muted.
	ErrMuted = errors.New("feedback backend muted")
)

// Tone is the color-coded style of a banner.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneStop
	ToneCaution
	ToneGo
)

func (t Tone) String() string {
	switch t {
	case ToneStop:
		return "stop"
	case ToneCaution:
		return "caution"
	case ToneGo:
		return "go"
	default:
		return "neutral"
	}
}

// Color returns the banner foreground color as a hex triplet.
func (t Tone) Color() string {
	switch t {
	case ToneStop:
		return "#ff4d4d"
	case ToneCaution:
		return "#ffd166"
	case ToneGo:
		return "#00ff9c"
	default:
		return "#e6e6e6"
	}
}

// ToneFor selects the banner tone from the label identity.
func ToneFor(label string) Tone {
	switch label {
	case "red":
		return ToneStop
	case "yellow":
		return ToneCaution
	case "green":
		return ToneGo
	default:
		return ToneNeutral
	}
}

// Banner is the visual alert shown alongside (or instead of) audio.
type Banner struct {
	Label string
	Text  string
	Tone  Tone
}

// RenderResult distinguishes the outcomes of one best-effort render.
type RenderResult int

const (
	Rendered RenderResult = iota
	RenderUnavailable
	RenderFailed
)

func (r RenderResult) String() string {
	switch r {
	case Rendered:
		return "rendered"
	case RenderUnavailable:
		return "unavailable"
	case RenderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Backend identifies which audio path handled a dispatch.
type Backend int

const (
	BackendNone Backend = iota
	BackendSpeech
	BackendClip
)

func (b Backend) String() string {
	switch b {
	case BackendSpeech:
		return "speech"
	case BackendClip:
		return "clip"
	default:
		return "none"
	}
}

// VoiceMode selects the preferred audio backend.
type VoiceMode string

const (
	// VoiceAI uses the speech synthesizer.
	VoiceAI VoiceMode = "ai"
	// VoiceClip uses prerecorded clips and falls back to the synthesizer.
	VoiceClip VoiceMode = "mp3"
)

// ParseVoiceMode maps a config value to a VoiceMode, defaulting to VoiceAI.
func ParseVoiceMode(s string) VoiceMode {
	if VoiceMode(strings.ToLower(strings.TrimSpace(s))) == VoiceClip {
		return VoiceClip
	}
	return VoiceAI
}

// ResultObserver receives every render outcome. Implementations must be safe
// for concurrent use since each backend worker reports from its own goroutine.
type ResultObserver interface {
	ObserveRender(backend Backend, result RenderResult)
}
