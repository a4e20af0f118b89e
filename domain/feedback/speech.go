package feedback

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// SpeechOptions parameterizes the synthesizer invocation.
type SpeechOptions struct {
	Binary    string
	Voices    map[string]string // language -> voice
	RateWPM   int
	Amplitude int
	Language  string
}

type utterance struct {
	lang string
	text string
}

// SpeechBackend queues phrases for an external text-to-speech process and
// renders them one after another on its own goroutine.
type SpeechBackend struct {
	opts      SpeechOptions
	runner    CommandRunner
	logger    *slog.Logger
	observer  ResultObserver
	available bool
	reason    string

	mu     sync.RWMutex
	lang   string
	voices map[string]string
	muted  atomic.Bool

	w *worker[utterance]
}

// NewSpeechBackend probes for the synthesizer binary and returns a backend
// whose worker is not yet started.
func NewSpeechBackend(opts SpeechOptions, runner CommandRunner, logger *slog.Logger) *SpeechBackend {
	if runner == nil {
		runner = ExecRunner{}
	}
	if opts.Binary == "" {
		opts.Binary = "espeak-ng"
	}
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	voices := make(map[string]string, len(opts.Voices))
	for k, v := range opts.Voices {
		voices[k] = v
	}
	s := &SpeechBackend{opts: opts, runner: runner, logger: logger, lang: lang, voices: voices, w: newWorker[utterance]("speech", logger)}
	if path, err := runner.LookPath(opts.Binary); err != nil {
		s.reason = "synthesizer not found: " + err.Error()
	} else {
		s.available = true
		s.reason = "synthesizer at " + path
	}
	if logger != nil {
		if s.available {
			logger.Info("speech backend ready", "reason", s.reason)
		} else {
			logger.Warn("speech backend unavailable", "reason", s.reason)
		}
	}
	return s
}

// SetObserver installs a render observer. Call before Start.
func (s *SpeechBackend) SetObserver(o ResultObserver) {
	if s != nil {
		s.observer = o
	}
}

// Start launches the consumer goroutine.
func (s *SpeechBackend) Start() {
	if s == nil {
		return
	}
	s.w.start(s.render)
}

// Stop signals the worker to exit without finishing queued phrases.
func (s *SpeechBackend) Stop() {
	if s != nil {
		s.w.stop()
	}
}

// Wait blocks until the worker exited or timeout elapsed.
func (s *SpeechBackend) Wait(timeout time.Duration) bool {
	if s == nil {
		return true
	}
	return s.w.wait(timeout)
}

// Available reports the result of the capability probe.
func (s *SpeechBackend) Available() bool { return s != nil && s.available }

// Reason describes why the backend is or is not available.
func (s *SpeechBackend) Reason() string {
	if s == nil {
		return "no speech backend"
	}
	return s.reason
}

// Pending returns the number of queued utterances.
func (s *SpeechBackend) Pending() int {
	if s == nil {
		return 0
	}
	return s.w.q.Len()
}

// SetLanguage switches the language used for subsequently queued phrases.
// A non-empty voice replaces the configured voice for that language.
func (s *SpeechBackend) SetLanguage(lang, voice string) {
	if s == nil {
		return
	}
	if lang == "" {
		lang = "en"
	}
	s.mu.Lock()
	s.lang = lang
	if voice != "" {
		s.voices[lang] = voice
	}
	s.mu.Unlock()
}

// Language returns the current language.
func (s *SpeechBackend) Language() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// Mute toggles whether new phrases are accepted. Queued phrases are kept.
func (s *SpeechBackend) Mute(flag bool) {
	if s != nil {
		s.muted.Store(flag)
	}
}

// Speak enqueues text repeat times (at least once). It returns false when the
// text is empty or the backend is muted or unavailable.
func (s *SpeechBackend) Speak(text string, repeat int) bool {
	if s == nil || text == "" || s.muted.Load() || !s.available {
		return false
	}
	lang := s.Language()
	for i := 0; i < max(1, repeat); i++ {
		s.w.q.Push(utterance{lang: lang, text: text})
	}
	return true
}

// Say speaks text once.
func (s *SpeechBackend) Say(text string) bool { return s.Speak(text, 1) }

func (s *SpeechBackend) voiceFor(lang string) string {
	s.mu.RLock()
	v := s.voices[lang]
	s.mu.RUnlock()
	if v != "" {
		return v
	}
	if lang == "tl" {
		return "tl"
	}
	return "en"
}

// args builds the synthesizer command line for u.
func (s *SpeechBackend) args(u utterance) []string {
	var args []string
	if v := s.voiceFor(u.lang); v != "" {
		args = append(args, "-v", v)
	}
	if s.opts.RateWPM > 0 {
		args = append(args, "-s", strconv.Itoa(s.opts.RateWPM))
	}
	if s.opts.Amplitude > 0 {
		args = append(args, "-a", strconv.Itoa(s.opts.Amplitude))
	}
	return append(args, u.text)
}

func (s *SpeechBackend) render(ctx context.Context, u utterance) {
	res := classify(s.runner.Run(ctx, s.opts.Binary, s.args(u)...))
	if s.logger != nil {
		s.logger.Debug("speech rendered", "lang", u.lang, "result", res.String())
	}
	if s.observer != nil {
		s.observer.ObserveRender(BackendSpeech, res)
	}
}
