package feedback

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// SpeechSink is the synthesized-speech side of the dispatcher.
type SpeechSink interface {
	Available() bool
	Speak(text string, repeat int) bool
	SetLanguage(lang, voice string)
	Mute(flag bool)
}

// ClipSink is the prerecorded-clip side of the dispatcher.
type ClipSink interface {
	Available() bool
	Enqueue(label string, repeat int) error
	SetLanguage(lang string)
	Mute(flag bool)
}

// BannerSink receives every banner the dispatcher produces.
type BannerSink interface {
	ShowBanner(Banner)
}

var (
	_ SpeechSink = (*SpeechBackend)(nil)
	_ ClipSink   = (*ClipBackend)(nil)
)

// DispatcherOptions holds the initial dispatcher settings.
type DispatcherOptions struct {
	Language     string
	Mode         VoiceMode
	Muted        bool
	SpeechRepeat int
	ClipRepeat   int
}

// Result describes what one dispatch did.
type Result struct {
	Label   string
	Phrase  string
	Banner  Banner
	Backend Backend
	// ClipErr is set when clip mode was selected but the clip could not be queued.
	ClipErr error
}

// Dispatcher turns an actionable label into a banner plus one queued audio
// rendering. Clip mode prefers the clip backend and falls back to speech.
type Dispatcher struct {
	book    *PhraseBook
	speech  SpeechSink
	clips   ClipSink
	banners BannerSink
	logger  *slog.Logger

	mu           sync.RWMutex
	lang         string
	mode         VoiceMode
	speechRepeat int
	clipRepeat   int
	muted        atomic.Bool
}

// NewDispatcher wires the backends together and propagates the initial
// language and mute state to both of them.
func NewDispatcher(book *PhraseBook, speech SpeechSink, clips ClipSink, banners BannerSink, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if book == nil {
		book = NewPhraseBook(nil)
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Mode == "" {
		opts.Mode = VoiceAI
	}
	d := &Dispatcher{
		book:         book,
		speech:       speech,
		clips:        clips,
		banners:      banners,
		logger:       logger,
		mode:         opts.Mode,
		speechRepeat: max(1, opts.SpeechRepeat),
		clipRepeat:   max(1, opts.ClipRepeat),
	}
	d.SetLanguage(opts.Language)
	d.SetMuted(opts.Muted)
	return d
}

// SetLanguage switches phrase lookup and both backends to lang.
func (d *Dispatcher) SetLanguage(lang string) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.lang = lang
	d.mu.Unlock()
	if d.speech != nil {
		d.speech.SetLanguage(lang, "")
	}
	if d.clips != nil {
		d.clips.SetLanguage(lang)
	}
}

// Language returns the active language code.
func (d *Dispatcher) Language() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lang
}

// SetVoiceMode selects which backend is preferred for later dispatches.
func (d *Dispatcher) SetVoiceMode(m VoiceMode) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
}

// VoiceMode returns the preferred backend mode.
func (d *Dispatcher) VoiceMode() VoiceMode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// SetMuted toggles the global mute and forwards it to both backends.
// Already queued audio is not cleared.
func (d *Dispatcher) SetMuted(flag bool) {
	if d == nil {
		return
	}
	d.muted.Store(flag)
	if d.speech != nil {
		d.speech.Mute(flag)
	}
	if d.clips != nil {
		d.clips.Mute(flag)
	}
}

// Muted reports the global mute flag.
func (d *Dispatcher) Muted() bool { return d != nil && d.muted.Load() }

// ShowBanner pushes the banner for label without any audio.
func (d *Dispatcher) ShowBanner(label string) Banner {
	b := d.book.Banner(label)
	if d.banners != nil {
		d.banners.ShowBanner(b)
	}
	return b
}

// Dispatch renders label's banner and queues its phrase on exactly one backend.
func (d *Dispatcher) Dispatch(label string) Result {
	d.mu.RLock()
	lang, mode := d.lang, d.mode
	speechRepeat, clipRepeat := d.speechRepeat, d.clipRepeat
	d.mu.RUnlock()

	res := Result{Label: label, Phrase: d.book.Phrase(lang, label)}
	res.Banner = d.ShowBanner(label)
	if d.muted.Load() {
		return res
	}
	if mode == VoiceClip && d.clips != nil && d.clips.Available() {
		err := d.clips.Enqueue(label, clipRepeat)
		if err == nil {
			res.Backend = BackendClip
			d.logDispatch(res)
			return res
		}
		res.ClipErr = err
		if d.logger != nil {
			d.logger.Debug("clip rejected, falling back to speech", "label", label, "error", err)
		}
	}
	if d.speech != nil && d.speech.Speak(res.Phrase, speechRepeat) {
		res.Backend = BackendSpeech
	}
	d.logDispatch(res)
	return res
}

func (d *Dispatcher) logDispatch(res Result) {
	if d.logger == nil {
		return
	}
	d.logger.Info("alert dispatched", "label", res.Label, "backend", res.Backend.String(), "banner", res.Banner.Text)
}
