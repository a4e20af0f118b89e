package feedback

import (
	"strings"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/assets"
)

// PhraseBook resolves localized spoken phrases and banner texts for labels.
// It is read-only after construction.
type PhraseBook struct {
	banners map[string]string
	spoken  map[string]map[string]string
}

// NewPhraseBook builds a phrase book from decoded phrases. A nil argument gives
// an empty book where every lookup falls back to the label itself.
func NewPhraseBook(p *assets.Phrases) *PhraseBook {
	b := &PhraseBook{banners: map[string]string{}, spoken: map[string]map[string]string{}}
	if p == nil {
		return b
	}
	for k, v := range p.Banners {
		b.banners[k] = v
	}
	for lang, m := range p.Spoken {
		cp := make(map[string]string, len(m))
		for k, v := range m {
			cp[k] = v
		}
		b.spoken[lang] = cp
	}
	return b
}

// DefaultPhraseBook returns the embedded phrase book.
func DefaultPhraseBook() (*PhraseBook, error) {
	p, err := assets.DefaultPhrases()
	if err != nil {
		return nil, err
	}
	return NewPhraseBook(p), nil
}

// Phrase returns the spoken phrase for label in lang, or the label itself.
func (b *PhraseBook) Phrase(lang, label string) string {
	if b != nil {
		if v, ok := b.spoken[lang][label]; ok && v != "" {
			return v
		}
	}
	return label
}

// Banner returns the banner for label. Unknown labels use the upper-cased label.
func (b *PhraseBook) Banner(label string) Banner {
	text := strings.ToUpper(label)
	if b != nil {
		if v, ok := b.banners[label]; ok && v != "" {
			text = v
		}
	}
	return Banner{Label: label, Text: text, Tone: ToneFor(label)}
}
