package assets

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// PhrasesYAML contains the raw bytes of the bundled phrase book.
//
//go:embed phrases.yaml
var PhrasesYAML []byte

// Phrases is the decoded phrase book.
type Phrases struct {
	Banners map[string]string            `yaml:"banners"`
	Spoken  map[string]map[string]string `yaml:"spoken"` // language -> label -> phrase
}

// ParsePhrases decodes a phrase book in the bundled YAML layout.
func ParsePhrases(data []byte) (*Phrases, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("phrase book is empty")
	}
	var p Phrases
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode phrase book: %w", err)
	}
	return &p, nil
}

// DefaultPhrases decodes the embedded phrase book.
func DefaultPhrases() (*Phrases, error) {
	return ParsePhrases(PhrasesYAML)
}
