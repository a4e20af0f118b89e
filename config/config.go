package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Unlimited is the event cap sentinel meaning a class may be announced any number of times.
const Unlimited = -1

// Config holds runtime configuration for the detection pipeline and feedback backends.
// Fields may be loaded from a JSON or YAML file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug" yaml:"debug"`

	// Confidence gating
	ConfThreshold   float64            `json:"conf_threshold" yaml:"conf_threshold"`
	BaseConfidence  float64            `json:"base_confidence" yaml:"base_confidence"`
	ClassThresholds map[string]float64 `json:"class_thresholds" yaml:"class_thresholds"`

	// Temporal gating
	StableFrames      int            `json:"stable_frames" yaml:"stable_frames"`
	ClassStableFrames map[string]int `json:"class_stable_frames" yaml:"class_stable_frames"`
	StrictStability   bool           `json:"strict_stability" yaml:"strict_stability"`
	DefaultCooldownMs int            `json:"default_cooldown_ms" yaml:"default_cooldown_ms"`
	ClassCooldownsMs  map[string]int `json:"class_cooldowns_ms" yaml:"class_cooldowns_ms"`
	HysteresisMs      int            `json:"hysteresis_ms" yaml:"hysteresis_ms"`
	MaxEventsPerClass int            `json:"max_events_per_class" yaml:"max_events_per_class"` // -1 = unlimited
	ClassEventCaps    map[string]int `json:"class_event_caps" yaml:"class_event_caps"`

	// Arbitration. ExclusiveSet order is the tie-break order (red before yellow before green).
	ExclusiveSet []string `json:"exclusive_set" yaml:"exclusive_set"`
	Priority     []string `json:"priority" yaml:"priority"`
	DedupIoU     float64  `json:"dedup_iou" yaml:"dedup_iou"`
	ConflictIoU  float64  `json:"conflict_iou" yaml:"conflict_iou"`

	// Feedback
	Language           string       `json:"language" yaml:"language"`     // "en" or "tl"
	VoiceMode          string       `json:"voice_mode" yaml:"voice_mode"` // "ai" (espeak-ng) or "mp3"
	Muted              bool         `json:"muted" yaml:"muted"`
	AlwaysUpdateBanner bool         `json:"always_update_banner" yaml:"always_update_banner"`
	SpeechRepeat       int          `json:"speech_repeat" yaml:"speech_repeat"`
	Speech             SpeechConfig `json:"speech" yaml:"speech"`
	Clips              ClipConfig   `json:"clips" yaml:"clips"`

	// Presentation
	RecentLimit       int    `json:"recent_limit" yaml:"recent_limit"`
	RecentThrottleMs  int    `json:"recent_throttle_ms" yaml:"recent_throttle_ms"`
	PollIntervalMs    int    `json:"poll_interval_ms" yaml:"poll_interval_ms"`
	DrawBoxes         bool   `json:"draw_boxes" yaml:"draw_boxes"`
	PreviewPath       string `json:"preview_path" yaml:"preview_path"`
	PreviewMaxWidth   int    `json:"preview_max_width" yaml:"preview_max_width"`
	PreviewMaxHeight  int    `json:"preview_max_height" yaml:"preview_max_height"`
	PreviewIntervalMs int    `json:"preview_interval_ms" yaml:"preview_interval_ms"`

	Source   SourceConfig   `json:"source" yaml:"source"`
	Detector DetectorConfig `json:"detector" yaml:"detector"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	MQTT     MQTTConfig     `json:"mqtt" yaml:"mqtt"`
}

// SpeechConfig parameterizes the espeak-ng renderer.
type SpeechConfig struct {
	Binary    string            `json:"binary" yaml:"binary"`
	Voices    map[string]string `json:"voices" yaml:"voices"`
	RateWPM   int               `json:"rate_wpm" yaml:"rate_wpm"`
	Amplitude int               `json:"amplitude" yaml:"amplitude"`
}

// ClipConfig parameterizes prerecorded clip playback.
type ClipConfig struct {
	Player      string                       `json:"player" yaml:"player"`
	PlayerArgs  []string                     `json:"player_args" yaml:"player_args"`
	Paths       map[string]map[string]string `json:"paths" yaml:"paths"` // language -> label -> file
	Repeat      int                          `json:"repeat" yaml:"repeat"`
	RepeatGapMs int                          `json:"repeat_gap_ms" yaml:"repeat_gap_ms"`
}

// SourceConfig selects where frames come from.
type SourceConfig struct {
	Mode      string `json:"mode" yaml:"mode"` // "camera", "video" or "synthetic"
	CamIndex  int    `json:"cam_index" yaml:"cam_index"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
	VideoPath string `json:"video_path" yaml:"video_path"`
	LoopVideo bool   `json:"loop_video" yaml:"loop_video"`
	FPS       int    `json:"fps" yaml:"fps"`
	Frames    int    `json:"frames" yaml:"frames"` // synthetic only, 0 = endless
}

// DetectorConfig selects the detector implementation.
type DetectorConfig struct {
	Mode       string   `json:"mode" yaml:"mode"` // "process", "replay" or "none"
	Command    string   `json:"command" yaml:"command"`
	Args       []string `json:"args" yaml:"args"`
	ReplayPath string   `json:"replay_path" yaml:"replay_path"`
	TimeoutMs  int      `json:"timeout_ms" yaml:"timeout_ms"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// MQTTConfig controls alert publication.
type MQTTConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Broker      string `json:"broker" yaml:"broker"`
	ClientID    string `json:"client_id" yaml:"client_id"`
	TopicPrefix string `json:"topic_prefix" yaml:"topic_prefix"`
	QoS         byte   `json:"qos" yaml:"qos"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:          false,
		ConfThreshold:  0.50,
		BaseConfidence: 0.50,
		ClassThresholds: map[string]float64{
			"red":                 0.65,
			"yellow":              0.60,
			"green":               0.50,
			"no parking":          0.55,
			"no u turn":           0.60,
			"pedestrian crossing": 0.50,
			"stop":                0.60,
			"yield":               0.60,
		},
		StableFrames: 3,
		ClassStableFrames: map[string]int{
			"red":                 5,
			"yellow":              4,
			"green":               4,
			"no parking":          4,
			"no u turn":           2,
			"pedestrian crossing": 2,
			"stop":                3,
			"yield":               2,
		},
		StrictStability:   true,
		DefaultCooldownMs: 6000,
		ClassCooldownsMs: map[string]int{
			"red":                 30000,
			"yellow":              23000,
			"green":               23000,
			"no parking":          23000,
			"no u turn":           23000,
			"pedestrian crossing": 23000,
			"stop":                23000,
			"yield":               23000,
		},
		HysteresisMs:      1200,
		MaxEventsPerClass: Unlimited,
		ClassEventCaps:    map[string]int{},
		ExclusiveSet:      []string{"red", "yellow", "green"},
		Priority: []string{
			"red",
			"green",
			"yellow",
			"no u turn",
			"no parking",
			"yield",
			"stop",
			"pedestrian crossing",
		},
		DedupIoU:           0.50,
		ConflictIoU:        0.50,
		Language:           "tl",
		VoiceMode:          "ai",
		AlwaysUpdateBanner: true,
		SpeechRepeat:       2,
		Speech: SpeechConfig{
			Binary:    "espeak-ng",
			Voices:    map[string]string{"en": "en", "tl": "id"},
			RateWPM:   185,
			Amplitude: 140,
		},
		Clips: ClipConfig{
			Player:      "mpg123",
			PlayerArgs:  []string{"-q"},
			Paths:       defaultClipPaths(),
			Repeat:      2,
			RepeatGapMs: 800,
		},
		RecentLimit:       30,
		RecentThrottleMs:  600,
		PollIntervalMs:    60,
		DrawBoxes:         true,
		PreviewMaxWidth:   920,
		PreviewMaxHeight:  650,
		PreviewIntervalMs: 1000,
		Source: SourceConfig{
			Mode:   "camera",
			Width:  1280,
			Height: 720,
			FPS:    15,
		},
		Detector: DetectorConfig{
			Mode:      "none",
			TimeoutMs: 2000,
		},
		MQTT: MQTTConfig{
			Broker:      "localhost:1883",
			ClientID:    "eva",
			TopicPrefix: "eva/alerts",
		},
	}
}

func defaultClipPaths() map[string]map[string]string {
	files := map[string]string{
		"red":                 "red.mp3",
		"yellow":              "yellow.mp3",
		"green":               "green.mp3",
		"no u turn":           "no_u_turn.mp3",
		"no parking":          "no_parking.mp3",
		"pedestrian crossing": "pedestrian_crossing.mp3",
		"stop":                "stop.mp3",
		"yield":               "yield.mp3",
	}
	out := make(map[string]map[string]string, 2)
	for _, lang := range []string{"en", "tl"} {
		m := make(map[string]string, len(files))
		for label, f := range files {
			m[label] = filepath.Join("audio", lang, f)
		}
		out[lang] = m
	}
	return out
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.ConfThreshold <= 0 || c.ConfThreshold > 1 {
		c.ConfThreshold = d.ConfThreshold
	}
	if c.BaseConfidence < 0 || c.BaseConfidence > 1 {
		c.BaseConfidence = d.BaseConfidence
	}
	if c.ClassThresholds == nil {
		c.ClassThresholds = d.ClassThresholds
	}
	if c.StableFrames <= 0 {
		c.StableFrames = d.StableFrames
	}
	if c.ClassStableFrames == nil {
		c.ClassStableFrames = d.ClassStableFrames
	}
	if c.DefaultCooldownMs < 0 {
		c.DefaultCooldownMs = d.DefaultCooldownMs
	}
	if c.ClassCooldownsMs == nil {
		c.ClassCooldownsMs = d.ClassCooldownsMs
	}
	if c.HysteresisMs < 0 {
		c.HysteresisMs = d.HysteresisMs
	}
	if c.MaxEventsPerClass < Unlimited {
		c.MaxEventsPerClass = Unlimited
	}
	if c.ClassEventCaps == nil {
		c.ClassEventCaps = map[string]int{}
	}
	if len(c.ExclusiveSet) == 0 {
		c.ExclusiveSet = d.ExclusiveSet
	}
	if len(c.Priority) == 0 {
		c.Priority = d.Priority
	}
	if c.DedupIoU <= 0 || c.DedupIoU > 1 {
		c.DedupIoU = d.DedupIoU
	}
	if c.ConflictIoU <= 0 || c.ConflictIoU > 1 {
		c.ConflictIoU = d.ConflictIoU
	}
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if c.Language != "en" && c.Language != "tl" {
		c.Language = d.Language
	}
	c.VoiceMode = strings.ToLower(strings.TrimSpace(c.VoiceMode))
	if c.VoiceMode != "ai" && c.VoiceMode != "mp3" {
		c.VoiceMode = d.VoiceMode
	}
	if c.SpeechRepeat <= 0 {
		c.SpeechRepeat = d.SpeechRepeat
	}
	if c.Speech.Binary == "" {
		c.Speech.Binary = d.Speech.Binary
	}
	if c.Speech.Voices == nil {
		c.Speech.Voices = d.Speech.Voices
	}
	if c.Clips.Paths == nil {
		c.Clips.Paths = d.Clips.Paths
	}
	if c.Clips.Repeat <= 0 {
		c.Clips.Repeat = d.Clips.Repeat
	}
	if c.Clips.RepeatGapMs < 0 {
		c.Clips.RepeatGapMs = d.Clips.RepeatGapMs
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = d.RecentLimit
	}
	if c.RecentThrottleMs < 0 {
		c.RecentThrottleMs = d.RecentThrottleMs
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = d.PollIntervalMs
	}
	if c.PreviewMaxWidth <= 0 {
		c.PreviewMaxWidth = d.PreviewMaxWidth
	}
	if c.PreviewMaxHeight <= 0 {
		c.PreviewMaxHeight = d.PreviewMaxHeight
	}
	if c.PreviewIntervalMs <= 0 {
		c.PreviewIntervalMs = d.PreviewIntervalMs
	}
	if c.Source.FPS <= 0 {
		c.Source.FPS = d.Source.FPS
	}
	if c.Source.Width <= 0 || c.Source.Height <= 0 {
		c.Source.Width, c.Source.Height = d.Source.Width, d.Source.Height
	}
	if c.Detector.TimeoutMs <= 0 {
		c.Detector.TimeoutMs = d.Detector.TimeoutMs
	}
	if c.MQTT.QoS > 2 {
		c.MQTT.QoS = 0
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt enabled without broker")
	}
	return nil
}

// Threshold returns the effective minimum confidence for label.
func (c *Config) Threshold(label string) float64 {
	thr, ok := c.ClassThresholds[label]
	if !ok {
		thr = c.ConfThreshold
	}
	if c.BaseConfidence > thr {
		return c.BaseConfidence
	}
	return thr
}

// RequiredStableFrames returns how many consecutive winning frames label needs.
// With strict stability disabled every label triggers on a single frame.
func (c *Config) RequiredStableFrames(label string) int {
	if !c.StrictStability {
		return 1
	}
	n, ok := c.ClassStableFrames[label]
	if !ok {
		n = c.StableFrames
	}
	if n < 1 {
		return 1
	}
	return n
}

// Cooldown returns the minimum time between two announcements of label.
func (c *Config) Cooldown(label string) time.Duration {
	ms, ok := c.ClassCooldownsMs[label]
	if !ok {
		ms = c.DefaultCooldownMs
	}
	return time.Duration(ms) * time.Millisecond
}

// EventCap returns the lifetime announcement ceiling for label. ok is false when unlimited.
func (c *Config) EventCap(label string) (limit int, ok bool) {
	limit = c.MaxEventsPerClass
	if v, found := c.ClassEventCaps[label]; found {
		limit = v
	}
	if limit < 0 {
		return 0, false
	}
	return limit, true
}

// Hysteresis returns the minimum dwell time before an exclusive-set change is honored.
func (c *Config) Hysteresis() time.Duration {
	return time.Duration(c.HysteresisMs) * time.Millisecond
}

// Exclusive reports whether label belongs to the mutually-exclusive set.
func (c *Config) Exclusive(label string) bool {
	for _, l := range c.ExclusiveSet {
		if l == label {
			return true
		}
	}
	return false
}

// ClipRepeatGap returns the pause inserted between repeated clips.
func (c *Config) ClipRepeatGap() time.Duration {
	return time.Duration(c.Clips.RepeatGapMs) * time.Millisecond
}

// PollInterval returns the presentation drain interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load attempts to read configuration from the given JSON or YAML file path. If the file does not
// exist it returns DefaultConfig(). On decode error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON or YAML format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
