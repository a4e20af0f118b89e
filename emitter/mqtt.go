package emitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
)

var ErrNotConnected = errors.New("mqtt not connected")

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Alert is the JSON payload published for every dispatched alert.
type Alert struct {
	SessionID string    `json:"session_id"`
	Label     string    `json:"label"`
	Phrase    string    `json:"phrase"`
	Banner    string    `json:"banner"`
	Tone      string    `json:"tone"`
	Backend   string    `json:"backend"`
	At        time.Time `json:"at"`
}

// publisher is the part of mqtt.Client the emitter publishes through.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Stats contains emitter statistics.
type Stats struct {
	Connected bool
	Published map[string]uint64
	Errors    uint64
}

// MQTTEmitter publishes alerts to an MQTT broker without blocking the caller.
type MQTTEmitter struct {
	cfg    config.MQTTConfig
	logger *slog.Logger
	client mqtt.Client
	pub    publisher

	mu        sync.RWMutex
	published map[string]uint64
	errors    uint64
	connected bool
	closed    bool
	wg        sync.WaitGroup
}

func NewMQTTEmitter(cfg config.MQTTConfig, logger *slog.Logger) *MQTTEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTEmitter{
		cfg:       cfg,
		logger:    logger,
		published: make(map[string]uint64),
	}
}

// Connect dials the broker. The client keeps retrying and reconnecting in the
// background, so a timeout here is not final.
func (e *MQTTEmitter) Connect() error {
	broker := e.cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(e.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		e.setConnected(true)
		e.logger.Info("mqtt connection established", "broker", broker, "client_id", e.cfg.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.setConnected(false)
		e.logger.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", broker)
	}

	client := mqtt.NewClient(opts)
	// Stored before waiting: with connect retry the client keeps dialing
	// after a timeout and OnConnect flips the emitter to connected.
	e.mu.Lock()
	e.client = client
	e.pub = client
	e.mu.Unlock()

	e.logger.Info("connecting to mqtt broker", "broker", broker)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	e.setConnected(true)
	return nil
}

// Topic returns the topic an alert for label is published on.
func (e *MQTTEmitter) Topic(label string) string {
	prefix := strings.TrimSuffix(e.cfg.TopicPrefix, "/")
	return prefix + "/" + strings.ReplaceAll(strings.TrimSpace(label), " ", "_")
}

// Publish hands the alert to the client and returns immediately. The
// delivery outcome lands in Stats.
func (e *MQTTEmitter) Publish(a Alert) error {
	if e == nil {
		return nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		e.countError()
		return fmt.Errorf("marshal alert: %w", err)
	}

	// Add happens under mu so Disconnect never waits while the group grows.
	e.mu.Lock()
	pub := e.pub
	if pub == nil || !e.connected || e.closed {
		e.errors++
		e.mu.Unlock()
		return ErrNotConnected
	}
	e.wg.Add(1)
	e.mu.Unlock()

	topic := e.Topic(a.Label)
	token := pub.Publish(topic, e.cfg.QoS, false, payload)
	go func() {
		defer e.wg.Done()
		if !token.WaitTimeout(publishTimeout) {
			e.countError()
			e.logger.Warn("mqtt publish timeout", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			e.countError()
			e.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
			return
		}
		e.mu.Lock()
		e.published[topic]++
		e.mu.Unlock()
		e.logger.Debug("alert published", "topic", topic, "qos", e.cfg.QoS, "size", len(payload))
	}()
	return nil
}

// Disconnect rejects further publishes, waits for in-flight ones and closes
// the connection.
func (e *MQTTEmitter) Disconnect() {
	if e == nil {
		return
	}
	e.mu.Lock()
	client := e.client
	e.connected = false
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
	if client == nil {
		return
	}
	// Also cancels a connect retry still in progress.
	client.Disconnect(250)
	e.logger.Info("mqtt disconnected")
}

// Stats returns a snapshot of publication counters.
func (e *MQTTEmitter) Stats() Stats {
	if e == nil {
		return Stats{}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{Connected: e.connected, Published: published, Errors: e.errors}
}

func (e *MQTTEmitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *MQTTEmitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
