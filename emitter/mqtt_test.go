package emitter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
)

type fakeToken struct {
	done chan struct{}
	err  error
	ok   bool
}

func newToken(ok bool, err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err, ok: ok}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return t.ok }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.ok }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	token    *fakeToken
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload.([]byte))
	return p.token
}

func newTestEmitter(pub publisher) *MQTTEmitter {
	e := NewMQTTEmitter(config.MQTTConfig{TopicPrefix: "eva/alerts/", QoS: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	e.pub = pub
	e.connected = true
	return e
}

func TestTopic_ReplacesSpaces(t *testing.T) {
	e := NewMQTTEmitter(config.MQTTConfig{TopicPrefix: "eva/alerts"}, nil)
	if got := e.Topic("no parking"); got != "eva/alerts/no_parking" {
		t.Fatalf("topic = %q", got)
	}
	if got := e.Topic("red"); got != "eva/alerts/red" {
		t.Fatalf("topic = %q", got)
	}
}

func TestPublish_PayloadAndStats(t *testing.T) {
	pub := &fakePublisher{token: newToken(true, nil)}
	e := newTestEmitter(pub)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := e.Publish(Alert{SessionID: "s1", Label: "no entry", Phrase: "No entry.", Banner: "NO ENTRY", Tone: "stop", Backend: "speech", At: at})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	e.Disconnect()

	if len(pub.topics) != 1 || pub.topics[0] != "eva/alerts/no_entry" {
		t.Fatalf("topics = %v", pub.topics)
	}
	var got map[string]any
	if err := json.Unmarshal(pub.payloads[0], &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	for _, key := range []string{"session_id", "label", "phrase", "banner", "tone", "backend", "at"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("payload missing %q: %s", key, pub.payloads[0])
		}
	}
	if got["label"] != "no entry" || got["at"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("payload = %v", got)
	}
	st := e.Stats()
	if st.Published["eva/alerts/no_entry"] != 1 || st.Errors != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestPublish_FailuresCounted(t *testing.T) {
	e := newTestEmitter(&fakePublisher{token: newToken(true, errors.New("broker said no"))})
	if err := e.Publish(Alert{Label: "red"}); err != nil {
		t.Fatalf("publish should not fail synchronously: %v", err)
	}
	e.Disconnect()
	if st := e.Stats(); st.Errors != 1 || len(st.Published) != 0 {
		t.Fatalf("stats = %+v", st)
	}

	timeout := newTestEmitter(&fakePublisher{token: newToken(false, nil)})
	_ = timeout.Publish(Alert{Label: "red"})
	timeout.Disconnect()
	if st := timeout.Stats(); st.Errors != 1 {
		t.Fatalf("timeout not counted: %+v", st)
	}
}

func TestPublish_NotConnected(t *testing.T) {
	e := NewMQTTEmitter(config.MQTTConfig{TopicPrefix: "eva"}, nil)
	if err := e.Publish(Alert{Label: "red"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v", err)
	}
	if e.Stats().Errors != 1 {
		t.Fatalf("error not counted")
	}
	var nilEmitter *MQTTEmitter
	if err := nilEmitter.Publish(Alert{}); err != nil {
		t.Fatalf("nil emitter publish: %v", err)
	}
}

func TestPublish_RejectedAfterDisconnect(t *testing.T) {
	pub := &fakePublisher{token: newToken(true, nil)}
	e := newTestEmitter(pub)
	e.Disconnect()
	// a late OnConnect from the retry loop must not reopen the emitter
	e.setConnected(true)
	if err := e.Publish(Alert{Label: "red"}); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if len(pub.topics) != 0 {
		t.Fatalf("published after disconnect: %v", pub.topics)
	}
}

func TestPublish_ConcurrentWithDisconnect(t *testing.T) {
	pub := &fakePublisher{token: newToken(true, nil)}
	e := newTestEmitter(pub)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.Publish(Alert{Label: "stop"})
			}
		}()
	}
	e.Disconnect()
	wg.Wait()
	st := e.Stats()
	var published uint64
	for _, n := range st.Published {
		published += n
	}
	if published+st.Errors != 400 {
		t.Fatalf("published=%d errors=%d, want 400 in total", published, st.Errors)
	}
}
