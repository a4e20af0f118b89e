package detector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detection"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/source"
)

type replayLine struct {
	Detections []WireDetection `json:"detections"`
	Error      string          `json:"error,omitempty"`
}

// Replay returns prerecorded detections, one JSON line per frame in call
// order. A blank line is a frame without detections; frames after the last
// line have none either.
type Replay struct {
	mu     sync.Mutex
	frames []replayLine
	next   int
}

// OpenReplay loads a replay file.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()
	return ReadReplay(f)
}

// ReadReplay parses replay lines from r.
func ReadReplay(r io.Reader) (*Replay, error) {
	rp := &Replay{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		var line replayLine
		if text != "" {
			if err := json.Unmarshal([]byte(text), &line); err != nil {
				return nil, fmt.Errorf("replay line %d: %w", n, err)
			}
		}
		rp.frames = append(rp.frames, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return rp, nil
}

func (r *Replay) Predict(_ context.Context, _ source.Frame) ([]detection.Detection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.frames) {
		return nil, nil
	}
	line := r.frames[r.next]
	r.next++
	if line.Error != "" {
		return nil, errors.New(line.Error)
	}
	return toDetections(line.Detections), nil
}

// Rewind restarts playback from the first line.
func (r *Replay) Rewind() {
	r.mu.Lock()
	r.next = 0
	r.mu.Unlock()
}

// Len returns the number of recorded frames.
func (r *Replay) Len() int { return len(r.frames) }

func (r *Replay) Close() error { return nil }
