package detector

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/config"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/source"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testFrame() source.Frame {
	return source.Frame{Image: image.NewRGBA(image.Rect(0, 0, 16, 8)), CapturedAt: time.Now(), Sequence: 1}
}

func TestWriteMessage_LengthPrefix(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, Response{Seq: 7}); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	if n := binary.BigEndian.Uint32(raw[:4]); int(n) != len(raw)-4 {
		t.Fatalf("prefix %d, body %d", n, len(raw)-4)
	}
	var got Response
	if err := ReadMessage(&buf, &got); err != nil || got.Seq != 7 {
		t.Fatalf("read back: %v %+v", err, got)
	}
	if err := ReadMessage(&buf, &got); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF on empty stream, got %v", err)
	}
}

func TestReadMessage_RejectsOversize(t *testing.T) {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], maxMessageSize+1)
	var v Response
	if err := ReadMessage(bytes.NewReader(hdr[:]), &v); err == nil {
		t.Fatalf("expected size error")
	}
}

func TestReadMessage_Truncated(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteMessage(&buf, Response{Seq: 1})
	short := buf.Bytes()[:buf.Len()-1]
	var v Response
	if err := ReadMessage(bytes.NewReader(short), &v); err == nil {
		t.Fatalf("expected error for truncated body")
	}
}

func TestReplay(t *testing.T) {
	in := strings.Join([]string{
		`{"detections":[{"label":"red","conf":0.9,"bbox":[1,2,3,4]},{"label":"Stop","conf":0.7,"bbox":[5,5,9,9]}]}`,
		``,
		`{"error":"model crashed"}`,
	}, "\n")
	r, err := ReadReplay(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("len = %d", r.Len())
	}
	ctx := context.Background()
	dets, err := r.Predict(ctx, testFrame())
	if err != nil || len(dets) != 2 {
		t.Fatalf("frame 1: %v %+v", err, dets)
	}
	if dets[0].Label != "red" || dets[0].Confidence != 0.9 || dets[0].Box.X2 != 3 || dets[0].Box.Y2 != 4 {
		t.Fatalf("frame 1 detection = %+v", dets[0])
	}
	if dets, err := r.Predict(ctx, testFrame()); err != nil || len(dets) != 0 {
		t.Fatalf("frame 2: %v %+v", err, dets)
	}
	if _, err := r.Predict(ctx, testFrame()); err == nil {
		t.Fatalf("frame 3 should report the recorded error")
	}
	if dets, err := r.Predict(ctx, testFrame()); err != nil || dets != nil {
		t.Fatalf("past the end: %v %+v", err, dets)
	}
	r.Rewind()
	if dets, _ := r.Predict(ctx, testFrame()); len(dets) != 2 {
		t.Fatalf("rewind did not restart playback")
	}
}

func TestReplay_BadLine(t *testing.T) {
	if _, err := ReadReplay(strings.NewReader("{\"detections\": [}\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNew_Modes(t *testing.T) {
	d, err := New(context.Background(), config.DetectorConfig{Mode: "none"}, discardLogger)
	if err != nil {
		t.Fatal(err)
	}
	if dets, err := d.Predict(context.Background(), testFrame()); err != nil || dets != nil {
		t.Fatalf("nop detector returned %v %v", dets, err)
	}
	if _, err := New(context.Background(), config.DetectorConfig{Mode: "process"}, discardLogger); err == nil {
		t.Fatalf("expected error for process mode without command")
	}
	if _, err := New(context.Background(), config.DetectorConfig{Mode: "magic"}, discardLogger); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

// TestHelperProcess is not a real test. It acts as a detector worker when
// re-executed by startHelper.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("EVA_WANT_HELPER_PROCESS") != "1" {
		return
	}
	mode := os.Getenv("EVA_HELPER_MODE")
	for {
		var req Request
		if err := ReadMessage(os.Stdin, &req); err != nil {
			os.Exit(0)
		}
		switch mode {
		case "silent":
			continue
		case "crash":
			fmt.Fprintln(os.Stderr, "[ERROR] boom")
			os.Exit(3)
		}
		res := Response{Seq: req.Seq}
		if req.Format != "jpeg" || len(req.Image) == 0 {
			res.Error = "bad frame"
		} else {
			res.Detections = []WireDetection{{Label: "green", Conf: 0.8, BBox: [4]float64{0, 0, float64(req.Width), float64(req.Height)}}}
		}
		if err := WriteMessage(os.Stdout, res); err != nil {
			os.Exit(1)
		}
	}
}

func startHelper(t *testing.T, mode string, timeout time.Duration) *Process {
	t.Helper()
	p := NewProcess(ProcessOptions{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess"},
		Env:     []string{"EVA_WANT_HELPER_PROCESS=1", "EVA_HELPER_MODE=" + mode},
		Timeout: timeout,
	}, discardLogger)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start helper: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestProcess_RoundTrip(t *testing.T) {
	p := startHelper(t, "echo", 5*time.Second)
	for i := 0; i < 3; i++ {
		dets, err := p.Predict(context.Background(), testFrame())
		if err != nil {
			t.Fatalf("predict %d: %v", i, err)
		}
		if len(dets) != 1 || dets[0].Label != "green" || dets[0].Box.X2 != 16 || dets[0].Box.Y2 != 8 {
			t.Fatalf("predict %d: %+v", i, dets)
		}
	}
}

func TestProcess_Timeout(t *testing.T) {
	p := startHelper(t, "silent", 100*time.Millisecond)
	if _, err := p.Predict(context.Background(), testFrame()); err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestProcess_WorkerExit(t *testing.T) {
	p := startHelper(t, "crash", 5*time.Second)
	if _, err := p.Predict(context.Background(), testFrame()); !errors.Is(err, ErrWorkerStopped) {
		t.Fatalf("expected ErrWorkerStopped, got %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for p.running.Load() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := p.Predict(context.Background(), testFrame()); !errors.Is(err, ErrWorkerStopped) {
		t.Fatalf("expected ErrWorkerStopped after exit, got %v", err)
	}
}
