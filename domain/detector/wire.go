package detector

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/detection"
)

// maxMessageSize caps a single framed message.
const maxMessageSize = 64 << 20

// Request carries one JPEG-encoded frame to the worker.
type Request struct {
	Seq    uint64 `msgpack:"seq"`
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
	Format string `msgpack:"format"`
	Image  []byte `msgpack:"image"`
}

// Response is the worker's answer to the Request with the same Seq.
type Response struct {
	Seq        uint64          `msgpack:"seq"`
	Detections []WireDetection `msgpack:"detections"`
	Error      string          `msgpack:"error,omitempty"`
}

// WireDetection is a detection as the worker and replay files spell it.
type WireDetection struct {
	Label string     `msgpack:"label" json:"label"`
	Conf  float64    `msgpack:"conf" json:"conf"`
	BBox  [4]float64 `msgpack:"bbox" json:"bbox"` // x1, y1, x2, y2
}

func (w WireDetection) detection() detection.Detection {
	return detection.Detection{
		Label:      w.Label,
		Confidence: w.Conf,
		Box:        detection.Box{X1: w.BBox[0], Y1: w.BBox[1], X2: w.BBox[2], Y2: w.BBox[3]},
	}
}

func toDetections(in []WireDetection) []detection.Detection {
	if len(in) == 0 {
		return nil
	}
	out := make([]detection.Detection, len(in))
	for i, w := range in {
		out[i] = w.detection()
	}
	return out
}

// WriteMessage writes v as msgpack behind a 4 byte big-endian length prefix.
func WriteMessage(w io.Writer, v any) error {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal msgpack: %w", err)
	}
	if len(body) > maxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit", len(body))
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed msgpack message into v.
func ReadMessage(r io.Reader, v any) error {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(lengthBuf[:])
	if n > maxMessageSize {
		return fmt.Errorf("message length %d exceeds limit", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("read message body: %w", err)
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal msgpack: %w", err)
	}
	return nil
}
