package pipeline

import (
	"image"
	"time"

	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/domain/feedback"
	"github.com/kielagsamosam0206/EMBEDDED-VISION-ASSISTANT-DETECTION-OF-TRAFFIC-LIGHT-AND-ROAD-SIGN/queue"
)

// Kind tags a presentation message.
type Kind int

const (
	KindImage Kind = iota
	KindBanner
	KindLogLine
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindBanner:
		return "banner"
	case KindLogLine:
		return "log"
	default:
		return "unknown"
	}
}

// Message travels from the pipeline goroutine to the presentation consumer.
// Exactly one of Image, Banner or Text is meaningful, selected by Kind.
type Message struct {
	Kind     Kind
	Image    *image.RGBA
	Sequence uint64
	Banner   feedback.Banner
	Text     string
	At       time.Time
}

// Presentation is the unbounded channel the pipeline goroutine publishes on.
type Presentation = queue.Queue[Message]

// NewPresentation returns an empty presentation channel.
func NewPresentation() *Presentation { return queue.New[Message]() }

// BannerQueue adapts a presentation channel into a feedback.BannerSink.
type BannerQueue struct {
	Out *Presentation
	Now func() time.Time
}

var _ feedback.BannerSink = BannerQueue{}

func (b BannerQueue) ShowBanner(banner feedback.Banner) {
	if b.Out == nil {
		return
	}
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	b.Out.Push(Message{Kind: KindBanner, Banner: banner, At: now()})
}
