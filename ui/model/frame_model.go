package model

import (
	"image"
	"time"
)

// FrameModel holds the most recent frame pushed by the pipeline goroutine.
// Updates occur on the presenter tick, so no synchronization is needed.
type FrameModel struct {
	latest   *image.RGBA
	sequence uint64
	at       time.Time
	received uint64
}

func NewFrameModel() *FrameModel { return &FrameModel{} }

// Set stores img as the latest frame. A nil image is ignored.
func (m *FrameModel) Set(img *image.RGBA, seq uint64, at time.Time) {
	if m == nil || img == nil {
		return
	}
	m.latest = img
	m.sequence = seq
	m.at = at
	m.received++
}

// Latest returns the newest frame, its sequence and timestamp.
func (m *FrameModel) Latest() (*image.RGBA, uint64, time.Time) {
	if m == nil {
		return nil, 0, time.Time{}
	}
	return m.latest, m.sequence, m.at
}

// Received counts frames seen since creation.
func (m *FrameModel) Received() uint64 {
	if m == nil {
		return 0
	}
	return m.received
}

// Clear drops the latest frame.
func (m *FrameModel) Clear() {
	if m == nil {
		return
	}
	m.latest, m.sequence, m.at = nil, 0, time.Time{}
}
