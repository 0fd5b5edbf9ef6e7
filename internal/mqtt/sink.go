package mqtt

import (
	"time"

	"github.com/sweeney/onair-agent/internal/logic"
)

// Sink publishes every rendered status as a transition event.
type Sink struct {
	pub  Publisher
	now  func() time.Time
	prev logic.Status
}

// NewSink creates a sink publishing through pub, timestamped by now.
func NewSink(pub Publisher, now func() time.Time) *Sink {
	return &Sink{pub: pub, now: now}
}

// Render implements logic.Sink.
func (s *Sink) Render(status logic.Status) error {
	event := Event{
		Timestamp: s.now(),
		Status:    status,
		Previous:  s.prev,
	}
	s.prev = status
	return s.pub.Publish(event)
}
