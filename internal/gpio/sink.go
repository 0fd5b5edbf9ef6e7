package gpio

import (
	"github.com/sweeney/onair-agent/internal/logic"
)

// PinSink renders a status as a binary output: ON drives the line active,
// every other status (including errors) drives it inactive.
type PinSink struct {
	w Writer
}

// NewPinSink creates a sink driving w.
func NewPinSink(w Writer) *PinSink {
	return &PinSink{w: w}
}

// Render implements logic.Sink.
func (s *PinSink) Render(status logic.Status) error {
	return s.w.Set(status == logic.StatusOn)
}
