package logic

import "errors"

// Sinks renders to several sinks in order. Every sink is rendered even if
// an earlier one fails; failures are joined into one error.
type Sinks []Sink

// Render implements Sink.
func (s Sinks) Render(status Status) error {
	var errs []error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Render(status); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordingSink records rendered statuses for test assertions.
type RecordingSink struct {
	// Rendered contains every status passed to Render, in order.
	Rendered []Status

	// RenderError, if set, will be returned by Render after recording.
	RenderError error
}

// Render records the status.
func (r *RecordingSink) Render(s Status) error {
	r.Rendered = append(r.Rendered, s)
	return r.RenderError
}
