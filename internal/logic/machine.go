package logic

import (
	"context"
	"time"
)

// Probe reports on the network link used to reach the status endpoint.
type Probe interface {
	// IsLinkUp reports whether the link is usable. It has no side effects.
	IsLinkUp() bool

	// RequestReconnect asks for the link to be re-established. It does not
	// wait; the result is observed on a later IsLinkUp call.
	RequestReconnect()
}

// Fetcher performs one bounded request against the status endpoint.
type Fetcher interface {
	// Fetch returns the raw response body. Exactly one attempt is made.
	Fetch(ctx context.Context) ([]byte, error)
}

// Sink renders a status on an indicator.
// Render is only called when the status differs from the previous call.
type Sink interface {
	Render(s Status) error
}

// Machine classifies each poll cycle and renders transitions.
// It is not safe for concurrent use; a single loop owns it.
type Machine struct {
	probe   Probe
	fetcher Fetcher
	sink    Sink

	last   Status
	counts Counts
}

// NewMachine creates a state machine. Nothing is rendered until the first Step.
func NewMachine(probe Probe, fetcher Fetcher, sink Sink) *Machine {
	return &Machine{
		probe:   probe,
		fetcher: fetcher,
		sink:    sink,
		last:    uninitialized,
	}
}

// Step runs one poll cycle and renders the result if it is a transition.
// The returned Outcome describes the cycle for logging and status reporting.
func (m *Machine) Step(ctx context.Context, now time.Time) Outcome {
	status, err := m.classify(ctx)

	out := Outcome{
		Time:     now,
		Status:   status,
		Previous: m.last,
		Err:      err,
	}

	if status == m.last {
		return out
	}

	out.Changed = true
	out.RenderErr = m.sink.Render(status)
	// last follows the classification even when rendering failed
	m.last = status
	m.counts.add(status)
	return out
}

func (m *Machine) classify(ctx context.Context) (Status, error) {
	if !m.probe.IsLinkUp() {
		m.probe.RequestReconnect()
		return StatusLinkDown, nil
	}

	payload, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return StatusFetchError, err
	}

	return Parse(payload)
}

// Last returns the last rendered status, or "" before the first Step.
func (m *Machine) Last() Status {
	return m.last
}

// CountsSnapshot returns a copy of the render counts.
func (m *Machine) CountsSnapshot() Counts {
	return m.counts
}
