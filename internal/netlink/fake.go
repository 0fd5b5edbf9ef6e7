package netlink

import "context"

// FakeProbe is a test double that returns scripted link states.
type FakeProbe struct {
	// Links contains scripted IsLinkUp results. Each call consumes the
	// next value; once exhausted the last value repeats.
	Links []bool

	// index tracks current position in Links
	index int

	// Checks counts IsLinkUp calls.
	Checks int

	// Reconnects counts RequestReconnect calls.
	Reconnects int

	// Joins counts Join calls.
	Joins int

	// JoinError, if set, will be returned by Join.
	JoinError error
}

// NewFakeProbe creates a FakeProbe with the given link states.
func NewFakeProbe(links ...bool) *FakeProbe {
	return &FakeProbe{Links: links}
}

// IsLinkUp returns the next scripted link state. With no script it reports up.
func (f *FakeProbe) IsLinkUp() bool {
	f.Checks++
	if len(f.Links) == 0 {
		return true
	}
	up := f.Links[f.index]
	if f.index < len(f.Links)-1 {
		f.index++
	}
	return up
}

// RequestReconnect records the request.
func (f *FakeProbe) RequestReconnect() {
	f.Reconnects++
}

// Join records the call and returns JoinError.
func (f *FakeProbe) Join(ctx context.Context) error {
	f.Joins++
	return f.JoinError
}

// Info returns a fixed description.
func (f *FakeProbe) Info() Info {
	return Info{Interface: "fake0", Up: true, IP: "192.0.2.10"}
}
