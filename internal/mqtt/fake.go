package mqtt

import (
	"encoding/json"

	"github.com/sweeney/onair-agent/internal/logic"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Events contains all transition events that were published.
	Events []Event

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// Retained holds the last retained payload per topic, as a broker would
	// hand it to a subscriber that connects later.
	Retained map[string][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the transition event.
func (f *FakePublisher) Publish(event Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Events = append(f.Events, event)

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	f.retain(Topic, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)
	if event.Retained {
		f.retain(TopicSystem, payload)
	}

	return nil
}

func (f *FakePublisher) retain(topic string, payload []byte) {
	if f.Retained == nil {
		f.Retained = make(map[string][]byte)
	}
	f.Retained[topic] = payload
}

// RetainedStatus decodes the retained transition, returning "" when none
// has been published.
func (f *FakePublisher) RetainedStatus() logic.Status {
	var p Payload
	if err := json.Unmarshal(f.Retained[Topic], &p); err != nil {
		return ""
	}
	return logic.Status(p.OnAir.Status)
}

// systemDoc matches both system payload shapes: the bare lifecycle event
// and the full status snapshot.
type systemDoc struct {
	System *SystemPayloadInner `json:"system"`
	Status *struct {
		Event string `json:"event"`
	} `json:"status"`
}

// SystemEventNames decodes the event name of every system payload in
// publish order.
func (f *FakePublisher) SystemEventNames() []string {
	names := make([]string, 0, len(f.SystemPayloads))
	for _, raw := range f.SystemPayloads {
		var doc systemDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			names = append(names, "")
			continue
		}
		switch {
		case doc.Status != nil:
			names = append(names, doc.Status.Event)
		case doc.System != nil:
			names = append(names, doc.System.Event)
		default:
			names = append(names, "")
		}
	}
	return names
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	f.Events = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Retained = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
