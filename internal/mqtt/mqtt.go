// Package mqtt publishes indicator transitions and lifecycle events to an
// MQTT broker, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/onair-agent/internal/logic"
)

// Topic is the MQTT topic for indicator transitions.
const Topic = "onair/agent/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "onair/agent/system"

// BufferCapacity is how many messages are held while the broker is unreachable.
const BufferCapacity = 64

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventReconnected = "RECONNECTED"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an indicator transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Event is a rendered indicator transition.
type Event struct {
	Timestamp time.Time
	Status    logic.Status
	Previous  logic.Status // empty for the first render after startup
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	OnAir OnAirPayload `json:"onair"`
}

// OnAirPayload contains the transition details.
type OnAirPayload struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Previous  string `json:"previous,omitempty"`
}

// FormatPayload creates the JSON payload for a transition event.
func FormatPayload(event Event) ([]byte, error) {
	payload := Payload{
		OnAir: OnAirPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Status:    string(event.Status),
			Previous:  string(event.Previous),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
