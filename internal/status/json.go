package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	InstanceID    string       `json:"instance_id"`
	Indicator     string       `json:"indicator"`
	Ready         bool         `json:"ready"`
	LastCycle     string       `json:"last_cycle,omitempty"`
	LastChange    string       `json:"last_change,omitempty"`
	LastError     string       `json:"last_error,omitempty"`
	Cycles        int          `json:"cycles"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"render_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of render counts.
type CountsJSON struct {
	On         int `json:"on"`
	Off        int `json:"off"`
	FetchError int `json:"fetch_error"`
	ParseError int `json:"parse_error"`
	LinkDown   int `json:"link_down"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Interface string `json:"interface"`
	Up        bool   `json:"up"`
	IP        string `json:"ip"`
	SSID      string `json:"ssid,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Endpoint    string `json:"endpoint"`
	PollMs      int64  `json:"poll_ms"`
	TimeoutMs   int64  `json:"timeout_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Interface   string `json:"interface"`
	Pin         int    `json:"pin"`
	Display     bool   `json:"display"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr,omitempty"`
}

// IndicatorOrUnknown returns the indicator status or "UNKNOWN" before the first cycle.
func (s Snapshot) IndicatorOrUnknown() string {
	if s.Status == "" {
		return "UNKNOWN"
	}
	return string(s.Status)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		InstanceID:    snap.InstanceID,
		Indicator:     snap.IndicatorOrUnknown(),
		Ready:         snap.Ready(),
		LastCycle:     formatTime(snap.LastCycle),
		LastChange:    formatTime(snap.LastChange),
		LastError:     snap.LastError,
		Cycles:        snap.Cycles,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			On:         snap.Counts.On,
			Off:        snap.Counts.Off,
			FetchError: snap.Counts.FetchError,
			ParseError: snap.Counts.ParseError,
			LinkDown:   snap.Counts.LinkDown,
		},
		Config: ConfigJSON{
			Endpoint:    snap.Config.Endpoint,
			PollMs:      snap.Config.PollMs,
			TimeoutMs:   snap.Config.TimeoutMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Interface:   snap.Config.Interface,
			Pin:         snap.Config.Pin,
			Display:     snap.Config.Display,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Interface: snap.Network.Interface,
			Up:        snap.Network.Up,
			IP:        snap.Network.IP,
			SSID:      snap.Network.SSID,
		}
	}
	return inner
}

// Build returns the JSON status document for snap.
func Build(snap Snapshot) StatusJSON {
	return StatusJSON{Status: buildInner(snap)}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(Build(snap), "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
