// Package status provides a thread-safe status tracker for the onair-agent daemon.
// The poll loop writes to it once per cycle; HTTP handlers and lifecycle
// events read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/onair-agent/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/netlink from status.
type NetworkInfo struct {
	Interface string
	Up        bool
	IP        string
	SSID      string
}

// Config contains daemon configuration for display.
type Config struct {
	Endpoint    string
	PollMs      int64
	TimeoutMs   int64
	HeartbeatMs int64
	Interface   string
	Pin         int // -1 when the output pin is disabled
	Display     bool
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	InstanceID    string
	Status        logic.Status // last rendered status, empty before the first cycle
	LastCycle     time.Time
	LastChange    time.Time
	LastError     string // diagnostic from the most recent failing cycle
	Cycles        int
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Ready reports whether at least one cycle has completed.
func (s Snapshot) Ready() bool {
	return s.Cycles > 0
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, instanceID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			InstanceID: instanceID,
			StartTime:  startTime,
			Config:     cfg,
		},
		now: time.Now,
	}
}

// Record stores the outcome of a poll cycle.
// Called from the poll loop on every cycle.
func (t *Tracker) Record(out logic.Outcome, counts logic.Counts) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Cycles++
	t.snap.LastCycle = out.Time
	t.snap.Counts = counts
	if out.Changed {
		t.snap.Status = out.Status
		t.snap.LastChange = out.Time
	}
	switch {
	case out.Err != nil:
		t.snap.LastError = out.Err.Error()
	case out.Status == logic.StatusLinkDown:
		t.snap.LastError = "link down"
	case !out.Status.IsError():
		t.snap.LastError = ""
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Network != nil {
		n := *s.Network
		s.Network = &n
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
