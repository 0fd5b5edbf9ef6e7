package logic

import "time"

// Heartbeat decides when a periodic liveness report is due.
type Heartbeat struct {
	interval  time.Duration
	startTime time.Time
	last      time.Time
}

// NewHeartbeat creates a heartbeat timer. An interval <= 0 disables it.
// The startTime is used for calculating uptime.
func NewHeartbeat(interval time.Duration, startTime time.Time) *Heartbeat {
	return &Heartbeat{
		interval:  interval,
		startTime: startTime,
		last:      startTime,
	}
}

// Check returns heartbeat data if the interval has elapsed since the last
// heartbeat (or startup). Returns nil if disabled or not yet due.
func (h *Heartbeat) Check(now time.Time, m *Machine) *HeartbeatData {
	if h.interval <= 0 {
		return nil
	}

	if now.Sub(h.last) < h.interval {
		return nil
	}

	h.last = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(h.startTime),
		Status:    m.Last(),
		Counts:    m.CountsSnapshot(),
	}
}
