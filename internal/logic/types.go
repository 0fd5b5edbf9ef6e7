// Package logic contains the pure status classification and transition logic.
// This package has NO external dependencies (no GPIO, MQTT, HTTP, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Status is the canonical classification of a single poll cycle.
type Status string

const (
	StatusOn         Status = "ON"
	StatusOff        Status = "OFF"
	StatusFetchError Status = "FETCH_ERROR"
	StatusParseError Status = "PARSE_ERROR"
	StatusLinkDown   Status = "LINK_DOWN"
)

// uninitialized is the starting value of the last emitted status.
// It differs from every real Status, so the first cycle always renders.
const uninitialized Status = ""

// Statuses lists every real Status.
var Statuses = []Status{StatusOn, StatusOff, StatusFetchError, StatusParseError, StatusLinkDown}

// Valid reports whether s is one of the real statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOn, StatusOff, StatusFetchError, StatusParseError, StatusLinkDown:
		return true
	}
	return false
}

// IsError reports whether s describes a failure to observe the remote signal.
func (s Status) IsError() bool {
	return s == StatusFetchError || s == StatusParseError || s == StatusLinkDown
}

// Outcome is the result of one poll cycle. It is never stored.
type Outcome struct {
	Time     time.Time
	Status   Status
	Previous Status // last emitted status before this cycle; empty on the first cycle
	Changed  bool   // true if the sink was invoked

	// Err is the transport or parse failure behind FETCH_ERROR / PARSE_ERROR.
	// It is diagnostic only and never affects classification.
	Err error

	// RenderErr is set when the sink reported a failure.
	RenderErr error
}

// Counts tracks how many times each status has been rendered since startup.
type Counts struct {
	On         int
	Off        int
	FetchError int
	ParseError int
	LinkDown   int
}

func (c *Counts) add(s Status) {
	switch s {
	case StatusOn:
		c.On++
	case StatusOff:
		c.Off++
	case StatusFetchError:
		c.FetchError++
	case StatusParseError:
		c.ParseError++
	case StatusLinkDown:
		c.LinkDown++
	}
}

// Total returns the number of renders across all statuses.
func (c Counts) Total() int {
	return c.On + c.Off + c.FetchError + c.ParseError + c.LinkDown
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Status    Status
	Counts    Counts
}
