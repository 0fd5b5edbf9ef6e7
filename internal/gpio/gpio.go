// Package gpio drives the indicator output line with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Writer drives a single GPIO output line.
type Writer interface {
	// Set drives the line to the given logical level (true = active).
	Set(active bool) error

	// Close leaves the line inactive and releases GPIO resources.
	Close() error
}

// Line defaults (BCM numbering)
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17 // physical pin 11, drives the relay/LED
)
