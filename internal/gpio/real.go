//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealWriter drives an output line using Linux GPIO character device.
type RealWriter struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  int
}

// NewRealWriter requests pin on chip as an output, initially inactive.
// With activeLow the physical level is inverted (active = low), for relay
// boards that switch on a low input.
func NewRealWriter(chipName string, pin int, activeLow bool) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0), gpiocdev.WithConsumer("onair-agent")}
	if activeLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := chip.RequestLine(pin, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}

	return &RealWriter{chip: chip, line: line, pin: pin}, nil
}

// Set drives the line to the logical level.
func (w *RealWriter) Set(active bool) error {
	v := 0
	if active {
		v = 1
	}
	if err := w.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d=%d: %w", w.pin, v, err)
	}
	return nil
}

// Close drives the line inactive, then reconfigures it to input with
// pull-down (matching Pi boot defaults) before releasing it, so nothing
// stays energised after the agent exits.
func (w *RealWriter) Close() error {
	var errs []error

	if w.line != nil {
		if err := w.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear pin %d: %w", w.pin, err))
		}
		if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", w.pin, err))
		}
		if err := w.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", w.pin, err))
		}
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
