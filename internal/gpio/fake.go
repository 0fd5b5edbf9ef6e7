package gpio

// FakeWriter is a test double that records output levels.
type FakeWriter struct {
	// Levels contains every level passed to Set, in order.
	Levels []bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set() (the level is not recorded)
	SetError error
}

// NewFakeWriter creates a FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Set records the level.
func (f *FakeWriter) Set(active bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Levels = append(f.Levels, active)
	return nil
}

// Level returns the most recent level, false if never set.
func (f *FakeWriter) Level() bool {
	if len(f.Levels) == 0 {
		return false
	}
	return f.Levels[len(f.Levels)-1]
}

// Close marks the writer as closed and drives the line inactive.
func (f *FakeWriter) Close() error {
	f.Closed = true
	f.Levels = append(f.Levels, false)
	return nil
}

// Reset clears recorded levels.
func (f *FakeWriter) Reset() {
	f.Levels = nil
	f.Closed = false
	f.SetError = nil
}
