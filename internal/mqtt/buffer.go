package mqtt

import "go.uber.org/zap"

// bufferedMsg is a serialized message waiting in the publisher's outbox.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is the publisher's outbox: a bounded FIFO that keeps the newest
// messages when the broker stays away longer than it can hold. The caller
// must synchronize.
type ringBuffer struct {
	slots   []bufferedMsg
	oldest  int
	count   int
	dropped int // overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{slots: make([]bufferedMsg, capacity)}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	n := len(r.slots)
	if r.count < n {
		r.slots[(r.oldest+r.count)%n] = msg
		r.count++
		return
	}

	if r.dropped == 0 {
		zap.S().Named("mqtt").Warnw("outbox full, dropping oldest", "capacity", n)
	}
	r.dropped++
	r.slots[r.oldest] = msg
	r.oldest = (r.oldest + 1) % n
}

// drainAll empties the outbox, returning its messages oldest first.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}

	n := len(r.slots)
	out := make([]bufferedMsg, r.count)
	for i := range out {
		out[i] = r.slots[(r.oldest+i)%n]
		r.slots[(r.oldest+i)%n] = bufferedMsg{}
	}
	if r.dropped > 0 {
		zap.S().Named("mqtt").Infow("outbox overflowed while offline", "kept", r.count, "dropped", r.dropped)
	}

	r.oldest, r.count, r.dropped = 0, 0, 0
	return out
}

func (r *ringBuffer) len() int {
	return r.count
}
