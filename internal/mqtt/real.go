package mqtt

import (
	"errors"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. Publish never waits on the
// network: messages go into an outbox that a single sender goroutine flushes
// while the connection is up. Messages queued while the connection is down are
// replayed in order on (re)connect.
type RealPublisher struct {
	client     paho.Client
	ackTimeout time.Duration

	mu        sync.Mutex
	buf       *ringBuffer
	online    bool // outbox may be flushed
	connected bool // has connected at least once
	announce  bool // send RECONNECTED ahead of the next flush

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRealPublisher creates a publisher for the given broker. It does not wait
// for the connection: paho keeps retrying in the background and queued
// messages are flushed once it succeeds.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := newPublisher()

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     EventShutdown,
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.start(paho.NewClient(opts))
	p.client.Connect()
	return p
}

func newPublisher() *RealPublisher {
	return &RealPublisher{
		ackTimeout: publishTimeout,
		buf:        newRingBuffer(BufferCapacity),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (p *RealPublisher) start(client paho.Client) {
	p.client = client
	p.wg.Add(1)
	go p.sendLoop()
}

func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	p.online = true
	p.announce = reconnect
	queued := p.buf.len()
	p.mu.Unlock()

	zap.S().Named("mqtt").Infow("connected", "reconnect", reconnect, "queued", queued)
	p.notify()
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.online = false
	p.mu.Unlock()
	zap.S().Named("mqtt").Warnw("connection lost", "error", err)
}

// Publish queues an indicator transition as a retained QoS 1 message.
func (p *RealPublisher) Publish(event Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	p.enqueue(bufferedMsg{topic: Topic, payload: payload, qos: 1, retained: true})
	return nil
}

// PublishSystem queues a lifecycle event on the system topic.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

func (p *RealPublisher) enqueue(msg bufferedMsg) {
	p.mu.Lock()
	p.buf.push(msg)
	p.mu.Unlock()
	p.notify()
}

func (p *RealPublisher) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *RealPublisher) sendLoop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.flush()
			return
		case <-p.wake:
			p.flush()
		}
	}
}

// flush hands every queued message to paho in order. A message that is not
// acknowledged within ackTimeout stays with paho's QoS 1 session and is never
// queued again, so a slow broker cannot cause duplicate or reordered retained
// messages.
func (p *RealPublisher) flush() {
	log := zap.S().Named("mqtt")

	p.mu.Lock()
	if !p.online {
		p.mu.Unlock()
		return
	}
	msgs := p.buf.drainAll()
	if p.announce {
		p.announce = false
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventReconnected})
		msgs = append([]bufferedMsg{{topic: TopicSystem, payload: payload, qos: 1}}, msgs...)
	}
	p.mu.Unlock()

	if len(msgs) > 1 {
		log.Infow("replaying queued messages", "count", len(msgs))
	}

	for i, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(p.ackTimeout) {
			log.Warnw("publish not acknowledged, left to client session", "topic", m.topic, "timeout", p.ackTimeout)
			continue
		}
		err := token.Error()
		if errors.Is(err, paho.ErrNotConnected) {
			p.requeue(msgs[i:])
			log.Warnw("not connected, requeued", "topic", m.topic, "count", len(msgs)-i)
			return
		}
		if err != nil {
			log.Warnw("publish failed", "topic", m.topic, "error", err)
		}
	}
}

// requeue puts msgs back ahead of anything queued since they were drained and
// marks the connection offline until paho reports it up again.
func (p *RealPublisher) requeue(msgs []bufferedMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = false
	newer := p.buf.drainAll()
	for _, m := range msgs {
		p.buf.push(m)
	}
	for _, m := range newer {
		p.buf.push(m)
	}
}

// IsConnected reports whether the broker connection is currently open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns how many messages are waiting to be sent.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close stops the sender after a last flush and disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.client.Disconnect(1000)
	})
	return nil
}
