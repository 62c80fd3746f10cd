package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/stores-rest-api/internal/logger"
)

const (
	publishBuffer = 256
	dialTimeout   = 3 * time.Second
	sendTimeout   = 5 * time.Second
	redialBackoff = 5 * time.Second
)

var (
	ErrPublisherClosed = errors.New("publisher closed")
	ErrBufferFull      = errors.New("publish buffer full")
)

// Publisher sends domain events to the broker.  Implementations must be safe
// for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.  Used when EVENTS_ENABLED is off.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

type outgoing struct {
	typ  string
	body []byte
}

// AMQPPublisher publishes events as persistent JSON messages on QueueName
// through the default exchange.  Publish only enqueues; a single goroutine
// owns the broker connection, dials lazily and re-dials after the broker
// drops it.  While the broker is unreachable, queued events are dropped
// until the redial backoff has passed.
type AMQPPublisher struct {
	url string
	log *logger.Logger

	dialTimeout time.Duration
	backoff     time.Duration

	mu     sync.RWMutex
	closed bool
	out    chan outgoing
	done   chan struct{}

	// owned by run
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewAMQPPublisher returns a publisher for the broker at url and starts its
// sender goroutine.  No connection is made until the first event.
func NewAMQPPublisher(url string, log *logger.Logger) *AMQPPublisher {
	p := &AMQPPublisher{
		url:         url,
		log:         log,
		dialTimeout: dialTimeout,
		backoff:     redialBackoff,
		out:         make(chan outgoing, publishBuffer),
		done:        make(chan struct{}),
	}
	go p.run()
	return p
}

var _ Publisher = (*AMQPPublisher)(nil)

// Publish marshals ev and hands it to the sender.  It never waits on the
// broker: a full buffer is reported as ErrBufferFull.
func (p *AMQPPublisher) Publish(_ context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.out <- outgoing{typ: ev.Type, body: body}:
		return nil
	default:
		return ErrBufferFull
	}
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	defer p.reset()
	for msg := range p.out {
		if err := p.send(msg); err != nil {
			p.log.Warn("event dropped", "type", msg.typ, "error", err)
		}
	}
}

func (p *AMQPPublisher) send(msg outgoing) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         msg.typ,
		Body:         msg.body,
	}
	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		QueueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns the cached channel, dialing and declaring the queue when
// needed.  A failed dial is not retried before retryAt.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if time.Now().Before(p.retryAt) {
		return nil, errors.New("broker unavailable")
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		p.retryAt = time.Now().Add(p.backoff)
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		p.retryAt = time.Now().Add(p.backoff)
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		p.retryAt = time.Now().Add(p.backoff)
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close stops accepting events, lets the sender flush what is queued and
// releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.out)
	}
	p.mu.Unlock()
	<-p.done
	return nil
}
