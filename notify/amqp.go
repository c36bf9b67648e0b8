package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

var (
	ErrNotConnected    = errors.New("rabbitmq connection is closed")
	ErrPublisherClosed = errors.New("rabbitmq publisher is closed")
)

// AMQPPublisher puts notifications on a durable RabbitMQ queue for external processors.
// A lost connection is re-established in the background; Notify never dials.
type AMQPPublisher struct {
	url   string
	queue string

	connLock sync.RWMutex
	conn     *amqp.Connection
	channel  *amqp.Channel

	done      chan struct{}
	destroyer sync.Once
}

func NewAMQPPublisher(ctx context.Context, url, queue string) (*AMQPPublisher, error) {
	p := &AMQPPublisher{url: url, queue: queue, done: make(chan struct{})}
	if err := p.connectWithRetry(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// connectWithRetry dials until it succeeds, the attempts run out, ctx ends or the
// publisher is closed.
func (p *AMQPPublisher) connectWithRetry(ctx context.Context) error {
	var err error
	for i := 0; i < MaxConnectRetry; i++ {
		if err = p.connect(); err == nil {
			return nil
		}
		slog.Warn("failed to connect to RabbitMQ", "attempt", i+1, "max", MaxConnectRetry, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up connecting to RabbitMQ: %w", ctx.Err())
		case <-p.done:
			return ErrPublisherClosed
		case <-time.After(RetryDelay):
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", MaxConnectRetry, err)
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if _, err := channel.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
	}

	p.connLock.Lock()
	select {
	case <-p.done:
		p.connLock.Unlock()
		conn.Close()
		return ErrPublisherClosed
	default:
	}
	p.conn, p.channel = conn, channel
	p.connLock.Unlock()

	slog.Info("RabbitMQ channel opened", "queue", p.queue)
	go p.handleReconnect(conn, channel)
	return nil
}

// handleReconnect waits for the channel to close and then replaces the connection.
func (p *AMQPPublisher) handleReconnect(conn *amqp.Connection, channel *amqp.Channel) {
	notifyClose := channel.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-p.done:
		return
	case err := <-notifyClose:
		select {
		case <-p.done:
			return
		default:
		}
		slog.Warn("RabbitMQ channel closed, reconnecting in background", "error", err)
	}

	p.connLock.Lock()
	if p.channel == channel {
		p.conn, p.channel = nil, nil
	}
	p.connLock.Unlock()

	// the connection may still be open when only the channel died
	if !conn.IsClosed() {
		conn.Close()
	}

	for {
		err := p.connectWithRetry(context.Background())
		if err == nil || errors.Is(err, ErrPublisherClosed) {
			return
		}
		select {
		case <-p.done:
			return
		case <-time.After(RetryDelay * 10):
		}
	}
}

// Notify publishes n. It fails right away while the publisher is reconnecting.
func (p *AMQPPublisher) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	p.connLock.RLock()
	defer p.connLock.RUnlock()

	if p.channel == nil || p.channel.IsClosed() {
		return ErrNotConnected
	}

	err = p.channel.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.FormID,
			Timestamp:    n.Timestamp,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish notification for %s: %w", n.FormID, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() {
	p.destroyer.Do(func() {
		close(p.done)

		p.connLock.Lock()
		defer p.connLock.Unlock()
		if p.conn != nil {
			if err := p.conn.Close(); err != nil {
				slog.Error("error closing RabbitMQ connection", "error", err)
			}
		}
		p.conn, p.channel = nil, nil
	})
}
