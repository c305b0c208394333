package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/metrics"
)

// Publisher sends a JSON message to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg any) error
}

// AMQPPublisher dials the broker for every message. Publishing happens a
// few times per user action, so a pooled channel is not needed.
type AMQPPublisher struct {
	url     string
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewPublisher(url string, log *zap.Logger, m *metrics.Metrics) *AMQPPublisher {
	return &AMQPPublisher{url: url, log: log, metrics: m}
}

// Publish declares queue (durable) and publishes msg as a persistent JSON
// message. Errors are logged and returned; callers usually ignore them so
// a broker outage never fails the request that produced the event.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, msg any) (err error) {
	defer func() {
		p.metrics.Published(queue, err)
		if err != nil {
			p.log.Warn("publish failed", zap.String("queue", queue), zap.Error(err))
		}
	}()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
