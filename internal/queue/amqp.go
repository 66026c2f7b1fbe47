package queue

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/unclebandit/creatorhub-backend/internal/metrics"
)

// AMQPQueue publishes to and consumes from durable RabbitMQ queues named after the topic.
type AMQPQueue struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	prefetch int
	logger   *slog.Logger

	mu       sync.Mutex
	declared map[string]bool
	wg       sync.WaitGroup
}

func DialAMQP(url string, prefetch int, logger *slog.Logger) (*AMQPQueue, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{
		conn:     conn,
		ch:       ch,
		prefetch: prefetch,
		logger:   logger,
		declared: make(map[string]bool),
	}, nil
}

func (q *AMQPQueue) declare(name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.declared[name] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		name,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	q.declared[name] = true
	return nil
}

func (q *AMQPQueue) Publish(_ context.Context, topic string, payload []byte) error {
	if err := q.declare(topic); err != nil {
		metrics.IncJobPublished(topic, "error")
		return err
	}

	q.mu.Lock()
	err := q.ch.Publish(
		"",
		topic,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         payload,
		},
	)
	q.mu.Unlock()
	if err != nil {
		metrics.IncJobPublished(topic, "error")
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	metrics.IncJobPublished(topic, "ok")
	return nil
}

// Subscribe starts consuming topic. Every delivery is acked after the handler returns,
// whatever the outcome; malformed or failed jobs are not requeued.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	if err := q.declare(topic); err != nil {
		return err
	}
	if q.prefetch > 0 {
		if err := q.ch.Qos(q.prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}

	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for d := range msgs {
			if err := handler(context.Background(), d.Body); err != nil {
				q.logger.Warn("job failed", "topic", topic, "error", err)
			}
			if err := d.Ack(false); err != nil {
				q.logger.Error("ack failed", "topic", topic, "error", err)
			}
		}
	}()
	return nil
}

// Close stops consumers and waits for in-flight handlers.
func (q *AMQPQueue) Close() error {
	chErr := q.ch.Close()
	q.wg.Wait()
	connErr := q.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}

// NotifyClose reports broker-side connection loss.
func (q *AMQPQueue) NotifyClose() <-chan *amqp.Error {
	return q.conn.NotifyClose(make(chan *amqp.Error, 1))
}

var _ Queue = (*AMQPQueue)(nil)
