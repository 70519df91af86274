package queue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// AMQPQueue maps each topic to a durable RabbitMQ queue on the default exchange.
// Deliveries are acked on receipt, before the handler runs, so a job is
// delivered at most once.
type AMQPQueue struct {
	conn *amqp.Connection

	mu       sync.Mutex
	pub      *amqp.Channel
	declared map[string]bool
	consumer []*amqp.Channel
	running  sync.WaitGroup
}

func DialAMQP(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &AMQPQueue{
		conn:     conn,
		pub:      ch,
		declared: map[string]bool{},
	}, nil
}

func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.declared[topic] {
		if err := declare(q.pub, topic); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", topic, err)
		}
		q.declared[topic] = true
	}

	err = q.pub.Publish(
		"",    // exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe consumes topic one message at a time on a dedicated channel.
func (q *AMQPQueue) Subscribe(topic string, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declare(ch, topic); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return fmt.Errorf("failed to set qos: %w", err)
	}

	msgs, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false, acked explicitly in deliver
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.mu.Lock()
	q.consumer = append(q.consumer, ch)
	q.mu.Unlock()

	q.running.Add(1)
	go func() {
		defer q.running.Done()
		log := logrus.WithField("queue", topic)
		for d := range msgs {
			deliver(log, d, d.Body, handler)
		}
		log.Info("Consumer stopped")
	}()
	return nil
}

// acker is the part of amqp.Delivery that deliver needs.
type acker interface {
	Ack(multiple bool) error
}

// deliver acks the message and then runs handler. A message whose ack fails is
// not handled: the broker still owns it and will hand it out again.
func deliver(log *logrus.Entry, d acker, body []byte, handler Handler) {
	if err := d.Ack(false); err != nil {
		log.WithError(err).Warn("Failed to ack delivery, skipping job")
		return
	}
	if err := handler(body); err != nil {
		log.WithError(err).Error("Job failed, dropping")
	}
}

// Close stops consuming, waits for jobs already running to finish and then
// closes the connection.
func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	consumers := q.consumer
	q.consumer = nil
	q.mu.Unlock()

	for _, ch := range consumers {
		if err := ch.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing consumer channel")
		}
	}
	q.running.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pub != nil {
		if err := q.pub.Close(); err != nil {
			logrus.WithError(err).Warn("Error closing channel")
		}
	}
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
