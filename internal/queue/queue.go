package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler processes one message body. A returned error is logged and the
// message is dropped.
type Handler func(body []byte) error

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler Handler) error
}

// InMemoryQueue delivers each published message to every subscriber of the
// topic on its own goroutine.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]Handler
	inflight sync.WaitGroup
}

// NewInMemoryQueue creates a queue that never retries a failed job
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]Handler),
	}
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		q.inflight.Add(1)
		go func() {
			defer q.inflight.Done()
			q.processJob(topic, handler, body)
		}()
	}
	return nil
}

// processJob runs handler once.
func (q *InMemoryQueue) processJob(topic string, handler Handler, body []byte) {
	log := logrus.WithField("topic", topic)
	if err := handler(body); err != nil {
		log.WithError(err).Error("Job failed, dropping")
		return
	}
	log.Debug("Job processed successfully")
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every job published so far has finished.
func (q *InMemoryQueue) Wait() {
	q.inflight.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
