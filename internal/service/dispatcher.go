package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/sender"
)

const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = time.Second
)

// Sender delivers a single message to a single recipient.
type Sender interface {
	Send(ctx context.Context, msg sender.Message) error
}

// OutboundMessage is the subject and body shared by every recipient of a run.
type OutboundMessage struct {
	Subject string
	Content string
}

// SendResult is the outcome of one send.
type SendResult struct {
	Recipient model.Recipient
	Err       error
}

type DispatchResult struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
	Batches      int `json:"batches"`
}

// Dispatcher sends a message to a recipient list in fixed-size batches with a
// fixed pause between batches. Sends inside a batch run concurrently; batches
// run strictly one after another.
type Dispatcher struct {
	Sender    Sender
	BatchSize int
	Delay     time.Duration
	Sleep     func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(s Sender, batchSize int, delay time.Duration) *Dispatcher {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Dispatcher{
		Sender:    s,
		BatchSize: batchSize,
		Delay:     delay,
		Sleep:     sleepContext,
	}
}

// Dispatch sends msg to every recipient. A failed send is counted and logged
// and never stops the run. onResult, when set, is called once per recipient
// from the dispatching goroutine.
//
// Cancellation is checked between batches only. On cancellation the rest of
// the list is abandoned and the counts so far are returned with the error.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []model.Recipient, msg OutboundMessage, onResult func(SendResult)) (DispatchResult, error) {
	var result DispatchResult
	if len(recipients) == 0 {
		return result, appErrors.ErrNoRecipients
	}

	start := time.Now()
	defer func() { metrics.RecordRun(time.Since(start)) }()

	batchSize := d.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	for offset := 0; offset < len(recipients); offset += batchSize {
		if offset > 0 {
			if err := d.sleep(ctx, d.Delay); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := min(offset+batchSize, len(recipients))
		batch := recipients[offset:end]
		result.Batches++

		for _, res := range d.sendBatch(ctx, batch, msg) {
			if res.Err != nil {
				result.FailureCount++
				metrics.RecordSend(model.DeliveryFailed)
				logrus.WithFields(logrus.Fields{
					"recipient_id": res.Recipient.ID,
					"batch":        result.Batches,
				}).WithError(res.Err).Warn("Send failed")
			} else {
				result.SuccessCount++
				metrics.RecordSend(model.DeliverySent)
			}
			if onResult != nil {
				onResult(res)
			}
		}
		metrics.RecordBatch()

		logrus.WithFields(logrus.Fields{
			"batch":   result.Batches,
			"size":    len(batch),
			"sent":    result.SuccessCount,
			"failed":  result.FailureCount,
			"pending": len(recipients) - end,
		}).Debug("Batch processed")
	}

	return result, nil
}

func (d *Dispatcher) sendBatch(ctx context.Context, batch []model.Recipient, msg OutboundMessage) []SendResult {
	results := make([]SendResult, len(batch))

	var g errgroup.Group
	for i, r := range batch {
		g.Go(func() error {
			results[i] = SendResult{Recipient: r, Err: d.Sender.Send(ctx, personalize(msg, r))}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *Dispatcher) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if d.Sleep == nil {
		return sleepContext(ctx, delay)
	}
	return d.Sleep(ctx, delay)
}

// personalize fills the display-name placeholder, the only per-recipient field.
func personalize(msg OutboundMessage, r model.Recipient) sender.Message {
	data := map[string]string{"name": r.Name}
	return sender.Message{
		To:            r.Email,
		Subject:       RenderTemplate(msg.Subject, data),
		Content:       RenderTemplate(msg.Content, data),
		RecipientName: r.Name,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
