package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
	"github.com/unclebandit/outreach-backend/internal/sender"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func makeRecipients(n int) []model.Recipient {
	out := make([]model.Recipient, n)
	for i := range out {
		out[i] = model.Recipient{
			ID:    fmt.Sprintf("r%d", i),
			Name:  fmt.Sprintf("Person %d", i),
			Email: fmt.Sprintf("person%d@example.org", i),
			Type:  model.RecipientDonor,
		}
	}
	return out
}

// recordingSleep counts delays instead of waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func newTestDispatcher(s service.Sender) (*service.Dispatcher, *recordingSleep) {
	d := service.NewDispatcher(s, service.DefaultBatchSize, service.DefaultBatchDelay)
	sleep := &recordingSleep{}
	d.Sleep = sleep.Sleep
	return d, sleep
}

var testMessage = service.OutboundMessage{Subject: "Hello {name}", Content: "Dear {name}, thank you."}

func TestDispatchBatchesTwelveRecipients(t *testing.T) {
	var mu sync.Mutex
	var batchSizes []int
	current := 0

	mockSender := &MockSender{}
	d, sleep := newTestDispatcher(mockSender)
	// A batch boundary is a delay; count sends between them.
	d.Sleep = func(ctx context.Context, delay time.Duration) error {
		mu.Lock()
		batchSizes = append(batchSizes, current)
		current = 0
		mu.Unlock()
		return sleep.Sleep(ctx, delay)
	}
	mockSender.fail = func(msg sender.Message) error {
		mu.Lock()
		current++
		mu.Unlock()
		return nil
	}

	res, err := d.Dispatch(context.Background(), makeRecipients(12), testMessage, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	batchSizes = append(batchSizes, current)

	if res.Batches != 3 {
		t.Errorf("expected 3 batches, got %d", res.Batches)
	}
	want := []int{5, 5, 2}
	if fmt.Sprint(batchSizes) != fmt.Sprint(want) {
		t.Errorf("expected batch sizes %v, got %v", want, batchSizes)
	}
	if len(sleep.delays) != 2 {
		t.Errorf("expected 2 delays, got %d", len(sleep.delays))
	}
	for _, delay := range sleep.delays {
		if delay != time.Second {
			t.Errorf("expected 1s delay, got %s", delay)
		}
	}
	if res.SuccessCount != 12 || res.FailureCount != 0 {
		t.Errorf("expected 12 sent 0 failed, got %d/%d", res.SuccessCount, res.FailureCount)
	}
}

func TestDispatchBatchCountAndTotals(t *testing.T) {
	for _, n := range []int{1, 4, 5, 6, 10, 11, 23} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			d, sleep := newTestDispatcher(&MockSender{})
			res, err := d.Dispatch(context.Background(), makeRecipients(n), testMessage, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			wantBatches := (n + 4) / 5
			if res.Batches != wantBatches {
				t.Errorf("expected %d batches, got %d", wantBatches, res.Batches)
			}
			if len(sleep.delays) != wantBatches-1 {
				t.Errorf("expected %d delays, got %d", wantBatches-1, len(sleep.delays))
			}
			if res.SuccessCount+res.FailureCount != n {
				t.Errorf("expected counts to sum to %d, got %d", n, res.SuccessCount+res.FailureCount)
			}
		})
	}
}

func TestDispatchEmptyListSendsNothing(t *testing.T) {
	mockSender := &MockSender{}
	d, sleep := newTestDispatcher(mockSender)

	_, err := d.Dispatch(context.Background(), nil, testMessage, nil)
	if !errors.Is(err, appErrors.ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	if mockSender.Calls() != 0 {
		t.Errorf("expected no sends, got %d", mockSender.Calls())
	}
	if len(sleep.delays) != 0 {
		t.Errorf("expected no delays, got %d", len(sleep.delays))
	}
}

func TestDispatchEveryKthFailureDoesNotAbort(t *testing.T) {
	const n, k = 17, 3
	recipients := makeRecipients(n)
	failing := map[string]bool{}
	for i := k - 1; i < n; i += k {
		failing[recipients[i].Email] = true
	}

	mockSender := &MockSender{fail: func(msg sender.Message) error {
		if failing[msg.To] {
			return &sender.Error{StatusCode: 500, Message: "upstream error"}
		}
		return nil
	}}
	d, _ := newTestDispatcher(mockSender)

	var results []service.SendResult
	res, err := d.Dispatch(context.Background(), recipients, testMessage, func(r service.SendResult) {
		results = append(results, r)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.FailureCount != n/k {
		t.Errorf("expected %d failures, got %d", n/k, res.FailureCount)
	}
	if res.SuccessCount != n-n/k {
		t.Errorf("expected %d successes, got %d", n-n/k, res.SuccessCount)
	}
	if mockSender.Calls() != n {
		t.Errorf("expected every recipient to be attempted, got %d sends", mockSender.Calls())
	}
	if len(results) != n {
		t.Errorf("expected %d results, got %d", n, len(results))
	}
}

func TestDispatchAllSucceed(t *testing.T) {
	d, _ := newTestDispatcher(&MockSender{})
	res, err := d.Dispatch(context.Background(), makeRecipients(8), testMessage, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SuccessCount != 8 || res.FailureCount != 0 {
		t.Errorf("expected 8/0, got %d/%d", res.SuccessCount, res.FailureCount)
	}
}

func TestDispatchClientErrorContinuesBatch(t *testing.T) {
	recipients := makeRecipients(3)
	recipients[1].Email = "not-an-email"

	mockSender := &MockSender{fail: func(msg sender.Message) error {
		if !strings.Contains(msg.To, "@") {
			return &sender.Error{StatusCode: 422, Message: "invalid recipient"}
		}
		return nil
	}}
	d, _ := newTestDispatcher(mockSender)

	res, err := d.Dispatch(context.Background(), recipients, testMessage, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FailureCount != 1 || res.SuccessCount != 2 {
		t.Errorf("expected 2 sent 1 failed, got %d/%d", res.SuccessCount, res.FailureCount)
	}
	if mockSender.Calls() != 3 {
		t.Errorf("expected 3 sends, got %d", mockSender.Calls())
	}
}

func TestDispatchPersonalizesName(t *testing.T) {
	mockSender := &MockSender{}
	d, _ := newTestDispatcher(mockSender)

	recipients := []model.Recipient{{ID: "r1", Name: "Amina Otieno", Email: "amina@example.org"}}
	if _, err := d.Dispatch(context.Background(), recipients, testMessage, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := mockSender.sent[0]
	if msg.Subject != "Hello Amina Otieno" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if msg.Content != "Dear Amina Otieno, thank you." {
		t.Errorf("unexpected content %q", msg.Content)
	}
	if msg.RecipientName != "Amina Otieno" || msg.To != "amina@example.org" {
		t.Errorf("unexpected addressing %+v", msg)
	}
}

func TestDispatchCancelStopsBetweenBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mockSender := &MockSender{}
	d := service.NewDispatcher(mockSender, 5, time.Second)
	d.Sleep = func(ctx context.Context, delay time.Duration) error {
		cancel()
		return ctx.Err()
	}

	res, err := d.Dispatch(ctx, makeRecipients(12), testMessage, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res.Batches != 1 || res.SuccessCount != 5 {
		t.Errorf("expected the first batch only, got %+v", res)
	}
	if mockSender.Calls() != 5 {
		t.Errorf("expected 5 sends, got %d", mockSender.Calls())
	}
}

func TestRenderTemplate(t *testing.T) {
	got := service.RenderTemplate("Hi {name}, see you {day}. {unknown}", map[string]string{
		"name": "Chloe",
		"day":  "Friday",
	})
	if got != "Hi Chloe, see you Friday. {unknown}" {
		t.Errorf("unexpected render %q", got)
	}
}
