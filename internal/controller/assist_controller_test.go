package controller_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/unclebandit/outreach-backend/internal/assist"
	"github.com/unclebandit/outreach-backend/internal/controller"
)

type fakeCompleter struct {
	text string
	err  error
}

func (f fakeCompleter) Complete(ctx context.Context, messages []assist.ChatMessage) (string, error) {
	return f.text, f.err
}

func TestAssistGenerate(t *testing.T) {
	ctrl := &controller.AssistController{Service: &assist.Service{Client: fakeCompleter{text: "Your gift fed 40 families."}}}
	h := http.HandlerFunc(ctrl.Generate)

	w := do(t, h, http.MethodPost, "/assist", map[string]any{
		"prompt":    "Thank donors for the winter drive",
		"append_to": "Dear {name},",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp assist.Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Content != "Dear {name},\n\nYour gift fed 40 families." {
		t.Errorf("unexpected content %q", resp.Content)
	}

	if w := do(t, h, http.MethodPost, "/assist", map[string]any{"prompt": "  "}); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty prompt, got %d", w.Code)
	}
}

func TestAssistUpstreamFailure(t *testing.T) {
	ctrl := &controller.AssistController{Service: &assist.Service{Client: fakeCompleter{err: errors.New("status 503")}}}

	w := do(t, http.HandlerFunc(ctrl.Generate), http.MethodPost, "/assist", map[string]any{"prompt": "Write an invite"})
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}
}
