package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
)

// ErrUnavailable wraps every failure of the upstream endpoint.
var ErrUnavailable = errors.New("content assist unavailable")

const defaultSystemPrompt = "You help nonprofit staff write clear, warm outreach emails to donors and volunteers."

type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

type Request struct {
	Prompt   string `json:"prompt"`
	Context  string `json:"context"`
	AppendTo string `json:"append_to"`
}

type Response struct {
	Generated string `json:"generated"`
	Content   string `json:"content"`
}

type Service struct {
	Client Completer
}

// Generate asks the endpoint for text. When AppendTo is set the generated text
// is appended to it after a blank line.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, &appErrors.ValidationError{Fields: map[string]string{"prompt": "is required"}}
	}

	system := strings.TrimSpace(req.Context)
	if system == "" {
		system = defaultSystemPrompt
	}

	generated, err := s.Client.Complete(ctx, []ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		logrus.WithError(err).Error("Content assist failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	content := generated
	if req.AppendTo != "" {
		content = req.AppendTo + "\n\n" + generated
	}
	return &Response{Generated: generated, Content: content}, nil
}
