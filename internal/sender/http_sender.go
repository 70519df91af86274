package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is the body the send endpoint accepts.
type Message struct {
	To            string `json:"to"`
	Subject       string `json:"subject"`
	Content       string `json:"content"`
	RecipientName string `json:"recipientName"`
}

// HTTPSender posts one message per call to the send endpoint.
type HTTPSender struct {
	URL    string
	Token  string
	Client *http.Client
}

func NewHTTPSender(url, token string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		URL:    url,
		Token:  token,
		Client: &http.Client{Timeout: timeout},
	}
}

// Send returns nil only for a 2xx response.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &Error{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, respBody)}
}

// Error is a non-2xx answer from the send endpoint.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("send endpoint returned %d: %s", e.StatusCode, e.Message)
}

func errorMessage(status int, body []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg, ok := parsed["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := parsed["error"].(string); ok && msg != "" {
			return msg
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}
