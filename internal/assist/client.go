package assist

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

// ChatMessage is one message of a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client calls a chat-completion endpoint.
type Client struct {
	URL    string
	APIKey string
	Model  string
	HTTP   *http.Client
}

func NewClient(url, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		URL:    url,
		APIKey: apiKey,
		Model:  model,
		HTTP:   &http.Client{Timeout: timeout},
	}
}

// Complete sends messages and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("assist request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read assist response: %w", err)
	}

	var parsed chatResponse
	jsonErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if jsonErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("assist endpoint returned %d: %s", resp.StatusCode, msg)
	}
	if jsonErr != nil {
		return "", fmt.Errorf("failed to decode assist response: %w", jsonErr)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("assist endpoint returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
