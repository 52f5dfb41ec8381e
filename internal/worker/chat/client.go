package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client posts plain-text messages to a chat user or channel.
type Client interface {
	PostMessage(ctx context.Context, channel, text string) (messageRef string, err error)
}

// HTTPClient talks to a Slack compatible chat.postMessage endpoint.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	token   string
	cb      *gobreaker.CircuitBreaker
}

// NewHTTPClient new HTTPClient
func NewHTTPClient(baseURL, token string) *HTTPClient {
	settings := gobreaker.Settings{
		Name:        "Chat-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

type postMessageRequest struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	TS    string `json:"ts"`
	Error string `json:"error"`
}

// PostMessage sends text to channel and returns the message timestamp
// reported by the chat server.
func (c *HTTPClient) PostMessage(ctx context.Context, channel, text string) (string, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.post(ctx, channel, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is open, skipping chat API call")
		}
		return "", err
	}
	return out.(string), nil
}

func (c *HTTPClient) post(ctx context.Context, channel, text string) (string, error) {
	payload, err := json.Marshal(postMessageRequest{Channel: channel, Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat.postMessage", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat api returned non-successful status code: %d", resp.StatusCode)
	}

	var body postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if !body.OK {
		return "", fmt.Errorf("chat api rejected message: %s", body.Error)
	}
	return body.TS, nil
}
