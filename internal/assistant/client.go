// ABOUTME: HTTP client for the remote assistant endpoint
// ABOUTME: Posts user messages with bearer auth and decodes the response text

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Turn is one prior message included in the request history
type Turn struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Request is the JSON body sent to POST /user/message
type Request struct {
	UserID  string `json:"user_id"`
	Request string `json:"request"`
	History []Turn `json:"history"`
}

// Response is the assistant's answer. The response text may be empty; the
// caller decides what to show in that case. DocumentReferences carries ids
// of documents the answer cites, when the endpoint supplies them.
type Response struct {
	Response           string   `json:"response"`
	DocumentReferences []string `json:"document_references,omitempty"`
}

// Client calls the assistant endpoint. Every call carries the caller's id
// token; the client holds no credentials of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an assistant client for the given base URL.
// The timeout bounds each call end to end; expiry is a transport failure.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "assistant"),
	}
}

// Send posts one user message and returns the assistant's response.
// Transport failures, non-2xx statuses, and undecodable bodies are all one
// error class to the caller; none of them is ever fatal.
func (c *Client) Send(ctx context.Context, idToken string, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding message request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/user/message", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building message request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+idToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling assistant endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("assistant endpoint returned status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding assistant response: %w", err)
	}

	c.logger.Debug("assistant responded",
		"chars", len(out.Response),
		"document_references", len(out.DocumentReferences),
	)
	return &out, nil
}
