package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the code-execution backend: one language + source text in,
// one output or error text back. The backend contract is owned elsewhere;
// this client only consumes the response.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// ExecRequest carries one execution request.
type ExecRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ExecResult carries the backend's response. Error is the program's own
// failure output, not a transport failure.
type ExecResult struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

func NewClient(endpoint string) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("runner endpoint is required")
	}
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Execute submits the source text and decodes the result. No retries; a
// transport failure or non-2xx status is the caller's to surface.
func (c *Client) Execute(ctx context.Context, language, code string) (*ExecResult, error) {
	payload := ExecRequest{Language: language, Code: code}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var result ExecResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}
