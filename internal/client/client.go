// Package client posts execution requests to a remexec server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xdg/remexec/internal/api"
	"github.com/xdg/remexec/internal/version"
)

// ErrUnexpectedStatus is returned for any HTTP status other than 200. The
// server answers every request, rejected ones included, with 200.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Client sends requests to the execution endpoint.
type Client struct {
	// BaseURL is the server root, e.g. "http://localhost:3000".
	BaseURL string

	// HTTPClient is the HTTP client used for requests.
	// If nil, http.DefaultClient is used. No client-side timeout is applied
	// by default because bounded-wait requests can legitimately run long.
	HTTPClient *http.Client
}

// New creates a client for the server at baseURL. A bare host:port is
// accepted and treated as http.
func New(baseURL string) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/")}
}

// Exec asks the server to run cmd. A zero timeout returns as soon as the
// server has scheduled the command.
func (c *Client) Exec(ctx context.Context, cmd string, timeout uint32) (*api.Response, error) {
	data, err := json.Marshal(api.NewExecRequest(cmd, timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/endpoint", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out api.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
