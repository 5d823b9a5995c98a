// Package client talks to a running memgraph API server on behalf of CLI
// commands.
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
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/memgraph/api"
	"github.com/papercomputeco/memgraph/pkg/memory"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the memgraph API.
type Client struct {
	target string
	http   *http.Client
}

// New creates a Client for the API at target, a full URL such as
// "http://localhost:8081".
func New(target string) *Client {
	return &Client{
		target: strings.TrimRight(target, "/"),
		http:   &http.Client{Timeout: defaultTimeout},
	}
}

// Query posts a JSON query and returns the ranked results.
func (c *Client) Query(ctx context.Context, body []byte) (*api.QueryResponse, error) {
	var out api.QueryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/query", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMemory fetches one memory. ok is false when the server has no memory
// with that id.
func (c *Client) GetMemory(ctx context.Context, id uuid.UUID) (*memory.Memory, bool, error) {
	var m memory.Memory
	err := c.do(ctx, http.MethodGet, "/v1/memories/"+id.String(), nil, &m)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &m, true, nil
}

// Edges fetches the adjacency of id in direction ("outbound", "inbound" or "both").
func (c *Client) Edges(ctx context.Context, id uuid.UUID, direction string) (*api.EdgesResponse, error) {
	var out api.EdgesResponse
	path := "/v1/memories/" + id.String() + "/edges?direction=" + direction
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling memgraph API at %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
