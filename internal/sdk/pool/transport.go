package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"
)

const (
	// DefaultRequestRate bounds outbound node requests per second.
	DefaultRequestRate = 50
	userAgent          = "indy-cli/1.0"
	maxReplySize       = 16 << 20
)

// transport posts requests to node client endpoints.
type transport struct {
	client  *http.Client
	limiter *rate.Limiter
}

func newTransport(client *http.Client, limit rate.Limit, burst int) *transport {
	if client == nil {
		client = &http.Client{}
	}
	return &transport{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// send posts body to a node and returns its raw reply.
func (t *transport) send(ctx context.Context, n Node, body []byte) (json.RawMessage, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("node %s: request failed with status %d", n.Alias, resp.StatusCode)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("node %s: reply is not JSON", n.Alias)
	}
	return json.RawMessage(data), nil
}
