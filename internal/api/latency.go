package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

var errEndpoint = errors.New("api: endpoint is required")

// LatencyStats reads the percentiles of endpoint (e.g. "enhanced-chat" or
// "chat/stream"), restricted to one caller when userID is set.
func (c *Client) LatencyStats(ctx context.Context, endpoint, userID string) (*LatencyReport, error) {
	endpoint = strings.TrimPrefix(strings.Trim(endpoint, "/"), "api/")
	if endpoint == "" {
		return nil, errEndpoint
	}
	var q url.Values
	if userID != "" {
		q = url.Values{"user_id": {userID}}
	}
	var out LatencyReport
	if err := c.do(ctx, http.MethodGet, "/api/latency/stats/"+endpoint, q, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LatencySummary(ctx context.Context) (*LatencySummary, error) {
	var out LatencySummary
	if err := c.do(ctx, http.MethodGet, "/api/latency/summary", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
