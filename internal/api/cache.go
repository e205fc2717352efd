package api

import (
	"context"
	"net/http"
)

func (c *Client) CacheInfo(ctx context.Context) (*CacheInfo, error) {
	var info CacheInfo
	if err := c.do(ctx, http.MethodGet, "/api/cache/info", nil, nil, &info, true); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) ClearQueries(ctx context.Context) (*CacheCleared, error) {
	return c.clear(ctx, "/api/cache/clear-queries")
}

func (c *Client) ClearLatency(ctx context.Context) (*CacheCleared, error) {
	return c.clear(ctx, "/api/cache/clear-latency")
}

func (c *Client) ClearAll(ctx context.Context) (*CacheCleared, error) {
	return c.clear(ctx, "/api/cache/clear-all")
}

func (c *Client) clear(ctx context.Context, path string) (*CacheCleared, error) {
	var out CacheCleared
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
