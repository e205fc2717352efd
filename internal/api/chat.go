package api

import (
	"context"
	"net/http"
	"strings"
)

// Ask is the non-streaming fallback: one request, one complete Answer.
func (c *Client) Ask(ctx context.Context, r ChatRequest) (*Answer, error) {
	r.Question = strings.TrimSpace(r.Question)
	if r.Question == "" {
		return nil, ErrEmptyQuestion
	}
	if r.Complexity == "" {
		r.Complexity = ComplexitySimple
	}
	var a Answer
	if err := c.do(ctx, http.MethodPost, "/api/enhanced-chat", nil, r, &a, true); err != nil {
		return nil, err
	}
	return &a, nil
}
