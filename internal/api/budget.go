package api

import (
	"context"
	"net/http"
)

// Budget reads the caller's spend against the daily and monthly limits.
func (c *Client) Budget(ctx context.Context) (*BudgetStatus, error) {
	var out BudgetStatus
	if err := c.do(ctx, http.MethodGet, "/api/budget", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
