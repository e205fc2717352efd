package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

var errRunName = errors.New("api: run name is required")

func (c *Client) ListRuns(ctx context.Context) ([]EvalRunRef, error) {
	var out struct {
		Runs []EvalRunRef `json:"runs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/eval/list", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Runs, nil
}

func (c *Client) Report(ctx context.Context, name string) (*EvalRun, error) {
	if name == "" {
		return nil, errRunName
	}
	var run EvalRun
	if err := c.do(ctx, http.MethodGet, "/api/eval/report", url.Values{"name": {name}}, nil, &run, true); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) Compare(ctx context.Context, base, exp string) (*Comparison, error) {
	if base == "" || exp == "" {
		return nil, errRunName
	}
	var cmp Comparison
	q := url.Values{"base": {base}, "exp": {exp}}
	if err := c.do(ctx, http.MethodGet, "/api/eval/compare", q, nil, &cmp, true); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// SaveResults upserts run by name.
func (c *Client) SaveResults(ctx context.Context, run EvalRun) (*SavedRun, error) {
	if run.Name == "" {
		return nil, errRunName
	}
	var saved SavedRun
	if err := c.do(ctx, http.MethodPost, "/api/eval/results", nil, run, &saved, true); err != nil {
		return nil, err
	}
	return &saved, nil
}

// RunAndStore asks the server to run its evaluation set and store the result.
func (c *Client) RunAndStore(ctx context.Context, r RunRequest) (*SavedRun, error) {
	if r.Name == "" {
		return nil, errRunName
	}
	var saved SavedRun
	if err := c.do(ctx, http.MethodPost, "/api/eval/run_and_store", nil, r, &saved, true); err != nil {
		return nil, err
	}
	return &saved, nil
}
