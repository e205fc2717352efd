package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/suPer8Hu/legal-assistant/internal/common"
)

// postJSON sends body to url and returns the response when it is 2xx. The
// caller closes resp.Body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, common.ResponseError(resp)
	}
	return resp, nil
}

// streamClient drops the overall timeout for streaming calls; ctx bounds them.
func streamClient(c *http.Client) *http.Client {
	if c.Timeout == 0 {
		return c
	}
	cp := *c
	cp.Timeout = 0
	return &cp
}

func wrap(provider string, err error) error {
	return fmt.Errorf("%s: %w", provider, err)
}
