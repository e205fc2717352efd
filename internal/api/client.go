package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/common"
)

var (
	ErrEmptyQuestion = errors.New("api: question is required")
	ErrNotFound      = errors.New("api: not found")
)

// Client calls the request/response endpoints of the legal-assistant API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  auth.TokenProvider
}

func NewClient(baseURL string, tokens auth.TokenProvider) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 90 * time.Second},
		Tokens:  tokens,
	}
}

// do sends in as JSON (when non-nil) and decodes a 2xx body into out (when
// non-nil). Authenticated calls fail before the request when no usable
// token is available.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any, authed bool) error {
	if c.HTTP == nil {
		return errors.New("api: http client is nil")
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		if c.Tokens == nil {
			return auth.ErrNoToken
		}
		tok, err := c.Tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := common.ResponseError(resp)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrNotFound, he)
		}
		return he
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode %s: %w", path, err)
	}
	return nil
}
