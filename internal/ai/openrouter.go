package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/suPer8Hu/legal-assistant/internal/stream"
)

type OpenRouterProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	SiteURL string
	AppName string
	Client  *http.Client
}

type openRouterChatReq struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type openRouterError struct {
	Message string `json:"message"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message Message `json:"message"`
		Delta   struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *openRouterError `json:"error,omitempty"`
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string) *OpenRouterProvider {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *OpenRouterProvider) prepare(messages []Message, streaming bool) (map[string]string, openRouterChatReq, error) {
	if p.Client == nil {
		return nil, openRouterChatReq{}, errors.New("openrouter: http client is nil")
	}
	if strings.TrimSpace(p.APIKey) == "" {
		return nil, openRouterChatReq{}, errors.New("openrouter: api key is required")
	}
	model := strings.TrimSpace(p.Model)
	if model == "" {
		return nil, openRouterChatReq{}, errors.New("openrouter: model is required")
	}

	headers := map[string]string{"Authorization": "Bearer " + p.APIKey}
	if p.SiteURL != "" {
		headers["HTTP-Referer"] = p.SiteURL
	}
	if p.AppName != "" {
		headers["X-Title"] = p.AppName
	}
	if streaming {
		headers["Accept"] = "text/event-stream"
	}
	return headers, openRouterChatReq{Model: model, Messages: messages, Stream: streaming}, nil
}

func (p *OpenRouterProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	headers, body, err := p.prepare(messages, false)
	if err != nil {
		return "", err
	}
	resp, err := postJSON(ctx, p.Client, p.BaseURL+"/chat/completions", headers, body)
	if err != nil {
		return "", wrap("openrouter", err)
	}
	defer resp.Body.Close()

	var decoded openRouterChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", wrap("openrouter", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openrouter: empty response")
	}
	return decoded.Choices[0].Message.Content, nil
}

// StreamChat streams assistant content chunks via SSE.
func (p *OpenRouterProvider) StreamChat(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	chunks := make(chan string, 16)
	errs := make(chan error, 1)

	go func() {
		defer close(chunks)
		defer close(errs)

		headers, body, err := p.prepare(messages, true)
		if err != nil {
			errs <- err
			return
		}
		resp, err := postJSON(ctx, streamClient(p.Client), p.BaseURL+"/chat/completions", headers, body)
		if err != nil {
			errs <- wrap("openrouter", err)
			return
		}
		defer resp.Body.Close()

		// emit returns true once the stream is finished or failed
		emit := func(data string) bool {
			if data == stream.DoneSentinel {
				return true
			}
			var decoded openRouterChatResp
			if err := json.Unmarshal([]byte(data), &decoded); err != nil {
				errs <- wrap("openrouter", err)
				return true
			}
			if decoded.Error != nil && decoded.Error.Message != "" {
				errs <- errors.New(decoded.Error.Message)
				return true
			}
			if len(decoded.Choices) > 0 && decoded.Choices[0].Delta.Content != "" {
				return !send(ctx, chunks, decoded.Choices[0].Delta.Content)
			}
			return false
		}

		var f stream.Framer
		buf := make([]byte, 4096)
		for {
			n, rerr := resp.Body.Read(buf)
			for _, data := range f.Feed(buf[:n]) {
				if emit(data) {
					return
				}
			}
			if errors.Is(rerr, io.EOF) {
				for _, data := range f.Flush() {
					if emit(data) {
						return
					}
				}
				return
			}
			if rerr != nil {
				errs <- wrap("openrouter", rerr)
				return
			}
		}
	}()

	return chunks, errs
}
