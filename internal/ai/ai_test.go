package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/legal-assistant/internal/common"
)

func collect(t *testing.T, chunks <-chan string, errs <-chan error) (string, error) {
	t.Helper()
	var sb strings.Builder
	for c := range chunks {
		sb.WriteString(c)
	}
	return sb.String(), <-errs
}

func TestSplitWords_RoundTrips(t *testing.T) {
	in := "Hello  legal world"
	parts := SplitWords(in)
	assert.Equal(t, []string{"Hello  ", "legal ", "world"}, parts)
	assert.Equal(t, in, strings.Join(parts, ""))
	assert.Empty(t, SplitWords(""))
}

func TestLegalMessages(t *testing.T) {
	msgs := LegalMessages("What is bail?", "")
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Current complexity level: simple")
	assert.Equal(t, Message{Role: "user", Content: "What is bail?"}, msgs[1])
}

func TestStream_ScriptedFallsBackToWords(t *testing.T) {
	p := &ScriptedProvider{Reply: func(q string) string { return "Answer to " + q }}
	chunks, errs := Stream(context.Background(), p, LegalMessages("bail", "simple"))
	out, err := collect(t, chunks, errs)
	require.NoError(t, err)
	assert.Equal(t, "Answer to bail", out)
}

func TestScripted_DefaultReply(t *testing.T) {
	reply, err := (&ScriptedProvider{}).Chat(context.Background(), LegalMessages(" bail ", "simple"))
	require.NoError(t, err)
	assert.Contains(t, reply, `"bail"`)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(" Scripted ", func(ctx context.Context, model string) (Provider, error) {
		return &ScriptedProvider{}, nil
	})
	p, err := r.Get(context.Background(), "scripted", "")
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, []string{"scripted"}, r.Names())

	_, err = r.Get(context.Background(), "nope", "")
	assert.Error(t, err)
}

func TestOllama_ChatAndStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req ollamaChatReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if !req.Stream {
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"whole"},"done":true}`))
			return
		}
		for _, c := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", c)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}` + "\n"))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "m")
	reply, err := p.Chat(context.Background(), LegalMessages("q", ""))
	require.NoError(t, err)
	assert.Equal(t, "whole", reply)

	chunks, errs := p.StreamChat(context.Background(), LegalMessages("q", ""))
	out, err := collect(t, chunks, errs)
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)
}

func TestOpenRouter_StreamSSE(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "lexchat", r.Header.Get("X-Title"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(": OPENROUTER PROCESSING\r\n\r\n"))
		_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"Le"}}]}` + "\r\n\r\n"))
		_, _ = w.Write([]byte(`data: {"choices":[{"delta":{"content":"gal"}}]}` + "\n\n"))
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "key", "openrouter/auto", "", "lexchat")
	chunks, errs := p.StreamChat(context.Background(), LegalMessages("q", ""))
	out, err := collect(t, chunks, errs)
	require.NoError(t, err)
	assert.Equal(t, "Legal", out)
}

func TestOpenRouter_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient credits"}}`))
	}))
	defer srv.Close()

	p := NewOpenRouterProvider(srv.URL, "key", "m", "", "")
	_, err := p.Chat(context.Background(), LegalMessages("q", ""))
	require.Error(t, err)
	var he *common.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusPaymentRequired, he.Status)

	_, err = NewOpenRouterProvider(srv.URL, "", "m", "", "").Chat(context.Background(), nil)
	assert.EqualError(t, err, "openrouter: api key is required")
}
