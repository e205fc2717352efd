package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/ai"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/httpapi/middleware"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
)

const (
	answerTTL      = time.Hour
	heartbeatEvery = 15 * time.Second
)

// bindChat reads and validates a chat body, failing the request on error.
func bindChat(c *gin.Context) (api.ChatRequest, bool) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return req, false
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		common.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "question is required")
		return req, false
	}
	if req.Complexity == "" {
		req.Complexity = api.ComplexitySimple
	}
	if !api.ValidComplexity(req.Complexity) {
		common.Fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
			fmt.Sprintf("complexity_level must be one of simple, intermediate, advanced, expert (got %q)", req.Complexity))
		return req, false
	}
	if uid := middleware.UserID(c); uid != "" {
		req.UserID = uid
	}
	return req, true
}

// cached returns the stored answer for req, if any.
func (h *Handler) cached(ctx context.Context, req api.ChatRequest) (*api.Answer, bool) {
	raw, err := h.Cache.Get(ctx, redisstore.QueryKey(req.Question, req.Complexity))
	if err != nil {
		if !errors.Is(err, redisstore.ErrMiss) {
			h.Log.WithError(err).Warn("cache read failed")
		}
		return nil, false
	}
	var a api.Answer
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, false
	}
	a.FromCache = true
	return &a, true
}

func (h *Handler) store(ctx context.Context, req api.ChatRequest, a *api.Answer) {
	b, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := h.Cache.Set(ctx, redisstore.QueryKey(req.Question, req.Complexity), string(b), answerTTL); err != nil {
		h.Log.WithError(err).Warn("cache write failed")
	}
}

func buildAnswer(req api.ChatRequest, text string, started time.Time) *api.Answer {
	confidence := 0.5
	if len(text) > 200 {
		confidence = 0.75
	}
	return &api.Answer{
		Answer:          text,
		SourceDocuments: []api.SourceDocument{},
		Confidence:      confidence,
		ToolsUsed:       []string{},
		Citations:       []map[string]any{},
		ReadingLevel:    req.Complexity,
		ResponseTimeMs:  time.Since(started).Milliseconds(),
		QueryAnalysis: map[string]any{
			"complexity_level": req.Complexity,
			"question_length":  len(req.Question),
		},
		RetrievalStats: &api.RetrievalStats{},
	}
}

// EnhancedChat answers in one response.
func (h *Handler) EnhancedChat(c *gin.Context) {
	req, ok := bindChat(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if a, hit := h.cached(ctx, req); hit {
		common.OK(c, http.StatusOK, a)
		return
	}
	if !h.chargeable(c, req) {
		return
	}

	started := time.Now()
	text, err := h.AI.Chat(ctx, ai.LegalMessages(req.Question, req.Complexity))
	if err != nil {
		h.Log.WithError(err).WithField("request_id", req.RequestID).Error("generation failed")
		common.Fail(c, http.StatusBadGateway, "GENERATION_FAILED", "the assistant could not generate an answer")
		return
	}
	a := buildAnswer(req, text, started)
	h.store(ctx, req, a)
	h.recordSpend(context.WithoutCancel(ctx), req.UserID, req.Question, text)
	common.OK(c, http.StatusOK, a)
}

type sseWriter struct {
	c       *gin.Context
	flusher http.Flusher
}

func (w sseWriter) event(payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		// last-resort: send a simple error that won't break SSE framing
		b = []byte(`{"type":"error","message":"json marshal failed"}`)
	}
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", b)
	w.flusher.Flush()
}

func (w sseWriter) done() {
	fmt.Fprint(w.c.Writer, "data: [DONE]\n\n")
	w.flusher.Flush()
}

func (w sseWriter) ping() {
	fmt.Fprint(w.c.Writer, ": ping\n\n")
	w.flusher.Flush()
}

// ChatStream answers as server-sent events: a status label, the answer as
// token events, a complete event with the structured answer, then [DONE].
// A cached answer is sent as a lone complete event. An unaffordable question
// is refused with 402 before any event is written.
func (h *Handler) ChatStream(c *gin.Context) {
	req, ok := bindChat(c)
	if !ok {
		return
	}
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, "STREAM_UNSUPPORTED", "streaming not supported")
		return
	}
	ctx := c.Request.Context()
	cachedAnswer, hit := h.cached(ctx, req)
	if !hit && !h.chargeable(c, req) {
		return
	}

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	w := sseWriter{c: c, flusher: flusher}
	log := h.Log.WithFields(logrus.Fields{"request_id": req.RequestID, "complexity": req.Complexity})

	if hit {
		w.event(gin.H{"type": "complete", "data": cachedAnswer})
		w.done()
		log.Debug("stream served from cache")
		return
	}

	started := time.Now()
	w.event(gin.H{"type": "status", "message": "Analyzing your question..."})
	chunks, errs := ai.Stream(ctx, h.AI, ai.LegalMessages(req.Question, req.Complexity))

	// heartbeat ticker (keeps connections alive)
	ticker := time.NewTicker(heartbeatEvery)
	defer ticker.Stop()

	var text strings.Builder
	first := true
	for chunks != nil || errs != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			if first {
				w.event(gin.H{"type": "status", "message": "Generating answer..."})
				first = false
			}
			text.WriteString(chunk)
			w.event(gin.H{"type": "token", "content": chunk})

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.WithError(err).Error("generation failed")
			w.event(gin.H{"type": "error", "message": "the assistant could not generate an answer"})
			return

		case <-ticker.C:
			w.ping()

		case <-ctx.Done():
			log.Debug("client went away")
			return
		}
	}

	a := buildAnswer(req, text.String(), started)
	h.store(context.WithoutCancel(ctx), req, a)
	h.recordSpend(context.WithoutCancel(ctx), req.UserID, req.Question, text.String())
	w.event(gin.H{"type": "complete", "data": a})
	w.done()
}
