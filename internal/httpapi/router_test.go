package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/legal-assistant/internal/ai"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/config"
	"github.com/suPer8Hu/legal-assistant/internal/logging"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
	"github.com/suPer8Hu/legal-assistant/internal/stream"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const scriptedAnswer = "Murder under section 302 is punishable with death or life imprisonment and fine."

func newTestServer(t *testing.T) (*httptest.Server, *redisstore.Memory) {
	t.Helper()
	return newTestServerWith(t, config.Config{JWTSecret: "test-secret", TokenTTL: time.Hour})
}

func newTestServerWith(t *testing.T, cfg config.Config) (*httptest.Server, *redisstore.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(gormsqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cache := redisstore.NewMemory()
	provider := &ai.ScriptedProvider{Reply: func(string) string { return scriptedAnswer }}

	r, err := NewRouter(db, cfg, cache, provider, logging.Discard())
	require.NoError(t, err)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, cache
}

func register(t *testing.T, srv *httptest.Server) (*api.Client, *api.Session) {
	t.Helper()
	c := api.NewClient(srv.URL, nil)
	s, err := c.Register(context.Background(), api.RegisterRequest{Email: "Ada@Example.com", Password: "correct-horse", Name: "Ada"})
	require.NoError(t, err)
	c.Tokens = auth.StaticToken(s.Token)
	return c, s
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	c, s := register(t, srv)
	assert.Equal(t, "bearer", s.Type)
	assert.Equal(t, "ada@example.com", s.User.Email)
	assert.Len(t, s.User.Username, 11)

	_, err := c.Register(ctx, api.RegisterRequest{Email: "ada@example.com", Password: "correct-horse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email already registered")

	_, err = c.Login(ctx, "ada@example.com", "wrong-password")
	assert.True(t, common.IsUnauthorized(err))

	again, err := c.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, again.User.ID)

	p, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, p.ID)
	assert.Equal(t, "Ada", p.Name)
}

func TestChatStream_EndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)
	_, s := register(t, srv)

	sc := stream.New(srv.URL, auth.StaticToken(s.Token))
	defer sc.Close()
	ctx := context.Background()
	req := api.ChatRequest{Question: "What is the punishment for murder?", Complexity: api.ComplexityAdvanced, UserID: s.User.ID}

	require.NoError(t, sc.Send(ctx, req))
	st, err := sc.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusComplete, st.Status)
	assert.Equal(t, scriptedAnswer, st.Text)
	assert.Greater(t, st.Tokens, 1)
	require.NotNil(t, st.Final)
	assert.Equal(t, scriptedAnswer, st.Final.Answer)
	assert.Equal(t, api.ComplexityAdvanced, st.Final.ReadingLevel)
	assert.False(t, st.Final.FromCache)

	// the second ask is served from cache as a lone complete event
	require.NoError(t, sc.Send(ctx, req))
	st, err = sc.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusComplete, st.Status)
	assert.Zero(t, st.Tokens)
	assert.True(t, st.Seeded)
	assert.Equal(t, scriptedAnswer, st.Text)
	require.NotNil(t, st.Final)
	assert.True(t, st.Final.FromCache)
}

func TestChatStream_Unauthenticated(t *testing.T) {
	srv, _ := newTestServer(t)

	sc := stream.New(srv.URL, auth.StaticToken("not-a-real-token"))
	defer sc.Close()
	ctx := context.Background()

	require.NoError(t, sc.Send(ctx, api.ChatRequest{Question: "hello"}))
	st, err := sc.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusError, st.Status)
	assert.Equal(t, "authentication failed: invalid token", st.Err)
	assert.Empty(t, st.Text)
}

func TestEnhancedChat_ValidationBody(t *testing.T) {
	srv, _ := newTestServer(t)
	_, s := register(t, srv)

	body, _ := json.Marshal(api.ChatRequest{Question: "q", Complexity: "galaxy-brain"})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/enhanced-chat", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	he := common.ResponseError(resp)
	assert.True(t, strings.HasPrefix(he.Message, "complexity_level must be one of"))
}

func TestEnhancedChatAndCacheAdmin(t *testing.T) {
	srv, _ := newTestServer(t)
	c, _ := register(t, srv)
	ctx := context.Background()

	a, err := c.Ask(ctx, api.ChatRequest{Question: "What is theft?"})
	require.NoError(t, err)
	assert.Equal(t, scriptedAnswer, a.Answer)
	assert.False(t, a.FromCache)

	a, err = c.Ask(ctx, api.ChatRequest{Question: "  what is THEFT? "})
	require.NoError(t, err)
	assert.True(t, a.FromCache)

	info, err := c.CacheInfo(ctx)
	require.NoError(t, err)
	assert.False(t, info.UsingRedis)
	assert.Equal(t, 1, info.QueryCount)
	assert.Positive(t, info.LatencyCount)

	cleared, err := c.ClearQueries(ctx)
	require.NoError(t, err)
	assert.True(t, cleared.Success)
	assert.Equal(t, 1, cleared.Cleared)

	info, err = c.CacheInfo(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.QueryCount)

	_, err = c.ClearAll(ctx)
	require.NoError(t, err)
}

func TestEvalRuns(t *testing.T) {
	srv, _ := newTestServer(t)
	c, s := register(t, srv)
	ctx := context.Background()

	_, err := c.SaveResults(ctx, api.EvalRun{Name: "base", Metrics: map[string]any{"accuracy": 0.5, "note": "x"}})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = c.SaveResults(ctx, api.EvalRun{Name: "exp", Metrics: map[string]any{"accuracy": 0.75, "recall": 0.4}})
	require.NoError(t, err)

	runs, err := c.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "exp", runs[0].Name)

	cmp, err := c.Compare(ctx, "base", "exp")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cmp.Diffs["accuracy"].Delta, 1e-9)
	assert.InDelta(t, 50, cmp.Diffs["accuracy"].PctChange, 1e-9)
	assert.InDelta(t, 40, cmp.Diffs["recall"].PctChange, 1e-9)
	assert.NotContains(t, cmp.Diffs, "note")

	_, err = c.Compare(ctx, "base", "missing")
	assert.ErrorIs(t, err, api.ErrNotFound)

	saved, err := c.RunAndStore(ctx, api.RunRequest{Name: "nightly", Limit: 2, UserID: s.User.ID})
	require.NoError(t, err)
	assert.True(t, saved.Success)

	run, err := c.Report(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, run.CreatedBy)
	assert.EqualValues(t, 2, run.Metrics["total_questions"])
	assert.Len(t, run.Samples, 2)

	// same name replaces the run
	again, err := c.RunAndStore(ctx, api.RunRequest{Name: "nightly", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	run, err = c.Report(ctx, "nightly")
	require.NoError(t, err)
	assert.Len(t, run.Samples, 1)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "route not found", common.ResponseError(resp).Message)
}

func TestLatencyStats_Percentiles(t *testing.T) {
	srv, cache := newTestServer(t)
	c, s := register(t, srv)
	ctx := context.Background()

	for v := 1; v <= 100; v++ {
		require.NoError(t, cache.PushSample(ctx, redisstore.LatencyKey("enhanced-chat", ""), float64(v), 1000, time.Hour))
	}
	for _, v := range []float64{10, 30} {
		require.NoError(t, cache.PushSample(ctx, redisstore.LatencyKey("enhanced-chat", "someone"), v, 1000, time.Hour))
	}

	rep, err := c.LatencyStats(ctx, "/api/enhanced-chat", "")
	require.NoError(t, err)
	assert.True(t, rep.Success)
	assert.Equal(t, "enhanced-chat", rep.Endpoint)
	assert.Equal(t, "memory", rep.Source)
	st := rep.Stats
	assert.EqualValues(t, 100, st.Count)
	assert.Equal(t, 1.0, st.MinMs)
	assert.Equal(t, 100.0, st.MaxMs)
	assert.InDelta(t, 50.5, st.MedianMs, 1e-9)
	assert.InDelta(t, 50.5, st.MeanMs, 1e-9)
	assert.InDelta(t, 95.05, st.P95Ms, 1e-9)
	assert.InDelta(t, 99.01, st.P99Ms, 1e-9)

	rep, err = c.LatencyStats(ctx, "enhanced-chat", "someone")
	require.NoError(t, err)
	assert.Equal(t, "someone", rep.UserID)
	assert.EqualValues(t, 2, rep.Stats.Count)
	assert.InDelta(t, 20, rep.Stats.MedianMs, 1e-9)

	// nothing recorded yet
	rep, err = c.LatencyStats(ctx, "eval/list", "")
	require.NoError(t, err)
	assert.Zero(t, rep.Stats.Count)

	// the lookups above were recorded under latency/stats/..., and the
	// per-user series stays out of the summary
	sum, err := c.LatencySummary(ctx)
	require.NoError(t, err)
	require.Contains(t, sum.Endpoints, "enhanced-chat")
	assert.EqualValues(t, 100, sum.Endpoints["enhanced-chat"].Count)
	assert.NotContains(t, sum.Endpoints, "eval/list")
	for ep := range sum.Endpoints {
		assert.NotContains(t, ep, ":user:")
	}

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/latency/summary?source=disk", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid source. Must be 'memory'", common.ResponseError(resp).Message)
}

func TestBudget_ChargesAndRefuses(t *testing.T) {
	// the first answer costs 60% of the daily limit
	srv, _ := newTestServerWith(t, config.Config{
		JWTSecret:        "test-secret",
		TokenTTL:         time.Hour,
		BudgetDailyUSD:   0.04,
		BudgetMonthlyUSD: 10,
		CostPer1KTokens:  1,
	})
	c, s := register(t, srv)
	ctx := context.Background()

	b, err := c.Budget(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, b.UserID)
	assert.Equal(t, 0.04, b.Daily.LimitUSD)
	assert.Zero(t, b.Daily.SpentUSD)
	assert.Empty(t, b.AlertLevel)

	q := "What is theft?"
	_, err = c.Ask(ctx, api.ChatRequest{Question: q})
	require.NoError(t, err)

	want := estimateTokens(q+scriptedAnswer) / 1000
	b, err = c.Budget(ctx)
	require.NoError(t, err)
	assert.InDelta(t, want, b.Daily.SpentUSD, 1e-9)
	assert.InDelta(t, want, b.Monthly.SpentUSD, 1e-9)
	assert.InDelta(t, 0.04-want, b.Daily.RemainingUSD, 1e-9)
	assert.Equal(t, "info", b.AlertLevel)

	// cached answers are free
	_, err = c.Ask(ctx, api.ChatRequest{Question: q})
	require.NoError(t, err)
	again, err := c.Budget(ctx)
	require.NoError(t, err)
	assert.InDelta(t, b.Daily.SpentUSD, again.Daily.SpentUSD, 1e-9)

	long := strings.Repeat("Is a verbal contract binding in every state? ", 4)
	_, err = c.Ask(ctx, api.ChatRequest{Question: long})
	var he *common.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusPaymentRequired, he.Status)
	assert.True(t, strings.HasPrefix(he.Message, "Daily budget exceeded."))

	// the stream is refused before any event
	sc := stream.New(srv.URL, auth.StaticToken(s.Token))
	defer sc.Close()
	require.NoError(t, sc.Send(ctx, api.ChatRequest{Question: long}))
	st, err := sc.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, stream.StatusError, st.Status)
	assert.Contains(t, st.Err, "Daily budget exceeded")
	assert.Empty(t, st.Text)
}

func estimateTokens(s string) float64 {
	n := len([]rune(s))
	return float64((n + 3) / 4)
}
