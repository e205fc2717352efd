package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/legal-assistant/internal/ai"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/config"
	"github.com/suPer8Hu/legal-assistant/internal/httpapi"
	"github.com/suPer8Hu/legal-assistant/internal/logging"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const answer = "Theft under section 379 is punishable with imprisonment of up to three years."

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := gorm.Open(gormsqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	cfg := config.Config{JWTSecret: "cli-secret", TokenTTL: time.Hour}
	provider := &ai.ScriptedProvider{Reply: func(string) string { return answer }}
	r, err := httpapi.NewRouter(db, cfg, redisstore.NewMemory(), provider, logging.Discard())
	require.NoError(t, err)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// setEnv points the CLI at url with a throwaway local database.
func setEnv(t *testing.T, url string) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "lexchat.db")
	t.Setenv("LEGAL_API_URL", url)
	t.Setenv("CREDENTIALS_DSN", dsn)
	t.Setenv("HISTORY_DSN", dsn)
	t.Setenv("LEGAL_API_TOKEN", "")
	t.Setenv("LEGAL_USER_ID", "")
	t.Setenv("LEGAL_COMPLEXITY", "")
	t.Setenv("RABBIT_URL", "")
	t.Setenv("LOG_LEVEL", "error")
}

type result struct {
	out, err string
}

func run(t *testing.T, stdin string, args ...string) (result, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out, &errOut)
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return result{out: out.String(), err: errOut.String()}, err
}

func TestAccountAndAsk(t *testing.T) {
	srv := newServer(t)
	setEnv(t, srv.URL)

	res, err := run(t, "", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "not signed in\n", res.out)

	res, err = run(t, "", "register", "-e", "grace@example.com", "-p", "hopper-1906")
	require.NoError(t, err)
	assert.Contains(t, res.out, "registered grace@example.com")

	res, err = run(t, "", "logout")
	require.NoError(t, err)

	// email and password come from stdin when the flags are empty
	res, err = run(t, "grace@example.com\nhopper-1906\n", "login")
	require.NoError(t, err)
	assert.Contains(t, res.out, "signed in as grace@example.com")
	assert.Contains(t, res.err, "password: ")

	res, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, res.out, "grace@example.com")

	res, err = run(t, "", "ask", "What", "is", "theft?")
	require.NoError(t, err)
	assert.Equal(t, answer+"\n", res.out)
	assert.Contains(t, res.err, "… Analyzing your question...")
	assert.Contains(t, res.err, "confidence")

	res, err = run(t, "", "ask", "--no-stream", "-c", "expert", "What is theft?")
	require.NoError(t, err)
	assert.Contains(t, res.out, answer)

	res, err = run(t, "", "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "QUESTION")
	assert.Contains(t, lines[1], "complete")

	res, err = run(t, "", "history", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, res.err, "more: lexchat history --before")

	_, err = run(t, "", "logout")
	require.NoError(t, err)
	_, err = run(t, "", "ask", "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestAsk_RejectsUnknownComplexity(t *testing.T) {
	setEnv(t, "http://127.0.0.1:1")
	_, err := run(t, "", "ask", "-c", "genius", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown complexity")
}

func TestAsk_ServerRejectsToken(t *testing.T) {
	srv := newServer(t)
	setEnv(t, srv.URL)
	t.Setenv("LEGAL_API_TOKEN", "not-a-jwt")

	res, err := run(t, "", "ask", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
	assert.Empty(t, res.out)
}

func TestEvalAndCacheCommands(t *testing.T) {
	srv := newServer(t)
	setEnv(t, srv.URL)
	_, err := run(t, "", "register", "-e", "eval@example.com", "-p", "evaluator-1")
	require.NoError(t, err)

	res, err := run(t, "", "eval", "run", "baseline", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, res.out, `stored run "baseline"`)
	_, err = run(t, "", "eval", "run", "candidate", "--limit", "3")
	require.NoError(t, err)

	res, err = run(t, "", "eval", "list")
	require.NoError(t, err)
	assert.Contains(t, res.out, "baseline")
	assert.Contains(t, res.out, "candidate")

	res, err = run(t, "", "eval", "compare", "baseline", "candidate")
	require.NoError(t, err)
	assert.Contains(t, res.out, "total_questions")

	res, err = run(t, "", "eval", "report", "baseline")
	require.NoError(t, err)
	assert.Contains(t, res.out, `"name": "baseline"`)

	_, err = run(t, "", "eval", "report", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Run not found")

	_, err = run(t, "", "ask", "What is bail?")
	require.NoError(t, err)

	res, err = run(t, "", "cache", "info")
	require.NoError(t, err)
	assert.Contains(t, res.out, "backend memory")
	assert.Contains(t, res.out, "queries 1")

	res, err = run(t, "", "cache", "clear", "--what", "all")
	require.NoError(t, err)
	assert.NotEmpty(t, res.out)

	_, err = run(t, "", "cache", "clear", "--what", "everything")
	require.Error(t, err)
}

func TestLatencyAndBudgetCommands(t *testing.T) {
	srv := newServer(t)
	setEnv(t, srv.URL)
	_, err := run(t, "", "register", "-e", "stats@example.com", "-p", "statistician")
	require.NoError(t, err)

	res, err := run(t, "", "latency", "stats", "enhanced-chat")
	require.NoError(t, err)
	assert.Contains(t, res.out, "no samples for enhanced-chat")

	_, err = run(t, "", "ask", "--no-stream", "What is bail?")
	require.NoError(t, err)

	res, err = run(t, "", "latency", "stats", "/api/enhanced-chat")
	require.NoError(t, err)
	assert.Contains(t, res.out, "endpoint enhanced-chat")
	assert.Contains(t, res.out, "count    1")
	assert.Contains(t, res.out, "p99")

	res, err = run(t, "", "latency", "summary")
	require.NoError(t, err)
	assert.Contains(t, res.out, "ENDPOINT")
	assert.Contains(t, res.out, "enhanced-chat")
	assert.Contains(t, res.out, "auth/register")

	res, err = run(t, "", "budget")
	require.NoError(t, err)
	assert.Contains(t, res.out, "daily")
	assert.Contains(t, res.out, "of $1.00")
	assert.Contains(t, res.out, "monthly")

	_, err = run(t, "", "latency", "stats")
	require.Error(t, err)
}

func TestAskStream_InterruptStops(t *testing.T) {
	got := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"token\",\"content\":\"Partial \"}\n\n")
		w.(http.Flusher).Flush()
		once.Do(func() { close(got) })
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	setEnv(t, srv.URL)
	t.Setenv("LEGAL_API_TOKEN", "opaque-token")

	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(""), &out, &errOut)
	stops := func(context.Context) <-chan struct{} { return got }

	req := api.ChatRequest{Question: "Is this slow?", Complexity: api.ComplexitySimple, UserID: "u1"}
	require.NoError(t, a.askStream(context.Background(), req, true, stops))
	assert.Contains(t, errOut.String(), "[stopped]")

	repo, err := a.history()
	require.NoError(t, err)
	list, err := repo.ListRecent(context.Background(), "u1", 5, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "stopped", list[0].Status)
	assert.Equal(t, "Is this slow?", list[0].Question)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "a b c", clip("a\n b\tc", 10))
	assert.Equal(t, "abcd…", clip("abcdefgh", 5))
}
