package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Legal-assistant API (client side)
	APIBaseURL        string
	StreamPath        string
	APIToken          string
	UserID            string
	DefaultComplexity string
	RequestTimeout    time.Duration

	// local persistence
	CredentialsDSN string
	HistoryDSN     string

	LogLevel string

	// rabbitMQ (transcript fan-out); empty URL disables publishing
	RabbitURL         string
	RabbitQueue       string
	WorkerConcurrency int

	// stand-in server
	ServerAddr    string
	ServerDSN     string
	JWTSecret     string
	TokenTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// per-user spend limits of the stand-in server; cost is estimated from
	// characters at 4 per token
	BudgetDailyUSD   float64
	BudgetMonthlyUSD float64
	CostPer1KTokens  float64

	// AI provider used by the stand-in server
	AIProvider        string
	OllamaBaseURL     string
	OllamaModel       string
	OpenRouterBaseURL string
	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterSiteURL string
	OpenRouterAppName string
}

func Load() Config {
	apiURL := envOr("LEGAL_API_URL", "http://localhost:8000")

	timeout := 120 * time.Second
	if v := os.Getenv("LEGAL_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	home, _ := os.UserHomeDir()
	defaultDB := "lexchat.db"
	if home != "" {
		defaultDB = home + string(os.PathSeparator) + ".lexchat.db"
	}

	concurrency := 2
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			concurrency = min(n, 50)
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	tokenTTL := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tokenTTL = time.Duration(n) * time.Hour
		}
	}

	return Config{
		APIBaseURL:        strings.TrimRight(apiURL, "/"),
		StreamPath:        envOr("LEGAL_STREAM_PATH", "/api/chat/stream"),
		APIToken:          os.Getenv("LEGAL_API_TOKEN"),
		UserID:            os.Getenv("LEGAL_USER_ID"),
		DefaultComplexity: envOr("LEGAL_COMPLEXITY", "simple"),
		RequestTimeout:    timeout,

		CredentialsDSN: envOr("CREDENTIALS_DSN", defaultDB),
		HistoryDSN:     envOr("HISTORY_DSN", defaultDB),

		LogLevel: envOr("LOG_LEVEL", "info"),

		RabbitURL:         os.Getenv("RABBIT_URL"),
		RabbitQueue:       envOr("RABBIT_QUEUE", "chat_transcripts"),
		WorkerConcurrency: concurrency,

		ServerAddr:    envOr("SERVER_ADDR", ":8000"),
		ServerDSN:     envOr("SERVER_DSN", "legal-server.db"),
		JWTSecret:     envOr("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:      tokenTTL,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		BudgetDailyUSD:   envFloat("BUDGET_DAILY_USD", 1.0),
		BudgetMonthlyUSD: envFloat("BUDGET_MONTHLY_USD", 20.0),
		CostPer1KTokens:  envFloat("COST_PER_1K_TOKENS", 0.002),

		AIProvider:        envOr("AI_PROVIDER", "scripted"),
		OllamaBaseURL:     envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:       envOr("OLLAMA_MODEL", "llama3:latest"),
		OpenRouterBaseURL: envOr("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:   envOr("OPENROUTER_MODEL", "openrouter/auto"),
		OpenRouterSiteURL: os.Getenv("OPENROUTER_SITE_URL"),
		OpenRouterAppName: os.Getenv("OPENROUTER_APP_NAME"),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return def
}
