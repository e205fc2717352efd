package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/ai"
	"github.com/suPer8Hu/legal-assistant/internal/config"
	"github.com/suPer8Hu/legal-assistant/internal/db"
	"github.com/suPer8Hu/legal-assistant/internal/httpapi"
	"github.com/suPer8Hu/legal-assistant/internal/logging"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
)

func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("scripted", func(ctx context.Context, model string) (ai.Provider, error) {
		return &ai.ScriptedProvider{}, nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})
	return reg
}

// newCache prefers Redis and falls back to memory when it is not configured
// or not reachable.
func newCache(ctx context.Context, cfg config.Config, log logrus.FieldLogger) redisstore.Cache {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-memory cache")
		return redisstore.NewMemory()
	}
	s := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Ping(pctx); err != nil {
		log.WithError(err).Warn("redis unreachable, using in-memory cache")
		_ = s.Close()
		return redisstore.NewMemory()
	}
	log.WithField("addr", cfg.RedisAddr).Info("redis connected")
	return s
}

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)
	if log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.ServerDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}

	provider, err := newRegistry(cfg).Get(ctx, cfg.AIProvider, "")
	if err != nil {
		log.WithError(err).Fatal("ai provider")
	}

	r, err := httpapi.NewRouter(gdb, cfg, newCache(ctx, cfg, log), provider, log)
	if err != nil {
		log.WithError(err).Fatal("router")
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.ServerAddr, "provider": cfg.AIProvider}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
