package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/ai"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/config"
	"github.com/suPer8Hu/legal-assistant/internal/httpapi/handlers"
	"github.com/suPer8Hu/legal-assistant/internal/httpapi/middleware"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
	"gorm.io/gorm"
)

// NewRouter wires the stand-in legal-assistant API.
func NewRouter(db *gorm.DB, cfg config.Config, cache redisstore.Cache, provider ai.Provider, log logrus.FieldLogger) (*gin.Engine, error) {
	h, err := handlers.NewHandler(db, cfg, cache, provider, log)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Latency(cache, log))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) {
		common.OK(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// auth
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)

	authGroup := r.Group("/api")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/auth/me", h.Me)

	// chat
	authGroup.POST("/chat/stream", h.ChatStream)
	authGroup.POST("/enhanced-chat", h.EnhancedChat)

	// evaluation
	authGroup.POST("/eval/results", h.SaveEvalResults)
	authGroup.POST("/eval/run_and_store", h.RunAndStoreEval)
	authGroup.GET("/eval/list", h.ListEvalRuns)
	authGroup.GET("/eval/report", h.EvalReport)
	authGroup.GET("/eval/compare", h.CompareEvalRuns)

	// cache admin
	authGroup.GET("/cache/info", h.CacheInfo)
	authGroup.DELETE("/cache/clear-queries", h.ClearQueryCache)
	authGroup.DELETE("/cache/clear-latency", h.ClearLatencyCache)
	authGroup.DELETE("/cache/clear-all", h.ClearAllCache)

	// latency admin
	authGroup.GET("/latency/summary", h.LatencySummary)
	authGroup.GET("/latency/stats/*endpoint", h.LatencyStats)

	// spend limits
	authGroup.GET("/budget", h.Budget)
	return r, nil
}
