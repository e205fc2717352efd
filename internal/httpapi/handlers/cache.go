package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
)

// prefixes removed by clear-all; anything else in the cache is kept.
var clearAllPrefixes = []string{redisstore.QueryPrefix, redisstore.LatencyPrefix, "eval_score:", "eval_rerank_weights"}

func (h *Handler) CacheInfo(c *gin.Context) {
	info, err := h.Cache.Info(c.Request.Context())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "CACHE_ERROR", "failed to read cache info")
		return
	}
	common.OK(c, http.StatusOK, api.CacheInfo{
		UsingRedis:   info.UsingRedis,
		QueryCount:   info.QueryCount,
		LatencyCount: info.LatencyCount,
		OtherCount:   info.OtherCount,
		TotalKeys:    info.TotalKeys,
	})
}

func (h *Handler) clear(c *gin.Context, what string, prefixes ...string) {
	total := 0
	for _, p := range prefixes {
		n, err := h.Cache.ClearPrefix(c.Request.Context(), p)
		total += n
		if err != nil {
			h.Log.WithError(err).WithField("prefix", p).Error("cache clear failed")
			common.Fail(c, http.StatusInternalServerError, "CACHE_ERROR", "Failed to clear "+what+": "+err.Error())
			return
		}
	}
	h.Log.WithField("cleared", total).Info("cleared " + what)
	common.OK(c, http.StatusOK, api.CacheCleared{
		Success: true,
		Message: fmt.Sprintf("Cleared %d %s", total, what),
		Cleared: total,
	})
}

func (h *Handler) ClearQueryCache(c *gin.Context) {
	h.clear(c, "cached query responses", redisstore.QueryPrefix)
}

func (h *Handler) ClearLatencyCache(c *gin.Context) {
	h.clear(c, "latency cache entries", redisstore.LatencyPrefix)
}

func (h *Handler) ClearAllCache(c *gin.Context) {
	h.clear(c, "cache entries", clearAllPrefixes...)
}
