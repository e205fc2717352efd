package handlers

import (
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
)

// latencySource is the only source served; samples live in the cache.
const latencySource = "memory"

// summarize computes the latency stats of samples. Percentiles interpolate
// linearly between closest ranks.
func summarize(samples []float64) api.LatencyStats {
	if len(samples) == 0 {
		return api.LatencyStats{}
	}
	s := append([]float64(nil), samples...)
	sort.Float64s(s)
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return api.LatencyStats{
		Count:    float64(len(s)),
		MinMs:    s[0],
		MaxMs:    s[len(s)-1],
		MedianMs: percentile(s, 50),
		MeanMs:   sum / float64(len(s)),
		P95Ms:    percentile(s, 95),
		P99Ms:    percentile(s, 99),
	}
}

// percentile expects sorted, non-empty input.
func percentile(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo, hi := int(math.Floor(rank)), int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func validSource(c *gin.Context) bool {
	if src := c.Query("source"); src != "" && src != latencySource {
		common.Fail(c, http.StatusBadRequest, "INVALID_SOURCE", "Invalid source. Must be 'memory'")
		return false
	}
	return true
}

// LatencyStats serves GET /latency/stats/*endpoint with an optional user_id.
func (h *Handler) LatencyStats(c *gin.Context) {
	endpoint := strings.Trim(c.Param("endpoint"), "/")
	if endpoint == "" {
		common.Fail(c, http.StatusBadRequest, "MISSING_ENDPOINT", "endpoint is required")
		return
	}
	if !validSource(c) {
		return
	}
	userID := c.Query("user_id")
	samples, err := h.Cache.Samples(c.Request.Context(), redisstore.LatencyKey(endpoint, userID))
	if err != nil {
		h.Log.WithError(err).WithField("endpoint", endpoint).Error("latency read failed")
		common.Fail(c, http.StatusInternalServerError, "CACHE_ERROR", "Failed to retrieve latency statistics: "+err.Error())
		return
	}
	common.OK(c, http.StatusOK, api.LatencyReport{
		Success:  true,
		Message:  "Latency statistics for " + endpoint,
		Endpoint: endpoint,
		UserID:   userID,
		Stats:    summarize(samples),
		Source:   latencySource,
	})
}

// LatencySummary reports every endpoint that has samples.
func (h *Handler) LatencySummary(c *gin.Context) {
	if !validSource(c) {
		return
	}
	ctx := c.Request.Context()
	keys, err := h.Cache.Keys(ctx, redisstore.LatencyPrefix)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "CACHE_ERROR", "Failed to retrieve latency summary: "+err.Error())
		return
	}
	endpoints := map[string]api.LatencyStats{}
	for _, k := range keys {
		ep, ok := redisstore.EndpointOf(k)
		if !ok {
			continue
		}
		samples, err := h.Cache.Samples(ctx, k)
		if err != nil {
			h.Log.WithError(err).WithField("key", k).Warn("latency read failed")
			continue
		}
		if len(samples) > 0 {
			endpoints[ep] = summarize(samples)
		}
	}
	common.OK(c, http.StatusOK, api.LatencySummary{
		Success:   true,
		Message:   "Latency summary for all endpoints",
		Endpoints: endpoints,
		Source:    latencySource,
	})
}
