package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/store/redisstore"
)

const (
	latencySamples = 1000
	latencyTTL     = 24 * time.Hour
)

// Latency records the duration of every matched route under
// `latency:<endpoint>` and, for signed-in callers,
// `latency:<endpoint>:user:<id>`. The endpoint is the route without its
// `/api/` prefix, e.g. `chat/stream`.
func Latency(cache redisstore.Cache, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			return
		}
		endpoint := EndpointName(route)
		ms := float64(time.Since(start).Microseconds()) / 1000
		keys := []string{redisstore.LatencyKey(endpoint, "")}
		if uid := UserID(c); uid != "" {
			keys = append(keys, redisstore.LatencyKey(endpoint, uid))
		}

		// the request context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for _, k := range keys {
			if err := cache.PushSample(ctx, k, ms, latencySamples, latencyTTL); err != nil {
				log.WithError(err).WithField("key", k).Warn("latency sample dropped")
				return
			}
		}
		log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"status":     c.Writer.Status(),
			"latency_ms": ms,
			"request_id": c.GetString(RequestIDKey),
		}).Debug("request")
	}
}

// EndpointName strips the API prefix from a route path.
func EndpointName(route string) string {
	return strings.TrimPrefix(strings.TrimPrefix(route, "/api"), "/")
}
