package redisstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// Key prefixes shared with the cache admin endpoints.
const (
	QueryPrefix   = "query:"
	LatencyPrefix = "latency:"
)

var ErrMiss = errors.New("cache: miss")

// Info summarises the key space by prefix.
type Info struct {
	UsingRedis   bool
	QueryCount   int
	LatencyCount int
	OtherCount   int
	TotalKeys    int
}

func (i *Info) count(key string) {
	i.TotalKeys++
	switch {
	case strings.HasPrefix(key, QueryPrefix):
		i.QueryCount++
	case strings.HasPrefix(key, LatencyPrefix):
		i.LatencyCount++
	default:
		i.OtherCount++
	}
}

// Cache is the answer/latency cache of the stand-in server. Store is backed
// by Redis, Memory is the fallback when no Redis is configured.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// PushSample appends v to the list at key, keeping the newest keep values.
	PushSample(ctx context.Context, key string, v float64, keep int, ttl time.Duration) error
	Samples(ctx context.Context, key string) ([]float64, error)
	// Keys lists the live keys starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	ClearPrefix(ctx context.Context, prefix string) (int, error)
	Info(ctx context.Context) (Info, error)
}

// QueryKey is the cache key of an answer. Questions differing only in case
// or surrounding whitespace share a key.
func QueryKey(question, complexity string) string {
	q := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha256.Sum256([]byte(complexity + "|" + q))
	return QueryPrefix + hex.EncodeToString(sum[:16])
}
