package redisstore

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *Store) PushSample(ctx context.Context, key string, v float64, keep int, ttl time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, strconv.FormatFloat(v, 'f', -1, 64))
	if keep > 0 {
		pipe.LTrim(ctx, key, int64(-keep), -1)
	}
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Samples(ctx context.Context, key string) ([]float64, error) {
	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		if f, err := strconv.ParseFloat(r, 64); err == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	return out, iter.Err()
}

// ClearPrefix deletes every key starting with prefix. It walks the key space
// with SCAN so a large cache does not block the server.
func (s *Store) ClearPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		cleared int
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			return cleared, err
		}
		if len(keys) > 0 {
			n, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return cleared, err
			}
			cleared += int(n)
		}
		cursor = next
		if cursor == 0 {
			return cleared, nil
		}
	}
}

func (s *Store) Info(ctx context.Context) (Info, error) {
	info := Info{UsingRedis: true}
	iter := s.rdb.Scan(ctx, 0, "*", 500).Iterator()
	for iter.Next(ctx) {
		info.count(iter.Val())
	}
	return info, iter.Err()
}
