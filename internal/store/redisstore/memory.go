package redisstore

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value   string
	samples []float64
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily.
type Memory struct {
	mu   sync.Mutex
	data map[string]*memEntry
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]*memEntry), now: time.Now}
}

// live returns the entry at key, evicting it if expired. Caller holds mu.
func (m *Memory) live(key string) *memEntry {
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		return nil
	}
	return e
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil || e.samples != nil {
		return "", ErrMiss
	}
	return e.value, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = &memEntry{value: value, expires: m.expiry(ttl)}
	return nil
}

func (m *Memory) PushSample(ctx context.Context, key string, v float64, keep int, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		e = &memEntry{}
		m.data[key] = e
	}
	e.samples = append(e.samples, v)
	if keep > 0 && len(e.samples) > keep {
		e.samples = append([]float64(nil), e.samples[len(e.samples)-keep:]...)
	}
	if ttl > 0 {
		e.expires = m.expiry(ttl)
	}
	return nil
}

func (m *Memory) Samples(ctx context.Context, key string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		return nil, nil
	}
	return append([]float64(nil), e.samples...), nil
}

func (m *Memory) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) && m.live(k) != nil {
			out = append(out, k)
		}
	}
	return out, nil
}

func (m *Memory) ClearPrefix(ctx context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if m.live(k) == nil {
			continue
		}
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Info(ctx context.Context) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var info Info
	for k := range m.data {
		if m.live(k) != nil {
			info.count(k)
		}
	}
	return info, nil
}
