package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/suPer8Hu/legal-assistant/internal/models"
)

func TestEstimateCost(t *testing.T) {
	assert.Zero(t, estimateCost(1))
	// 5 runes round up to 2 tokens
	assert.InDelta(t, 0.002, estimateCost(1, "héllo"), 1e-12)
	assert.InDelta(t, 0.002, estimateCost(1, "abcd", "efgh"), 1e-12)
	assert.InDelta(t, 0.000004, estimateCost(0.002, "abcdefgh"), 1e-12)
}

func TestAlertLevel(t *testing.T) {
	cases := []struct {
		spent, limit float64
		want         string
	}{
		{0, 1, ""},
		{0.49, 1, ""},
		{0.5, 1, "info"},
		{0.75, 1, "warning"},
		{0.95, 1, "critical"},
		{1, 1, "emergency"},
		{3, 1, "emergency"},
		{1, 0, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, alertLevel(tc.spent, tc.limit), "%v of %v", tc.spent, tc.limit)
	}

	b := &models.Budget{DailyLimitUSD: 1, DailySpentUSD: 0.6, MonthlyLimitUSD: 1, MonthlySpentUSD: 0.8}
	assert.Equal(t, "warning", budgetAlert(b))
	b.DailySpentUSD = 0.9
	assert.Equal(t, "critical", budgetAlert(b))
}

func TestRollover(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	b := &models.Budget{
		DailySpentUSD:   0.4,
		MonthlySpentUSD: 3,
		DailyResetAt:    dayStart(now),
		MonthlyResetAt:  monthStart(now),
	}
	assert.False(t, rollover(b, now.Add(13*time.Hour+59*time.Minute)))
	assert.Equal(t, 0.4, b.DailySpentUSD)

	assert.True(t, rollover(b, now.Add(14*time.Hour)))
	assert.Zero(t, b.DailySpentUSD)
	assert.Equal(t, 3.0, b.MonthlySpentUSD)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), b.DailyResetAt)

	b.DailySpentUSD = 0.2
	assert.True(t, rollover(b, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
	assert.Zero(t, b.DailySpentUSD)
	assert.Zero(t, b.MonthlySpentUSD)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), b.MonthlyResetAt)
}
