package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/httpapi/middleware"
	"github.com/suPer8Hu/legal-assistant/internal/models"
	"gorm.io/gorm"
)

const (
	charsPerToken     = 4
	defaultDailyUSD   = 1.0
	defaultMonthlyUSD = 20.0
	defaultCostPer1K  = 0.002
)

// highest first
var alertThresholds = []struct {
	pct   float64
	level string
}{
	{100, "emergency"},
	{90, "critical"},
	{75, "warning"},
	{50, "info"},
}

func alertLevel(spent, limit float64) string {
	if limit <= 0 {
		return ""
	}
	pct := spent / limit * 100
	for _, t := range alertThresholds {
		if pct >= t.pct {
			return t.level
		}
	}
	return ""
}

func alertRank(level string) int {
	for i, t := range alertThresholds {
		if t.level == level {
			return len(alertThresholds) - i
		}
	}
	return 0
}

// budgetAlert is the higher alert of the two periods.
func budgetAlert(b *models.Budget) string {
	d := alertLevel(b.DailySpentUSD, b.DailyLimitUSD)
	m := alertLevel(b.MonthlySpentUSD, b.MonthlyLimitUSD)
	if alertRank(m) > alertRank(d) {
		return m
	}
	return d
}

// estimateCost prices texts at charsPerToken characters per token.
func estimateCost(perK float64, texts ...string) float64 {
	n := 0
	for _, t := range texts {
		n += utf8.RuneCountInString(t)
	}
	tokens := (n + charsPerToken - 1) / charsPerToken
	return float64(tokens) / 1000 * perK
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// rollover zeroes the spent amounts whose period ended before now and
// reports whether b changed.
func rollover(b *models.Budget, now time.Time) bool {
	changed := false
	if d := dayStart(now); b.DailyResetAt.Before(d) {
		b.DailySpentUSD, b.DailyResetAt = 0, d
		changed = true
	}
	if m := monthStart(now); b.MonthlyResetAt.Before(m) {
		b.MonthlySpentUSD, b.MonthlyResetAt = 0, m
		changed = true
	}
	return changed
}

func (h *Handler) budgetDefaults() (daily, monthly, perK float64) {
	daily, monthly, perK = h.Cfg.BudgetDailyUSD, h.Cfg.BudgetMonthlyUSD, h.Cfg.CostPer1KTokens
	if daily <= 0 {
		daily = defaultDailyUSD
	}
	if monthly <= 0 {
		monthly = defaultMonthlyUSD
	}
	if perK <= 0 {
		perK = defaultCostPer1K
	}
	return daily, monthly, perK
}

// loadBudget returns the user's budget as of now, creating it with the
// configured limits on first use. changed means the rollover has not been
// saved yet.
func (h *Handler) loadBudget(tx *gorm.DB, userID string, now time.Time) (b *models.Budget, changed bool, err error) {
	daily, monthly, _ := h.budgetDefaults()
	b = &models.Budget{}
	err = tx.Where(models.Budget{UserID: userID}).
		Attrs(models.Budget{
			DailyLimitUSD:   daily,
			MonthlyLimitUSD: monthly,
			DailyResetAt:    dayStart(now),
			MonthlyResetAt:  monthStart(now),
		}).
		FirstOrCreate(b).Error
	if err != nil {
		return nil, false, err
	}
	return b, rollover(b, now), nil
}

// affordable reports whether userID can pay est; otherwise the message says
// which limit is in the way.
func (h *Handler) affordable(ctx context.Context, userID string, est float64) (string, bool) {
	if userID == "" {
		return "", true
	}
	b, _, err := h.loadBudget(h.DB.WithContext(ctx), userID, time.Now())
	if err != nil {
		h.Log.WithError(err).WithField("user_id", userID).Error("budget read failed")
		return "Budget check failed", false
	}
	if left := b.DailyLimitUSD - b.DailySpentUSD; est > left {
		return fmt.Sprintf("Daily budget exceeded. Remaining: $%.4f, Request: $%.4f", max(left, 0), est), false
	}
	if left := b.MonthlyLimitUSD - b.MonthlySpentUSD; est > left {
		return fmt.Sprintf("Monthly budget exceeded. Remaining: $%.4f, Request: $%.4f", max(left, 0), est), false
	}
	return "", true
}

// chargeable checks the price of asking question before generation starts.
func (h *Handler) chargeable(c *gin.Context, req api.ChatRequest) bool {
	_, _, perK := h.budgetDefaults()
	msg, ok := h.affordable(c.Request.Context(), req.UserID, estimateCost(perK, req.Question))
	if !ok {
		common.Fail(c, http.StatusPaymentRequired, "BUDGET_EXCEEDED", msg)
	}
	return ok
}

// recordSpend charges the question and answer to userID and logs an alert
// when the spend crosses into a higher level.
func (h *Handler) recordSpend(ctx context.Context, userID, question, answer string) {
	if userID == "" {
		return
	}
	_, _, perK := h.budgetDefaults()
	cost := estimateCost(perK, question, answer)
	if cost <= 0 {
		return
	}
	var before, after string
	var b *models.Budget
	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var changed bool
		var err error
		b, changed, err = h.loadBudget(tx, userID, time.Now())
		if err != nil {
			return err
		}
		if changed {
			if err := tx.Save(b).Error; err != nil {
				return err
			}
		}
		before = budgetAlert(b)
		if err := tx.Model(b).Updates(map[string]any{
			"daily_spent_usd":   gorm.Expr("daily_spent_usd + ?", cost),
			"monthly_spent_usd": gorm.Expr("monthly_spent_usd + ?", cost),
		}).Error; err != nil {
			return err
		}
		b.DailySpentUSD += cost
		b.MonthlySpentUSD += cost
		after = budgetAlert(b)
		return nil
	})
	if err != nil {
		h.Log.WithError(err).WithField("user_id", userID).Warn("budget write failed")
		return
	}
	if alertRank(after) > alertRank(before) {
		h.Log.WithFields(logrus.Fields{
			"user_id":       userID,
			"level":         after,
			"daily_spent":   b.DailySpentUSD,
			"monthly_spent": b.MonthlySpentUSD,
		}).Warn("budget alert")
	}
}

func budgetPeriod(limit, spent float64, resetsAt time.Time) api.BudgetPeriod {
	p := api.BudgetPeriod{
		LimitUSD:     limit,
		SpentUSD:     spent,
		RemainingUSD: max(limit-spent, 0),
		ResetsAt:     resetsAt.UTC().Format(time.RFC3339),
	}
	if limit > 0 {
		p.PercentUsed = spent / limit * 100
	}
	return p
}

// Budget serves GET /budget for the caller.
func (h *Handler) Budget(c *gin.Context) {
	uid := middleware.UserID(c)
	db := h.DB.WithContext(c.Request.Context())
	b, changed, err := h.loadBudget(db, uid, time.Now())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "failed to load budget")
		return
	}
	if changed {
		if err := db.Save(b).Error; err != nil {
			h.Log.WithError(err).WithField("user_id", uid).Warn("budget rollover not saved")
		}
	}
	common.OK(c, http.StatusOK, api.BudgetStatus{
		UserID:     uid,
		Daily:      budgetPeriod(b.DailyLimitUSD, b.DailySpentUSD, b.DailyResetAt.AddDate(0, 0, 1)),
		Monthly:    budgetPeriod(b.MonthlyLimitUSD, b.MonthlySpentUSD, b.MonthlyResetAt.AddDate(0, 1, 0)),
		AlertLevel: budgetAlert(b),
	})
}
