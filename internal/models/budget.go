package models

import "time"

// Budget is the spend ledger of one user. Spent amounts are zeroed when the
// UTC day or month they belong to has ended; the reset columns hold the
// start of the period the spent amounts cover.
type Budget struct {
	ID              uint64  `gorm:"primaryKey;autoIncrement"`
	UserID          string  `gorm:"type:varchar(36);uniqueIndex;not null"`
	DailyLimitUSD   float64 `gorm:"not null"`
	MonthlyLimitUSD float64 `gorm:"not null"`
	DailySpentUSD   float64 `gorm:"column:daily_spent_usd"`
	MonthlySpentUSD float64 `gorm:"column:monthly_spent_usd"`
	DailyResetAt    time.Time
	MonthlyResetAt  time.Time
	UpdatedAt       time.Time
}

func (Budget) TableName() string { return "user_budgets" }
