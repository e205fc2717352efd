package models

import "time"

// User is an account of the stand-in server. ExternalID is what tokens and
// API responses carry; the numeric ID never leaves the database.
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	ExternalID   string    `gorm:"type:varchar(36);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Username     string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	Name         string    `gorm:"type:varchar(100)"`
	PasswordHash string    `gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
