package credstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Credential is the persisted login for one API server.
type Credential struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Server    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Token     string    `gorm:"type:text;not null"`
	UserID    string    `gorm:"type:varchar(64)"`
	Email     string    `gorm:"type:varchar(255)"`
	Username  string    `gorm:"type:varchar(64)"`
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Credential) TableName() string { return "credentials" }

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Credential{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Save replaces the credential stored for c.Server.
func (s *Store) Save(ctx context.Context, c *Credential) error {
	c.Server = normalize(c.Server)
	if c.ExpiresAt.IsZero() {
		c.ExpiresAt = auth.ExpiresAt(c.Token)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "server"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "user_id", "email", "username", "expires_at", "updated_at"}),
	}).Create(c).Error
}

// Load returns the credential for server, or auth.ErrNoToken.
func (s *Store) Load(ctx context.Context, server string) (*Credential, error) {
	var c Credential
	err := s.db.WithContext(ctx).Where("server = ?", normalize(server)).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrNoToken
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) Delete(ctx context.Context, server string) error {
	return s.db.WithContext(ctx).Where("server = ?", normalize(server)).Delete(&Credential{}).Error
}

// Provider returns a TokenProvider reading the stored credential for server
// on every call, so a fresh login is picked up without rebuilding clients.
func (s *Store) Provider(server string) auth.TokenProvider {
	return auth.TokenFunc(func(ctx context.Context) (string, error) {
		c, err := s.Load(ctx, server)
		if err != nil {
			return "", err
		}
		if !c.ExpiresAt.IsZero() && !time.Now().Before(c.ExpiresAt) {
			return "", auth.ErrTokenExpired
		}
		if err := auth.CheckToken(c.Token, time.Now()); err != nil {
			return "", err
		}
		return c.Token, nil
	})
}

func normalize(server string) string {
	return strings.TrimRight(strings.TrimSpace(server), "/")
}
