package history

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

// NewRepo migrates the transcript table and returns a Repo over db.
func NewRepo(db *gorm.DB) (*Repo, error) {
	if err := db.AutoMigrate(&Transcript{}); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Insert(ctx context.Context, t *Transcript) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repo) Get(ctx context.Context, requestID string) (*Transcript, error) {
	var t Transcript
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertOrGetExisting inserts t unless a transcript with the same request id
// is already stored, in which case the stored one is returned with
// created=false. Redelivered queue messages land here.
func (r *Repo) InsertOrGetExisting(ctx context.Context, t *Transcript) (*Transcript, bool, error) {
	err := r.db.WithContext(ctx).Create(t).Error
	if err == nil {
		return t, true, nil
	}

	existing, getErr := r.Get(ctx, t.RequestID)
	if getErr == nil {
		return existing, false, nil
	}
	if errors.Is(getErr, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	return nil, false, getErr
}

// ListRecent returns transcripts in DESC id order (newest -> oldest). An
// empty userID lists every user; beforeID > 0 pages past older ids.
func (r *Repo) ListRecent(ctx context.Context, userID string, limit int, beforeID uint64) ([]Transcript, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}

	var out []Transcript
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
