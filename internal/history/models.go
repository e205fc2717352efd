package history

import "time"

// Transcript is one finished streaming session, stored locally and on the
// worker side.
type Transcript struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID  string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"request_id"`
	UserID     string    `gorm:"type:varchar(64);index:idx_transcript_user_id;not null" json:"user_id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Complexity string    `gorm:"type:varchar(16);not null" json:"complexity_level"`
	Answer     string    `gorm:"type:text" json:"answer"`
	Status     string    `gorm:"type:varchar(16);index;not null" json:"status"`
	Error      *string   `gorm:"type:text" json:"error,omitempty"`
	Confidence float64   `json:"confidence"`
	FromCache  bool      `json:"from_cache"`
	Tokens     int       `json:"tokens"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Transcript) TableName() string { return "chat_transcripts" }
