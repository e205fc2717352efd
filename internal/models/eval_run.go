package models

import "encoding/json"

// EvalRun stores one evaluation run. Metrics, samples and meta are JSON text
// so the table stays portable between SQLite and MySQL.
type EvalRun struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(200);uniqueIndex;not null"`
	CreatedBy string `gorm:"type:varchar(100)"`
	CreatedTS int64  `gorm:"index"`
	Metrics   string `gorm:"type:text"`
	Samples   string `gorm:"type:text"`
	Meta      string `gorm:"type:text"`
}

func (EvalRun) TableName() string { return "eval_runs" }

// Decode unpacks the JSON columns, defaulting empty ones.
func (r EvalRun) Decode() (metrics map[string]any, samples []any, meta map[string]any) {
	metrics, meta, samples = map[string]any{}, map[string]any{}, []any{}
	if r.Metrics != "" {
		_ = json.Unmarshal([]byte(r.Metrics), &metrics)
	}
	if r.Samples != "" {
		_ = json.Unmarshal([]byte(r.Samples), &samples)
	}
	if r.Meta != "" {
		_ = json.Unmarshal([]byte(r.Meta), &meta)
	}
	return metrics, samples, meta
}
