package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/legal-assistant/internal/ai"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/models"
	"gorm.io/gorm"
)

const (
	maxStoredSamples = 200
	maxPreviewChars  = 2000
	compareSamples   = 10
)

// upsertRun stores run under its name, replacing a previous run of that name.
func (h *Handler) upsertRun(ctx context.Context, run api.EvalRun) (*models.EvalRun, error) {
	if run.Metrics == nil {
		run.Metrics = map[string]any{}
	}
	if run.Samples == nil {
		run.Samples = []any{}
	}
	if len(run.Samples) > maxStoredSamples {
		run.Samples = run.Samples[:maxStoredSamples]
	}
	if run.Meta == nil {
		run.Meta = map[string]any{}
	}
	metrics, _ := json.Marshal(run.Metrics)
	samples, _ := json.Marshal(run.Samples)
	meta, _ := json.Marshal(run.Meta)

	var rec models.EvalRun
	err := h.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", run.Name).First(&rec).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		rec.Name = run.Name
		rec.CreatedBy = run.CreatedBy
		rec.CreatedTS = time.Now().UnixMilli()
		rec.Metrics = string(metrics)
		rec.Samples = string(samples)
		rec.Meta = string(meta)
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func savedRun(rec *models.EvalRun) api.SavedRun {
	return api.SavedRun{Success: true, Name: rec.Name, ID: rec.ID, TS: rec.CreatedTS}
}

func (h *Handler) SaveEvalResults(c *gin.Context) {
	var run api.EvalRun
	if err := c.ShouldBindJSON(&run); err != nil {
		common.Fail(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if strings.TrimSpace(run.Name) == "" {
		common.Fail(c, http.StatusBadRequest, "MISSING_NAME", "Missing 'name' in payload")
		return
	}
	rec, err := h.upsertRun(c.Request.Context(), run)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "failed to save run")
		return
	}
	common.OK(c, http.StatusOK, savedRun(rec))
}

func (h *Handler) ListEvalRuns(c *gin.Context) {
	var rows []models.EvalRun
	if err := h.DB.WithContext(c.Request.Context()).
		Select("id", "name", "created_ts").
		Order("created_ts DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "failed to list runs")
		return
	}
	runs := make([]api.EvalRunRef, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, api.EvalRunRef{Name: r.Name, ID: r.ID, TS: r.CreatedTS})
	}
	common.OK(c, http.StatusOK, gin.H{"runs": runs})
}

func (h *Handler) findRun(ctx context.Context, name string) (*models.EvalRun, error) {
	var rec models.EvalRun
	if err := h.DB.WithContext(ctx).Where("name = ?", name).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func toAPIRun(rec *models.EvalRun) api.EvalRun {
	metrics, samples, meta := rec.Decode()
	return api.EvalRun{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedBy: rec.CreatedBy,
		CreatedTS: rec.CreatedTS,
		Metrics:   metrics,
		Samples:   samples,
		Meta:      meta,
	}
}

func (h *Handler) EvalReport(c *gin.Context) {
	rec, err := h.findRun(c.Request.Context(), c.Query("name"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "RUN_NOT_FOUND", "Run not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "db error")
		return
	}
	common.OK(c, http.StatusOK, toAPIRun(rec))
}

// CompareRuns diffs every metric that is numeric in either run. A metric
// missing on one side counts as 0; pct_change divides by 1 when base is 0.
func CompareRuns(base, exp api.EvalRun) api.Comparison {
	keys := map[string]struct{}{}
	for k := range base.Metrics {
		keys[k] = struct{}{}
	}
	for k := range exp.Metrics {
		keys[k] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	diffs := map[string]api.MetricDiff{}
	for _, k := range names {
		vb, okb := number(base.Metrics[k])
		ve, oke := number(exp.Metrics[k])
		if !okb && !oke {
			continue
		}
		delta := ve - vb
		denom := vb
		if denom == 0 {
			denom = 1
		}
		diffs[k] = api.MetricDiff{Base: vb, Exp: ve, Delta: delta, PctChange: delta / denom * 100}
	}

	samples := exp.Samples
	if len(samples) > compareSamples {
		samples = samples[:compareSamples]
	}
	return api.Comparison{
		Base:     base.Name,
		Exp:      exp.Name,
		Diffs:    diffs,
		BaseMeta: base.Meta,
		ExpMeta:  exp.Meta,
		Samples:  samples,
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func (h *Handler) CompareEvalRuns(c *gin.Context) {
	ctx := c.Request.Context()
	base, errB := h.findRun(ctx, c.Query("base"))
	exp, errE := h.findRun(ctx, c.Query("exp"))
	for _, err := range []error{errB, errE} {
		if err == nil {
			continue
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, "RUN_NOT_FOUND", "One or both runs not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "db error")
		return
	}
	common.OK(c, http.StatusOK, CompareRuns(toAPIRun(base), toAPIRun(exp)))
}

// keywordRecall is the share of keywords mentioned in answer.
func keywordRecall(answer string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(answer)
	hit := 0
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			hit++
		}
	}
	return float64(hit) / float64(len(keywords))
}

// runEval asks every question of set against the provider and scores it.
func (h *Handler) runEval(ctx context.Context, set []EvalQuestion) (map[string]any, []any) {
	samples := make([]any, 0, len(set))
	var recallSum, latencySum float64
	failed := 0
	for i, q := range set {
		start := time.Now()
		answer, err := h.AI.Chat(ctx, ai.LegalMessages(q.Question, api.ComplexitySimple))
		elapsed := time.Since(start)
		latencySum += float64(elapsed.Milliseconds())

		sample := map[string]any{
			"idx":                     i,
			"id":                      q.ID,
			"category":                q.Category,
			"question":                q.Question,
			"processing_time_seconds": elapsed.Seconds(),
		}
		if err != nil {
			failed++
			sample["error"] = err.Error()
			samples = append(samples, sample)
			continue
		}
		recall := keywordRecall(answer, q.Keywords)
		recallSum += recall
		if len(answer) > maxPreviewChars {
			answer = answer[:maxPreviewChars] + "..."
		}
		sample["generated_answer_preview"] = answer
		sample["keyword_recall"] = recall
		samples = append(samples, sample)
	}

	n := float64(len(set))
	metrics := map[string]any{
		"total_questions": len(set),
		"failed":          failed,
	}
	if n > 0 {
		answered := n - float64(failed)
		metrics["error_rate"] = float64(failed) / n
		metrics["avg_latency_ms"] = latencySum / n
		if answered > 0 {
			metrics["avg_keyword_recall"] = recallSum / answered
		}
	}
	return metrics, samples
}

func (h *Handler) RunAndStoreEval(c *gin.Context) {
	var req api.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		common.Fail(c, http.StatusBadRequest, "MISSING_NAME", "Missing 'name'")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	set := h.EvalSet
	if limit < len(set) {
		set = set[:limit]
	}

	started := time.Now()
	metrics, samples := h.runEval(c.Request.Context(), set)
	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = req.UserID
	}
	rec, err := h.upsertRun(c.Request.Context(), api.EvalRun{
		Name:      req.Name,
		CreatedBy: createdBy,
		Metrics:   metrics,
		Samples:   samples,
		Meta: map[string]any{
			"limit":          limit,
			"run_started_at": started.UTC().Format(time.RFC3339),
			"run_seconds":    time.Since(started).Seconds(),
		},
	})
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "DB_ERROR", "failed to store run")
		return
	}
	h.Log.WithField("run", rec.Name).Info("evaluation stored")
	common.OK(c, http.StatusOK, savedRun(rec))
}
