package api

// Complexity levels accepted by the backend.
const (
	ComplexitySimple       = "simple"
	ComplexityIntermediate = "intermediate"
	ComplexityAdvanced     = "advanced"
	ComplexityExpert       = "expert"
)

// ValidComplexity reports whether level is one the backend accepts.
func ValidComplexity(level string) bool {
	switch level {
	case ComplexitySimple, ComplexityIntermediate, ComplexityAdvanced, ComplexityExpert:
		return true
	}
	return false
}

// ChatRequest is the body of both the streaming and the fallback chat calls.
type ChatRequest struct {
	Question   string `json:"question"`
	Complexity string `json:"complexity_level"`
	UserID     string `json:"user_id"`
	RequestID  string `json:"request_id,omitempty"`
}

type SourceDocument struct {
	Source           string   `json:"source"`
	Page             any      `json:"page,omitempty"`
	DocumentType     string   `json:"document_type,omitempty"`
	RelevanceSnippet string   `json:"relevance_snippet,omitempty"`
	Sections         []string `json:"sections,omitempty"`
	LegalTopics      []string `json:"legal_topics,omitempty"`
	ConfidenceScore  *float64 `json:"confidence_score,omitempty"`
}

type RetrievalStats struct {
	DocumentsRetrieved int     `json:"documents_retrieved"`
	UniqueSources      int     `json:"unique_sources"`
	AverageRelevance   float64 `json:"average_relevance"`
	HybridSearchUsed   bool    `json:"hybrid_search_used,omitempty"`
}

// Answer is the structured result of a chat call. The streaming endpoint
// attaches it to its `complete` event.
type Answer struct {
	Answer          string           `json:"answer"`
	SourceDocuments []SourceDocument `json:"source_documents"`
	Confidence      float64          `json:"confidence"`
	ToolsUsed       []string         `json:"tools_used"`
	Citations       []map[string]any `json:"citations"`
	ReadingLevel    string           `json:"reading_level,omitempty"`
	ResponseTimeMs  int64            `json:"response_time_ms"`
	QueryAnalysis   map[string]any   `json:"query_analysis,omitempty"`
	RetrievalStats  *RetrievalStats  `json:"retrieval_stats,omitempty"`
	FromCache       bool             `json:"from_cache"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Session is what login and register return.
type Session struct {
	Token string  `json:"access_token"`
	Type  string  `json:"token_type"`
	User  Profile `json:"user"`
}

// EvalRun is one stored evaluation run.
type EvalRun struct {
	ID        uint64         `json:"id,omitempty"`
	Name      string         `json:"name"`
	CreatedBy string         `json:"created_by,omitempty"`
	CreatedTS int64          `json:"created_ts,omitempty"`
	Metrics   map[string]any `json:"metrics"`
	Samples   []any          `json:"samples"`
	Meta      map[string]any `json:"meta"`
}

type EvalRunRef struct {
	Name string `json:"name"`
	ID   uint64 `json:"id"`
	TS   int64  `json:"ts"`
}

type SavedRun struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	ID      uint64 `json:"id"`
	TS      int64  `json:"ts"`
}

type RunRequest struct {
	Name      string `json:"name"`
	Limit     int    `json:"limit"`
	CreatedBy string `json:"created_by,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type MetricDiff struct {
	Base      float64 `json:"base"`
	Exp       float64 `json:"exp"`
	Delta     float64 `json:"delta"`
	PctChange float64 `json:"pct_change"`
}

// Comparison diffs the numeric metrics of two runs. Samples are the first
// samples of the experiment run.
type Comparison struct {
	Base     string                `json:"base"`
	Exp      string                `json:"exp"`
	Diffs    map[string]MetricDiff `json:"diffs"`
	BaseMeta map[string]any        `json:"base_meta"`
	ExpMeta  map[string]any        `json:"exp_meta"`
	Samples  []any                 `json:"exp_samples"`
}

type CacheInfo struct {
	UsingRedis   bool `json:"using_redis"`
	QueryCount   int  `json:"query_count"`
	LatencyCount int  `json:"latency_count"`
	OtherCount   int  `json:"other_count"`
	TotalKeys    int  `json:"total_keys"`
}

type CacheCleared struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleared int    `json:"cleared"`
}

// LatencyStats summarises the latency samples of one endpoint in
// milliseconds. Count is a float on the wire.
type LatencyStats struct {
	Count    float64 `json:"count"`
	MinMs    float64 `json:"min_ms"`
	MaxMs    float64 `json:"max_ms"`
	MedianMs float64 `json:"median_ms"`
	MeanMs   float64 `json:"mean_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

type LatencyReport struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Endpoint string       `json:"endpoint"`
	UserID   string       `json:"user_id,omitempty"`
	Stats    LatencyStats `json:"stats"`
	Source   string       `json:"source"`
}

type LatencySummary struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	Endpoints map[string]LatencyStats `json:"endpoints"`
	Source    string                  `json:"source"`
}

// BudgetPeriod is one spend window of a user budget, in US dollars.
type BudgetPeriod struct {
	LimitUSD     float64 `json:"limit_usd"`
	SpentUSD     float64 `json:"spent_usd"`
	RemainingUSD float64 `json:"remaining_usd"`
	PercentUsed  float64 `json:"percent_used"`
	ResetsAt     string  `json:"resets_at"`
}

// BudgetStatus is the caller's budget. AlertLevel is the highest of info,
// warning, critical and emergency reached by either period, or empty.
type BudgetStatus struct {
	UserID     string       `json:"user_id"`
	Daily      BudgetPeriod `json:"daily"`
	Monthly    BudgetPeriod `json:"monthly"`
	AlertLevel string       `json:"alert_level,omitempty"`
}
