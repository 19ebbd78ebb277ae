package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus represents the final outcome of a single work item.
type ItemStatus string

// Possible item outcome values
const (
	ItemStatusSuccess ItemStatus = "success"
	ItemStatusFailed  ItemStatus = "failed"
)

// ItemResult records the outcome of one work item. Exactly one ItemResult is
// produced per item processed during a run; items skipped because a resumed
// checkpoint already covers them produce none.
type ItemResult struct {
	Index        int        `json:"index"`
	Text         string     `json:"text"`
	ArtifactPath string     `json:"artifact_path,omitempty"`
	Status       ItemStatus `json:"status"`
	Error        string     `json:"error,omitempty"`
}

// RunSummary aggregates the outcome of a whole run. It is safe to serialize
// as-is; the CLI writes it next to the produced artifacts.
type RunSummary struct {
	RunID       uuid.UUID    `json:"run_id"`
	Total       int          `json:"total"`
	Successful  int          `json:"successful"`
	Failed      int          `json:"failed"`
	CacheHits   int          `json:"cache_hits"`
	CacheMisses int          `json:"cache_misses"`
	Results     []ItemResult `json:"results"`

	StartedAt         time.Time `json:"started_at"`
	ElapsedSeconds    float64   `json:"elapsed_seconds"`
	AvgSecondsPerItem float64   `json:"avg_seconds_per_item"`
	ItemsPerSecond    float64   `json:"items_per_second"`
}

// Finalize computes the derived timing fields from the collected results and
// the elapsed wall-clock duration.
func (s *RunSummary) Finalize(elapsed time.Duration) {
	s.ElapsedSeconds = elapsed.Seconds()
	if s.Total > 0 {
		s.AvgSecondsPerItem = s.ElapsedSeconds / float64(s.Total)
	}
	if s.ElapsedSeconds > 0 {
		s.ItemsPerSecond = float64(s.Successful+s.Failed) / s.ElapsedSeconds
	}
}
