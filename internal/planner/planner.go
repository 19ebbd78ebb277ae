// Package planner groups a flat list of work items into complexity-balanced
// batches. Items are scored by a pluggable heuristic, sorted so the most
// complex items run first, and greedily packed until a batch fills up by item
// count or accumulated score. Front-loading expensive items makes pipeline
// stalls show up early in a long run instead of at its tail.
package planner

import (
	"sort"
	"strings"

	"github.com/batchvox/batchvox/internal/domain"
)

// batchScoreThreshold closes a batch once its accumulated complexity score
// exceeds this value, regardless of item count.
const batchScoreThreshold = 100

// Scorer estimates the synthesis cost of one text. Higher means more
// expensive. The default is tuned for Japanese punctuation with Latin
// equivalents mixed in; callers targeting other scripts supply their own.
type Scorer func(text string) float64

// DefaultScorer weights text length plus sentence, clause and quotation
// delimiters.
func DefaultScorer(text string) float64 {
	score := float64(len(text)) * 0.1
	score += float64(strings.Count(text, "。")) * 5
	score += float64(strings.Count(text, "、")) * 2
	score += float64(strings.Count(text, "「")) * 3
	score += float64(strings.Count(text, "」")) * 3
	score += float64(strings.Count(text, ".")) * 2.5
	score += float64(strings.Count(text, ",")) * 1
	score += float64(strings.Count(text, `"`)) * 1.5
	return score
}

// Planner assembles batches of at most maxBatchSize items.
type Planner struct {
	maxBatchSize int
	scorer       Scorer
}

// New creates a Planner. A nil scorer selects DefaultScorer; a non-positive
// maxBatchSize defaults to 20.
func New(maxBatchSize int, scorer Scorer) *Planner {
	if maxBatchSize <= 0 {
		maxBatchSize = 20
	}
	if scorer == nil {
		scorer = DefaultScorer
	}
	return &Planner{maxBatchSize: maxBatchSize, scorer: scorer}
}

// Plan partitions items into an ordered sequence of batches. Every input
// item appears in exactly one batch; no batch exceeds the configured size.
// Items are ordered by descending score across the plan, with the original
// index breaking ties so the plan is deterministic.
func (p *Planner) Plan(items []domain.WorkItem) [][]domain.WorkItem {
	if len(items) == 0 {
		return nil
	}

	type scored struct {
		item  domain.WorkItem
		score float64
	}
	ranked := make([]scored, len(items))
	for i, item := range items {
		ranked[i] = scored{item: item, score: p.scorer(item.Text)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].item.Index < ranked[j].item.Index
	})

	var batches [][]domain.WorkItem
	var current []domain.WorkItem
	var currentScore float64

	for _, s := range ranked {
		if len(current) >= p.maxBatchSize || currentScore > batchScoreThreshold {
			batches = append(batches, current)
			current = []domain.WorkItem{s.item}
			currentScore = s.score
			continue
		}
		current = append(current, s.item)
		currentScore += s.score
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}
