// Package orchestrator drives a batch synthesis run end to end: it resumes
// from a checkpoint, plans batches, executes items under bounded concurrency
// through the cache and resilience layers, and aggregates a run summary.
//
// Batches execute strictly in planned order; items within a batch run
// concurrently and complete in whatever order the scheduler yields.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/batchvox/batchvox/internal/cache"
	"github.com/batchvox/batchvox/internal/checkpoint"
	"github.com/batchvox/batchvox/internal/domain"
	"github.com/batchvox/batchvox/internal/metrics"
	"github.com/batchvox/batchvox/internal/planner"
	"github.com/batchvox/batchvox/internal/resilience"
	"github.com/batchvox/batchvox/internal/synthesis"
	"github.com/batchvox/batchvox/internal/voice"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// providerOperation names the breaker protecting calls to the synthesis
// provider. All workers share this one breaker.
const providerOperation = "provider-call"

// Config holds orchestrator tuning and the synthesis parameters applied to
// every item (the voice itself is chosen per item by the rotator).
type Config struct {
	// Workers is the worker-pool size for items within a batch. Defaults to 5.
	Workers int

	// MaxInFlight caps simultaneously in-flight provider calls. Defaults to
	// Workers.
	MaxInFlight int

	// BatchSize is the maximum items per planned batch. Defaults to 20.
	BatchSize int

	// CheckpointInterval is how many batches between checkpoint saves.
	// Defaults to 50.
	CheckpointInterval int

	// InterBatchDelay optionally pauses between batches for provider-side
	// rate shaping.
	InterBatchDelay time.Duration

	// OutputDir receives the artifact files.
	OutputDir string

	// LanguageCode, Format and SampleRate shape every synthesis request.
	LanguageCode string
	Format       synthesis.AudioFormat
	SampleRate   int
}

// Deps are the collaborators injected into the orchestrator. Provider,
// Resilience and Rotator are required; Cache and Checkpoints are optional
// and their absence disables caching and resume respectively.
type Deps struct {
	Provider    synthesis.Provider
	Resilience  *resilience.Handler
	Rotator     *voice.Rotator
	Planner     *planner.Planner
	Cache       *cache.Cache
	Checkpoints *checkpoint.Store
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Orchestrator executes batch synthesis runs. One Orchestrator handles one
// run at a time; Run may be called again after the previous call returns.
type Orchestrator struct {
	cfg  Config
	deps Deps

	sem    *semaphore.Weighted
	logger *slog.Logger

	mu          sync.Mutex
	processed   map[int]bool
	results     []domain.ItemResult
	cacheHits   int
	cacheMisses int
}

// New validates dependencies, applies config defaults, and returns an
// orchestrator ready to run.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if deps.Resilience == nil {
		return nil, fmt.Errorf("resilience handler cannot be nil")
	}
	if deps.Rotator == nil {
		return nil, fmt.Errorf("voice rotator cannot be nil")
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = cfg.Workers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 50
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "tts_output"
	}
	if !cfg.Format.Valid() {
		cfg.Format = synthesis.FormatMP3
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 24000
	}

	if deps.Planner == nil {
		deps.Planner = planner.New(cfg.BatchSize, nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		sem:    semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		logger: deps.Logger,
	}, nil
}

// Run executes the full work list and returns the run summary. Per-item
// failures are recorded in the summary and never abort the run; only the
// inability to create the output directory is fatal. On context
// cancellation Run stops submitting work, flushes a checkpoint, and returns
// the partial summary together with the context error.
func (o *Orchestrator) Run(ctx context.Context, items []domain.WorkItem) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:     uuid.New(),
		Total:     len(items),
		StartedAt: time.Now().UTC(),
	}
	if len(items) == 0 {
		summary.Results = []domain.ItemResult{}
		return summary, nil
	}

	if err := os.MkdirAll(o.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	start := time.Now()
	o.mu.Lock()
	o.processed = make(map[int]bool)
	o.results = nil
	o.cacheHits, o.cacheMisses = 0, 0
	o.mu.Unlock()

	o.loadCheckpoint(items)
	pending := o.pendingItems(items)
	batches := o.deps.Planner.Plan(pending)

	o.logger.Info("starting batch run",
		"run_id", summary.RunID,
		"total_items", len(items),
		"pending_items", len(pending),
		"batches", len(batches),
		"workers", o.cfg.Workers,
		"max_in_flight", o.cfg.MaxInFlight)

	cancelled := false
	for i, batch := range batches {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		batchStart := time.Now()
		o.runBatch(ctx, batch)
		o.deps.Metrics.BatchExecuted()
		o.publishBreakerState()

		o.logger.Info("batch completed",
			"batch", i+1,
			"batches", len(batches),
			"items", len(batch),
			"elapsed", time.Since(batchStart))

		if o.deps.Checkpoints != nil && (i+1)%o.cfg.CheckpointInterval == 0 {
			o.saveCheckpoint(len(items))
		}

		if o.cfg.InterBatchDelay > 0 && i < len(batches)-1 {
			select {
			case <-time.After(o.cfg.InterBatchDelay):
			case <-ctx.Done():
				cancelled = true
			}
		}
		if cancelled {
			break
		}
	}

	o.fillSummary(summary)
	summary.Finalize(time.Since(start))

	if cancelled || ctx.Err() != nil {
		// Shutdown path: persist progress synchronously before returning.
		if o.deps.Checkpoints != nil {
			o.saveCheckpoint(len(items))
		}
		o.logger.Warn("run cancelled, checkpoint flushed",
			"run_id", summary.RunID,
			"processed", summary.Successful+summary.Failed)
		return summary, ctx.Err()
	}

	if o.deps.Checkpoints != nil {
		if err := o.deps.Checkpoints.Clear(); err != nil {
			o.logger.Warn("failed to clear checkpoint", "error", err)
		}
	}

	o.logger.Info("run completed",
		"run_id", summary.RunID,
		"successful", summary.Successful,
		"failed", summary.Failed,
		"cache_hits", summary.CacheHits,
		"elapsed_seconds", summary.ElapsedSeconds)

	return summary, nil
}

// loadCheckpoint adopts a previous run's progress when its total matches the
// current input; any other checkpoint is discarded, never partially applied.
func (o *Orchestrator) loadCheckpoint(items []domain.WorkItem) {
	if o.deps.Checkpoints == nil {
		return
	}

	processed, total := o.deps.Checkpoints.Load()
	if total == len(items) && len(processed) > 0 {
		o.mu.Lock()
		o.processed = processed
		o.mu.Unlock()
		o.logger.Info("resuming from checkpoint", "already_processed", len(processed))
		return
	}
	if total != 0 {
		o.logger.Info("checkpoint belongs to a different input, starting fresh",
			"checkpoint_total", total,
			"input_total", len(items))
		if err := o.deps.Checkpoints.Clear(); err != nil {
			o.logger.Warn("failed to discard checkpoint", "error", err)
		}
	}
}

// pendingItems filters out indices a resumed checkpoint already covers.
func (o *Orchestrator) pendingItems(items []domain.WorkItem) []domain.WorkItem {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.processed) == 0 {
		return items
	}
	pending := make([]domain.WorkItem, 0, len(items))
	for _, item := range items {
		if !o.processed[item.Index] {
			pending = append(pending, item)
		}
	}
	return pending
}

// runBatch executes one batch under the worker pool. The sender stops
// submitting once the context is cancelled; items already handed to workers
// run to completion.
func (o *Orchestrator) runBatch(ctx context.Context, batch []domain.WorkItem) {
	jobs := make(chan domain.WorkItem)

	var wg sync.WaitGroup
	for w := 0; w < o.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				o.collect(o.processItem(ctx, item))
			}
		}()
	}

submit:
	for _, item := range batch {
		select {
		case jobs <- item:
		case <-ctx.Done():
			break submit
		}
	}
	close(jobs)
	wg.Wait()
}

// processItem runs the full per-item pipeline: voice selection, cache
// lookup, protected provider call, artifact persistence, cache write.
func (o *Orchestrator) processItem(ctx context.Context, item domain.WorkItem) domain.ItemResult {
	params := synthesis.Params{
		VoiceID:      o.deps.Rotator.Next(),
		Format:       o.cfg.Format,
		SampleRate:   o.cfg.SampleRate,
		LanguageCode: o.cfg.LanguageCode,
	}
	outPath := filepath.Join(o.cfg.OutputDir, ArtifactName(item.Index, item.Text)+"."+params.Format.Ext())

	if path, ok := o.lookupCache(ctx, item, params, outPath); ok {
		return domain.ItemResult{
			Index:        item.Index,
			Text:         item.Text,
			ArtifactPath: path,
			Status:       domain.ItemStatusSuccess,
		}
	}

	var audio []byte
	err := o.deps.Resilience.Protect(ctx, providerOperation, func(ctx context.Context) error {
		// The in-flight cap applies to the provider call only; backoff
		// delays between attempts do not hold a slot.
		if err := o.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer o.sem.Release(1)

		var synthErr error
		audio, synthErr = o.deps.Provider.Synthesize(ctx, item.Text, params)
		return synthErr
	})
	if err != nil {
		o.logger.Error("item synthesis failed",
			"item_index", item.Index,
			"voice", params.VoiceID,
			"error", err)
		return domain.ItemResult{
			Index:  item.Index,
			Text:   item.Text,
			Status: domain.ItemStatusFailed,
			Error:  err.Error(),
		}
	}

	if err := os.WriteFile(outPath, audio, 0o644); err != nil {
		return domain.ItemResult{
			Index:  item.Index,
			Text:   item.Text,
			Status: domain.ItemStatusFailed,
			Error:  fmt.Sprintf("persist artifact: %v", err),
		}
	}

	if o.deps.Cache != nil {
		if err := o.deps.Cache.Store(ctx, item.Text, params, outPath); err != nil {
			// Cache trouble degrades to uncached operation, never fails the item.
			o.logger.Warn("cache store failed, continuing uncached",
				"item_index", item.Index,
				"error", err)
		}
	}

	o.logger.Debug("item synthesized",
		"item_index", item.Index,
		"voice", params.VoiceID,
		"artifact", outPath)

	return domain.ItemResult{
		Index:        item.Index,
		Text:         item.Text,
		ArtifactPath: outPath,
		Status:       domain.ItemStatusSuccess,
	}
}

// lookupCache consults the result cache and, on a hit, materializes the
// cached artifact at the item's output path. Lookup errors degrade to a
// miss.
func (o *Orchestrator) lookupCache(ctx context.Context, item domain.WorkItem, params synthesis.Params, outPath string) (string, bool) {
	if o.deps.Cache == nil {
		return "", false
	}

	cached, hit, err := o.deps.Cache.Lookup(ctx, item.Text, params)
	if err != nil {
		o.logger.Warn("cache lookup failed, treating as miss",
			"item_index", item.Index,
			"error", err)
		hit = false
	}
	if !hit {
		o.deps.Metrics.CacheLookup(metrics.LookupMiss)
		o.mu.Lock()
		o.cacheMisses++
		o.mu.Unlock()
		return "", false
	}

	if cached != outPath {
		if err := copyFile(cached, outPath); err != nil {
			o.logger.Warn("failed to materialize cached artifact, resynthesizing",
				"item_index", item.Index,
				"error", err)
			o.deps.Metrics.CacheLookup(metrics.LookupMiss)
			o.mu.Lock()
			o.cacheMisses++
			o.mu.Unlock()
			return "", false
		}
	}

	o.deps.Metrics.CacheLookup(metrics.LookupHit)
	o.mu.Lock()
	o.cacheHits++
	o.mu.Unlock()

	o.logger.Debug("cache hit",
		"item_index", item.Index,
		"voice", params.VoiceID)
	return outPath, true
}

// collect merges one item outcome into the shared run state. Completed
// items enter the processed set regardless of outcome, so a resumed run
// covers every index exactly once.
func (o *Orchestrator) collect(result domain.ItemResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.results = append(o.results, result)
	o.processed[result.Index] = true
	o.deps.Metrics.ItemProcessed(string(result.Status))
}

// saveCheckpoint persists the current processed set.
func (o *Orchestrator) saveCheckpoint(totalCount int) {
	o.mu.Lock()
	processed := make(map[int]bool, len(o.processed))
	for idx := range o.processed {
		processed[idx] = true
	}
	o.mu.Unlock()

	if err := o.deps.Checkpoints.Save(processed, totalCount); err != nil {
		o.logger.Warn("failed to save checkpoint", "error", err)
		return
	}
	o.logger.Debug("checkpoint saved", "processed", len(processed))
}

// fillSummary copies the collected results and counters into the summary.
func (o *Orchestrator) fillSummary(summary *domain.RunSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()

	summary.Results = append([]domain.ItemResult(nil), o.results...)
	summary.CacheHits = o.cacheHits
	summary.CacheMisses = o.cacheMisses
	for _, r := range o.results {
		if r.Status == domain.ItemStatusSuccess {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
}

// publishBreakerState reflects the provider breaker into the metrics gauge.
func (o *Orchestrator) publishBreakerState() {
	status := o.deps.Resilience.Breaker(providerOperation).Status()
	o.deps.Metrics.BreakerOpen(providerOperation, status.State == resilience.StateOpen)
}

// copyFile copies src to dst, leaving an existing dst untouched only when
// the copy fails.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
