// Package main implements the batchvox command line entry point. It loads
// configuration, reads the input sentence file, wires the synthesis engine
// together, and writes the run summary next to the produced artifacts.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/batchvox/batchvox/internal/cache"
	"github.com/batchvox/batchvox/internal/checkpoint"
	"github.com/batchvox/batchvox/internal/config"
	"github.com/batchvox/batchvox/internal/domain"
	"github.com/batchvox/batchvox/internal/orchestrator"
	"github.com/batchvox/batchvox/internal/platform/googletts"
	"github.com/batchvox/batchvox/internal/platform/logger"
	"github.com/batchvox/batchvox/internal/resilience"
	"github.com/batchvox/batchvox/internal/synthesis"
	"github.com/batchvox/batchvox/internal/voice"
)

// summaryFileName is written into the output directory after every run,
// including cancelled ones.
const summaryFileName = "processing_results.json"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	inputPath := flag.String("input", "", "path to the input sentence file, one sentence per line")
	outputDir := flag.String("output", "", "output directory override")
	maxItems := flag.Int("max-items", 0, "process at most this many items (0 = all)")
	flag.Parse()

	if err := run(*configPath, *inputPath, *outputDir, *maxItems); err != nil {
		fmt.Fprintf(os.Stderr, "batchvox: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, inputPath, outputDir string, maxItems int) error {
	if inputPath == "" {
		return fmt.Errorf("-input is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}

	log := logger.Setup(cfg.Log)
	log.Info("configuration loaded",
		"workers", cfg.Engine.Workers,
		"max_in_flight", cfg.Engine.MaxInFlight,
		"batch_size", cfg.Engine.BatchSize,
		"language", cfg.Synthesis.LanguageCode,
		"cache_enabled", cfg.Output.CacheEnabled,
		"resume_enabled", cfg.Output.ResumeEnabled)

	items, err := readItems(inputPath, maxItems)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if len(items) == 0 {
		return fmt.Errorf("input file %s contains no sentences", inputPath)
	}
	log.Info("input loaded", "path", inputPath, "items", len(items))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	o, resultCache, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}
	if resultCache != nil {
		defer resultCache.Close()
	}

	summary, runErr := o.Run(ctx, items)
	if summary != nil {
		if err := writeSummary(cfg.Output.Dir, summary); err != nil {
			log.Error("failed to write run summary", "error", err)
		} else {
			log.Info("run summary written",
				"path", filepath.Join(cfg.Output.Dir, summaryFileName))
		}
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("run interrupted, progress checkpointed: %w", runErr)
		}
		return fmt.Errorf("run failed: %w", runErr)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d items failed", summary.Failed, summary.Total)
	}
	return nil
}

// buildEngine wires the provider, resilience layer, rotator, cache and
// checkpoint store into an orchestrator. The returned cache is nil when
// caching is disabled; the caller owns closing it.
func buildEngine(cfg *config.Config, log *slog.Logger) (*orchestrator.Orchestrator, *cache.Cache, error) {
	provider, err := googletts.New(cfg.Provider, log)
	if err != nil {
		return nil, nil, fmt.Errorf("create synthesis provider: %w", err)
	}

	handler := resilience.NewHandler(
		resilience.BreakerConfig{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			RecoveryTimeout:  cfg.Breaker.RecoveryTimeout,
		},
		resilience.RetryConfig{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			BaseDelay:       cfg.Retry.BaseDelay,
			MaxDelay:        cfg.Retry.MaxDelay,
			ExponentialBase: cfg.Retry.ExponentialBase,
			Jitter:          cfg.Retry.Jitter,
		},
		synthesis.ErrorCategory,
		log,
	)

	voices := cfg.Synthesis.Voices
	if !cfg.Synthesis.RotationEnabled && cfg.Synthesis.Voice != "" {
		voices = []string{cfg.Synthesis.Voice}
	}
	rotator := voice.NewRotator(cfg.Synthesis.LanguageCode, cfg.Synthesis.RotationEnabled, voices)

	var resultCache *cache.Cache
	if cfg.Output.CacheEnabled {
		resultCache, err = cache.Open(cfg.Output.CacheDir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open result cache: %w", err)
		}
	}

	var checkpoints *checkpoint.Store
	if cfg.Output.ResumeEnabled {
		checkpoints = checkpoint.NewStore(cfg.Output.CheckpointFile, log)
	}

	o, err := orchestrator.New(orchestrator.Config{
		Workers:            cfg.Engine.Workers,
		MaxInFlight:        cfg.Engine.MaxInFlight,
		BatchSize:          cfg.Engine.BatchSize,
		CheckpointInterval: cfg.Engine.CheckpointInterval,
		InterBatchDelay:    cfg.Engine.InterBatchDelay,
		OutputDir:          cfg.Output.Dir,
		LanguageCode:       cfg.Synthesis.LanguageCode,
		Format:             synthesis.AudioFormat(cfg.Synthesis.Format),
		SampleRate:         cfg.Synthesis.SampleRate,
	}, orchestrator.Deps{
		Provider:    provider,
		Resilience:  handler,
		Rotator:     rotator,
		Cache:       resultCache,
		Checkpoints: checkpoints,
		Logger:      log,
	})
	if err != nil {
		if resultCache != nil {
			resultCache.Close()
		}
		return nil, nil, fmt.Errorf("create orchestrator: %w", err)
	}
	return o, resultCache, nil
}

// readItems loads the input file into work items, one per non-blank line,
// optionally truncated to maxItems.
func readItems(path string, maxItems int) ([]domain.WorkItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	items := domain.NewWorkItems(lines)
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

// writeSummary serializes the run summary into the output directory.
func writeSummary(dir string, summary *domain.RunSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, summaryFileName), data, 0o644)
}
