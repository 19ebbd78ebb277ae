// Package checkpoint persists which work-item indices a run has completed,
// so an interrupted run can resume instead of starting over. State lives in a
// single JSON file written atomically (temp file + rename), and a checkpoint
// is only usable for resume when its total count matches the current input.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// State is the persisted checkpoint payload.
type State struct {
	ProcessedIndices []int     `json:"processed_indices"`
	TotalCount       int       `json:"total_count"`
	Timestamp        time.Time `json:"timestamp"`
}

// Store reads and writes the checkpoint file for one run location.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a checkpoint store backed by the given file path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Save atomically overwrites the checkpoint with the given processed set.
// The write goes to a temp file in the same directory followed by a rename,
// so a crash mid-write never leaves a partial checkpoint behind.
func (s *Store) Save(processed map[int]bool, totalCount int) error {
	indices := make([]int, 0, len(processed))
	for idx := range processed {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	data, err := json.Marshal(State{
		ProcessedIndices: indices,
		TotalCount:       totalCount,
		Timestamp:        time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// Load returns the persisted processed set and total count. A missing or
// unreadable checkpoint is not an error: corrupt state is treated as absent
// and the caller starts fresh.
func (s *Store) Load() (map[int]bool, int) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to read checkpoint, starting fresh",
				"path", s.path,
				"error", err)
		}
		return map[int]bool{}, 0
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("failed to parse checkpoint, starting fresh",
			"path", s.path,
			"error", err)
		return map[int]bool{}, 0
	}

	processed := make(map[int]bool, len(state.ProcessedIndices))
	for _, idx := range state.ProcessedIndices {
		processed[idx] = true
	}
	return processed, state.TotalCount
}

// Clear removes the checkpoint file. Called on full successful completion.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

// Exists reports whether a checkpoint file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
