package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidWorkers indicates a negative worker pool size.
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidFileSize indicates a non-positive file size ceiling.
	ErrInvalidFileSize = errors.New("invalid max file size")

	// ErrInvalidBatch indicates invalid AI batch settings.
	ErrInvalidBatch = errors.New("invalid ai batch settings")

	// ErrInvalidThreshold indicates a threshold outside [0,1].
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrEmptyPatterns indicates no include pattern is configured.
	ErrEmptyPatterns = errors.New("empty include patterns")

	// ErrEmptyStorageDir indicates a missing storage directory.
	ErrEmptyStorageDir = errors.New("empty storage directory")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Analyzer.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidWorkers, cfg.Analyzer.Workers))
	}
	if cfg.Analyzer.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidFileSize, cfg.Analyzer.MaxFileSize))
	}

	if len(cfg.Paths.Include) == 0 {
		errs = append(errs, ErrEmptyPatterns)
	}

	if !cfg.AI.Disabled {
		if cfg.AI.BatchSize < 0 || cfg.AI.BatchDelayMS < 0 || cfg.AI.TimeoutSecs < 0 {
			errs = append(errs, ErrInvalidBatch)
		}
	}

	if cfg.Clusters.SimilarityThreshold < 0 || cfg.Clusters.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: similarity_threshold %v", ErrInvalidThreshold, cfg.Clusters.SimilarityThreshold))
	}
	if cfg.Quality.HighConfidence < 0 || cfg.Quality.HighConfidence > 1 {
		errs = append(errs, fmt.Errorf("%w: high_confidence %v", ErrInvalidThreshold, cfg.Quality.HighConfidence))
	}

	if strings.TrimSpace(cfg.Storage.Dir) == "" {
		errs = append(errs, ErrEmptyStorageDir)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
