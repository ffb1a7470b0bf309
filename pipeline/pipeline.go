// Package pipeline turns fetched survey records into the raw CSV and hands it
// to the downstream processor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aluiziolira/go-survey-build/logging"
	"github.com/aluiziolira/go-survey-build/models"
	"github.com/rs/zerolog"
)

// ErrNoFetcher is returned when a build has no record source.
var ErrNoFetcher = errors.New("pipeline: no fetcher configured")

// RecordFetcher supplies the complete result set for a build.
type RecordFetcher interface {
	FetchAll(ctx context.Context) (*models.FetchResult, error)
}

// Processor runs the downstream step once the CSV is on disk.
type Processor interface {
	Run(ctx context.Context) error
}

// Build runs fetch, write and process strictly in that order.
type Build struct {
	fetcher    RecordFetcher
	processor  Processor
	outputFile string
	logger     zerolog.Logger
}

// NewBuild wires a build. A nil processor skips the downstream step.
func NewBuild(fetcher RecordFetcher, outputFile string, processor Processor) *Build {
	return &Build{
		fetcher:    fetcher,
		processor:  processor,
		outputFile: outputFile,
		logger:     logging.NewLogger("pipeline"),
	}
}

// Run executes the build and stops at the first failing step. A fetch failure
// leaves the output file untouched; a processor failure leaves the freshly
// written CSV in place and still returns the partial result.
func (b *Build) Run(ctx context.Context) (*models.BuildResult, error) {
	if b.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if ctx == nil {
		ctx = context.Background()
	}

	result := &models.BuildResult{
		OutputFile: b.outputFile,
		StartTime:  time.Now(),
	}

	fetched, err := b.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	result.Fetch = fetched

	if err := WriteRecords(fetched.Records, b.outputFile); err != nil {
		return nil, fmt.Errorf("write %s: %w", b.outputFile, err)
	}
	b.logger.Info().
		Str("file", b.outputFile).
		Int("rows", len(fetched.Records)).
		Msg("Wrote raw survey")

	if b.processor != nil {
		if err := b.processor.Run(ctx); err != nil {
			result.EndTime = time.Now()
			return result, fmt.Errorf("process: %w", err)
		}
		result.Processed = true
	} else {
		b.logger.Info().Msg("Skipping downstream processor")
	}

	result.EndTime = time.Now()
	b.logger.Info().Dur("duration", result.Duration()).Msg("Build complete.")
	return result, nil
}
