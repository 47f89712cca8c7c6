// =============================================================================
// Scorecard Import - Batch Processor
// =============================================================================
//
// This module runs the per-file pipeline over a batch of uploads.
//
// PIPELINE (per file):
//   1. Read the bytes (from memory or from Path)
//   2. parser.Parse: workbook -> format -> extractor -> scoring
//   3. Record a FileResult
//
// ISOLATION:
//   Every file gets exactly one FileResult at its input index. A corrupt,
//   unrecognised or even panicking file produces an error result for that
//   file only; the others are unaffected. There is no fail-fast.
//
// CONCURRENCY:
//   Files are parsed concurrently with at most MaxConcurrency in flight
//   (errgroup.SetLimit). Workers share no mutable state; each writes only
//   its own slot of the result slice.
//
// =============================================================================

package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/scorecard-import/internal/parser"
	"github.com/ginjaninja78/scorecard-import/internal/scorecard"
	"github.com/ginjaninja78/scorecard-import/internal/scoring"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Status of one file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Input is one file of the batch. Data is used when set; otherwise the file
// is read from Path.
type Input struct {
	Filename string
	Path     string
	Data     []byte

	// Options supplies values the workbook may not state.
	Options scorecard.Options
}

// FileResult is the outcome of parsing one file.
type FileResult struct {
	Filename  string                     `json:"filename"`
	Status    Status                     `json:"status"`
	Scorecard *scorecard.ParsedScorecard `json:"scorecard,omitempty"`
	Err       error                      `json:"-"`

	// Duration is the time spent parsing this file.
	Duration time.Duration `json:"-"`
}

// Error returns the error message, or "" on success.
func (r FileResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Config bounds the batch run.
type Config struct {
	// MaxConcurrency is the number of files parsed at once.
	MaxConcurrency int `validate:"min=1,max=64"`

	// MismatchThreshold is passed through to scoring.
	MismatchThreshold float64 `validate:"min=0,max=100"`
}

// DefaultConfig returns the standard batch settings.
func DefaultConfig() Config {
	return Config{MaxConcurrency: 4, MismatchThreshold: scoring.DefaultMismatchThreshold}
}

// ParseFunc parses one file. It matches parser.ParseWithThreshold.
type ParseFunc func(filename string, data []byte, opts scorecard.Options, threshold float64) (*scorecard.ParsedScorecard, error)

// Processor runs batches.
type Processor struct {
	cfg   Config
	parse ParseFunc
	log   *zap.Logger
}

// Option customises a Processor.
type Option func(*Processor)

// WithParser replaces the parse function.
func WithParser(fn ParseFunc) Option {
	return func(p *Processor) { p.parse = fn }
}

// WithLogger sets the logger; the global zap logger is used by default.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// NewProcessor creates a Processor. A non-positive MaxConcurrency means 1.
func NewProcessor(cfg Config, opts ...Option) *Processor {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	p := &Processor{cfg: cfg, parse: parser.ParseWithThreshold}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = zap.L()
	}
	return p
}

// Process parses a batch with the default configuration.
func Process(ctx context.Context, inputs []Input) []FileResult {
	return NewProcessor(DefaultConfig()).Process(ctx, inputs)
}

// Process parses every input and returns one result per input, in input
// order. Files not yet started when ctx is cancelled get an error result.
func (p *Processor) Process(ctx context.Context, inputs []Input) []FileResult {
	results := make([]FileResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(p.cfg.MaxConcurrency)

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			results[i] = FileResult{
				Filename: displayName(in),
				Status:   StatusError,
				Err:      eris.Wrap(err, "batch: not started"),
			}
			continue
		}
		i, in := i, in
		g.Go(func() error {
			results[i] = p.processOne(ctx, in)
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Status == StatusSuccess {
			succeeded++
		}
	}
	p.log.Info("batch parsed",
		zap.Int("files", len(results)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(results)-succeeded),
	)

	return results
}

// processOne runs the pipeline for one file and never panics.
func (p *Processor) processOne(ctx context.Context, in Input) (result FileResult) {
	start := time.Now()
	result = FileResult{Filename: displayName(in), Status: StatusError}

	defer func() {
		if rec := recover(); rec != nil {
			result.Scorecard = nil
			result.Status = StatusError
			result.Err = eris.New(fmt.Sprintf("batch: panic while parsing: %v", rec))
		}
		result.Duration = time.Since(start)
		p.logResult(result)
	}()

	if err := ctx.Err(); err != nil {
		result.Err = eris.Wrap(err, "batch: not started")
		return result
	}

	data := in.Data
	if data == nil && in.Path != "" {
		var err error
		if data, err = os.ReadFile(in.Path); err != nil {
			result.Err = &scorecard.UnreadableFileError{Filename: result.Filename, Err: err}
			return result
		}
	}

	card, err := p.parse(result.Filename, data, in.Options, p.cfg.MismatchThreshold)
	if err != nil {
		result.Err = err
		return result
	}

	result.Status = StatusSuccess
	result.Scorecard = card
	return result
}

func (p *Processor) logResult(r FileResult) {
	if r.Status == StatusSuccess {
		p.log.Info("file parsed",
			zap.String("filename", r.Filename),
			zap.String("format", string(r.Scorecard.Format)),
			zap.Float64("score_percentage", r.Scorecard.ScorePercentage),
			zap.Duration("duration", r.Duration),
		)
		return
	}
	p.log.Warn("file failed",
		zap.String("filename", r.Filename),
		zap.Error(r.Err),
		zap.Duration("duration", r.Duration),
	)
}

func displayName(in Input) string {
	if in.Filename != "" {
		return in.Filename
	}
	return filepath.Base(in.Path)
}
