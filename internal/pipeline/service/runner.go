// Package service sequences the reconciliation pipeline: ingest, extract,
// validate, shape, load. Each run is a full reconciliation and full replace;
// a failed stage aborts the run before anything is written.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"resmatch/internal/pipeline/frame"
	"resmatch/internal/pipeline/joinval"
	"resmatch/internal/pipeline/keyextract"
	"resmatch/internal/pipeline/metrics"
	"resmatch/internal/pipeline/shape"
	"resmatch/internal/platform/config"
)

// Stage names, used in logs and failure metrics.
const (
	StageIngest   = "ingest"
	StageExtract  = "extract"
	StageValidate = "validate"
	StageShape    = "shape"
	StageLoad     = "load"
)

// Sources are the three parsed input tables.
type Sources struct {
	Disciplines  *frame.Table
	Master       *frame.Table
	Descriptions *frame.Table
}

// SourceReader yields the pipeline's input tables.
type SourceReader interface {
	Read(ctx context.Context) (*Sources, error)
}

// Replacer performs the transactional dataset replace.
type Replacer interface {
	Replace(ctx context.Context, rs *shape.RowSets) error
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID        uuid.UUID
	Strategy     string
	Disciplines  int
	Schools      int
	Streams      int
	Descriptions int
	Sections     int
	Duration     time.Duration
}

// Runner executes the pipeline end to end. Runs are strictly sequential; the
// design assumes no two runs execute concurrently against the same store.
type Runner struct {
	sources SourceReader
	loader  Replacer
	cfg     config.Pipeline
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner constructs a pipeline runner.
func NewRunner(sources SourceReader, loader Replacer, cfg config.Pipeline, opts ...Option) *Runner {
	r := &Runner{
		sources: sources,
		loader:  loader,
		cfg:     cfg,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one full reconcile-and-replace. On failure the store is
// untouched: every stage before load is read-only and the loader is
// transactional.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	runID := uuid.New()
	log := r.log.With("run_id", runID)
	start := time.Now()

	log.Info("pipeline run starting",
		"strategies", r.cfg.IDStrategies,
		"min_rate", r.cfg.IDMinRate,
		"match_iteration_id", r.cfg.MatchIterationID,
	)

	src, err := r.sources.Read(ctx)
	if err != nil {
		return nil, r.fail(log, StageIngest, err)
	}
	if err := validateSources(src); err != nil {
		return nil, r.fail(log, StageIngest, err)
	}
	log.Debug("sources ingested",
		"disciplines", src.Disciplines.NumRows(),
		"master", src.Master.NumRows(),
		"descriptions", src.Descriptions.NumRows(),
	)

	ids, err := keyextract.Extract(src.Descriptions, keyextract.Options{
		Strategies: r.cfg.IDStrategies,
		MinRate:    r.cfg.IDMinRate,
	})
	if err != nil {
		return nil, r.fail(log, StageExtract, err)
	}
	log.Info("canonical id extracted",
		"strategy", ids.Strategy,
		"parsed", ids.ValidCount(),
		"rows", src.Descriptions.NumRows(),
	)

	merged, err := joinval.Validate(src.Master, src.Descriptions, ids)
	if err != nil {
		return nil, r.fail(log, StageValidate, err)
	}
	log.Info("merge validated", "rows", merged.Len(), "strategy", ids.Strategy)

	rs, err := shape.Build(src.Disciplines, src.Master, src.Descriptions, merged, shape.Options{
		MatchIterationID: r.cfg.MatchIterationID,
	})
	if err != nil {
		return nil, r.fail(log, StageShape, err)
	}
	log.Info("rows shaped",
		"disciplines", len(rs.Disciplines),
		"schools", len(rs.Schools),
		"program_streams", len(rs.Streams),
		"program_descriptions", len(rs.Descriptions),
		"sections", len(rs.Sections),
	)

	if err := r.loader.Replace(ctx, rs); err != nil {
		return nil, r.fail(log, StageLoad, err)
	}

	report := &RunReport{
		RunID:        runID,
		Strategy:     ids.Strategy,
		Disciplines:  len(rs.Disciplines),
		Schools:      len(rs.Schools),
		Streams:      len(rs.Streams),
		Descriptions: len(rs.Descriptions),
		Sections:     len(rs.Sections),
		Duration:     time.Since(start),
	}
	r.observe(report)
	log.Info("pipeline run committed", "strategy", report.Strategy, "duration", report.Duration)
	return report, nil
}

func (r *Runner) fail(log *slog.Logger, stage string, err error) error {
	if r.metrics != nil {
		r.metrics.RunFailures.WithLabelValues(stage).Inc()
	}
	log.Error("pipeline run failed", "stage", stage, "error", err)
	return fmt.Errorf("%s: %w", stage, err)
}

func (r *Runner) observe(report *RunReport) {
	if r.metrics == nil {
		return
	}
	r.metrics.RunsTotal.Inc()
	r.metrics.RunDuration.Observe(report.Duration.Seconds())
	r.metrics.StrategyUsed.WithLabelValues(report.Strategy).Inc()
	r.metrics.RowsLoaded.WithLabelValues("disciplines").Set(float64(report.Disciplines))
	r.metrics.RowsLoaded.WithLabelValues("schools").Set(float64(report.Schools))
	r.metrics.RowsLoaded.WithLabelValues("program_streams").Set(float64(report.Streams))
	r.metrics.RowsLoaded.WithLabelValues("program_descriptions").Set(float64(report.Descriptions))
	r.metrics.RowsLoaded.WithLabelValues("program_description_sections").Set(float64(report.Sections))
}
