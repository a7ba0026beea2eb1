package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"churnlens/adapters/tabular"
	"churnlens/domain/core"
	"churnlens/domain/customer"
	"churnlens/domain/dataset"
	"churnlens/domain/risk"
	"churnlens/domain/run"
	"churnlens/domain/segment"
	"churnlens/domain/summary"
	"churnlens/internal"
	"churnlens/internal/aggregate"
	"churnlens/internal/config"
	apperrors "churnlens/internal/errors"
	"churnlens/internal/ingest"
	"churnlens/ports"
)

// CodeVersion is recorded in the run fingerprint
const CodeVersion = "1.0.0"

// Output file names that are not tables
const (
	ManifestFile = "run_manifest.json"
	WorkbookFile = "churn_summary.xlsx"
)

// Stages in execution order
var Stages = []string{"read", "load", "segment", "score", "aggregate", "write"}

// Progress is told when each stage finishes
type Progress interface {
	StageDone(stage string)
}

type noProgress struct{}

func (noProgress) StageDone(string) {}

// Result is everything a completed run produced
type Result struct {
	Manifest *run.Manifest
	Load     *ingest.LoadReport
	Report   *summary.Report
	Scored   []risk.Scored
	Errors   []*customer.ComputationError
}

// Pipeline runs raw table -> loader -> segmentation -> scorer -> aggregator -> writers
type Pipeline struct {
	cfg      *config.Config
	logger   *internal.Logger
	progress Progress
}

// New validates the configuration and returns a pipeline
func New(cfg *config.Config, logger *internal.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Pipeline{cfg: cfg, logger: logger.With("Pipeline"), progress: noProgress{}}, nil
}

// WithProgress installs a progress reporter
func (p *Pipeline) WithProgress(pr Progress) *Pipeline {
	if pr != nil {
		p.progress = pr
	}
	return p
}

// Validate reads and loads the input without scoring or writing anything
func (p *Pipeline) Validate(ctx context.Context) (*customer.Table, *ingest.LoadReport, error) {
	raw, _, err := p.read()
	if err != nil {
		return nil, nil, err
	}
	p.progress.StageDone("read")
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return p.load(raw)
}

// Run executes every stage and writes all outputs to the configured directory
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg := p.cfg
	raw, inputHash, err := p.read()
	if err != nil {
		return nil, err
	}
	p.progress.StageDone("read")

	table, loadReport, err := p.load(raw)
	if err != nil {
		return nil, err
	}
	p.progress.StageDone("load")

	engine, err := segment.NewEngine(cfg.Thresholds.Scales)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}
	segmented := engine.Segment(table.Records)
	p.progress.StageDone("segment")

	scorer, err := risk.NewScorer(cfg.Thresholds.Risk.Weights, cfg.Thresholds.Risk.Tiers)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}
	scored := scorer.ScoreAll(segmented)
	p.progress.StageDone("score")

	csvSink, err := tabular.NewCSVDirSink(cfg.Paths.OutputDir)
	if err != nil {
		return nil, apperrors.Wrap(err, "prepare output directory")
	}

	if rate := scored.ErrorRate(); rate > cfg.Pipeline.MaxScoringErrorRate {
		// the previous manifest does not describe this attempt
		if rerr := removeStale(filepath.Join(cfg.Paths.OutputDir, ManifestFile)); rerr != nil {
			p.logger.Warn("could not remove stale %s: %v", ManifestFile, rerr)
		}
		// keep the failures on disk for diagnosis before aborting
		if werr := writeTables(ctx, []ports.TableSink{csvSink}, []Table{scoringErrorTable(scored.Errors)}); werr != nil {
			p.logger.Warn("could not write %s: %v", TableScoringErrors, werr)
		}
		p.logger.Error("%d of %d records failed scoring (%.4f > %.4f)",
			len(scored.Errors), len(segmented), rate, cfg.Pipeline.MaxScoringErrorRate)
		return nil, apperrors.Computation(fmt.Errorf("%w: %d of %d records failed (rate %.4f, limit %.4f): first: %v",
			core.ErrErrorBudget, len(scored.Errors), len(segmented), rate, cfg.Pipeline.MaxScoringErrorRate, scored.Errors[0]))
	}
	if len(scored.Errors) > 0 {
		p.logger.Warn("%d records failed scoring and are excluded from aggregates", len(scored.Errors))
	}

	agg := aggregate.NewAggregator(aggregate.Options{
		Workers:           cfg.Pipeline.Workers,
		MinInsightSupport: cfg.Pipeline.MinInsightSupport,
	}, p.logger)
	report, err := agg.Build(ctx, scored.Scored, table)
	if err != nil {
		return nil, err
	}
	p.progress.StageDone("aggregate")

	tables := reportTables(report, scored.Scored, table, scored.Errors)
	if cfg.Pipeline.DomainPolicy == ingest.PolicyDrop {
		tables = append(tables, rejectedTable(loadReport.Dropped))
	}

	sinks := []ports.TableSink{csvSink}
	var workbook *tabular.WorkbookSink
	if cfg.Pipeline.Workbook {
		workbook, err = tabular.NewWorkbookSink(filepath.Join(cfg.Paths.OutputDir, WorkbookFile))
		if err != nil {
			return nil, apperrors.Wrap(err, "prepare workbook")
		}
		sinks = append(sinks, workbook)
	}
	if err := writeTables(ctx, sinks, tables); err != nil {
		return nil, apperrors.Wrap(err, "write outputs")
	}
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			return nil, apperrors.Wrap(err, "close output")
		}
	}

	manifest := run.NewManifest(filepath.Base(raw.Source), inputHash, cfg.Hash(), CodeVersion)
	manifest.DomainPolicy = string(cfg.Pipeline.DomainPolicy)
	manifest.Counts = run.Counts{
		RowsRead:      loadReport.RowsRead,
		RowsAccepted:  loadReport.RowsAccepted,
		RowsRejected:  loadReport.RowsRead - loadReport.RowsAccepted,
		Scored:        len(scored.Scored),
		ScoringErrors: len(scored.Errors),
	}
	manifest.AddOutputs(csvSink.Files()...)
	if workbook != nil {
		manifest.AddOutputs(WorkbookFile)
	}
	manifest.AddOutputs(ManifestFile)
	if err := writeManifest(filepath.Join(cfg.Paths.OutputDir, ManifestFile), manifest); err != nil {
		return nil, err
	}
	p.progress.StageDone("write")

	p.logger.Info("run %s: %d scored, %d failed, %d outputs in %s",
		manifest.RunID, manifest.Counts.Scored, manifest.Counts.ScoringErrors, len(manifest.Outputs), cfg.Paths.OutputDir)

	return &Result{
		Manifest: manifest,
		Load:     loadReport,
		Report:   report,
		Scored:   scored.Scored,
		Errors:   scored.Errors,
	}, nil
}

// read loads the raw table and hashes the input bytes
func (p *Pipeline) read() (*dataset.RawTable, core.InputHash, error) {
	path := p.cfg.Paths.Input
	if path == "" {
		return nil, "", apperrors.InvalidInput("no input file given")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", apperrors.Wrapf(apperrors.InvalidInput(err.Error()), "open %s", path)
	}
	hash, err := core.HashReader(f)
	f.Close()
	if err != nil {
		return nil, "", apperrors.Wrapf(err, "hash %s", path)
	}

	var source ports.TableSource = tabular.NewDataReader(path)
	raw, err := source.ReadData()
	if err != nil {
		return nil, "", apperrors.Wrapf(apperrors.InvalidInput(err.Error()), "read %s", path)
	}
	p.logger.Debug("read %d rows from %s (input %s)", raw.Len(), path, hash.Short())
	return raw, core.InputHash(hash), nil
}

func (p *Pipeline) load(raw *dataset.RawTable) (*customer.Table, *ingest.LoadReport, error) {
	loader, err := ingest.NewLoader(p.cfg.Thresholds.Bounds, p.cfg.Pipeline.DomainPolicy, p.logger)
	if err != nil {
		return nil, nil, err
	}
	return loader.Load(raw)
}

// writeTables sends every table to every sink, in order
func writeTables(ctx context.Context, sinks []ports.TableSink, tables []Table) error {
	for _, t := range tables {
		for _, s := range sinks {
			if err := s.WriteTable(ctx, t.Name, t.Headers, t.Rows); err != nil {
				return fmt.Errorf("table %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeManifest(path string, m *run.Manifest) error {
	if err := m.Validate(); err != nil {
		return apperrors.Wrap(err, "run manifest")
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "encode run manifest")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return apperrors.Wrap(err, "write run manifest")
	}
	return nil
}
