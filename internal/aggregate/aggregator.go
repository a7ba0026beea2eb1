package aggregate

import (
	"context"
	"runtime"

	"churnlens/domain/customer"
	"churnlens/domain/risk"
	"churnlens/domain/summary"
	"churnlens/internal"
	apperrors "churnlens/internal/errors"
	"churnlens/internal/profiling"

	"golang.org/x/sync/errgroup"
)

// Options tune the aggregator
type Options struct {
	// Workers bounds the dimension fan-out; 0 means GOMAXPROCS
	Workers int
	// MinInsightSupport is the smallest group eligible for top_segments
	MinInsightSupport int
}

// Aggregator turns scored records into the summary report
type Aggregator struct {
	opts     Options
	profiler *profiling.DataProfiler
	logger   *internal.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(opts Options, logger *internal.Logger) *Aggregator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MinInsightSupport < 1 {
		opts.MinInsightSupport = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Aggregator{opts: opts, profiler: profiling.NewDataProfiler(), logger: logger.With("Aggregator")}
}

// Summarize computes every dimension table concurrently. Each worker writes to
// its own slot so the result keeps the order of dims.
func (a *Aggregator) Summarize(ctx context.Context, scored []risk.Scored, dims []Dimension) ([]summary.DimensionTable, error) {
	tables := make([]summary.DimensionTable, len(dims))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, dim := range dims {
		i, dim := i, dim
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tables[i] = Summarize(dim, scored)
			a.logger.Debug("%s: %d groups", dim.Name, len(tables[i].Rows))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// Build produces the full report for a scored table
func (a *Aggregator) Build(ctx context.Context, scored []risk.Scored, table *customer.Table) (*summary.Report, error) {
	hasCardType := table != nil && table.HasCardType
	tables, err := a.Summarize(ctx, scored, DefaultDimensions(hasCardType))
	if err != nil {
		return nil, apperrors.Wrap(err, "dimension aggregation cancelled")
	}

	report := &summary.Report{
		Dimensions: tables,
		KPI:        ComputeKPI(scored),
		Comparison: Compare(scored, table != nil && table.HasPoints),
	}

	for _, t := range tables {
		report.Significance = append(report.Significance, ChiSquareIndependence(t))
	}
	report.Insights = TopSegments(tables, report.KPI.ChurnRate, a.opts.MinInsightSupport)

	if len(scored) > 0 {
		profiles, err := a.profiler.ProfileColumns(profiling.NumericColumns(scored, table))
		if err != nil {
			return nil, apperrors.Wrap(err, "numeric profile")
		}
		report.Profiles = profiles

		features := append(profiling.NumericColumns(scored, table), profiling.BooleanColumns(scored)...)
		report.Correlations = a.profiler.CorrelateWithLabel(features, profiling.ChurnLabels(scored))
	}

	a.logger.Info("aggregated %d customers across %d dimensions (churn rate %.4f)",
		report.KPI.TotalCustomers, len(tables), report.KPI.ChurnRate)
	return report, nil
}
