package aggregate

import (
	"context"
	"fmt"
	"testing"

	"churnlens/domain/customer"
	"churnlens/domain/risk"
	"churnlens/domain/segment"
	"churnlens/domain/summary"
	"churnlens/internal"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = internal.NewLogger(internal.LogLevelError)

// fixture builds n scored customers with a deterministic mix of attributes
func fixture(t *testing.T, n int) []risk.Scored {
	t.Helper()
	engine, err := segment.NewEngine(segment.DefaultScales())
	require.NoError(t, err)
	scorer, err := risk.NewScorer(risk.DefaultWeights(), risk.DefaultTiers())
	require.NoError(t, err)

	geos := []customer.Geography{customer.GeographyFrance, customer.GeographyGermany, customer.GeographySpain}
	records := make([]customer.Record, n)
	for i := range records {
		complaint := i%5 == 0
		sat := i%5 + 1
		records[i] = customer.Record{
			RowNumber:         i + 1,
			ID:                fmt.Sprintf("C%04d", i),
			CreditScore:       400 + (i*37)%450,
			Geography:         geos[i%3],
			Gender:            customer.GenderMale,
			Age:               18 + (i*7)%60,
			Tenure:            i % 11,
			Balance:           float64((i * 12345) % 200000),
			NumOfProducts:     i%4 + 1,
			IsActiveMember:    i%2 == 0,
			EstimatedSalary:   float64(20000 + i*100),
			HasComplaint:      &complaint,
			SatisfactionScore: &sat,
			Churned:           complaint || i%7 == 0,
		}
	}
	res := scorer.ScoreAll(engine.Segment(records))
	require.Empty(t, res.Errors)
	return res.Scored
}

func TestSummarizeCountsAndRates(t *testing.T) {
	scored := fixture(t, 200)
	agg := NewAggregator(Options{Workers: 3}, quiet)

	tables, err := agg.Summarize(context.Background(), scored, DefaultDimensions(false))
	require.NoError(t, err)
	require.Len(t, tables, len(DefaultDimensions(false)))

	kpi := ComputeKPI(scored)
	for i, tbl := range tables {
		assert.Equal(t, DefaultDimensions(false)[i].Name, tbl.Dimension, "order is preserved")
		assert.Equal(t, len(scored), tbl.Total(), tbl.Dimension)

		weighted := 0.0
		for _, r := range tbl.Rows {
			assert.Positive(t, r.Count)
			assert.GreaterOrEqual(t, r.ChurnRate, 0.0)
			assert.LessOrEqual(t, r.ChurnRate, 1.0)
			weighted += r.ChurnRate * float64(r.Count)
		}
		assert.InDelta(t, kpi.ChurnRate, weighted/float64(len(scored)), 1e-9, tbl.Dimension)
	}
}

func TestSortRows(t *testing.T) {
	rows := []summary.SegmentSummary{
		{Group: "b", ChurnRate: 0.2},
		{Group: "a", ChurnRate: 0.2},
		{Group: "c", ChurnRate: 0.5},
	}
	SortRows(rows)
	assert.Equal(t, []string{"c", "a", "b"}, []string{rows[0].Group, rows[1].Group, rows[2].Group})
}

func TestSummarizeEmptyInput(t *testing.T) {
	tbl := Summarize(DefaultDimensions(false)[0], nil)
	assert.Empty(t, tbl.Rows)
}

func TestCardTypeDimensionOnlyWhenPresent(t *testing.T) {
	names := func(dims []Dimension) []string {
		out := make([]string, len(dims))
		for i, d := range dims {
			out[i] = d.Name
		}
		return out
	}
	assert.NotContains(t, names(DefaultDimensions(false)), DimCardType)
	assert.Contains(t, names(DefaultDimensions(true)), DimCardType)
	assert.Equal(t, DimRiskTier, names(DefaultDimensions(true))[len(DefaultDimensions(true))-1])
}

func TestComputeKPIExactBalance(t *testing.T) {
	scored := fixture(t, 3)
	scored[0].Balance, scored[0].Churned = 0.1, true
	scored[1].Balance, scored[1].Churned = 0.2, true
	scored[2].Balance, scored[2].Churned = 100, false

	kpi := ComputeKPI(scored)
	assert.Equal(t, 3, kpi.TotalCustomers)
	assert.Equal(t, 2, kpi.ChurnedCustomers)
	assert.Equal(t, "0.30", kpi.BalanceAtRisk)
	assert.InDelta(t, 2.0/3.0, kpi.ChurnRate, 1e-12)
	assert.InDelta(t, 1.0/3.0, kpi.RetentionRate, 1e-12)
	assert.InDelta(t, 0.3/100.3, kpi.BalanceAtRiskShare, 1e-12)
}

func TestComputeKPIEmpty(t *testing.T) {
	kpi := ComputeKPI(nil)
	assert.Equal(t, 0, kpi.TotalCustomers)
	assert.Equal(t, "0.00", kpi.BalanceAtRisk)
}

func TestCompare(t *testing.T) {
	scored := fixture(t, 50)
	rows := Compare(scored, false)

	byMetric := map[string]summary.ComparisonRow{}
	for _, r := range rows {
		byMetric[r.Metric] = r
	}
	kpi := ComputeKPI(scored)
	assert.Equal(t, float64(kpi.ChurnedCustomers), byMetric["customers"].Churned)
	assert.Equal(t, float64(kpi.TotalCustomers-kpi.ChurnedCustomers), byMetric["customers"].Retained)
	// every complainer churned in the fixture
	assert.Greater(t, byMetric["complaint_rate"].Churned, byMetric["complaint_rate"].Retained)
	assert.Equal(t, 0.0, byMetric["complaint_rate"].Retained)
	assert.NotContains(t, byMetric, "points_earned")
}

func TestComparePointsEarned(t *testing.T) {
	scored := fixture(t, 4)
	points := []int{100, 300, 500, 0}
	for i := range scored {
		scored[i].Churned = i < 2
		if i < 3 {
			scored[i].PointsEarned = &points[i]
		}
	}

	rows := Compare(scored, true)
	var got *summary.ComparisonRow
	for i := range rows {
		if rows[i].Metric == "points_earned" {
			got = &rows[i]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, 200.0, got.Churned)
	assert.Equal(t, 500.0, got.Retained, "records without points are skipped")
	assert.Equal(t, "total_balance", rows[len(rows)-1].Metric)
}

func TestBalanceAtRiskAddsUpPerDimension(t *testing.T) {
	scored := fixture(t, 120)
	scored[0].Balance, scored[0].Churned = 0.1, true
	scored[1].Balance, scored[1].Churned = 0.2, true
	kpi := ComputeKPI(scored)

	for _, dim := range DefaultDimensions(false) {
		tbl := Summarize(dim, scored)
		atRisk, total := decimal.Zero, decimal.Zero
		for _, r := range tbl.Rows {
			atRisk = atRisk.Add(decimal.RequireFromString(r.BalanceAtRisk))
			total = total.Add(decimal.RequireFromString(r.TotalBalance))
			if r.Churned == 0 {
				assert.Equal(t, "0.00", r.BalanceAtRisk, dim.Name+"/"+r.Group)
			}
		}
		assert.Equal(t, kpi.BalanceAtRisk, atRisk.StringFixed(2), dim.Name)
		assert.True(t, total.GreaterThanOrEqual(atRisk), dim.Name)
	}
}

func TestChiSquareIndependence(t *testing.T) {
	strong := summary.DimensionTable{Dimension: "complaint", Rows: []summary.SegmentSummary{
		{Group: "Complaint", Count: 100, Churned: 99},
		{Group: "No Complaint", Count: 100, Churned: 1},
	}}
	sig := ChiSquareIndependence(strong)
	assert.Equal(t, 1, sig.DoF)
	assert.Equal(t, 2, sig.Groups)
	assert.Greater(t, sig.ChiSquare, 100.0)
	assert.Less(t, sig.PValue, 1e-6)
	assert.InDelta(t, 0.98, sig.CramersV, 0.01)

	none := summary.DimensionTable{Dimension: "gender", Rows: []summary.SegmentSummary{
		{Group: "Female", Count: 100, Churned: 20},
		{Group: "Male", Count: 100, Churned: 20},
	}}
	sig = ChiSquareIndependence(none)
	assert.InDelta(t, 0.0, sig.ChiSquare, 1e-12)
	assert.InDelta(t, 1.0, sig.PValue, 1e-9)

	single := summary.DimensionTable{Dimension: "x", Rows: []summary.SegmentSummary{{Group: "a", Count: 10, Churned: 3}}}
	sig = ChiSquareIndependence(single)
	assert.Equal(t, 1.0, sig.PValue)
	assert.Equal(t, 0, sig.DoF)
}

func TestTopSegments(t *testing.T) {
	tables := []summary.DimensionTable{
		{Dimension: "a", Rows: []summary.SegmentSummary{
			{Group: "tiny", Count: 2, ChurnRate: 1},
			{Group: "big", Count: 50, ChurnRate: 0.4},
		}},
		{Dimension: "b", Rows: []summary.SegmentSummary{{Group: "x", Count: 40, ChurnRate: 0.6}}},
		{Dimension: "c", Rows: []summary.SegmentSummary{{Group: "y", Count: 3, ChurnRate: 0.9}}},
	}
	ins := TopSegments(tables, 0.2, 10)
	require.Len(t, ins, 2)
	assert.Equal(t, summary.Insight{Rank: 1, Dimension: "b", Group: "x", Count: 40, ChurnRate: 0.6, Lift: 3}, ins[0])
	assert.Equal(t, "big", ins[1].Group)
	assert.InDelta(t, 2.0, ins[1].Lift, 1e-12)
}

func TestBuildReport(t *testing.T) {
	scored := fixture(t, 120)
	agg := NewAggregator(Options{Workers: 2, MinInsightSupport: 5}, quiet)

	report, err := agg.Build(context.Background(), scored, &customer.Table{})
	require.NoError(t, err)

	assert.Len(t, report.Dimensions, len(DefaultDimensions(false)))
	assert.Len(t, report.Significance, len(report.Dimensions))
	assert.NotEmpty(t, report.Profiles)
	assert.NotEmpty(t, report.Correlations)
	assert.NotEmpty(t, report.Insights)

	tier, ok := report.Dimension(DimRiskTier)
	require.True(t, ok)
	for _, r := range tier.Rows {
		if r.Group == risk.TierCritical {
			assert.Positive(t, r.Count)
		}
	}

	again, err := agg.Build(context.Background(), scored, &customer.Table{})
	require.NoError(t, err)
	assert.Equal(t, report, again)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAggregator(Options{Workers: 1}, quiet).Build(ctx, fixture(t, 10), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
