package profiling

import (
	"math"
	"testing"

	"churnlens/domain/customer"
	"churnlens/domain/risk"
	"churnlens/domain/segment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoredRecord(id string, balance float64, active, complaint, churned bool) risk.Scored {
	sat := 3
	return risk.Scored{
		Segmented: segment.Segmented{Record: customer.Record{
			ID:                id,
			CreditScore:       650,
			Age:               40,
			Tenure:            5,
			Balance:           balance,
			NumOfProducts:     2,
			IsActiveMember:    active,
			EstimatedSalary:   50000,
			HasComplaint:      &complaint,
			SatisfactionScore: &sat,
			Churned:           churned,
		}},
	}
}

func TestAnalyzeDistribution(t *testing.T) {
	da := NewDistributionAnalyzer()
	p, err := da.AnalyzeDistribution("x", []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, "x", p.Column)
	assert.Equal(t, 5, p.Count)
	assert.InDelta(t, 3.0, p.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(2.5), p.StdDev, 1e-9)
	assert.Equal(t, 1.0, p.Min)
	assert.Equal(t, 5.0, p.Max)
	assert.Equal(t, 3.0, p.Median)
	assert.LessOrEqual(t, p.Q25, p.Median)
	assert.GreaterOrEqual(t, p.Q75, p.Median)
	assert.InDelta(t, 0.0, p.Skewness, 1e-9)
}

func TestAnalyzeDistributionEmpty(t *testing.T) {
	_, err := NewDistributionAnalyzer().AnalyzeDistribution("x", nil)
	assert.Error(t, err)
}

func TestAnalyzeDistributionSingleValue(t *testing.T) {
	p, err := NewDistributionAnalyzer().AnalyzeDistribution("x", []float64{7})
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.StdDev)
	assert.Equal(t, 7.0, p.Mean)
}

func TestCorrelateWithLabel(t *testing.T) {
	scored := []risk.Scored{
		scoredRecord("a", 0, true, false, false),
		scoredRecord("b", 10, true, false, false),
		scoredRecord("c", 20, false, true, true),
		scoredRecord("d", 30, false, true, true),
	}
	dp := NewDataProfiler()
	features := append(NumericColumns(scored, &customer.Table{}), BooleanColumns(scored)...)
	corr := dp.CorrelateWithLabel(features, ChurnLabels(scored))

	byName := map[string]float64{}
	for _, c := range corr {
		byName[c.Feature] = c.Coefficient
	}
	// constant columns are skipped
	assert.NotContains(t, byName, "age")
	assert.NotContains(t, byName, "has_credit_card")

	assert.InDelta(t, 1.0, byName["complaint"], 1e-9)
	assert.InDelta(t, -1.0, byName["is_active_member"], 1e-9)
	assert.Greater(t, byName["balance"], 0.8)

	for i := 1; i < len(corr); i++ {
		assert.GreaterOrEqual(t, math.Abs(corr[i-1].Coefficient), math.Abs(corr[i].Coefficient))
	}
}

func TestCorrelateWithConstantLabel(t *testing.T) {
	scored := []risk.Scored{
		scoredRecord("a", 0, true, false, false),
		scoredRecord("b", 10, true, false, false),
	}
	corr := NewDataProfiler().CorrelateWithLabel(NumericColumns(scored, nil), ChurnLabels(scored))
	assert.Empty(t, corr)
}

func TestNumericColumnsPoints(t *testing.T) {
	pts := 400
	r := scoredRecord("a", 0, true, false, false)
	r.PointsEarned = &pts

	cols := NumericColumns([]risk.Scored{r}, &customer.Table{HasPoints: true})
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	assert.Contains(t, names, "points_earned")
	assert.Equal(t, "risk_score", names[len(names)-1])

	cols = NumericColumns([]risk.Scored{r}, &customer.Table{})
	for _, c := range cols {
		assert.NotEqual(t, "points_earned", c.Name)
	}
}

func TestProfileColumnsOrder(t *testing.T) {
	profiles, err := NewDataProfiler().ProfileColumns([]Column{
		{Name: "b", Values: []float64{1, 2}},
		{Name: "a", Values: []float64{3}},
	})
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "b", profiles[0].Column)
	assert.Equal(t, "a", profiles[1].Column)
}
