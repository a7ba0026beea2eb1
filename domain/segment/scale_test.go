package segment

import (
	"errors"
	"testing"

	"churnlens/domain/core"
	"churnlens/domain/customer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceBoundaries(t *testing.T) {
	balance := DefaultScales().Balance

	tests := []struct {
		value float64
		want  string
	}{
		{0, "Zero"},
		{0.01, "Low"},
		{50000, "Low"},
		{50000.01, "Medium"},
		{100000, "Medium"},
		{100000.01, "High"},
		{250898.09, "High"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, balance.Label(tt.value), "balance %v", tt.value)
	}
}

func TestCreditBands(t *testing.T) {
	credit := DefaultScales().Credit

	assert.Equal(t, "Poor", credit.Label(350))
	assert.Equal(t, "Poor", credit.Label(579))
	assert.Equal(t, "Fair", credit.Label(580))
	assert.Equal(t, "Good", credit.Label(739))
	assert.Equal(t, "Excellent", credit.Label(740))
	assert.Equal(t, "Excellent", credit.Label(850))
}

func TestTenureAndAge(t *testing.T) {
	s := DefaultScales()

	assert.Equal(t, "New", s.Tenure.Label(0))
	assert.Equal(t, "New", s.Tenure.Label(2))
	assert.Equal(t, "Established", s.Tenure.Label(3))
	assert.Equal(t, "Established", s.Tenure.Label(6))
	assert.Equal(t, "Loyal", s.Tenure.Label(7))
	assert.Equal(t, "Loyal", s.Tenure.Label(10))

	assert.Equal(t, "18-30", s.Age.Label(18))
	assert.Equal(t, "18-30", s.Age.Label(30))
	assert.Equal(t, "31-40", s.Age.Label(31))
	assert.Equal(t, "51-60", s.Age.Label(60))
	assert.Equal(t, "61+", s.Age.Label(92))
}

// Every integer in each dimension's domain lands in exactly one band and the
// band index never decreases as the value grows.
func TestAssignmentTotalAndMonotonic(t *testing.T) {
	s := DefaultScales()
	domains := []struct {
		scale  Scale
		lo, hi int
	}{
		{s.Tenure, 0, 10},
		{s.Credit, 300, 900},
		{s.Age, 18, 100},
		{s.Balance, 0, 260000},
	}

	for _, d := range domains {
		prev := -1
		for v := d.lo; v <= d.hi; v++ {
			idx := d.scale.Index(float64(v))
			require.GreaterOrEqual(t, idx, 0, d.scale.Name)
			require.Less(t, idx, len(d.scale.Labels), d.scale.Name)
			require.GreaterOrEqual(t, idx, prev, "%s not monotonic at %d", d.scale.Name, v)
			prev = idx
		}
	}
}

func TestScaleValidation(t *testing.T) {
	tests := []struct {
		name    string
		cutoffs []float64
		labels  []string
	}{
		{"label count", []float64{1, 2}, []string{"a", "b"}},
		{"not increasing", []float64{2, 2}, []string{"a", "b", "c"}},
		{"duplicate label", []float64{1}, []string{"a", "a"}},
		{"empty label", []float64{1}, []string{"a", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScale("test", tt.cutoffs, tt.labels)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidScale))
		})
	}
}

func TestEngineSegmentDoesNotMutateInput(t *testing.T) {
	engine, err := NewEngine(DefaultScales())
	require.NoError(t, err)

	in := []customer.Record{
		{ID: "1", Balance: 100000, Tenure: 2, CreditScore: 740, Age: 41},
		{ID: "2", Balance: 0, Tenure: 9, CreditScore: 500, Age: 65},
	}
	before := append([]customer.Record(nil), in...)

	out := engine.Segment(in)

	require.Len(t, out, 2)
	assert.Equal(t, before, in)
	assert.Equal(t, Assignment{BalanceTier: "Medium", TenureTier: "New", CreditTier: "Excellent", AgeBand: "41-50"}, out[0].Segment)
	assert.Equal(t, Assignment{BalanceTier: "Zero", TenureTier: "Loyal", CreditTier: "Poor", AgeBand: "61+"}, out[1].Segment)
}

func TestRank(t *testing.T) {
	s := DefaultScales().Credit
	assert.Equal(t, 0, s.Rank("Poor"))
	assert.Equal(t, 3, s.Rank("Excellent"))
	assert.Equal(t, -1, s.Rank("Very Good"))
}
