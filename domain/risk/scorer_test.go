package risk

import (
	"errors"
	"testing"

	"churnlens/domain/core"
	"churnlens/domain/customer"
	"churnlens/domain/segment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(DefaultWeights(), DefaultTiers())
	require.NoError(t, err)
	return s
}

func baseRecord() customer.Record {
	return customer.Record{
		ID:                "15634602",
		Geography:         customer.GeographyFrance,
		NumOfProducts:     2,
		IsActiveMember:    true,
		HasComplaint:      boolPtr(false),
		SatisfactionScore: intPtr(4),
	}
}

func TestScoreRecord_NoSignals(t *testing.T) {
	score, err := newScorer(t).ScoreRecord(baseRecord())
	require.NoError(t, err)

	assert.Equal(t, 0.0, score.Value)
	assert.Equal(t, TierLow, score.Tier)
}

func TestScoreRecord_Contributions(t *testing.T) {
	r := baseRecord()
	r.IsActiveMember = false
	r.Geography = customer.GeographyGermany
	r.NumOfProducts = 3
	r.SatisfactionScore = intPtr(2)

	score, err := newScorer(t).ScoreRecord(r)
	require.NoError(t, err)

	assert.Equal(t, 45.0, score.Value)
	assert.Equal(t, TierHigh, score.Tier)
	assert.Equal(t, map[string]float64{
		SignalComplaint:    0,
		SignalInactivity:   15,
		SignalGeography:    10,
		SignalProducts:     12,
		SignalSatisfaction: 8,
	}, score.Contributions)
}

// A complaint puts the customer in the top tier whatever else is true.
func TestComplaintIsAlwaysCritical(t *testing.T) {
	scorer := newScorer(t)
	geos := []customer.Geography{customer.GeographyFrance, customer.GeographyGermany, customer.GeographySpain}

	for _, geo := range geos {
		for products := 1; products <= 4; products++ {
			for sat := 1; sat <= 5; sat++ {
				for _, active := range []bool{true, false} {
					r := baseRecord()
					r.HasComplaint = boolPtr(true)
					r.Geography = geo
					r.NumOfProducts = products
					r.SatisfactionScore = intPtr(sat)
					r.IsActiveMember = active

					score, err := scorer.ScoreRecord(r)
					require.NoError(t, err)
					assert.Equal(t, TierCritical, score.Tier, "geo=%s products=%d sat=%d active=%v", geo, products, sat, active)
				}
			}
		}
	}
}

func TestScoreBoundedAndTierMonotonic(t *testing.T) {
	scorer := newScorer(t)
	tiers := scorer.Tiers()

	r := baseRecord()
	r.HasComplaint = boolPtr(true)
	r.IsActiveMember = false
	r.Geography = customer.GeographyGermany
	r.NumOfProducts = 4
	r.SatisfactionScore = intPtr(1)
	top, err := scorer.ScoreRecord(r)
	require.NoError(t, err)
	assert.Equal(t, 100.0, top.Value)

	prev := -1
	for v := 0.0; v <= MaxScore; v += 0.5 {
		rank := tiers.Rank(tiers.Label(v))
		require.GreaterOrEqual(t, rank, prev, "tier went down at score %v", v)
		prev = rank
	}
}

func TestScoreRecord_Deterministic(t *testing.T) {
	scorer := newScorer(t)
	r := baseRecord()
	r.NumOfProducts = 1

	a, err := scorer.ScoreRecord(r)
	require.NoError(t, err)
	b, err := scorer.ScoreRecord(r)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestScoreRecord_MissingSignal(t *testing.T) {
	scorer := newScorer(t)

	r := baseRecord()
	r.HasComplaint = nil
	_, err := scorer.ScoreRecord(r)
	var ce *customer.ComputationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, SignalComplaint, ce.Signal)
	assert.True(t, errors.Is(err, core.ErrMissingSignal))

	r = baseRecord()
	r.SatisfactionScore = nil
	_, err = scorer.ScoreRecord(r)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, SignalSatisfaction, ce.Signal)
}

func TestScoreAllCollectsErrors(t *testing.T) {
	scorer := newScorer(t)
	good := baseRecord()
	bad := baseRecord()
	bad.ID = "2"
	bad.SatisfactionScore = nil

	res := scorer.ScoreAll([]segment.Segmented{{Record: good}, {Record: bad}, {Record: good}})

	assert.Len(t, res.Scored, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "2", res.Errors[0].CustomerID)
	assert.InDelta(t, 1.0/3.0, res.ErrorRate(), 1e-9)
}

func TestWeightsValidation(t *testing.T) {
	tiers := DefaultTiers()

	w := DefaultWeights()
	w.Inactivity = -1
	assert.True(t, errors.Is(w.Validate(tiers), core.ErrInvalidWeights))

	w = DefaultWeights()
	w.Products = 40
	assert.True(t, errors.Is(w.Validate(tiers), core.ErrInvalidWeights), "sum above 100")

	w = DefaultWeights()
	w.Complaint = 40
	assert.True(t, errors.Is(w.Validate(tiers), core.ErrInvalidWeights), "complaint below critical cutoff")

	assert.NoError(t, DefaultWeights().Validate(tiers))
}
