package risk

import (
	"errors"
	"fmt"
	"sort"

	"churnlens/domain/core"
	"churnlens/domain/customer"
	"churnlens/domain/segment"
)

// MaxScore is the upper bound of a composite score
const MaxScore = 100.0

// Signal names, also used as contribution column suffixes
const (
	SignalComplaint    = "complaint"
	SignalInactivity   = "inactivity"
	SignalGeography    = "geography"
	SignalProducts     = "products"
	SignalSatisfaction = "satisfaction"
)

// Signals lists the scored signals in output order
var Signals = []string{SignalComplaint, SignalInactivity, SignalGeography, SignalProducts, SignalSatisfaction}

// Tier labels
const (
	TierLow      = "Low"
	TierMedium   = "Medium"
	TierHigh     = "High"
	TierCritical = "Critical"
)

// Weights configures each signal's contribution
type Weights struct {
	Complaint  float64 `yaml:"complaint"`
	Inactivity float64 `yaml:"inactivity"`
	// Geography maps country to weight; countries not listed contribute 0.
	Geography map[string]float64 `yaml:"geography"`
	// Products is added when NumOfProducts is one of RiskyProductCounts.
	Products           float64 `yaml:"products"`
	RiskyProductCounts []int   `yaml:"risky_product_counts"`
	// Satisfaction is added when SatisfactionScore <= LowSatisfactionMax.
	Satisfaction       float64 `yaml:"satisfaction"`
	LowSatisfactionMax int     `yaml:"low_satisfaction_max"`
}

// DefaultWeights puts complaint above every other signal combined
func DefaultWeights() Weights {
	return Weights{
		Complaint:          55,
		Inactivity:         15,
		Geography:          map[string]float64{string(customer.GeographyGermany): 10},
		Products:           12,
		RiskyProductCounts: []int{1, 3, 4},
		Satisfaction:       8,
		LowSatisfactionMax: 2,
	}
}

// DefaultTiers maps scores to Low ≤15 < Medium ≤30 < High ≤45 < Critical
func DefaultTiers() segment.Scale {
	return segment.MustScale("risk_tier", []float64{15, 30, 45}, []string{TierLow, TierMedium, TierHigh, TierCritical})
}

func (w Weights) maxGeography() float64 {
	max := 0.0
	for _, v := range w.Geography {
		if v > max {
			max = v
		}
	}
	return max
}

// MaxAchievable is the score of a record that trips every signal
func (w Weights) MaxAchievable() float64 {
	return w.Complaint + w.Inactivity + w.maxGeography() + w.Products + w.Satisfaction
}

// Validate enforces non-negative weights, a score bounded by MaxScore, and
// that a complaint on its own reaches the top tier.
func (w Weights) Validate(tiers segment.Scale) error {
	named := map[string]float64{
		SignalComplaint:    w.Complaint,
		SignalInactivity:   w.Inactivity,
		SignalProducts:     w.Products,
		SignalSatisfaction: w.Satisfaction,
	}
	for country, v := range w.Geography {
		named[SignalGeography+":"+country] = v
	}
	keys := make([]string, 0, len(named))
	for k := range named {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if named[k] < 0 {
			return fmt.Errorf("%w: %s weight is negative (%v)", core.ErrInvalidWeights, k, named[k])
		}
	}
	if total := w.MaxAchievable(); total > MaxScore {
		return fmt.Errorf("%w: weights sum to %v, above %v", core.ErrInvalidWeights, total, MaxScore)
	}
	if err := tiers.Validate(); err != nil {
		return err
	}
	if len(tiers.Cutoffs) == 0 {
		return fmt.Errorf("%w: tier scale needs at least two tiers", core.ErrInvalidScale)
	}
	if top := tiers.Cutoffs[len(tiers.Cutoffs)-1]; w.Complaint <= top {
		return fmt.Errorf("%w: complaint weight %v must exceed the top tier cutoff %v",
			core.ErrInvalidWeights, w.Complaint, top)
	}
	return nil
}

// Score is the composite risk of one record
type Score struct {
	Value         float64
	Tier          string
	Contributions map[string]float64
}

// Scored pairs a segmented record with its score
type Scored struct {
	segment.Segmented
	Risk Score
}

// Scorer computes composite scores. It holds no mutable state.
type Scorer struct {
	weights Weights
	tiers   segment.Scale
	risky   map[int]bool
}

// NewScorer validates the configuration and returns a scorer
func NewScorer(weights Weights, tiers segment.Scale) (*Scorer, error) {
	if err := weights.Validate(tiers); err != nil {
		return nil, err
	}
	risky := make(map[int]bool, len(weights.RiskyProductCounts))
	for _, n := range weights.RiskyProductCounts {
		risky[n] = true
	}
	return &Scorer{weights: weights, tiers: tiers, risky: risky}, nil
}

// Tiers returns the tier scale
func (s *Scorer) Tiers() segment.Scale {
	return s.tiers
}

// ScoreRecord computes one record's score. Missing complaint or satisfaction
// values fail the record with a *customer.ComputationError.
func (s *Scorer) ScoreRecord(r customer.Record) (Score, error) {
	if r.HasComplaint == nil {
		return Score{}, &customer.ComputationError{CustomerID: r.ID, Signal: SignalComplaint}
	}
	if r.SatisfactionScore == nil {
		return Score{}, &customer.ComputationError{CustomerID: r.ID, Signal: SignalSatisfaction}
	}

	c := make(map[string]float64, len(Signals))
	c[SignalComplaint] = pick(*r.HasComplaint, s.weights.Complaint)
	c[SignalInactivity] = pick(!r.IsActiveMember, s.weights.Inactivity)
	c[SignalGeography] = s.weights.Geography[string(r.Geography)]
	c[SignalProducts] = pick(s.risky[r.NumOfProducts], s.weights.Products)
	c[SignalSatisfaction] = pick(*r.SatisfactionScore <= s.weights.LowSatisfactionMax, s.weights.Satisfaction)

	total := 0.0
	for _, name := range Signals {
		total += c[name]
	}
	if total > MaxScore {
		total = MaxScore
	}

	return Score{Value: total, Tier: s.tiers.Label(total), Contributions: c}, nil
}

func pick(cond bool, w float64) float64 {
	if cond {
		return w
	}
	return 0
}

// Result is the outcome of scoring a table
type Result struct {
	Scored []Scored
	Errors []*customer.ComputationError
}

// ErrorRate is failed / attempted
func (r Result) ErrorRate() float64 {
	total := len(r.Scored) + len(r.Errors)
	if total == 0 {
		return 0
	}
	return float64(len(r.Errors)) / float64(total)
}

// ScoreAll scores every record, collecting per-record failures instead of
// stopping at the first one.
func (s *Scorer) ScoreAll(records []segment.Segmented) Result {
	res := Result{Scored: make([]Scored, 0, len(records))}
	for _, r := range records {
		score, err := s.ScoreRecord(r.Record)
		if err != nil {
			var ce *customer.ComputationError
			if !errors.As(err, &ce) {
				ce = &customer.ComputationError{CustomerID: r.ID, Signal: err.Error()}
			}
			res.Errors = append(res.Errors, ce)
			continue
		}
		res.Scored = append(res.Scored, Scored{Segmented: r, Risk: score})
	}
	return res
}
