package segment

import (
	"churnlens/domain/customer"
)

// Dimension names as they appear in output tables
const (
	DimBalance = "balance_tier"
	DimTenure  = "tenure_tier"
	DimCredit  = "credit_tier"
	DimAge     = "age_band"
)

// Scales holds the four segmentation scales
type Scales struct {
	Balance Scale `yaml:"balance"`
	Tenure  Scale `yaml:"tenure"`
	Credit  Scale `yaml:"credit"`
	Age     Scale `yaml:"age"`
}

// DefaultScales are the documented default cutoffs. They are configurable
// defaults rather than values verified against the bank's own definitions.
func DefaultScales() Scales {
	return Scales{
		Balance: MustScale(DimBalance, []float64{0, 50000, 100000}, []string{"Zero", "Low", "Medium", "High"}),
		Tenure:  MustScale(DimTenure, []float64{2, 6}, []string{"New", "Established", "Loyal"}),
		Credit:  MustScale(DimCredit, []float64{579, 669, 739}, []string{"Poor", "Fair", "Good", "Excellent"}),
		Age:     MustScale(DimAge, []float64{30, 40, 50, 60}, []string{"18-30", "31-40", "41-50", "51-60", "61+"}),
	}
}

// Validate checks every scale
func (s Scales) Validate() error {
	for _, sc := range []Scale{s.Balance, s.Tenure, s.Credit, s.Age} {
		if err := sc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Assignment is the bucket of one record in each dimension
type Assignment struct {
	BalanceTier string
	TenureTier  string
	CreditTier  string
	AgeBand     string
}

// Segmented pairs a record with its assignment
type Segmented struct {
	customer.Record
	Segment Assignment
}

// Engine assigns segments with a fixed set of scales
type Engine struct {
	scales Scales
}

// NewEngine validates the scales and returns an engine
func NewEngine(scales Scales) (*Engine, error) {
	if err := scales.Validate(); err != nil {
		return nil, err
	}
	return &Engine{scales: scales}, nil
}

// Scales returns the engine's scales
func (e *Engine) Scales() Scales {
	return e.scales
}

// Assign buckets one record
func (e *Engine) Assign(r customer.Record) Assignment {
	return Assignment{
		BalanceTier: e.scales.Balance.Label(r.Balance),
		TenureTier:  e.scales.Tenure.Label(float64(r.Tenure)),
		CreditTier:  e.scales.Credit.Label(float64(r.CreditScore)),
		AgeBand:     e.scales.Age.Label(float64(r.Age)),
	}
}

// Segment returns a new slice with every record's assignment
func (e *Engine) Segment(records []customer.Record) []Segmented {
	out := make([]Segmented, len(records))
	for i, r := range records {
		out[i] = Segmented{Record: r, Segment: e.Assign(r)}
	}
	return out
}
