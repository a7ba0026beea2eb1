package ingest

import (
	"fmt"

	"churnlens/domain/core"
)

// IntRange is an inclusive integer range
type IntRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Contains reports whether v is within the range
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

func (r IntRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}

// Bounds are the value domains enforced at load
type Bounds struct {
	CreditScore   IntRange `yaml:"credit_score"`
	Age           IntRange `yaml:"age"`
	Tenure        IntRange `yaml:"tenure"`
	NumOfProducts IntRange `yaml:"num_of_products"`
	Satisfaction  IntRange `yaml:"satisfaction"`
	Geographies   []string `yaml:"geographies"`
	Genders       []string `yaml:"genders"`
	CardTypes     []string `yaml:"card_types"`
}

// DefaultBounds match the published bank churn dataset
func DefaultBounds() Bounds {
	return Bounds{
		CreditScore:   IntRange{Min: 300, Max: 900},
		Age:           IntRange{Min: 18, Max: 100},
		Tenure:        IntRange{Min: 0, Max: 10},
		NumOfProducts: IntRange{Min: 1, Max: 4},
		Satisfaction:  IntRange{Min: 1, Max: 5},
		Geographies:   []string{"France", "Germany", "Spain"},
		Genders:       []string{"Male", "Female"},
		CardTypes:     []string{"SILVER", "GOLD", "PLATINUM", "DIAMOND"},
	}
}

// Validate rejects inverted ranges and empty category sets
func (b Bounds) Validate() error {
	ranges := []struct {
		name string
		r    IntRange
	}{
		{"credit_score", b.CreditScore},
		{"age", b.Age},
		{"tenure", b.Tenure},
		{"num_of_products", b.NumOfProducts},
		{"satisfaction", b.Satisfaction},
	}
	for _, rr := range ranges {
		if rr.r.Min > rr.r.Max {
			return core.NewValidationError("bounds."+rr.name, fmt.Sprintf("min %d above max %d", rr.r.Min, rr.r.Max))
		}
	}
	if len(b.Geographies) == 0 {
		return core.NewValidationError("bounds.geographies", "at least one geography is required")
	}
	if len(b.Genders) == 0 {
		return core.NewValidationError("bounds.genders", "at least one gender is required")
	}
	return nil
}
