package segment

import (
	"fmt"
	"math"
	"sort"

	"churnlens/domain/core"
)

// Scale is an ordered table of bands. Band i covers (Cutoffs[i-1], Cutoffs[i]];
// the first band is unbounded below and the last band is unbounded above, so
// Labels always has one more entry than Cutoffs.
//
// Cutoffs are upper-inclusive: a value equal to a cutoff belongs to the band
// that cutoff closes. With balance cutoffs [0, 50000, 100000], 100000 is
// Medium and 100000.01 is High.
type Scale struct {
	Name    string    `yaml:"name" json:"name"`
	Cutoffs []float64 `yaml:"cutoffs" json:"cutoffs"`
	Labels  []string  `yaml:"labels" json:"labels"`
}

// NewScale validates and returns a scale
func NewScale(name string, cutoffs []float64, labels []string) (Scale, error) {
	s := Scale{Name: name, Cutoffs: append([]float64(nil), cutoffs...), Labels: append([]string(nil), labels...)}
	return s, s.Validate()
}

// MustScale is NewScale for package-level defaults
func MustScale(name string, cutoffs []float64, labels []string) Scale {
	s, err := NewScale(name, cutoffs, labels)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks the scale partitions the real line without gaps or overlaps
func (s Scale) Validate() error {
	if len(s.Labels) != len(s.Cutoffs)+1 {
		return fmt.Errorf("%w: %s has %d cutoffs but %d labels (want %d)",
			core.ErrInvalidScale, s.Name, len(s.Cutoffs), len(s.Labels), len(s.Cutoffs)+1)
	}
	for i, c := range s.Cutoffs {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: %s cutoff %d is not finite", core.ErrInvalidScale, s.Name, i)
		}
		if i > 0 && c <= s.Cutoffs[i-1] {
			return fmt.Errorf("%w: %s cutoffs must be strictly increasing (%v after %v)",
				core.ErrInvalidScale, s.Name, c, s.Cutoffs[i-1])
		}
	}
	seen := make(map[string]bool, len(s.Labels))
	for _, l := range s.Labels {
		if l == "" {
			return fmt.Errorf("%w: %s has an empty label", core.ErrInvalidScale, s.Name)
		}
		if seen[l] {
			return fmt.Errorf("%w: %s label %q repeated", core.ErrInvalidScale, s.Name, l)
		}
		seen[l] = true
	}
	return nil
}

// Index returns the band index for v
func (s Scale) Index(v float64) int {
	// first cutoff >= v closes the band v belongs to
	return sort.SearchFloat64s(s.Cutoffs, v)
}

// Label returns the band label for v
func (s Scale) Label(v float64) string {
	return s.Labels[s.Index(v)]
}

// Rank returns the position of label in the scale, or -1
func (s Scale) Rank(label string) int {
	for i, l := range s.Labels {
		if l == label {
			return i
		}
	}
	return -1
}
