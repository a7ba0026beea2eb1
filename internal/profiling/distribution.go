package profiling

import (
	"fmt"
	"math"

	"churnlens/domain/summary"

	"github.com/montanaflynn/stats"
)

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// AnalyzeDistribution computes the describe()-style summary of one column
func (da *DistributionAnalyzer) AnalyzeDistribution(name string, data []float64) (summary.ColumnProfile, error) {
	profile := summary.ColumnProfile{Column: name, Count: len(data)}
	if len(data) == 0 {
		return profile, fmt.Errorf("column %s: %w", name, stats.ErrEmptyInput)
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return profile, err
	}

	stdDev := 0.0
	if len(data) > 1 {
		// sample standard deviation, as in describe()
		stdDev, err = stats.StandardDeviationSample(data)
		if err != nil {
			return profile, err
		}
	}

	min, err := stats.Min(data)
	if err != nil {
		return profile, err
	}

	max, err := stats.Max(data)
	if err != nil {
		return profile, err
	}

	median, err := stats.Median(data)
	if err != nil {
		return profile, err
	}

	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return profile, err
	}

	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return profile, err
	}

	profile.Mean = mean
	profile.StdDev = stdDev
	profile.Min = min
	profile.Max = max
	profile.Median = median
	profile.Q25 = q25
	profile.Q75 = q75
	profile.Skewness = calculateSkewness(data, mean, stdDev)

	return profile, nil
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0

	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	skewness := sumCubedDeviations / n

	// Bias correction for sample skewness
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}
