package profiling

import (
	"math"
	"sort"

	"churnlens/domain/customer"
	"churnlens/domain/risk"
	"churnlens/domain/summary"

	"gonum.org/v1/gonum/stat"
)

// Column is a named numeric vector extracted from the scored table
type Column struct {
	Name   string
	Values []float64
}

// NumericColumns extracts the numeric columns of the scored table in a fixed
// order. Optional columns appear only when every record carries a value.
func NumericColumns(scored []risk.Scored, table *customer.Table) []Column {
	n := len(scored)
	get := func(name string, f func(risk.Scored) float64) Column {
		c := Column{Name: name, Values: make([]float64, n)}
		for i, s := range scored {
			c.Values[i] = f(s)
		}
		return c
	}

	cols := []Column{
		get("credit_score", func(s risk.Scored) float64 { return float64(s.CreditScore) }),
		get("age", func(s risk.Scored) float64 { return float64(s.Age) }),
		get("tenure", func(s risk.Scored) float64 { return float64(s.Tenure) }),
		get("balance", func(s risk.Scored) float64 { return s.Balance }),
		get("num_of_products", func(s risk.Scored) float64 { return float64(s.NumOfProducts) }),
		get("estimated_salary", func(s risk.Scored) float64 { return s.EstimatedSalary }),
		// scored records always carry a satisfaction value
		get("satisfaction_score", func(s risk.Scored) float64 { return float64(*s.SatisfactionScore) }),
	}
	if table != nil && table.HasPoints && allHavePoints(scored) {
		cols = append(cols, get("points_earned", func(s risk.Scored) float64 { return float64(*s.PointsEarned) }))
	}
	cols = append(cols, get("risk_score", func(s risk.Scored) float64 { return s.Risk.Value }))
	return cols
}

func allHavePoints(scored []risk.Scored) bool {
	for _, s := range scored {
		if s.PointsEarned == nil {
			return false
		}
	}
	return true
}

// BooleanColumns extracts 0/1 indicator columns, excluding the churn label
func BooleanColumns(scored []risk.Scored) []Column {
	ind := func(name string, f func(risk.Scored) bool) Column {
		c := Column{Name: name, Values: make([]float64, len(scored))}
		for i, s := range scored {
			if f(s) {
				c.Values[i] = 1
			}
		}
		return c
	}
	return []Column{
		ind("has_credit_card", func(s risk.Scored) bool { return s.HasCreditCard }),
		ind("is_active_member", func(s risk.Scored) bool { return s.IsActiveMember }),
		ind("complaint", func(s risk.Scored) bool { return *s.HasComplaint }),
	}
}

// ChurnLabels returns the churn label as 0/1
func ChurnLabels(scored []risk.Scored) []float64 {
	y := make([]float64, len(scored))
	for i, s := range scored {
		if s.Churned {
			y[i] = 1
		}
	}
	return y
}

// DataProfiler computes per-column summaries and label correlations
type DataProfiler struct {
	analyzer *DistributionAnalyzer
}

// NewDataProfiler creates a new data profiler
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{analyzer: NewDistributionAnalyzer()}
}

// ProfileColumns summarises each column, in input order
func (dp *DataProfiler) ProfileColumns(cols []Column) ([]summary.ColumnProfile, error) {
	out := make([]summary.ColumnProfile, 0, len(cols))
	for _, c := range cols {
		p, err := dp.analyzer.AnalyzeDistribution(c.Name, c.Values)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CorrelateWithLabel computes the Pearson correlation of each feature with the
// label (point-biserial for 0/1 features). Constant features have no defined
// correlation and are skipped. Results are ordered by absolute strength, then
// name.
func (dp *DataProfiler) CorrelateWithLabel(features []Column, label []float64) []summary.Correlation {
	out := make([]summary.Correlation, 0, len(features))
	if len(label) < 2 || isConstant(label) {
		return out
	}
	for _, f := range features {
		if len(f.Values) != len(label) || isConstant(f.Values) {
			continue
		}
		r := stat.Correlation(f.Values, label, nil)
		if math.IsNaN(r) {
			continue
		}
		out = append(out, summary.Correlation{Feature: f.Name, Coefficient: r})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].Coefficient), math.Abs(out[j].Coefficient)
		if ai != aj {
			return ai > aj
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
