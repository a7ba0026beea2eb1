package aggregate

import (
	"math"

	"churnlens/domain/summary"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareIndependence runs a chi-square test of independence on the
// group x {churned, retained} contingency table of one dimension. Tables with
// fewer than two groups, or where every customer shares one outcome, have no
// testable association and report a p-value of 1.
func ChiSquareIndependence(t summary.DimensionTable) summary.Significance {
	sig := summary.Significance{Dimension: t.Dimension, Groups: len(t.Rows), PValue: 1}

	total, churned := 0, 0
	for _, r := range t.Rows {
		total += r.Count
		churned += r.Churned
	}
	retained := total - churned
	if len(t.Rows) < 2 || churned == 0 || retained == 0 {
		return sig
	}

	obs := make([]float64, 0, 2*len(t.Rows))
	exp := make([]float64, 0, 2*len(t.Rows))
	n := float64(total)
	for _, r := range t.Rows {
		rowN := float64(r.Count)
		obs = append(obs, float64(r.Churned), float64(r.Count-r.Churned))
		exp = append(exp, rowN*float64(churned)/n, rowN*float64(retained)/n)
	}

	chi := stat.ChiSquare(obs, exp)
	dof := len(t.Rows) - 1 // (groups-1) * (2-1)

	sig.ChiSquare = chi
	sig.DoF = dof
	sig.PValue = distuv.ChiSquared{K: float64(dof)}.Survival(chi)
	// min(r-1, c-1) is 1 for a two-column table
	sig.CramersV = math.Sqrt(chi / n)
	return sig
}
