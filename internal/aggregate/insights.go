package aggregate

import (
	"sort"

	"churnlens/domain/summary"
)

// TopSegments picks the highest-churn group of every dimension that has at
// least minSupport customers and ranks them. Lift is the group churn rate over
// the global churn rate.
func TopSegments(tables []summary.DimensionTable, globalRate float64, minSupport int) []summary.Insight {
	var out []summary.Insight
	for _, t := range tables {
		// rows are already sorted by churn rate, so the first eligible row wins
		for _, r := range t.Rows {
			if r.Count < minSupport {
				continue
			}
			ins := summary.Insight{Dimension: t.Dimension, Group: r.Group, Count: r.Count, ChurnRate: r.ChurnRate}
			if globalRate > 0 {
				ins.Lift = r.ChurnRate / globalRate
			}
			out = append(out, ins)
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ChurnRate != out[j].ChurnRate {
			return out[i].ChurnRate > out[j].ChurnRate
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Dimension < out[j].Dimension
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
