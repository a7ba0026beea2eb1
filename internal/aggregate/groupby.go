package aggregate

import (
	"sort"

	"churnlens/domain/risk"
	"churnlens/domain/summary"

	"github.com/shopspring/decimal"
)

type groupAcc struct {
	count   int
	churned int
	active  int
	balance decimal.Decimal
	atRisk  decimal.Decimal
	credit  float64
}

// Summarize groups records by the dimension key. Groups only exist once a
// record lands in them, so no row has a zero count.
func Summarize(dim Dimension, scored []risk.Scored) summary.DimensionTable {
	groups := make(map[string]*groupAcc)
	for _, s := range scored {
		k := dim.Key(s)
		g, ok := groups[k]
		if !ok {
			g = &groupAcc{}
			groups[k] = g
		}
		b := decimal.NewFromFloat(s.Balance)
		g.count++
		g.balance = g.balance.Add(b)
		if s.Churned {
			g.churned++
			g.atRisk = g.atRisk.Add(b)
		}
		if s.IsActiveMember {
			g.active++
		}
		g.credit += float64(s.CreditScore)
	}

	rows := make([]summary.SegmentSummary, 0, len(groups))
	for k, g := range groups {
		n := float64(g.count)
		rows = append(rows, summary.SegmentSummary{
			Dimension:      dim.Name,
			Group:          k,
			Count:          g.count,
			Churned:        g.churned,
			ChurnRate:      float64(g.churned) / n,
			AvgBalance:     g.balance.Div(decimal.NewFromInt(int64(g.count))).InexactFloat64(),
			AvgCreditScore: g.credit / n,
			ActiveRate:     float64(g.active) / n,
			TotalBalance:   g.balance.StringFixed(2),
			BalanceAtRisk:  g.atRisk.StringFixed(2),
		})
	}
	SortRows(rows)
	return summary.DimensionTable{Dimension: dim.Name, Rows: rows}
}

// SortRows orders by churn rate descending, then group ascending
func SortRows(rows []summary.SegmentSummary) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ChurnRate != rows[j].ChurnRate {
			return rows[i].ChurnRate > rows[j].ChurnRate
		}
		return rows[i].Group < rows[j].Group
	})
}
