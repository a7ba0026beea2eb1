package aggregate

import (
	"churnlens/domain/risk"
	"churnlens/domain/summary"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
)

// ComputeKPI builds the global summary row. Balances are summed as decimals so
// BalanceAtRisk is exact to the cent.
func ComputeKPI(scored []risk.Scored) summary.KPI {
	k := summary.KPI{TotalCustomers: len(scored), BalanceAtRisk: decimal.Zero.StringFixed(2)}
	if len(scored) == 0 {
		return k
	}

	total := decimal.Zero
	atRisk := decimal.Zero
	var active, complaints int
	var credit, tenure float64
	for _, s := range scored {
		b := decimal.NewFromFloat(s.Balance)
		total = total.Add(b)
		if s.Churned {
			k.ChurnedCustomers++
			atRisk = atRisk.Add(b)
		}
		if s.IsActiveMember {
			active++
		}
		if *s.HasComplaint {
			complaints++
		}
		credit += float64(s.CreditScore)
		tenure += float64(s.Tenure)
	}

	n := float64(len(scored))
	k.ChurnRate = float64(k.ChurnedCustomers) / n
	k.RetentionRate = 1 - k.ChurnRate
	k.AvgBalance = total.Div(decimal.NewFromInt(int64(len(scored)))).InexactFloat64()
	k.AvgCreditScore = credit / n
	k.AvgTenure = tenure / n
	k.ActiveMemberRate = float64(active) / n
	k.ComplaintRate = float64(complaints) / n
	k.BalanceAtRisk = atRisk.StringFixed(2)
	if !total.IsZero() {
		k.BalanceAtRiskShare = atRisk.Div(total).InexactFloat64()
	}
	return k
}

type comparisonMetric struct {
	name  string
	value func(risk.Scored) float64
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var comparisonMetrics = []comparisonMetric{
	{"credit_score", func(s risk.Scored) float64 { return float64(s.CreditScore) }},
	{"age", func(s risk.Scored) float64 { return float64(s.Age) }},
	{"tenure", func(s risk.Scored) float64 { return float64(s.Tenure) }},
	{"balance", func(s risk.Scored) float64 { return s.Balance }},
	{"num_of_products", func(s risk.Scored) float64 { return float64(s.NumOfProducts) }},
	{"estimated_salary", func(s risk.Scored) float64 { return s.EstimatedSalary }},
	{"satisfaction_score", func(s risk.Scored) float64 { return float64(*s.SatisfactionScore) }},
	{"has_credit_card_rate", func(s risk.Scored) float64 { return indicator(s.HasCreditCard) }},
	{"active_member_rate", func(s risk.Scored) float64 { return indicator(s.IsActiveMember) }},
	{"complaint_rate", func(s risk.Scored) float64 { return indicator(*s.HasComplaint) }},
	{"risk_score", func(s risk.Scored) float64 { return s.Risk.Value }},
}

// Compare contrasts mean values of churned and retained customers, plus their
// exact total balances. A side with no customers reports 0. Points earned is
// included when the input carries the column.
func Compare(scored []risk.Scored, hasPoints bool) []summary.ComparisonRow {
	var churned, retained []risk.Scored
	churnedBal, retainedBal := decimal.Zero, decimal.Zero
	for _, s := range scored {
		if s.Churned {
			churned = append(churned, s)
			churnedBal = churnedBal.Add(decimal.NewFromFloat(s.Balance))
		} else {
			retained = append(retained, s)
			retainedBal = retainedBal.Add(decimal.NewFromFloat(s.Balance))
		}
	}

	rows := []summary.ComparisonRow{{Metric: "customers", Churned: float64(len(churned)), Retained: float64(len(retained))}}
	for _, m := range comparisonMetrics {
		rows = append(rows, summary.ComparisonRow{
			Metric:   m.name,
			Churned:  meanOf(churned, m.value),
			Retained: meanOf(retained, m.value),
		})
	}
	if hasPoints {
		rows = append(rows, summary.ComparisonRow{
			Metric:   "points_earned",
			Churned:  meanPoints(churned),
			Retained: meanPoints(retained),
		})
	}
	return append(rows, summary.ComparisonRow{
		Metric:   "total_balance",
		Churned:  churnedBal.Round(2).InexactFloat64(),
		Retained: retainedBal.Round(2).InexactFloat64(),
	})
}

func meanOf(records []risk.Scored, f func(risk.Scored) float64) float64 {
	if len(records) == 0 {
		return 0
	}
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = f(r)
	}
	m, err := stats.Mean(vals)
	if err != nil {
		return 0
	}
	return m
}

// meanPoints averages points over the records that have a value
func meanPoints(records []risk.Scored) float64 {
	vals := make([]float64, 0, len(records))
	for _, r := range records {
		if r.PointsEarned != nil {
			vals = append(vals, float64(*r.PointsEarned))
		}
	}
	m, err := stats.Mean(vals)
	if err != nil {
		return 0
	}
	return m
}
