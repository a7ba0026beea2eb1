package pipeline

import (
	"strconv"

	"churnlens/domain/customer"
	"churnlens/domain/risk"
	"churnlens/domain/summary"
)

// Output table names; the CSV sink appends .csv, the workbook uses them as
// sheet names.
const (
	TableCustomersScored = "customers_scored"
	TableKPI             = "kpi_summary"
	TableComparison      = "churn_comparison"
	TableProfile         = "numeric_profile"
	TableCorrelation     = "feature_correlation"
	TableSignificance    = "dimension_significance"
	TableTopSegments     = "top_segments"
	TableScoringErrors   = "scoring_errors"
	TableRejectedRows    = "rejected_rows"
	dimensionPrefix      = "churn_by_"
)

// DimensionTableName is the output name of one dimension's summary
func DimensionTableName(dimension string) string {
	return dimensionPrefix + dimension
}

// Table is one output table in string form
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

func ratio(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func num(v float64) string   { return strconv.FormatFloat(v, 'f', 4, 64) }
func itoa(v int) string      { return strconv.Itoa(v) }

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func scoredTable(scored []risk.Scored, t *customer.Table) Table {
	headers := []string{
		"customer_id", "surname", "credit_score", "geography", "gender", "age", "tenure",
		"balance", "num_of_products", "has_credit_card", "is_active_member", "estimated_salary",
		"complaint", "satisfaction_score",
	}
	if t.HasCardType {
		headers = append(headers, "card_type")
	}
	if t.HasPoints {
		headers = append(headers, "points_earned")
	}
	headers = append(headers, "churned", "balance_tier", "tenure_tier", "credit_tier", "age_band", "risk_score", "risk_tier")
	for _, sig := range risk.Signals {
		headers = append(headers, "contrib_"+sig)
	}

	rows := make([][]string, 0, len(scored))
	for _, s := range scored {
		row := []string{
			s.ID, s.Surname, itoa(s.CreditScore), string(s.Geography), string(s.Gender), itoa(s.Age), itoa(s.Tenure),
			money(s.Balance), itoa(s.NumOfProducts), flag(s.HasCreditCard), flag(s.IsActiveMember), money(s.EstimatedSalary),
			flag(*s.HasComplaint), optInt(s.SatisfactionScore),
		}
		if t.HasCardType {
			row = append(row, string(s.CardType))
		}
		if t.HasPoints {
			row = append(row, optInt(s.PointsEarned))
		}
		row = append(row, flag(s.Churned), s.Segment.BalanceTier, s.Segment.TenureTier, s.Segment.CreditTier,
			s.Segment.AgeBand, num(s.Risk.Value), s.Risk.Tier)
		for _, sig := range risk.Signals {
			row = append(row, num(s.Risk.Contributions[sig]))
		}
		rows = append(rows, row)
	}
	return Table{Name: TableCustomersScored, Headers: headers, Rows: rows}
}

func dimensionTable(d summary.DimensionTable) Table {
	rows := make([][]string, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = []string{
			r.Dimension, r.Group, itoa(r.Count), itoa(r.Churned), ratio(r.ChurnRate),
			money(r.AvgBalance), num(r.AvgCreditScore), ratio(r.ActiveRate), r.TotalBalance, r.BalanceAtRisk,
		}
	}
	return Table{
		Name: DimensionTableName(d.Dimension),
		Headers: []string{
			"dimension", "group", "count", "churned", "churn_rate", "avg_balance", "avg_credit_score",
			"active_rate", "total_balance", "balance_at_risk",
		},
		Rows: rows,
	}
}

func kpiTable(k summary.KPI) Table {
	return Table{
		Name: TableKPI,
		Headers: []string{
			"total_customers", "churned_customers", "churn_rate", "retention_rate", "avg_balance",
			"avg_credit_score", "avg_tenure", "active_member_rate", "complaint_rate", "balance_at_risk",
			"balance_at_risk_share",
		},
		Rows: [][]string{{
			itoa(k.TotalCustomers), itoa(k.ChurnedCustomers), ratio(k.ChurnRate), ratio(k.RetentionRate), money(k.AvgBalance),
			num(k.AvgCreditScore), num(k.AvgTenure), ratio(k.ActiveMemberRate), ratio(k.ComplaintRate), k.BalanceAtRisk,
			ratio(k.BalanceAtRiskShare),
		}},
	}
}

func comparisonTable(rows []summary.ComparisonRow) Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.Metric, num(r.Churned), num(r.Retained)}
	}
	return Table{Name: TableComparison, Headers: []string{"metric", "churned", "retained"}, Rows: out}
}

func profileTable(profiles []summary.ColumnProfile) Table {
	out := make([][]string, len(profiles))
	for i, p := range profiles {
		out[i] = []string{
			p.Column, itoa(p.Count), num(p.Mean), num(p.StdDev), num(p.Min), num(p.Q25),
			num(p.Median), num(p.Q75), num(p.Max), num(p.Skewness),
		}
	}
	return Table{
		Name:    TableProfile,
		Headers: []string{"column", "count", "mean", "std", "min", "p25", "median", "p75", "max", "skewness"},
		Rows:    out,
	}
}

func correlationTable(corr []summary.Correlation) Table {
	out := make([][]string, len(corr))
	for i, c := range corr {
		out[i] = []string{c.Feature, num(c.Coefficient)}
	}
	return Table{Name: TableCorrelation, Headers: []string{"feature", "correlation_with_churn"}, Rows: out}
}

func significanceTable(sig []summary.Significance) Table {
	out := make([][]string, len(sig))
	for i, s := range sig {
		out[i] = []string{
			s.Dimension, itoa(s.Groups), num(s.ChiSquare), itoa(s.DoF),
			strconv.FormatFloat(s.PValue, 'g', 6, 64), num(s.CramersV),
		}
	}
	return Table{
		Name:    TableSignificance,
		Headers: []string{"dimension", "groups", "chi_square", "dof", "p_value", "cramers_v"},
		Rows:    out,
	}
}

func insightTable(ins []summary.Insight) Table {
	out := make([][]string, len(ins))
	for i, s := range ins {
		out[i] = []string{itoa(s.Rank), s.Dimension, s.Group, itoa(s.Count), ratio(s.ChurnRate), num(s.Lift)}
	}
	return Table{
		Name:    TableTopSegments,
		Headers: []string{"rank", "dimension", "group", "count", "churn_rate", "lift"},
		Rows:    out,
	}
}

func scoringErrorTable(errs []*customer.ComputationError) Table {
	out := make([][]string, len(errs))
	for i, e := range errs {
		out[i] = []string{e.CustomerID, e.Signal, e.Error()}
	}
	return Table{Name: TableScoringErrors, Headers: []string{"customer_id", "signal", "error"}, Rows: out}
}

func rejectedTable(violations []customer.Violation) Table {
	out := make([][]string, len(violations))
	for i, v := range violations {
		reason := ""
		if v.Reason != nil {
			reason = v.Reason.Error()
		}
		out[i] = []string{itoa(v.Row), v.CustomerID, v.Column, v.Value, reason}
	}
	return Table{Name: TableRejectedRows, Headers: []string{"row", "customer_id", "column", "value", "reason"}, Rows: out}
}

// reportTables lists every output table of a successful run in write order
func reportTables(report *summary.Report, scored []risk.Scored, t *customer.Table, errs []*customer.ComputationError) []Table {
	tables := []Table{kpiTable(report.KPI)}
	for _, d := range report.Dimensions {
		tables = append(tables, dimensionTable(d))
	}
	return append(tables,
		comparisonTable(report.Comparison),
		profileTable(report.Profiles),
		correlationTable(report.Correlations),
		significanceTable(report.Significance),
		insightTable(report.Insights),
		scoringErrorTable(errs),
		scoredTable(scored, t),
	)
}
