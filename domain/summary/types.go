package summary

// SegmentSummary aggregates one group of a dimension. Count is always > 0 and
// ChurnRate is a fraction in [0,1].
type SegmentSummary struct {
	Dimension      string  `json:"dimension"`
	Group          string  `json:"group"`
	Count          int     `json:"count"`
	Churned        int     `json:"churned"`
	ChurnRate      float64 `json:"churn_rate"`
	AvgBalance     float64 `json:"avg_balance"`
	AvgCreditScore float64 `json:"avg_credit_score"`
	ActiveRate     float64 `json:"active_rate"`
	// TotalBalance and BalanceAtRisk (churned customers only) are exact
	// decimals with two places
	TotalBalance  string `json:"total_balance"`
	BalanceAtRisk string `json:"balance_at_risk"`
}

// DimensionTable is every group of one dimension, sorted by churn rate
// descending then group ascending.
type DimensionTable struct {
	Dimension string           `json:"dimension"`
	Rows      []SegmentSummary `json:"rows"`
}

// Total is the sum of group counts
func (t DimensionTable) Total() int {
	n := 0
	for _, r := range t.Rows {
		n += r.Count
	}
	return n
}

// KPI is the single global summary row
type KPI struct {
	TotalCustomers     int     `json:"total_customers"`
	ChurnedCustomers   int     `json:"churned_customers"`
	ChurnRate          float64 `json:"churn_rate"`
	RetentionRate      float64 `json:"retention_rate"`
	AvgBalance         float64 `json:"avg_balance"`
	AvgCreditScore     float64 `json:"avg_credit_score"`
	AvgTenure          float64 `json:"avg_tenure"`
	ActiveMemberRate   float64 `json:"active_member_rate"`
	ComplaintRate      float64 `json:"complaint_rate"`
	BalanceAtRisk      string  `json:"balance_at_risk"` // exact decimal, two places
	BalanceAtRiskShare float64 `json:"balance_at_risk_share"`
}

// ComparisonRow contrasts churned and retained customers on one metric
type ComparisonRow struct {
	Metric   string  `json:"metric"`
	Churned  float64 `json:"churned"`
	Retained float64 `json:"retained"`
}

// ColumnProfile describes one numeric column
type ColumnProfile struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"p25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"p75"`
	Max    float64 `json:"max"`
	// Skewness is the adjusted Fisher-Pearson coefficient
	Skewness float64 `json:"skewness"`
}

// Correlation of one feature with the churn label
type Correlation struct {
	Feature     string  `json:"feature"`
	Coefficient float64 `json:"coefficient"`
}

// Significance is a chi-square test of independence between a dimension and churn
type Significance struct {
	Dimension string  `json:"dimension"`
	ChiSquare float64 `json:"chi_square"`
	DoF       int     `json:"dof"`
	PValue    float64 `json:"p_value"`
	CramersV  float64 `json:"cramers_v"`
	Groups    int     `json:"groups"`
}

// Insight is the highest-churn group of a dimension
type Insight struct {
	Rank      int     `json:"rank"`
	Dimension string  `json:"dimension"`
	Group     string  `json:"group"`
	Count     int     `json:"count"`
	ChurnRate float64 `json:"churn_rate"`
	Lift      float64 `json:"lift"` // group churn rate / global churn rate
}

// Report bundles every aggregate the pipeline emits
type Report struct {
	Dimensions   []DimensionTable `json:"dimensions"`
	KPI          KPI              `json:"kpi"`
	Comparison   []ComparisonRow  `json:"comparison"`
	Profiles     []ColumnProfile  `json:"profiles"`
	Correlations []Correlation    `json:"correlations"`
	Significance []Significance   `json:"significance"`
	Insights     []Insight        `json:"insights"`
}

// Dimension returns the table for name
func (r *Report) Dimension(name string) (DimensionTable, bool) {
	for _, d := range r.Dimensions {
		if d.Dimension == name {
			return d, true
		}
	}
	return DimensionTable{}, false
}
