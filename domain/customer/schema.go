package customer

import "strings"

// Kind is the semantic type a column must hold
type Kind string

const (
	KindText        Kind = "text"
	KindInteger     Kind = "integer"
	KindNumeric     Kind = "numeric"
	KindBoolean     Kind = "boolean"
	KindCategorical Kind = "categorical"
)

// Column keys used throughout the pipeline
const (
	ColCustomerID      = "customer_id"
	ColSurname         = "surname"
	ColCreditScore     = "credit_score"
	ColGeography       = "geography"
	ColGender          = "gender"
	ColAge             = "age"
	ColTenure          = "tenure"
	ColBalance         = "balance"
	ColNumOfProducts   = "num_of_products"
	ColHasCreditCard   = "has_credit_card"
	ColIsActiveMember  = "is_active_member"
	ColEstimatedSalary = "estimated_salary"
	ColComplaint       = "complaint"
	ColSatisfaction    = "satisfaction_score"
	ColCardType        = "card_type"
	ColPointsEarned    = "points_earned"
	ColChurned         = "churned"
)

// Column describes one input column. Headers lists accepted spellings; the
// first one is canonical.
type Column struct {
	Key      string
	Headers  []string
	Kind     Kind
	Required bool
	// Nullable columns accept blank cells; the blank is carried forward as nil.
	Nullable bool
}

// Schema is the explicit column contract for the raw customer table
var Schema = []Column{
	{Key: ColCustomerID, Headers: []string{"CustomerId", "customer_id", "ID"}, Kind: KindText, Required: true},
	{Key: ColSurname, Headers: []string{"Surname"}, Kind: KindText},
	{Key: ColCreditScore, Headers: []string{"CreditScore", "credit_score"}, Kind: KindInteger, Required: true},
	{Key: ColGeography, Headers: []string{"Geography", "Country"}, Kind: KindCategorical, Required: true},
	{Key: ColGender, Headers: []string{"Gender"}, Kind: KindCategorical, Required: true},
	{Key: ColAge, Headers: []string{"Age"}, Kind: KindInteger, Required: true},
	{Key: ColTenure, Headers: []string{"Tenure"}, Kind: KindInteger, Required: true},
	{Key: ColBalance, Headers: []string{"Balance"}, Kind: KindNumeric, Required: true},
	{Key: ColNumOfProducts, Headers: []string{"NumOfProducts", "num_of_products"}, Kind: KindInteger, Required: true},
	{Key: ColHasCreditCard, Headers: []string{"HasCrCard", "HasCreditCard"}, Kind: KindBoolean, Required: true},
	{Key: ColIsActiveMember, Headers: []string{"IsActiveMember"}, Kind: KindBoolean, Required: true},
	{Key: ColEstimatedSalary, Headers: []string{"EstimatedSalary"}, Kind: KindNumeric, Required: true},
	{Key: ColComplaint, Headers: []string{"Complain", "HasComplaint", "Complaint"}, Kind: KindBoolean, Required: true, Nullable: true},
	{Key: ColSatisfaction, Headers: []string{"Satisfaction Score", "SatisfactionScore"}, Kind: KindInteger, Required: true, Nullable: true},
	{Key: ColCardType, Headers: []string{"Card Type", "CardType"}, Kind: KindCategorical},
	{Key: ColPointsEarned, Headers: []string{"Point Earned", "PointsEarned", "Points Earned"}, Kind: KindInteger, Nullable: true},
	{Key: ColChurned, Headers: []string{"Exited", "Churned", "Churn"}, Kind: KindBoolean, Required: true},
}

// NormalizeHeader folds case and drops spaces, underscores and dashes so
// "Satisfaction Score", "satisfaction_score" and "SatisfactionScore" compare equal.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, h)
}

// ResolveColumns maps each schema column key to its index in headers. Columns
// not found are absent from the result.
func ResolveColumns(headers []string) map[string]int {
	byNorm := make(map[string]int, len(headers))
	for i, h := range headers {
		n := NormalizeHeader(h)
		if _, dup := byNorm[n]; !dup {
			byNorm[n] = i
		}
	}

	resolved := make(map[string]int, len(Schema))
	for _, col := range Schema {
		for _, h := range col.Headers {
			if idx, ok := byNorm[NormalizeHeader(h)]; ok {
				resolved[col.Key] = idx
				break
			}
		}
	}
	return resolved
}

// CanonicalHeader returns the first accepted header of a schema column
func CanonicalHeader(key string) string {
	for _, col := range Schema {
		if col.Key == key {
			return col.Headers[0]
		}
	}
	return key
}
