package customer

import (
	"errors"
	"testing"

	"churnlens/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestResolveColumnsAcceptsAliases(t *testing.T) {
	headers := []string{"RowNumber", "CustomerId", "Surname", "CreditScore", "Geography", "Gender", "Age",
		"Tenure", "Balance", "NumOfProducts", "HasCrCard", "IsActiveMember", "EstimatedSalary",
		"Exited", "Complain", "Satisfaction Score", "Card Type", "Point Earned"}

	resolved := ResolveColumns(headers)

	assert.Equal(t, 1, resolved[ColCustomerID])
	assert.Equal(t, 13, resolved[ColChurned])
	assert.Equal(t, 14, resolved[ColComplaint])
	assert.Equal(t, 15, resolved[ColSatisfaction])
	assert.Equal(t, 16, resolved[ColCardType])
	assert.Equal(t, 17, resolved[ColPointsEarned])
	assert.Len(t, resolved, len(Schema))
}

func TestResolveColumnsRenamedHeaders(t *testing.T) {
	resolved := ResolveColumns([]string{"customer_id", "Churned", "HasComplaint", "SatisfactionScore", " card type "})

	assert.Equal(t, 0, resolved[ColCustomerID])
	assert.Equal(t, 1, resolved[ColChurned])
	assert.Equal(t, 2, resolved[ColComplaint])
	assert.Equal(t, 3, resolved[ColSatisfaction])
	assert.Equal(t, 4, resolved[ColCardType])
	_, ok := resolved[ColBalance]
	assert.False(t, ok)
}

func TestSchemaErrorReportsEverything(t *testing.T) {
	err := &SchemaError{Violations: []ColumnViolation{
		{Column: "Tenure", Missing: true},
		{Column: "Balance", Missing: true},
		{Column: "Age", Kind: KindInteger, BadRows: []int{3, 9}, Sample: "forty"},
	}}

	assert.Equal(t, []string{"Balance", "Tenure"}, err.MissingColumns())
	assert.Contains(t, err.Error(), "3 columns")
	assert.Contains(t, err.Error(), `"forty"`)
	assert.True(t, errors.Is(err, core.ErrMissingColumn))
	assert.True(t, errors.Is(err, core.ErrTypeMismatch))
}

func TestDomainErrorPreview(t *testing.T) {
	var vs []Violation
	for i := 1; i <= 7; i++ {
		vs = append(vs, Violation{Row: i, CustomerID: "c", Column: "Balance", Value: "-1", Reason: core.ErrOutOfDomain})
	}
	err := &DomainError{Violations: vs}

	assert.Contains(t, err.Error(), "7 violations")
	assert.Contains(t, err.Error(), "and 2 more")
	assert.Len(t, err.RejectedRows(), 7)
	assert.True(t, errors.Is(err, core.ErrOutOfDomain))
}

func TestParseCategoricals(t *testing.T) {
	geo, ok := ParseGeography(" germany ", []string{"France", "Germany", "Spain"})
	assert.True(t, ok)
	assert.Equal(t, GeographyGermany, geo)

	_, ok = ParseGender("Other", []string{"Male", "Female"})
	assert.False(t, ok)

	card, ok := ParseCardType("gold", []string{"SILVER", "GOLD"})
	assert.True(t, ok)
	assert.Equal(t, CardGold, card)
}
