package customer

import "strings"

// Geography is the customer's country of residence
type Geography string

const (
	GeographyFrance  Geography = "France"
	GeographyGermany Geography = "Germany"
	GeographySpain   Geography = "Spain"
)

// Gender as recorded by the bank
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// CardType is the optional card tier column of the extended dataset
type CardType string

const (
	CardSilver   CardType = "SILVER"
	CardGold     CardType = "GOLD"
	CardPlatinum CardType = "PLATINUM"
	CardDiamond  CardType = "DIAMOND"
)

// Record is one validated customer row. Signal fields that may be blank in
// the source are pointers; nil means the cell was empty.
type Record struct {
	RowNumber         int // 1-based data row in the source table
	ID                string
	Surname           string
	CreditScore       int
	Geography         Geography
	Gender            Gender
	Age               int
	Tenure            int
	Balance           float64
	NumOfProducts     int
	HasCreditCard     bool
	IsActiveMember    bool
	EstimatedSalary   float64
	HasComplaint      *bool
	SatisfactionScore *int
	CardType          CardType // empty when the column is absent
	PointsEarned      *int
	Churned           bool
}

// Table is the validated, immutable customer table handed to the segmentation stage
type Table struct {
	Records     []Record
	HasCardType bool
	HasPoints   bool
}

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.Records)
}

// ParseGeography matches a raw value against the known countries, case-insensitively
func ParseGeography(raw string, allowed []string) (Geography, bool) {
	if v, ok := matchFold(raw, allowed); ok {
		return Geography(v), true
	}
	return "", false
}

// ParseGender matches a raw value against the known genders
func ParseGender(raw string, allowed []string) (Gender, bool) {
	if v, ok := matchFold(raw, allowed); ok {
		return Gender(v), true
	}
	return "", false
}

// ParseCardType matches a raw value against the known card tiers
func ParseCardType(raw string, allowed []string) (CardType, bool) {
	if v, ok := matchFold(raw, allowed); ok {
		return CardType(v), true
	}
	return "", false
}

func matchFold(raw string, allowed []string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, a := range allowed {
		if strings.EqualFold(raw, a) {
			return a, true
		}
	}
	return "", false
}
