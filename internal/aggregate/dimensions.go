package aggregate

import (
	"strconv"

	"churnlens/domain/risk"
	"churnlens/domain/segment"
)

// Dimension names beyond the four segmentation scales
const (
	DimGeography    = "geography"
	DimGender       = "gender"
	DimProducts     = "num_products"
	DimActivity     = "activity"
	DimComplaint    = "complaint"
	DimSatisfaction = "satisfaction"
	DimCardType     = "card_type"
	DimRiskTier     = "risk_tier"
)

// Dimension is a grouping key over scored records
type Dimension struct {
	Name string
	Key  func(risk.Scored) string
}

// DefaultDimensions lists every dimension in output order. card_type is
// included only when the source carried the column.
func DefaultDimensions(hasCardType bool) []Dimension {
	dims := []Dimension{
		{Name: segment.DimBalance, Key: func(s risk.Scored) string { return s.Segment.BalanceTier }},
		{Name: segment.DimTenure, Key: func(s risk.Scored) string { return s.Segment.TenureTier }},
		{Name: segment.DimCredit, Key: func(s risk.Scored) string { return s.Segment.CreditTier }},
		{Name: segment.DimAge, Key: func(s risk.Scored) string { return s.Segment.AgeBand }},
		{Name: DimGeography, Key: func(s risk.Scored) string { return string(s.Geography) }},
		{Name: DimGender, Key: func(s risk.Scored) string { return string(s.Gender) }},
		{Name: DimProducts, Key: func(s risk.Scored) string { return strconv.Itoa(s.NumOfProducts) }},
		{Name: DimActivity, Key: func(s risk.Scored) string {
			if s.IsActiveMember {
				return "Active"
			}
			return "Inactive"
		}},
		{Name: DimComplaint, Key: func(s risk.Scored) string {
			if *s.HasComplaint {
				return "Complaint"
			}
			return "No Complaint"
		}},
		{Name: DimSatisfaction, Key: func(s risk.Scored) string { return strconv.Itoa(*s.SatisfactionScore) }},
	}
	if hasCardType {
		dims = append(dims, Dimension{Name: DimCardType, Key: func(s risk.Scored) string { return string(s.CardType) }})
	}
	return append(dims, Dimension{Name: DimRiskTier, Key: func(s risk.Scored) string { return s.Risk.Tier }})
}
