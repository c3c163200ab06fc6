package core

import "strings"

// PropertyKind classifies the asset class of a property.
type PropertyKind string

const (
	PropertyLogistics   PropertyKind = "logistics"
	PropertyIndustrial  PropertyKind = "industrial"
	PropertyOffice      PropertyKind = "office"
	PropertyRetail      PropertyKind = "retail"
	PropertyResidential PropertyKind = "residential"
	PropertyMixedUse    PropertyKind = "mixed_use"
)

// LeaseKind classifies the lease structure of a property.
type LeaseKind string

const (
	LeaseTripleNet   LeaseKind = "triple_net"
	LeaseGross       LeaseKind = "gross"
	LeaseNet         LeaseKind = "net"
	LeaseAbsoluteNet LeaseKind = "absolute_net"
)

// IndexationKind classifies how rent is indexed over time.
type IndexationKind string

const (
	IndexationCPI    IndexationKind = "cpi"
	IndexationFixed  IndexationKind = "fixed"
	IndexationMarket IndexationKind = "market"
	IndexationNone   IndexationKind = "none"
)

// TenantGrade rates the covenant strength of a tenant.
type TenantGrade string

const (
	TenantGradeAPlus   TenantGrade = "A+"
	TenantGradeA       TenantGrade = "A"
	TenantGradeBPlus   TenantGrade = "B+"
	TenantGradeB       TenantGrade = "B"
	TenantGradeC       TenantGrade = "C"
	TenantGradeUnrated TenantGrade = "unrated"
)

// PropertyData holds structured property attributes extracted from document
// text. All numeric fields are optional; nil means the value was not present
// in the source text. Extracted data is held in memory only and is lost when
// the process exits.
type PropertyData struct {
	PropertyName string       `json:"property_name,omitempty"`
	Location     string       `json:"location,omitempty"`
	Country      string       `json:"country,omitempty"`
	Kind         PropertyKind `json:"property_type,omitempty"`

	SiteAreaSqm          *float64 `json:"site_area_sqm,omitempty"`
	GrossInternalAreaSqm *float64 `json:"gross_internal_area_sqm,omitempty"`
	SiteCoveragePercent  *float64 `json:"site_coverage_percent,omitempty"`

	PurchasePrice     *float64 `json:"purchase_price,omitempty"`
	TotalCosts        *float64 `json:"total_costs,omitempty"`
	GrossRentalIncome *float64 `json:"gross_rental_income,omitempty"`
	NetInitialYield   *float64 `json:"net_initial_yield,omitempty"`
	RentPerSqm        *float64 `json:"rent_per_sqm,omitempty"`

	TenantName  string      `json:"tenant_name,omitempty"`
	TenantGrade TenantGrade `json:"tenant_grade,omitempty"`

	Lease              LeaseKind `json:"lease_type,omitempty"`
	LeaseTermYears     *float64  `json:"lease_term_years,omitempty"`
	BreakClauseYears   *float64  `json:"break_clause_years,omitempty"`
	BreakPenaltyMonths *float64  `json:"break_penalty_months,omitempty"`

	Indexation             IndexationKind `json:"indexation_type,omitempty"`
	IndexationCapPercent   *float64       `json:"indexation_cap_percent,omitempty"`
	IndexationCarryForward bool           `json:"indexation_carry_forward,omitempty"`

	LandlordCapex         *float64 `json:"landlord_capex,omitempty"`
	TenantCapex           *float64 `json:"tenant_capex,omitempty"`
	TargetLTVPercent      *float64 `json:"target_ltv_percent,omitempty"`
	SeniorLeveragePercent *float64 `json:"senior_leverage_percent,omitempty"`

	SpecialFeatures    []string `json:"special_features,omitempty"`
	AccessDetails      string   `json:"access_details,omitempty"`
	OperationalDetails string   `json:"operational_details,omitempty"`
	StartDate          string   `json:"start_date,omitempty"`
}

// normalizeEnumValue lowercases a raw value and replaces spaces with
// underscores, the canonical form shared by all property enums.
func normalizeEnumValue(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// ParsePropertyKind converts a raw value to a PropertyKind.
// The boolean result reports whether the value matched a known kind.
func ParsePropertyKind(s string) (PropertyKind, bool) {
	k := PropertyKind(normalizeEnumValue(s))
	switch k {
	case PropertyLogistics, PropertyIndustrial, PropertyOffice,
		PropertyRetail, PropertyResidential, PropertyMixedUse:
		return k, true
	}
	return "", false
}

// ParseLeaseKind converts a raw value to a LeaseKind.
func ParseLeaseKind(s string) (LeaseKind, bool) {
	k := LeaseKind(normalizeEnumValue(s))
	switch k {
	case LeaseTripleNet, LeaseGross, LeaseNet, LeaseAbsoluteNet:
		return k, true
	}
	return "", false
}

// ParseIndexationKind converts a raw value to an IndexationKind.
func ParseIndexationKind(s string) (IndexationKind, bool) {
	k := IndexationKind(normalizeEnumValue(s))
	switch k {
	case IndexationCPI, IndexationFixed, IndexationMarket, IndexationNone:
		return k, true
	}
	return "", false
}

// ParseTenantGrade converts a raw value to a TenantGrade. Grades keep their
// original casing ("A+", "B"), so matching is done against the upper-cased
// input except for the unrated grade.
func ParseTenantGrade(s string) (TenantGrade, bool) {
	trimmed := strings.TrimSpace(s)
	if strings.EqualFold(trimmed, string(TenantGradeUnrated)) {
		return TenantGradeUnrated, true
	}
	g := TenantGrade(strings.ToUpper(trimmed))
	switch g {
	case TenantGradeAPlus, TenantGradeA, TenantGradeBPlus, TenantGradeB, TenantGradeC:
		return g, true
	}
	return "", false
}
