package ai

// PropertyFields lists the JSON fields the property extractor may return.
// Prompt builders embed this list so the model only emits known fields, and
// response cleaning drops anything outside it.
var PropertyFields = []string{
	"property_name",
	"location",
	"country",
	"property_type",
	"site_area_sqm",
	"gross_internal_area_sqm",
	"site_coverage_percent",
	"purchase_price",
	"total_costs",
	"gross_rental_income",
	"net_initial_yield",
	"rent_per_sqm",
	"tenant_name",
	"tenant_grade",
	"lease_type",
	"lease_term_years",
	"break_clause_years",
	"break_penalty_months",
	"indexation_type",
	"indexation_cap_percent",
	"indexation_carry_forward",
	"landlord_capex",
	"tenant_capex",
	"special_features",
	"access_details",
	"operational_details",
	"start_date",
	"target_ltv_percent",
	"senior_leverage_percent",
}
