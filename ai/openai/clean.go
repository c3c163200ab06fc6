package openai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/corpus/core"
)

// numericNoise strips thousands separators, euro signs and a trailing
// million shorthand from numbers the model returns as strings.
var numericNoise = strings.NewReplacer(",", "", "€", "", "m", "")

// cleanExtracted converts a raw decoded extraction response into
// PropertyData. The second result counts the fields that survived cleaning;
// zero means the response held no usable property data.
//
// Cleaning is forgiving on purpose. Models return numbers as strings with
// separators and units, mix enum casing and occasionally invent near-miss
// enum values. Values that cannot be coerced are dropped rather than failing
// the whole extraction.
func cleanExtracted(raw map[string]interface{}) (*core.PropertyData, int) {
	if len(raw) == 0 {
		return nil, 0
	}

	data := &core.PropertyData{}
	fields := 0

	setString := func(key string, dst *string) {
		if s, ok := cleanString(raw[key]); ok {
			*dst = s
			fields++
		}
	}
	setNumber := func(key string, dst **float64) {
		if f, ok := cleanNumber(raw[key]); ok {
			*dst = &f
			fields++
		}
	}

	setString("property_name", &data.PropertyName)
	setString("location", &data.Location)
	setString("country", &data.Country)
	setString("tenant_name", &data.TenantName)
	setString("access_details", &data.AccessDetails)
	setString("operational_details", &data.OperationalDetails)
	setString("start_date", &data.StartDate)

	setNumber("site_area_sqm", &data.SiteAreaSqm)
	setNumber("gross_internal_area_sqm", &data.GrossInternalAreaSqm)
	setNumber("site_coverage_percent", &data.SiteCoveragePercent)
	setNumber("purchase_price", &data.PurchasePrice)
	setNumber("total_costs", &data.TotalCosts)
	setNumber("gross_rental_income", &data.GrossRentalIncome)
	setNumber("net_initial_yield", &data.NetInitialYield)
	setNumber("rent_per_sqm", &data.RentPerSqm)
	setNumber("lease_term_years", &data.LeaseTermYears)
	setNumber("break_clause_years", &data.BreakClauseYears)
	setNumber("break_penalty_months", &data.BreakPenaltyMonths)
	setNumber("indexation_cap_percent", &data.IndexationCapPercent)
	setNumber("landlord_capex", &data.LandlordCapex)
	setNumber("tenant_capex", &data.TenantCapex)
	setNumber("target_ltv_percent", &data.TargetLTVPercent)
	setNumber("senior_leverage_percent", &data.SeniorLeveragePercent)

	// Enum fields fall back to the most common value in the corpus when the
	// model returns something off-list. Tenant grades have no sensible
	// fallback and are dropped instead.
	if s, ok := cleanString(raw["property_type"]); ok {
		if kind, valid := core.ParsePropertyKind(s); valid {
			data.Kind = kind
		} else {
			data.Kind = core.PropertyLogistics
		}
		fields++
	}
	if s, ok := cleanString(raw["lease_type"]); ok {
		if kind, valid := core.ParseLeaseKind(s); valid {
			data.Lease = kind
		} else {
			data.Lease = core.LeaseTripleNet
		}
		fields++
	}
	if s, ok := cleanString(raw["indexation_type"]); ok {
		if kind, valid := core.ParseIndexationKind(s); valid {
			data.Indexation = kind
		} else {
			data.Indexation = core.IndexationCPI
		}
		fields++
	}
	if s, ok := cleanString(raw["tenant_grade"]); ok {
		if grade, valid := core.ParseTenantGrade(s); valid {
			data.TenantGrade = grade
			fields++
		}
	}

	if _, present := raw["indexation_carry_forward"]; present {
		data.IndexationCarryForward = cleanBool(raw["indexation_carry_forward"])
		fields++
	}

	if features := cleanStringSlice(raw["special_features"]); len(features) > 0 {
		data.SpecialFeatures = features
		fields++
	}

	if fields == 0 {
		return nil, 0
	}
	return data, fields
}

func cleanString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func cleanNumber(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case string:
		s := strings.TrimSpace(numericNoise.Replace(value))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func cleanBool(v interface{}) bool {
	switch strings.ToLower(strings.TrimSpace(fmt.Sprint(v))) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func cleanStringSlice(v interface{}) []string {
	switch value := v.(type) {
	case []interface{}:
		items := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := cleanString(item); ok {
				items = append(items, s)
			}
		}
		return items
	case string:
		if s, ok := cleanString(value); ok {
			return []string{s}
		}
	}
	return nil
}
