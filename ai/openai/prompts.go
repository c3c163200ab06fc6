package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/corpus/ai"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "property_name": {"type": "string"},
    "location": {"type": "string"},
    "country": {"type": "string"},
    "property_type": {
      "type": "string",
      "enum": ["logistics", "industrial", "office", "retail", "residential", "mixed_use"]
    },
    "site_area_sqm": {"type": "number"},
    "gross_internal_area_sqm": {"type": "number"},
    "site_coverage_percent": {"type": "number"},
    "purchase_price": {"type": "number"},
    "total_costs": {"type": "number"},
    "gross_rental_income": {"type": "number"},
    "net_initial_yield": {"type": "number"},
    "rent_per_sqm": {"type": "number"},
    "tenant_name": {"type": "string"},
    "tenant_grade": {
      "type": "string",
      "enum": ["A+", "A", "B+", "B", "C", "unrated"]
    },
    "lease_type": {
      "type": "string",
      "enum": ["triple_net", "gross", "net", "absolute_net"]
    },
    "lease_term_years": {"type": "number"},
    "break_clause_years": {"type": "number"},
    "break_penalty_months": {"type": "number"},
    "indexation_type": {
      "type": "string",
      "enum": ["cpi", "fixed", "market", "none"]
    },
    "indexation_cap_percent": {"type": "number"},
    "indexation_carry_forward": {"type": "boolean"},
    "landlord_capex": {"type": "number"},
    "tenant_capex": {"type": "number"},
    "special_features": {"type": "array", "items": {"type": "string"}},
    "access_details": {"type": "string"},
    "operational_details": {"type": "string"},
    "start_date": {"type": "string"},
    "target_ltv_percent": {"type": "number"},
    "senior_leverage_percent": {"type": "number"}
  },
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract commercial real estate attributes from the given document text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Only use the listed field names: %s.
- Include only fields whose values are explicitly stated in the text. Omit everything else. Do not hallucinate.
- Report monetary amounts, areas and percentages as plain numbers without currency symbols, thousands separators or units.
- Use the enum values exactly as listed for property_type, tenant_grade, lease_type and indexation_type.
- Dates go into start_date as written in the text.
- If the text contains no property data at all, return an empty object {}.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.



Example (investment memo):
Input: "Logistikpark Bremen was acquired for EUR 24,500,000 at a 5.10% net initial yield. The 18,500 sqm facility is fully let to DHL Supply Chain (rated A) on a 15-year triple net lease with CPI indexation capped at 3.0%."
Output:
{
  "property_name": "Logistikpark Bremen",
  "property_type": "logistics",
  "purchase_price": 24500000,
  "net_initial_yield": 5.10,
  "gross_internal_area_sqm": 18500,
  "tenant_name": "DHL Supply Chain",
  "tenant_grade": "A",
  "lease_type": "triple_net",
  "lease_term_years": 15,
  "indexation_type": "cpi",
  "indexation_cap_percent": 3.0
}

Example (partial data, informal):
Input: "the warehouse in Rotterdam has about 12000 sqm and direct motorway access"
Output:
{
  "location": "Rotterdam",
  "property_type": "logistics",
  "gross_internal_area_sqm": 12000,
  "access_details": "direct motorway access"
}

Example (no property data):
Input: "The quarterly review meeting has been moved to Thursday afternoon."
Output:
{}`

// buildExtractionPrompt creates the system prompt with the response schema
// and the allowed field names embedded.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.PropertyFields, ", "))
}
