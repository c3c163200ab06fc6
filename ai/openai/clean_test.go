package openai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/corpus/core"
)

func TestCleanExtracted_FullResponse(t *testing.T) {
	raw := map[string]interface{}{
		"property_name":            "Logistikpark Bremen",
		"location":                 "Bremen",
		"country":                  "Germany",
		"property_type":            "Logistics",
		"purchase_price":           float64(24500000),
		"net_initial_yield":        5.1,
		"gross_internal_area_sqm":  "18,500",
		"tenant_name":              "DHL Supply Chain",
		"tenant_grade":             "a",
		"lease_type":               "Triple Net",
		"lease_term_years":         float64(15),
		"indexation_type":          "CPI",
		"indexation_cap_percent":   float64(3),
		"indexation_carry_forward": "yes",
		"special_features":         []interface{}{"cross-dock", " rail siding "},
	}

	data, fields := cleanExtracted(raw)
	require.NotNil(t, data)
	assert.Equal(t, 15, fields)

	assert.Equal(t, "Logistikpark Bremen", data.PropertyName)
	assert.Equal(t, core.PropertyLogistics, data.Kind)
	require.NotNil(t, data.PurchasePrice)
	assert.Equal(t, 24500000.0, *data.PurchasePrice)
	require.NotNil(t, data.GrossInternalAreaSqm)
	assert.Equal(t, 18500.0, *data.GrossInternalAreaSqm)
	assert.Equal(t, core.TenantGradeA, data.TenantGrade)
	assert.Equal(t, core.LeaseTripleNet, data.Lease)
	assert.Equal(t, core.IndexationCPI, data.Indexation)
	assert.True(t, data.IndexationCarryForward)
	assert.Equal(t, []string{"cross-dock", "rail siding"}, data.SpecialFeatures)
}

func TestCleanExtracted_Empty(t *testing.T) {
	data, fields := cleanExtracted(nil)
	assert.Nil(t, data)
	assert.Zero(t, fields)

	data, fields = cleanExtracted(map[string]interface{}{})
	assert.Nil(t, data)
	assert.Zero(t, fields)

	// Unusable values count as nothing extracted.
	data, fields = cleanExtracted(map[string]interface{}{
		"property_name":  "   ",
		"purchase_price": "twenty million",
	})
	assert.Nil(t, data)
	assert.Zero(t, fields)
}

func TestCleanExtracted_EnumDefaults(t *testing.T) {
	raw := map[string]interface{}{
		"property_type":   "warehouse park",
		"lease_type":      "double net",
		"indexation_type": "inflation linked",
		"tenant_grade":    "AAA",
	}

	data, fields := cleanExtracted(raw)
	require.NotNil(t, data)
	assert.Equal(t, 3, fields)

	// Off-list enums fall back to corpus defaults, unknown grades are dropped.
	assert.Equal(t, core.PropertyLogistics, data.Kind)
	assert.Equal(t, core.LeaseTripleNet, data.Lease)
	assert.Equal(t, core.IndexationCPI, data.Indexation)
	assert.Empty(t, data.TenantGrade)
}

func TestCleanNumber(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
		ok   bool
	}{
		{"float", 5.1, 5.1, true},
		{"plain string", "18500", 18500, true},
		{"thousands separators", "24,500,000", 24500000, true},
		{"euro sign", "€1,200", 1200, true},
		{"million shorthand", "24.5m", 24.5, true},
		{"padded", " 42 ", 42, true},
		{"words", "about twenty", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := cleanNumber(test.in)
			assert.Equal(t, test.ok, ok)
			if test.ok {
				assert.Equal(t, test.want, got)
			}
		})
	}
}

func TestCleanBool(t *testing.T) {
	assert.True(t, cleanBool(true))
	assert.True(t, cleanBool("yes"))
	assert.True(t, cleanBool("On"))
	assert.True(t, cleanBool(float64(1)))
	assert.False(t, cleanBool(false))
	assert.False(t, cleanBool("no"))
	assert.False(t, cleanBool(nil))
}

func TestCleanStringSlice(t *testing.T) {
	got := cleanStringSlice([]interface{}{"a", "", "  b  ", float64(3)})
	assert.Equal(t, []string{"a", "b"}, got)

	assert.Equal(t, []string{"solar roof"}, cleanStringSlice("solar roof"))
	assert.Nil(t, cleanStringSlice(nil))
	assert.Nil(t, cleanStringSlice(float64(7)))
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"valid passthrough",
			`{"property_name": "Park"}`,
			`{"property_name": "Park"}`,
		},
		{
			"missing opening quote",
			`{property_name": "Park"}`,
			`{"property_name": "Park"}`,
		},
		{
			"trailing comma",
			`{"a": 1, "b": 2,}`,
			`{"a": 1, "b": 2}`,
		},
		{
			"trailing comma in array",
			`{"special_features": ["dock", "rail",]}`,
			`{"special_features": ["dock", "rail"]}`,
		},
		{
			"truncated object",
			`{"a": 1, "b": {"c": 2`,
			`{"a": 1, "b": {"c": 2}}`,
		},
		{
			"truncated string",
			`{"a": "unfinished`,
			`{"a": "unfinished"}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			repaired := repairJSON(test.in)
			assert.Equal(t, test.want, repaired)

			var decoded map[string]interface{}
			assert.NoError(t, json.Unmarshal([]byte(repaired), &decoded), "repaired JSON must parse")
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 100))
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))

	// Never splits a multi-byte rune.
	s := "aéb" // 4 bytes
	assert.Equal(t, "a", truncateRunes(s, 2))
}

func TestBuildExtractionPrompt(t *testing.T) {
	prompt := buildExtractionPrompt()

	assert.Contains(t, prompt, `"property_name"`)
	assert.Contains(t, prompt, "triple_net")
	assert.Contains(t, prompt, "Logistikpark Bremen")
	// Every allowed field is named in the prompt.
	assert.Contains(t, prompt, "senior_leverage_percent")
}
