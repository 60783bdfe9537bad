package mapper

import (
	"testing"

	"github.com/synthea-tools/csvfhir/internal/platform/fhir"
)

func TestEncodeValueClassification(t *testing.T) {
	// Boolean keywords win over the numeric parse.
	key, value, ok := encodeValue("true", "")
	if !ok || key != "valueBoolean" || value != true {
		t.Fatalf("expected valueBoolean true, got %s=%v (%v)", key, value, ok)
	}

	key, value, ok = encodeValue("98.6", "degF")
	if !ok || key != "valueQuantity" {
		t.Fatalf("expected valueQuantity, got %s (%v)", key, ok)
	}
	q := value.(map[string]interface{})
	if q["value"] != 98.6 || q["unit"] != "degF" || q["system"] != fhir.SystemUCUM {
		t.Errorf("unexpected quantity %v", q)
	}

	key, value, ok = encodeValue("Never smoker", "")
	if !ok || key != "valueString" || value != "Never smoker" {
		t.Errorf("expected valueString, got %s=%v", key, value)
	}

	if _, _, ok := encodeValue("", "mg"); ok {
		t.Error("empty value must be omitted")
	}
}

func TestEncodeValueNonFiniteBecomesString(t *testing.T) {
	// ParseFloat accepts these tokens, but a NaN or Inf quantity value
	// cannot be JSON-marshaled, so they must land in the string branch.
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "Infinity"} {
		key, value, ok := encodeValue(raw, "")
		if !ok || key != "valueString" || value != raw {
			t.Errorf("encodeValue(%q) = %s=%v (%v), want valueString", raw, key, value, ok)
		}
	}
}

func TestDecodeValue(t *testing.T) {
	cases := []struct {
		name      string
		resource  map[string]interface{}
		wantValue string
		wantUnits string
		wantType  string
	}{
		{
			"quantity",
			map[string]interface{}{"valueQuantity": fhir.Quantity(72, "/min")},
			"72", "/min", "numeric",
		},
		{
			"decimal quantity",
			map[string]interface{}{"valueQuantity": fhir.Quantity(98.6, "degF")},
			"98.6", "degF", "numeric",
		},
		{
			"string",
			map[string]interface{}{"valueString": "Never smoker"},
			"Never smoker", "", "text",
		},
		{
			"boolean",
			map[string]interface{}{"valueBoolean": true},
			"true", "", "text",
		},
		{
			"integer",
			map[string]interface{}{"valueInteger": 3},
			"3", "", "numeric",
		},
		{
			"codeable concept",
			map[string]interface{}{"valueCodeableConcept": fhir.Concept(fhir.SystemSNOMED, "266919005", "Never smoked tobacco", "Never smoked tobacco")},
			"Never smoked tobacco", "", "text",
		},
		{
			"absent",
			map[string]interface{}{},
			"", "", "text",
		},
	}
	for _, c := range cases {
		value, units, typeTag := decodeValue(c.resource)
		if value != c.wantValue || units != c.wantUnits || typeTag != c.wantType {
			t.Errorf("%s: got (%q, %q, %q), want (%q, %q, %q)",
				c.name, value, units, typeTag, c.wantValue, c.wantUnits, c.wantType)
		}
	}
}

func TestValueRoundTrip(t *testing.T) {
	key, encoded, ok := encodeValue("120", "mm[Hg]")
	if !ok {
		t.Fatal("expected encoded value")
	}
	value, units, typeTag := decodeValue(map[string]interface{}{key: encoded})
	if value != "120" || units != "mm[Hg]" || typeTag != "numeric" {
		t.Errorf("round trip yielded (%q, %q, %q)", value, units, typeTag)
	}
}

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{72, "72"},
		{98.6, "98.6"},
		{0, "0"},
		{-3, "-3"},
		{0.25, "0.25"},
	}
	for _, c := range cases {
		if got := formatNumber(c.in); got != c.want {
			t.Errorf("formatNumber(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
