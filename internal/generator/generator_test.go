package generator

import (
	"encoding/json"
	"testing"

	"github.com/moamenhredeen/tcobject/internal/apispec"
	"github.com/moamenhredeen/tcobject/internal/validator"
	"github.com/pb33f/libopenapi/datamodel/high/base"
)

func TestNewGenerator(t *testing.T) {
	g := NewGenerator()
	if g == nil {
		t.Fatal("Generator is nil")
	}
}

func TestGenerateString(t *testing.T) {
	g := NewGenerator()

	// Create a simple string schema
	schema := &base.Schema{
		Type: []string{"string"},
	}

	val, err := g.GenerateValue(schema)
	if err != nil {
		t.Fatalf("Failed to generate value: %v", err)
	}

	if _, ok := val.(string); !ok {
		t.Errorf("Expected string, got %T", val)
	}
}

func TestGenerateInteger(t *testing.T) {
	g := NewGenerator()

	schema := &base.Schema{
		Type: []string{"integer"},
	}

	val, err := g.GenerateValue(schema)
	if err != nil {
		t.Fatalf("Failed to generate value: %v", err)
	}

	if _, ok := val.(int); !ok {
		t.Errorf("Expected integer, got %T", val)
	}
}

func TestGenerateBoolean(t *testing.T) {
	g := NewGenerator()

	schema := &base.Schema{
		Type: []string{"boolean"},
	}

	val, err := g.GenerateValue(schema)
	if err != nil {
		t.Fatalf("Failed to generate value: %v", err)
	}

	if _, ok := val.(bool); !ok {
		t.Errorf("Expected boolean, got %T", val)
	}
}

func TestGenerateArray(t *testing.T) {
	g := NewGenerator()

	schema := &base.Schema{
		Type:  []string{"array"},
		Items: &base.DynamicValue[*base.SchemaProxy, bool]{},
	}

	val, err := g.GenerateValue(schema)
	if err != nil {
		t.Fatalf("Failed to generate value: %v", err)
	}

	items, ok := val.([]interface{})
	if !ok {
		t.Fatalf("Expected array, got %T", val)
	}
	if len(items) == 0 || len(items) > 3 {
		t.Errorf("Expected 1 to 3 items, got %d", len(items))
	}
}

func TestGenerateObject(t *testing.T) {
	g := NewGenerator()

	schema := &base.Schema{
		Type: []string{"object"},
	}

	val, err := g.GenerateValue(schema)
	if err != nil {
		t.Fatalf("Failed to generate value: %v", err)
	}

	if _, ok := val.(map[string]interface{}); !ok {
		t.Errorf("Expected object, got %T", val)
	}
}

func TestGenerateFromFormat(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		format string
		check func(interface{}) bool
	}{
		{"email", func(v interface{}) bool {
			str, ok := v.(string)
			return ok && str != ""
		}},
		{"uuid", func(v interface{}) bool {
			str, ok := v.(string)
			return ok && str != ""
		}},
		{"date", func(v interface{}) bool {
			str, ok := v.(string)
			return ok && str != ""
		}},
		{"byte", func(v interface{}) bool {
			str, ok := v.(string)
			return ok && len(str) == 24
		}},
	}

	for _, tt := range tests {
		result := g.generateFromFormat(tt.format)
		if !tt.check(result) {
			t.Errorf("Format %s did not generate valid value: %v", tt.format, result)
		}
	}
}

func TestGenerateStringRespectsMaxLength(t *testing.T) {
	g := NewGenerator()
	maxLength := int64(2)

	for i := 0; i < 20; i++ {
		val, _ := g.GenerateValue(&base.Schema{Type: []string{"string"}, MaxLength: &maxLength})
		if len(val.(string)) > 2 {
			t.Fatalf("Expected at most 2 characters, got %q", val)
		}
	}
}

func TestGenerateStringZeroMaxLength(t *testing.T) {
	g := NewGenerator()
	maxLength := int64(0)

	val, _ := g.GenerateValue(&base.Schema{Type: []string{"string"}, MaxLength: &maxLength})
	if val != "" {
		t.Fatalf("Expected an empty string, got %q", val)
	}
}

func TestGenerateStringWithoutBoundsIsNotEmpty(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 20; i++ {
		val, _ := g.GenerateValue(&base.Schema{Type: []string{"string"}})
		if len(val.(string)) == 0 {
			t.Fatalf("Expected a non-empty string")
		}
	}
}

func TestGeneratePayloadsMatchSchemas(t *testing.T) {
	spec, err := apispec.Load()
	if err != nil {
		t.Fatalf("Failed to load API description: %v", err)
	}
	v := validator.New(spec)
	g := NewGenerator()

	refs := []string{
		"v1/upload-object-request.json#",
		"v1/download-object-request.json#",
		"v1/download-object-response.json#",
	}

	for _, ref := range refs {
		// optional properties are random, so try a few times
		for i := 0; i < 10; i++ {
			payload, err := g.GeneratePayload(spec, ref)
			if err != nil {
				t.Fatalf("%s: failed to generate payload: %v", ref, err)
			}
			data, err := json.Marshal(payload)
			if err != nil {
				t.Fatalf("%s: payload is not JSON-encodable: %v", ref, err)
			}
			problems, err := v.Validate(ref, data)
			if err != nil {
				t.Fatalf("%s: %v", ref, err)
			}
			if len(problems) > 0 {
				t.Errorf("%s: generated payload %s is invalid: %v", ref, data, problems)
			}
		}
	}
}

func TestGeneratePayloadUsesExamples(t *testing.T) {
	spec, err := apispec.Load()
	if err != nil {
		t.Fatalf("Failed to load API description: %v", err)
	}

	payload, err := NewGenerator().GeneratePayload(spec, "v1/download-object-request.json#")
	if err != nil {
		t.Fatalf("Failed to generate payload: %v", err)
	}

	body, ok := payload.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected object, got %T", payload)
	}
	methods, ok := body["acceptDownloadMethods"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected acceptDownloadMethods object, got %T", body["acceptDownloadMethods"])
	}
	if methods["simple"] != true {
		t.Errorf("Expected the example download method, got %v", methods)
	}
}

func TestGenerateArgs(t *testing.T) {
	spec, err := apispec.Load()
	if err != nil {
		t.Fatalf("Failed to load API description: %v", err)
	}
	g := NewGenerator()

	details, err := spec.OperationDetails("download")
	if err != nil {
		t.Fatalf("Failed to get operation details: %v", err)
	}
	args, err := g.GenerateArgs(details)
	if err != nil {
		t.Fatalf("Failed to generate args: %v", err)
	}
	if len(args) != 1 || args[0] == "" {
		t.Errorf("Expected one non-empty arg, got %v", args)
	}

	details, err = spec.OperationDetails("ping")
	if err != nil {
		t.Fatalf("Failed to get operation details: %v", err)
	}
	args, err = g.GenerateArgs(details)
	if err != nil {
		t.Fatalf("Failed to generate args: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("Expected no args, got %v", args)
	}
}
