package generator

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/moamenhredeen/tcobject/internal/apispec"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"go.yaml.in/yaml/v4"
)

// Generator generates sample data from OpenAPI schemas. It is not safe for
// concurrent use.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a new generator instance
func NewGenerator() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateValue generates a sample value based on a schema
func (g *Generator) GenerateValue(schema *base.Schema) (interface{}, error) {
	if schema == nil {
		return nil, fmt.Errorf("schema is nil")
	}

	// Check for example value first
	if v, ok := decodeNode(schema.Example); ok {
		return v, nil
	}

	// Check for default value
	if v, ok := decodeNode(schema.Default); ok {
		return v, nil
	}

	// Handle different schema types
	if len(schema.Type) > 0 {
		switch schema.Type[0] {
		case "string":
			return g.generateString(schema), nil
		case "integer", "number":
			return g.generateNumber(schema), nil
		case "boolean":
			return true, nil
		case "array":
			return g.generateArray(schema), nil
		case "object":
			return g.generateObject(schema), nil
		}
	}

	// If no type specified, try to infer from format
	if schema.Format != "" {
		return g.generateFromFormat(schema.Format), nil
	}

	return "", nil
}

// decodeNode turns an example or default node into a plain value
func decodeNode(node *yaml.Node) (interface{}, bool) {
	if node == nil {
		return nil, false
	}
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return node.Value, true
	}
	return v, true
}

// generateString generates a string value based on schema constraints
func (g *Generator) generateString(schema *base.Schema) string {
	if schema.Format != "" {
		if str, ok := g.generateFromFormat(schema.Format).(string); ok {
			return str
		}
	}

	// Enum values are yaml nodes
	if len(schema.Enum) > 0 && schema.Enum[0] != nil {
		return schema.Enum[0].Value
	}

	// Patterns are not interpreted
	if schema.Pattern != "" {
		return "sample-string"
	}

	minLength := 0
	maxLength := 10
	if schema.MinLength != nil {
		minLength = int(*schema.MinLength)
	}
	if schema.MaxLength != nil && int(*schema.MaxLength) < maxLength {
		maxLength = int(*schema.MaxLength)
	}

	length := minLength
	if maxLength > minLength {
		length = minLength + g.rng.Intn(maxLength-minLength+1)
	}
	if length == 0 && schema.MaxLength == nil {
		length = 5
	}

	return strings.Repeat("a", length)
}

// generateNumber generates a number value based on schema constraints
func (g *Generator) generateNumber(schema *base.Schema) interface{} {
	min, max := 0.0, 100.0
	isInt := len(schema.Type) > 0 && schema.Type[0] == "integer"

	if schema.Minimum != nil {
		min = *schema.Minimum
	}
	if schema.Maximum != nil {
		max = *schema.Maximum
	}

	value := min + g.rng.Float64()*(max-min)

	if isInt {
		return int(value)
	}
	return value
}

// generateArray generates an array value
func (g *Generator) generateArray(schema *base.Schema) []interface{} {
	minItems := 0
	maxItems := 3
	if schema.MinItems != nil {
		minItems = int(*schema.MinItems)
	}
	if schema.MaxItems != nil {
		maxItems = int(*schema.MaxItems)
	}

	count := minItems
	if maxItems > minItems {
		count = minItems + g.rng.Intn(maxItems-minItems+1)
	}
	if count == 0 {
		count = 1
	}

	var itemSchema *base.Schema
	if schema.Items != nil && schema.Items.IsA() && schema.Items.A != nil {
		itemSchema = schema.Items.A.Schema()
	}

	result := make([]interface{}, count)
	for i := range result {
		if itemSchema == nil {
			// Default to string array
			result[i] = "item"
			continue
		}
		val, _ := g.GenerateValue(itemSchema)
		result[i] = val
	}
	return result
}

// generateObject generates an object value. Required properties are always
// set, optional ones at random.
func (g *Generator) generateObject(schema *base.Schema) map[string]interface{} {
	result := make(map[string]interface{})

	if schema.Properties == nil {
		return result
	}

	for pair := schema.Properties.First(); pair != nil; pair = pair.Next() {
		propName := pair.Key()

		isRequired := false
		for _, req := range schema.Required {
			if req == propName {
				isRequired = true
				break
			}
		}

		if isRequired || g.rng.Float64() > 0.5 {
			propSchema := pair.Value().Schema()
			if propSchema != nil {
				val, _ := g.GenerateValue(propSchema)
				result[propName] = val
			}
		}
	}

	return result
}

// generateFromFormat generates a value based on format
func (g *Generator) generateFromFormat(format string) interface{} {
	switch format {
	case "date":
		return time.Now().Format("2006-01-02")
	case "date-time":
		// in the future, so that expiry times are accepted
		return time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	case "byte":
		data := make([]byte, 16)
		g.rng.Read(data)
		return base64.StdEncoding.EncodeToString(data)
	case "email":
		return "test@example.com"
	case "uri":
		return "https://example.com"
	case "uuid":
		return "123e4567-e89b-12d3-a456-426614174000"
	case "int32":
		return g.rng.Int31()
	case "int64":
		return g.rng.Int63()
	case "float":
		return g.rng.Float32()
	case "double":
		return g.rng.Float64()
	default:
		return "sample-value"
	}
}

// GeneratePathParameter generates a value for a path parameter
func (g *Generator) GeneratePathParameter(param *v3.Parameter) (string, error) {
	if param == nil {
		return "", fmt.Errorf("parameter is nil")
	}

	if param.Schema != nil {
		if schema := param.Schema.Schema(); schema != nil {
			val, err := g.GenerateValue(schema)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%v", val), nil
		}
	}

	return "sample", nil
}

// GenerateArgs generates one value per path parameter of an operation, in
// the order the parameters are declared
func (g *Generator) GenerateArgs(opDetails *apispec.OperationDetails) ([]string, error) {
	if opDetails == nil {
		return nil, fmt.Errorf("operation details are nil")
	}

	args := []string{}
	for _, param := range opDetails.Parameters {
		if param == nil || param.In != "path" {
			continue
		}
		val, err := g.GeneratePathParameter(param)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", param.Name, err)
		}
		args = append(args, val)
	}
	return args, nil
}

// GeneratePayload generates a JSON-encodable request body for the schema
// reference, e.g. "v1/upload-object-request.json#"
func (g *Generator) GeneratePayload(spec *apispec.Spec, ref string) (interface{}, error) {
	schema, err := spec.Schema(ref)
	if err != nil {
		return nil, err
	}
	return g.GenerateValue(schema)
}
