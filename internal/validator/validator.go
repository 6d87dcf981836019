package validator

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/moamenhredeen/tcobject/internal/apispec"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
)

// Validator validates payloads and responses against an OpenAPI description
type Validator struct {
	spec *apispec.Spec
}

// New creates a validator for the given description
func New(spec *apispec.Spec) *Validator {
	return &Validator{spec: spec}
}

// Validate decodes a JSON document and validates it against the referenced
// schema. An error is returned only when the schema cannot be resolved.
func (v *Validator) Validate(ref string, data []byte) ([]models.ValidationError, error) {
	schema, err := v.spec.Schema(ref)
	if err != nil {
		return nil, err
	}

	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return []models.ValidationError{{
			Field:   "body",
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
		}}, nil
	}

	return v.ValidateValue(schema, value, "body"), nil
}

// ValidateStatus checks that a status code is declared for the operation,
// either exactly, through a range such as 2xx, or through a default response
func (v *Validator) ValidateStatus(opDetails *apispec.OperationDetails, statusCode int) []models.ValidationError {
	if _, ok := responseFor(opDetails, statusCode); ok {
		return nil
	}
	return []models.ValidationError{{
		Field:   "status_code",
		Message: fmt.Sprintf("unexpected status code %d, not declared for this operation", statusCode),
	}}
}

// ValidateResponse validates a received response against the operation: the
// status code, declared headers, content type and JSON body
func (v *Validator) ValidateResponse(opDetails *apispec.OperationDetails, statusCode int, header http.Header, body []byte) []models.ValidationError {
	if opDetails == nil || opDetails.Responses == nil {
		return nil
	}

	responseDef, found := responseFor(opDetails, statusCode)
	if !found {
		return v.ValidateStatus(opDetails, statusCode)
	}
	if responseDef == nil {
		return nil
	}

	var errors []models.ValidationError

	// Validate headers
	if responseDef.Headers != nil {
		for pair := responseDef.Headers.First(); pair != nil; pair = pair.Next() {
			headerName := pair.Key()
			if header.Get(headerName) == "" {
				errors = append(errors, models.ValidationError{
					Field:   fmt.Sprintf("header.%s", headerName),
					Message: fmt.Sprintf("missing required header: %s", headerName),
				})
			}
		}
	}

	if responseDef.Content == nil || responseDef.Content.Len() == 0 {
		return errors
	}

	// Validate content type
	contentType := header.Get("Content-Type")
	contentTypeMatched := false
	var schema *base.Schema
	for pair := responseDef.Content.First(); pair != nil; pair = pair.Next() {
		definedContentType := strings.Split(pair.Key(), ";")[0]
		if strings.Contains(contentType, definedContentType) {
			contentTypeMatched = true
			if pair.Value() != nil && pair.Value().Schema != nil {
				schema = pair.Value().Schema.Schema()
			}
			break
		}
	}

	if !contentTypeMatched {
		errors = append(errors, models.ValidationError{
			Field:   "content_type",
			Message: fmt.Sprintf("unexpected content type: %q", contentType),
		})
		return errors
	}

	if schema != nil && strings.Contains(contentType, "json") {
		var value interface{}
		if err := json.Unmarshal(body, &value); err != nil {
			return append(errors, models.ValidationError{
				Field:   "body",
				Message: fmt.Sprintf("failed to parse JSON response: %v", err),
			})
		}
		errors = append(errors, v.ValidateValue(schema, value, "body")...)
	}

	return errors
}

// ValidateValue validates a decoded JSON value against a schema. field names
// the value in the returned errors.
func (v *Validator) ValidateValue(schema *base.Schema, value interface{}, field string) []models.ValidationError {
	if schema == nil {
		return nil
	}

	var errors []models.ValidationError
	fail := func(f, format string, args ...interface{}) {
		errors = append(errors, models.ValidationError{Field: f, Message: fmt.Sprintf(format, args...)})
	}

	if len(schema.Type) > 0 && !matchesAnyType(schema.Type, value) {
		fail(field, "expected %s, got %s", strings.Join(schema.Type, " or "), jsonType(value))
		return errors
	}

	switch val := value.(type) {
	case map[string]interface{}:
		for _, requiredField := range schema.Required {
			if _, exists := val[requiredField]; !exists {
				fail(field+"."+requiredField, "missing required field: %s", requiredField)
			}
		}

		// Sort keys so errors come out in a stable order
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			propSchema := property(schema, k)
			if propSchema != nil {
				errors = append(errors, v.ValidateValue(propSchema, val[k], field+"."+k)...)
				continue
			}
			if ap := schema.AdditionalProperties; ap != nil {
				if ap.IsB() && !ap.B {
					fail(field+"."+k, "unexpected field: %s", k)
				} else if ap.IsA() && ap.A != nil {
					errors = append(errors, v.ValidateValue(ap.A.Schema(), val[k], field+"."+k)...)
				}
			}
		}

	case []interface{}:
		if schema.Items != nil && schema.Items.IsA() && schema.Items.A != nil {
			itemSchema := schema.Items.A.Schema()
			for i, item := range val {
				errors = append(errors, v.ValidateValue(itemSchema, item, field+"["+strconv.Itoa(i)+"]")...)
			}
		}

	case string:
		length := int64(utf8.RuneCountInString(val))
		if schema.MinLength != nil && length < *schema.MinLength {
			fail(field, "length %d is shorter than %d", length, *schema.MinLength)
		}
		if schema.MaxLength != nil && length > *schema.MaxLength {
			fail(field, "length %d is longer than %d", length, *schema.MaxLength)
		}
		if len(schema.Enum) > 0 && !inEnum(schema, val) {
			fail(field, "%q is not one of the allowed values", val)
		}
		switch schema.Format {
		case "date-time":
			if _, err := time.Parse(time.RFC3339, val); err != nil {
				fail(field, "not a valid date-time: %q", val)
			}
		case "byte":
			if _, err := base64.StdEncoding.DecodeString(val); err != nil {
				fail(field, "not valid base64 data")
			}
		}
	}

	return errors
}

func responseFor(opDetails *apispec.OperationDetails, statusCode int) (*v3.Response, bool) {
	if opDetails == nil || opDetails.Responses == nil {
		return nil, false
	}
	codes := opDetails.Responses.Codes
	statusCodeStr := strconv.Itoa(statusCode)
	statusRange := fmt.Sprintf("%dxx", statusCode/100)

	// Check for exact status code match
	if codes != nil {
		for pair := codes.First(); pair != nil; pair = pair.Next() {
			if pair.Key() == statusCodeStr {
				return pair.Value(), true
			}
		}
	}

	// Check for status code ranges (2xx, 4xx, etc.)
	if codes != nil {
		for pair := codes.First(); pair != nil; pair = pair.Next() {
			if strings.EqualFold(pair.Key(), statusRange) {
				return pair.Value(), true
			}
		}
	}

	if opDetails.Responses.Default != nil {
		return opDetails.Responses.Default, true
	}
	return nil, false
}

func property(schema *base.Schema, name string) *base.Schema {
	if schema.Properties == nil {
		return nil
	}
	for pair := schema.Properties.First(); pair != nil; pair = pair.Next() {
		if pair.Key() == name && pair.Value() != nil {
			return pair.Value().Schema()
		}
	}
	return nil
}

func inEnum(schema *base.Schema, val string) bool {
	for _, node := range schema.Enum {
		if node != nil && node.Value == val {
			return true
		}
	}
	return false
}

func matchesAnyType(types []string, value interface{}) bool {
	for _, t := range types {
		switch t {
		case "object":
			if _, ok := value.(map[string]interface{}); ok {
				return true
			}
		case "array":
			if _, ok := value.([]interface{}); ok {
				return true
			}
		case "string":
			if _, ok := value.(string); ok {
				return true
			}
		case "number":
			if _, ok := value.(float64); ok {
				return true
			}
		case "integer":
			if f, ok := value.(float64); ok && f == math.Trunc(f) {
				return true
			}
		case "boolean":
			if _, ok := value.(bool); ok {
				return true
			}
		case "null":
			if value == nil {
				return true
			}
		}
	}
	return false
}

func jsonType(value interface{}) string {
	switch value.(type) {
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", value)
}
