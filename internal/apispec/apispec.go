package apispec

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"
	"github.com/pb33f/libopenapi/orderedmap"
)

//go:embed object-v1.yaml
var objectV1 []byte

const (
	componentPrefix = "#/components/schemas/"
	stabilityKey    = "x-stability"
)

// methods in the order operations of one path item are listed
var methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// Spec is a parsed OpenAPI description of a service
type Spec struct {
	document libopenapi.Document
	model    *v3.Document
}

// OperationDetails holds the parts of an OpenAPI operation the client needs
type OperationDetails struct {
	Operation   *v3.Operation
	Path        string
	Method      string
	Parameters  []*v3.Parameter
	RequestBody *v3.RequestBody
	Responses   *v3.Responses
}

var loadEmbedded = sync.OnceValues(func() (*Spec, error) {
	return Parse(objectV1)
})

// Load returns the embedded description of the object service. It is parsed
// once and shared; callers must not modify it.
func Load() (*Spec, error) {
	return loadEmbedded()
}

// ParseFile parses an OpenAPI specification file
func ParseFile(filePath string) (*Spec, error) {
	specBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI file: %w", err)
	}
	return Parse(specBytes)
}

// Parse parses an OpenAPI 3 document
func Parse(specBytes []byte) (*Spec, error) {
	document, err := libopenapi.NewDocument(specBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	model, errs := document.BuildV3Model()
	if errs != nil {
		return nil, fmt.Errorf("failed to build v3 model: %v", errs)
	}

	return &Spec{document: document, model: &model.Model}, nil
}

// ServerURLs returns the server URLs listed in the document
func (s *Spec) ServerURLs() []string {
	urls := make([]string, 0, len(s.model.Servers))
	for _, server := range s.model.Servers {
		if server != nil && server.URL != "" {
			urls = append(urls, server.URL)
		}
	}
	return urls
}

// Operations derives an operation descriptor for every operation in the
// document, in document order
func (s *Spec) Operations() ([]models.Operation, error) {
	var operations []models.Operation

	paths := s.model.Paths
	if paths == nil || paths.PathItems == nil {
		return operations, nil
	}

	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		route := pair.Key()
		item := pair.Value()
		if item == nil {
			continue
		}

		for _, method := range methods {
			op := operationFor(item, method)
			if op == nil {
				continue
			}
			if op.OperationId == "" {
				return nil, fmt.Errorf("%s %s has no operationId", method, route)
			}

			desc := models.Operation{
				Name:      op.OperationId,
				Title:     op.Summary,
				Method:    method,
				Route:     route,
				Stability: stability(op),
			}
			desc.Args = desc.Placeholders()
			if desc.Args == nil {
				desc.Args = []string{}
			}

			if op.RequestBody != nil {
				desc.Input = s.schemaRef(jsonSchema(op.RequestBody.Content))
			}
			if op.Responses != nil && op.Responses.Codes != nil {
				for code := op.Responses.Codes.First(); code != nil; code = code.Next() {
					if !strings.HasPrefix(code.Key(), "2") || code.Value() == nil {
						continue
					}
					if ref := s.schemaRef(jsonSchema(code.Value().Content)); ref != "" {
						desc.Output = ref
						break
					}
				}
			}

			operations = append(operations, desc)
		}
	}

	return operations, nil
}

// OperationDetails returns the OpenAPI operation with the given operationId
func (s *Spec) OperationDetails(name string) (*OperationDetails, error) {
	paths := s.model.Paths
	if paths == nil || paths.PathItems == nil {
		return nil, fmt.Errorf("operation not found: %s", name)
	}

	for pair := paths.PathItems.First(); pair != nil; pair = pair.Next() {
		if pair.Value() == nil {
			continue
		}
		for _, method := range methods {
			op := operationFor(pair.Value(), method)
			if op == nil || op.OperationId != name {
				continue
			}

			details := &OperationDetails{
				Operation:   op,
				Path:        pair.Key(),
				Method:      method,
				Parameters:  append([]*v3.Parameter(nil), op.Parameters...),
				RequestBody: op.RequestBody,
				Responses:   op.Responses,
			}
			return details, nil
		}
	}

	return nil, fmt.Errorf("operation not found: %s", name)
}

// Schema resolves a schema reference. Both the service form
// ("v1/download-object-request.json#") and the component name
// ("download-object-request") are accepted.
func (s *Spec) Schema(ref string) (*base.Schema, error) {
	name := ComponentName(ref)
	if name == "" {
		return nil, fmt.Errorf("empty schema reference")
	}

	components := s.model.Components
	if components == nil || components.Schemas == nil {
		return nil, fmt.Errorf("schema not found: %s", ref)
	}

	for pair := components.Schemas.First(); pair != nil; pair = pair.Next() {
		if pair.Key() != name {
			continue
		}
		if pair.Value() == nil {
			break
		}
		schema, err := pair.Value().BuildSchema()
		if err != nil {
			return nil, fmt.Errorf("failed to build schema %s: %w", name, err)
		}
		return schema, nil
	}

	return nil, fmt.Errorf("schema not found: %s", ref)
}

// ComponentName maps a schema reference to its component name
func ComponentName(ref string) string {
	name := strings.TrimPrefix(ref, componentPrefix)
	name = strings.TrimSuffix(name, "#")
	name = strings.TrimSuffix(name, ".json")
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func operationFor(item *v3.PathItem, method string) *v3.Operation {
	switch method {
	case "GET":
		return item.Get
	case "POST":
		return item.Post
	case "PUT":
		return item.Put
	case "PATCH":
		return item.Patch
	case "DELETE":
		return item.Delete
	case "HEAD":
		return item.Head
	case "OPTIONS":
		return item.Options
	}
	return nil
}

func stability(op *v3.Operation) models.Stability {
	if op.Deprecated != nil && *op.Deprecated {
		return models.StabilityDeprecated
	}
	if op.Extensions != nil {
		for pair := op.Extensions.First(); pair != nil; pair = pair.Next() {
			if pair.Key() == stabilityKey && pair.Value() != nil {
				return models.Stability(pair.Value().Value)
			}
		}
	}
	return models.StabilityStable
}

// jsonSchema returns the schema of the first JSON media type
func jsonSchema(content *orderedmap.Map[string, *v3.MediaType]) *base.SchemaProxy {
	if content == nil {
		return nil
	}
	for pair := content.First(); pair != nil; pair = pair.Next() {
		if strings.Contains(pair.Key(), "json") && pair.Value() != nil {
			return pair.Value().Schema
		}
	}
	return nil
}

// schemaRef turns a component reference into the service's schema id form,
// e.g. "#/components/schemas/foo" becomes "v1/foo.json#"
func (s *Spec) schemaRef(proxy *base.SchemaProxy) string {
	if proxy == nil || !proxy.IsReference() {
		return ""
	}
	version := "v1"
	if s.model.Info != nil && s.model.Info.Version != "" {
		version = s.model.Info.Version
	}
	return version + "/" + ComponentName(proxy.GetReference()) + ".json#"
}
