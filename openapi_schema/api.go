package openapi_schema

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
)

// RepositoryPrefix is the path prefix of repository endpoints. Documents list paths
// either with or without it.
const RepositoryPrefix = "/qrs"

// Schema is a parsed repository API description.
type Schema struct {
	doc *openapi3.T
}

// Load parses an OpenAPI 3 document or a Swagger 2 document (converted to OpenAPI 3).
// The repository serves Swagger 2 at /qrs/about/openapi/main.
func Load(data []byte) (*Schema, error) {
	var probe struct {
		Swagger string `json:"swagger"`
		OpenAPI string `json:"openapi"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode OpenAPI document: %w", err)
	}
	var (
		doc *openapi3.T
		err error
	)
	switch {
	case strings.HasPrefix(probe.Swagger, "2."):
		var v2 openapi2.T
		if err = json.Unmarshal(data, &v2); err != nil {
			return nil, fmt.Errorf("decode Swagger 2 document: %w", err)
		}
		if doc, err = openapi2conv.ToV3(&v2); err != nil {
			return nil, fmt.Errorf("convert Swagger 2 document: %w", err)
		}
	case strings.HasPrefix(probe.OpenAPI, "3."):
		if doc, err = openapi3.NewLoader().LoadFromData(data); err != nil {
			return nil, fmt.Errorf("load OpenAPI 3 document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document: neither swagger 2.x nor openapi 3.x")
	}
	if doc.Paths == nil {
		doc.Paths = openapi3.NewPaths()
	}
	if doc.Components == nil {
		doc.Components = &openapi3.Components{}
	}
	return &Schema{doc: doc}, nil
}

// Validate checks the document against the OpenAPI 3 rules.
func (s *Schema) Validate(ctx context.Context) error {
	return s.doc.Validate(ctx)
}

// Doc returns the underlying OpenAPI 3 document.
func (s *Schema) Doc() *openapi3.T {
	return s.doc
}

// Version returns info.version of the document.
func (s *Schema) Version() string {
	if s.doc.Info == nil {
		return ""
	}
	return s.doc.Info.Version
}

// Paths returns every documented path, sorted.
func (s *Schema) Paths() []string {
	paths := make([]string, 0, s.doc.Paths.Len())
	for path := range s.doc.Paths.Map() {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// candidates lists the spellings a resource path may have in the document.
func candidates(resourcePath string) []string {
	base := "/" + strings.Trim(strings.TrimSpace(resourcePath), "/")
	bare := strings.TrimPrefix(base, RepositoryPrefix)
	if bare == "" {
		bare = "/"
	}
	out := []string{base, base + "/"}
	if bare != base {
		out = append(out, bare, bare+"/")
	} else {
		out = append(out, RepositoryPrefix+base, RepositoryPrefix+base+"/")
	}
	return out
}

// PathItem returns the path item for resourcePath ("app", "/qrs/app/{id}" ...).
// Matching tolerates a missing or extra /qrs prefix, a trailing slash and letter case.
func (s *Schema) PathItem(resourcePath string) (*openapi3.PathItem, error) {
	paths := s.doc.Paths.Map()
	names := candidates(resourcePath)
	for _, name := range names {
		if item := paths[name]; item != nil {
			return item, nil
		}
	}
	for path, item := range paths {
		for _, name := range names {
			if strings.EqualFold(path, name) {
				return item, nil
			}
		}
	}
	return nil, fmt.Errorf("path %q not found in OpenAPI schema", resourcePath)
}

// Operation returns the operation for an HTTP method on resourcePath.
func (s *Schema) Operation(httpMethod, resourcePath string) (*openapi3.Operation, error) {
	item, err := s.PathItem(resourcePath)
	if err != nil {
		return nil, err
	}
	operation := item.GetOperation(strings.ToUpper(httpMethod))
	if operation == nil {
		return nil, fmt.Errorf("operation %s not found for path %s", strings.ToUpper(httpMethod), resourcePath)
	}
	return operation, nil
}

// ValidateOperationExists returns an error when the method is not documented for resourcePath.
func (s *Schema) ValidateOperationExists(httpMethod, resourcePath string) error {
	_, err := s.Operation(httpMethod, resourcePath)
	return err
}

// OperationSummary returns the summary of an operation.
func (s *Schema) OperationSummary(httpMethod, resourcePath string) (string, error) {
	operation, err := s.Operation(httpMethod, resourcePath)
	if err != nil {
		return "", err
	}
	return operation.Summary, nil
}

// QueryParameters returns the query parameters accepted by an operation.
func (s *Schema) QueryParameters(httpMethod, resourcePath string) ([]*openapi3.Parameter, error) {
	operation, err := s.Operation(httpMethod, resourcePath)
	if err != nil {
		return nil, err
	}
	params := make([]*openapi3.Parameter, 0)
	for _, ref := range operation.Parameters {
		if ref == nil || ref.Value == nil {
			continue
		}
		if strings.EqualFold(ref.Value.In, openapi3.ParameterInQuery) {
			params = append(params, ref.Value)
		}
	}
	return params, nil
}

// SearchableQueryParams returns the names of GET query parameters that take a string or integer.
func (s *Schema) SearchableQueryParams(resourcePath string) ([]string, error) {
	params, err := s.QueryParameters(http.MethodGet, resourcePath)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0)
	for _, p := range params {
		if p.Schema == nil || p.Schema.Value == nil {
			continue
		}
		if IsStringOrInteger(p.Schema.Value) && !p.Schema.Value.ReadOnly {
			result = append(result, p.Name)
		}
	}
	return result, nil
}

// RequestBodySchema returns the resolved JSON request body schema of an operation,
// or an empty schema when the operation takes no body.
func (s *Schema) RequestBodySchema(httpMethod, resourcePath string) (*openapi3.SchemaRef, error) {
	operation, err := s.Operation(httpMethod, resourcePath)
	if err != nil {
		return nil, err
	}
	if operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}, nil
	}
	content := operation.RequestBody.Value.Content.Get("application/json")
	if content == nil {
		content = operation.RequestBody.Value.Content.Get("*/*")
	}
	if content == nil || content.Schema == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{}}, nil
	}
	return &openapi3.SchemaRef{Value: s.resolveComposedSchema(s.resolveAllRefs(content.Schema))}, nil
}

// ResponseSchema returns the resolved schema of a successful (200/201/202) JSON response.
// Array responses are unwrapped to their item schema, so listing endpoints describe one entity.
func (s *Schema) ResponseSchema(httpMethod, resourcePath string) (*openapi3.SchemaRef, error) {
	operation, err := s.Operation(httpMethod, resourcePath)
	if err != nil {
		return nil, err
	}
	for _, code := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
		ref := extractSchemaFromResponse(operation.Responses.Status(code))
		if ref == nil {
			continue
		}
		root := s.resolveComposedSchema(s.resolveAllRefs(ref))
		if root == nil {
			break
		}
		if root.Type != nil && root.Type.Is(openapi3.TypeArray) && root.Items != nil {
			return &openapi3.SchemaRef{Value: s.resolveComposedSchema(s.resolveAllRefs(root.Items))}, nil
		}
		return &openapi3.SchemaRef{Value: root}, nil
	}
	return nil, fmt.Errorf("no JSON schema in %s response (200/201/202) for %s", strings.ToUpper(httpMethod), resourcePath)
}

// extractSchemaFromResponse returns the application/json schema of a response, if any.
func extractSchemaFromResponse(resp *openapi3.ResponseRef) *openapi3.SchemaRef {
	if resp == nil || resp.Value == nil {
		return nil
	}
	content := resp.Value.Content.Get("application/json")
	if content == nil || content.Schema == nil {
		return nil
	}
	return content.Schema
}

// ComponentSchema represents a component schema with its name and reference
type ComponentSchema struct {
	Name      string // e.g. "App"
	Reference string // e.g. "#/components/schemas/App"
	Schema    *openapi3.Schema
}

// Component returns the resolved component schema with the given name ("App", "Tag" ...).
func (s *Schema) Component(name string) (*openapi3.SchemaRef, error) {
	ref, ok := s.doc.Components.Schemas[name]
	if !ok || ref == nil {
		return nil, fmt.Errorf("component schema %q not found in OpenAPI document", name)
	}
	resolved := s.resolveComposedSchema(s.resolveAllRefs(ref))
	if resolved == nil {
		return nil, fmt.Errorf("component schema %q cannot be resolved", name)
	}
	return &openapi3.SchemaRef{Value: resolved}, nil
}

// Components returns every resolvable component schema, sorted by name.
func (s *Schema) Components() []ComponentSchema {
	components := make([]ComponentSchema, 0, len(s.doc.Components.Schemas))
	for name, ref := range s.doc.Components.Schemas {
		resolved := s.resolveComposedSchema(s.resolveAllRefs(ref))
		if resolved == nil {
			continue
		}
		components = append(components, ComponentSchema{
			Name:      name,
			Reference: "#/components/schemas/" + name,
			Schema:    resolved,
		})
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].Name < components[j].Name
	})
	return components
}

// PropertyNames returns the sorted property names of a component, primitives first.
func (s *Schema) PropertyNames(component string) ([]string, error) {
	ref, err := s.Component(component)
	if err != nil {
		return nil, err
	}
	var primitives, nested []string
	for name, prop := range ref.Value.Properties {
		if IsPrimitive(s.resolveAllRefs(prop)) {
			primitives = append(primitives, name)
		} else {
			nested = append(nested, name)
		}
	}
	sort.Strings(primitives)
	sort.Strings(nested)
	return append(primitives, nested...), nil
}

// componentName returns the component a $ref points to.
func componentName(ref string) string {
	for _, prefix := range []string{"#/components/schemas/", "#/definitions/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return ""
}

// resolveAllRefs follows $ref chains. Returns nil when a reference cannot be resolved.
func (s *Schema) resolveAllRefs(ref *openapi3.SchemaRef) *openapi3.Schema {
	seen := map[string]bool{}
	for ref != nil && ref.Value == nil && ref.Ref != "" && !seen[ref.Ref] {
		seen[ref.Ref] = true
		ref = s.doc.Components.Schemas[componentName(ref.Ref)]
	}
	if ref == nil {
		return nil
	}
	return ref.Value
}

// resolveComposedSchema flattens allOf and picks the first typed oneOf/anyOf alternative.
func (s *Schema) resolveComposedSchema(schema *openapi3.Schema) *openapi3.Schema {
	if schema == nil {
		return nil
	}
	if len(schema.AllOf) > 0 {
		merged := &openapi3.Schema{
			Properties:  openapi3.Schemas{},
			Required:    []string{},
			Title:       schema.Title,
			Description: schema.Description,
		}
		for name, prop := range schema.Properties {
			merged.Properties[name] = prop
		}
		merged.Required = append(merged.Required, schema.Required...)
		if schema.Type != nil && len(*schema.Type) > 0 {
			merged.Type = schema.Type
		}
		for _, subRef := range schema.AllOf {
			sub := s.resolveComposedSchema(s.resolveAllRefs(subRef))
			if sub == nil {
				continue
			}
			for name, prop := range sub.Properties {
				merged.Properties[name] = prop
			}
			merged.Required = append(merged.Required, sub.Required...)
			if sub.Type != nil && len(*sub.Type) > 0 {
				merged.Type = sub.Type
			}
		}
		return merged
	}
	if schema.Type != nil && len(*schema.Type) > 0 {
		return schema
	}
	for _, refs := range [][]*openapi3.SchemaRef{schema.OneOf, schema.AnyOf} {
		for _, subRef := range refs {
			sub := s.resolveAllRefs(subRef)
			if sub != nil && sub.Type != nil && len(*sub.Type) > 0 {
				return sub
			}
		}
	}
	return schema
}
