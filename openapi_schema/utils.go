package openapi_schema

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// GetSchemaType returns the first type of the schema, or "" when untyped.
func GetSchemaType(s *openapi3.Schema) string {
	if s == nil || s.Type == nil || len(*s.Type) == 0 {
		return ""
	}
	return (*s.Type)[0]
}

// IsObject reports whether the schema describes an object.
func IsObject(s *openapi3.Schema) bool {
	return GetSchemaType(s) == openapi3.TypeObject
}

// IsPrimitive reports whether the schema is a string, integer, number or boolean.
func IsPrimitive(s *openapi3.Schema) bool {
	switch GetSchemaType(s) {
	case openapi3.TypeString, openapi3.TypeInteger, openapi3.TypeNumber, openapi3.TypeBoolean:
		return true
	}
	return false
}

// IsStringOrInteger reports whether the schema is a string or an integer.
func IsStringOrInteger(s *openapi3.Schema) bool {
	switch GetSchemaType(s) {
	case openapi3.TypeString, openapi3.TypeInteger:
		return true
	}
	return false
}

// IsEmptySchema reports whether ref carries no type, properties or composition.
func IsEmptySchema(ref *openapi3.SchemaRef) bool {
	if ref == nil || ref.Value == nil {
		return true
	}
	s := ref.Value
	return GetSchemaType(s) == "" &&
		len(s.Properties) == 0 &&
		s.Items == nil &&
		len(s.AllOf) == 0 &&
		len(s.OneOf) == 0 &&
		len(s.AnyOf) == 0 &&
		len(s.Required) == 0
}

// CompareSchemaValues compares two schemas structurally. It returns "" and true when they
// match, otherwise a description of the first difference and false.
func CompareSchemaValues(a, b *openapi3.Schema) (string, bool) {
	if a == nil || b == nil {
		if a == b {
			return "", true
		}
		return "one schema is nil", false
	}
	typeA, typeB := GetSchemaType(a), GetSchemaType(b)
	if typeA != typeB {
		return fmt.Sprintf("type mismatch: %q vs %q", typeA, typeB), false
	}
	if typeA == openapi3.TypeArray {
		if a.Items == nil || b.Items == nil {
			if a.Items == b.Items {
				return "", true
			}
			return "item schema is nil in one schema", false
		}
		if msg, ok := CompareSchemaValues(a.Items.Value, b.Items.Value); !ok {
			return "items: " + msg, false
		}
		return "", true
	}
	if !IsObject(a) {
		return "", true
	}
	if len(a.Properties) != len(b.Properties) {
		return fmt.Sprintf("property count mismatch: %d vs %d", len(a.Properties), len(b.Properties)), false
	}
	names := make([]string, 0, len(a.Properties))
	for name := range a.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		propB, ok := b.Properties[name]
		if !ok {
			return fmt.Sprintf("property %q missing", name), false
		}
		if msg, ok := CompareSchemaValues(a.Properties[name].Value, propB.Value); !ok {
			return fmt.Sprintf("property %q: %s", name, msg), false
		}
	}
	return "", true
}

// CompareComponent compares a component between two documents, e.g. the schemas of two
// repository versions. A component missing on either side is a difference.
func (s *Schema) CompareComponent(other *Schema, name string) (string, bool) {
	a, errA := s.Component(name)
	b, errB := other.Component(name)
	switch {
	case errA != nil && errB != nil:
		return "", true
	case errA != nil:
		return errA.Error(), false
	case errB != nil:
		return errB.Error(), false
	}
	return CompareSchemaValues(a.Value, b.Value)
}
