package openapi

import (
	"slices"

	"github.com/getkin/kin-openapi/openapi3"
)

const maxSampleDepth = 8

// Sample builds a value shaped like schema. Examples, defaults and the first
// enum value are preferred; otherwise zero values of the schema's type are
// used. Recursive schemas are cut at a fixed depth.
func Sample(schema *openapi3.Schema) any {
	return sample(schema, 0)
}

func sample(s *openapi3.Schema, depth int) any {
	if s == nil || depth > maxSampleDepth {
		return nil
	}
	switch {
	case s.Example != nil:
		return s.Example
	case s.Default != nil:
		return s.Default
	case len(s.Enum) > 0:
		return s.Enum[0]
	}

	if len(s.AllOf) > 0 {
		return sampleAllOf(s.AllOf, depth)
	}
	for _, refs := range [][]*openapi3.SchemaRef{s.OneOf, s.AnyOf} {
		if len(refs) > 0 && refs[0] != nil {
			return sample(refs[0].Value, depth+1)
		}
	}

	switch {
	case s.Type.Is(openapi3.TypeObject) || (s.Type == nil && len(s.Properties) > 0):
		return sampleObject(s, depth)
	case s.Type.Is(openapi3.TypeArray):
		if s.Items == nil {
			return []any{}
		}
		return []any{sample(s.Items.Value, depth+1)}
	case s.Type.Is(openapi3.TypeString):
		return sampleString(s.Format)
	case s.Type.Is(openapi3.TypeInteger):
		return 0
	case s.Type.Is(openapi3.TypeNumber):
		return 0.0
	case s.Type.Is(openapi3.TypeBoolean):
		return false
	}
	return nil
}

func sampleObject(s *openapi3.Schema, depth int) map[string]any {
	out := make(map[string]any, len(s.Properties))
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if ref := s.Properties[name]; ref != nil {
			out[name] = sample(ref.Value, depth+1)
		}
	}
	return out
}

func sampleAllOf(refs []*openapi3.SchemaRef, depth int) any {
	if len(refs) == 1 && refs[0] != nil {
		return sample(refs[0].Value, depth+1)
	}
	merged := map[string]any{}
	for _, ref := range refs {
		if ref == nil {
			continue
		}
		if m, ok := sample(ref.Value, depth+1).(map[string]any); ok {
			for k, v := range m {
				merged[k] = v
			}
		}
	}
	return merged
}

func sampleString(format string) string {
	switch format {
	case "date-time":
		return "2024-01-01T00:00:00Z"
	case "date":
		return "2024-01-01"
	case "uuid":
		return "00000000-0000-0000-0000-000000000000"
	case "email":
		return "user@example.com"
	case "uri", "url":
		return "https://example.com"
	}
	return "string"
}
