// Package schema implements the minimal JSON-Schema subset used for agent
// parameter declaration and pre-dispatch argument validation.
package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidationError describes a single argument validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// Validate checks args against a minimal JSON schema (type, properties,
// required, enum). Extra fields not covered by the schema are allowed.
func Validate(args map[string]any, spec map[string]any) error {
	required, _ := spec["required"].([]any)
	for _, req := range required {
		name, ok := req.(string)
		if !ok {
			continue
		}
		if _, exists := args[name]; !exists {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}
	// Schemas declared in Go code often carry []string instead of the
	// JSON-decoded []any shape.
	if reqStr, ok := spec["required"].([]string); ok {
		for _, name := range reqStr {
			if _, exists := args[name]; !exists {
				return &ValidationError{Field: name, Message: "required field is missing"}
			}
		}
	}

	properties, _ := spec["properties"].(map[string]any)
	for name, value := range args {
		prop, exists := properties[name]
		if !exists {
			continue
		}
		propMap, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := propMap["type"].(string)
		if !matchesType(value, wantType) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", wantType, value),
			}
		}
		if err := matchesEnum(name, value, propMap); err != nil {
			return err
		}
	}

	return nil
}

// ApplyDefaults fills absent arguments from the schema's per-property
// "default" values, returning the merged map. The input map is not mutated.
func ApplyDefaults(args map[string]any, spec map[string]any) map[string]any {
	merged := make(map[string]any, len(args))
	for k, v := range args {
		merged[k] = v
	}
	properties, _ := spec["properties"].(map[string]any)
	for name, prop := range properties {
		propMap, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		def, has := propMap["default"]
		if !has {
			continue
		}
		if _, exists := merged[name]; !exists {
			merged[name] = def
		}
	}
	return merged
}

// FromStruct derives a schema from a struct's exported fields using json and
// description tags. Pointer and omitempty fields are optional.
func FromStruct(structType any) map[string]any {
	t := reflect.TypeOf(structType)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			if head := strings.Split(jsonTag, ",")[0]; head != "" {
				name = head
			}
		}

		prop := map[string]any{"type": jsonType(field.Type)}
		if desc := field.Tag.Get("description"); desc != "" {
			prop["description"] = desc
		}
		properties[name] = prop

		if !hasOmitEmpty(jsonTag) && field.Type.Kind() != reflect.Ptr {
			required = append(required, name)
		}
	}

	spec := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		spec["required"] = required
	}
	return spec
}

func matchesEnum(field string, value any, prop map[string]any) error {
	enum, ok := prop["enum"]
	if !ok {
		return nil
	}
	var allowed []any
	switch vals := enum.(type) {
	case []any:
		allowed = vals
	case []string:
		for _, v := range vals {
			allowed = append(allowed, v)
		}
	default:
		return nil
	}
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("value not in enum %v", allowed),
	}
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}

func matchesType(value any, want string) bool {
	if value == nil {
		return true
	}
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON numbers decode as float64
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
