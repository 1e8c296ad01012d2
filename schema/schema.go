// Package schema validates request payloads against a JSON Schema subset.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks a decoded JSON document against a JSON Schema (draft-07
// subset). Returns nil if validation passes or the schema is nil.
//
// Supported JSON Schema keywords:
//   - type (string, number, boolean, object, array, null)
//   - properties, required, additionalProperties
//   - items, minItems, maxItems
//   - minLength, maxLength (counted in characters)
func Validate(schema map[string]any, doc any) error {
	if schema == nil {
		return nil
	}
	return validateValue(schema, doc, "$")
}

func validateValue(schema map[string]any, value any, path string) error {
	if t, ok := schema["type"].(string); ok {
		if actual := jsonType(value); actual != t {
			return fmt.Errorf("%s: expected type %q, got %q", path, t, actual)
		}
	}

	switch v := value.(type) {
	case map[string]any:
		return validateObject(schema, v, path)
	case []any:
		return validateArray(schema, v, path)
	case string:
		return validateString(schema, v, path)
	}
	return nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func validateObject(schema map[string]any, obj map[string]any, path string) error {
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if field, ok := r.(string); ok {
				if _, exists := obj[field]; !exists {
					return fmt.Errorf("%s: missing required field %q", path, field)
				}
			}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for field, propSchema := range props {
		val, exists := obj[field]
		if !exists {
			continue
		}
		if ps, ok := propSchema.(map[string]any); ok {
			if err := validateValue(ps, val, path+"."+field); err != nil {
				return err
			}
		}
	}

	if ap, ok := schema["additionalProperties"].(bool); ok && !ap {
		var extra []string
		for field := range obj {
			if _, defined := props[field]; !defined {
				extra = append(extra, field)
			}
		}
		if len(extra) > 0 {
			return fmt.Errorf("%s: additional properties not allowed: %s", path, strings.Join(extra, ", "))
		}
	}
	return nil
}

func validateArray(schema map[string]any, arr []any, path string) error {
	if v, ok := toInt(schema["minItems"]); ok && len(arr) < v {
		return fmt.Errorf("%s: array length %d is less than minItems %d", path, len(arr), v)
	}
	if v, ok := toInt(schema["maxItems"]); ok && len(arr) > v {
		return fmt.Errorf("%s: array length %d is greater than maxItems %d", path, len(arr), v)
	}
	if itemSchema, ok := schema["items"].(map[string]any); ok {
		for i, elem := range arr {
			if err := validateValue(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateString(schema map[string]any, s string, path string) error {
	n := utf8.RuneCountInString(s)
	if v, ok := toInt(schema["minLength"]); ok && n < v {
		return fmt.Errorf("%s: string length %d is less than minLength %d", path, n, v)
	}
	if v, ok := toInt(schema["maxLength"]); ok && n > v {
		return fmt.Errorf("%s: string length %d is greater than maxLength %d", path, n, v)
	}
	return nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
