package schema

import (
	"fmt"
	"strconv"
)

// Kind names the value type a rule coerces to. Path and query parameters
// always arrive as strings, so numeric and boolean kinds imply coercion.
type Kind string

const (
	String  Kind = "string"
	Number  Kind = "number"
	Boolean Kind = "boolean"
	Array   Kind = "array"
)

// Field is one declarative validation rule.
type Field struct {
	Required bool
	Type     Kind
	// Default fills in a missing optional field. It takes effect before type
	// checks, so the coerced output always contains it.
	Default any
	// Min and Max bound numbers by value and strings/arrays by length.
	Min *float64
	Max *float64
	// Enum restricts the coerced value to this set.
	Enum []any
}

// Rules is a declarative map validator: field name to rule. Keys present in
// the input but absent from the rules pass through untouched.
type Rules map[string]Field

// Validate implements Validator. The input must be a string-keyed map (or nil,
// treated as empty); anything else fails wholesale.
func (r Rules) Validate(value any) (any, ErrorTree) {
	in, ok := asMap(value)
	if !ok {
		return nil, ErrorTree{"_": "expected an object"}
	}

	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}

	errs := ErrorTree{}
	for name, field := range r {
		raw, present := in[name]
		if !present {
			if field.Default != nil {
				out[name] = field.Default
				continue
			}
			if field.Required {
				errs[name] = "is required"
			}
			continue
		}

		coerced, err := coerce(raw, field.Type)
		if err != "" {
			errs[name] = err
			continue
		}
		if err := checkBounds(coerced, field); err != "" {
			errs[name] = err
			continue
		}
		if err := checkEnum(coerced, field.Enum); err != "" {
			errs[name] = err
			continue
		}
		out[name] = coerced
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func asMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func coerce(raw any, kind Kind) (any, string) {
	switch kind {
	case "", String:
		if kind == "" {
			return raw, ""
		}
		s, ok := raw.(string)
		if !ok {
			return nil, "must be a string"
		}
		return s, ""
	case Number:
		switch v := raw.(type) {
		case float64:
			return v, ""
		case int:
			return float64(v), ""
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, "must be a number"
			}
			return f, ""
		default:
			return nil, "must be a number"
		}
	case Boolean:
		switch v := raw.(type) {
		case bool:
			return v, ""
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, "must be a boolean"
			}
			return b, ""
		default:
			return nil, "must be a boolean"
		}
	case Array:
		switch v := raw.(type) {
		case []any:
			return v, ""
		case []string:
			out := make([]any, len(v))
			for i, s := range v {
				out[i] = s
			}
			return out, ""
		default:
			// Single occurrence of a repeatable field still counts as an array.
			return []any{raw}, ""
		}
	default:
		return nil, fmt.Sprintf("unknown type %q", kind)
	}
}

func checkBounds(value any, field Field) string {
	if field.Min == nil && field.Max == nil {
		return ""
	}

	var size float64
	var unit string
	switch v := value.(type) {
	case float64:
		size, unit = v, ""
	case string:
		size, unit = float64(len(v)), " characters"
	case []any:
		size, unit = float64(len(v)), " items"
	default:
		return ""
	}

	if field.Min != nil && size < *field.Min {
		return fmt.Sprintf("must be at least %v%s", *field.Min, unit)
	}
	if field.Max != nil && size > *field.Max {
		return fmt.Sprintf("must be at most %v%s", *field.Max, unit)
	}
	return ""
}

func checkEnum(value any, enum []any) string {
	if len(enum) == 0 {
		return ""
	}
	for _, allowed := range enum {
		if value == allowed {
			return ""
		}
	}
	return fmt.Sprintf("must be one of %v", enum)
}
