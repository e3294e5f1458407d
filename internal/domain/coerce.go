package domain

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ConfigFieldType names the JSON-shaped types a node may declare for its
// configuration fields.
type ConfigFieldType string

const (
	FieldString  ConfigFieldType = "string"
	FieldInteger ConfigFieldType = "integer"
	FieldNumber  ConfigFieldType = "number"
	FieldBoolean ConfigFieldType = "boolean"
	FieldArray   ConfigFieldType = "array"
	FieldObject  ConfigFieldType = "object"
)

// Coerce converts a raw configuration value to the declared field type.
// Submission documents arrive from JSON and YAML frontends that are loose
// about scalar types, so numbers may come in as strings and booleans as
// "true"/"1"/"yes".
func Coerce(value interface{}, fieldType ConfigFieldType) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch fieldType {
	case FieldString:
		if s, ok := value.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%v", value), nil

	case FieldInteger:
		switch v := value.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			return int(v), nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to integer", v)
			}
			return n, nil
		}
		return nil, fmt.Errorf("cannot convert %T to integer", value)

	case FieldNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("cannot convert %q to number", v)
			}
			return f, nil
		}
		return nil, fmt.Errorf("cannot convert %T to number", value)

	case FieldBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int:
			return v != 0, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes":
				return true, nil
			case "false", "0", "no":
				return false, nil
			}
			return nil, fmt.Errorf("cannot convert %q to boolean", v)
		}
		return nil, fmt.Errorf("cannot convert %T to boolean", value)

	case FieldArray:
		switch v := value.(type) {
		case []interface{}:
			return v, nil
		case string:
			var arr []interface{}
			if err := json.Unmarshal([]byte(v), &arr); err == nil {
				return arr, nil
			}
			// Comma-separated fallback for hand-written documents.
			parts := strings.Split(v, ",")
			out := make([]interface{}, 0, len(parts))
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			return out, nil
		}
		return nil, fmt.Errorf("cannot convert %T to array", value)

	case FieldObject:
		switch v := value.(type) {
		case map[string]interface{}:
			return v, nil
		case string:
			var obj map[string]interface{}
			if err := json.Unmarshal([]byte(v), &obj); err == nil {
				return obj, nil
			}
		}
		return nil, fmt.Errorf("cannot convert %T to object", value)
	}

	return value, nil
}
