package domain

import (
	"dario.cat/mergo"

	json "github.com/goccy/go-json"
)

// MergeValues combines two opaque values the way fan-in ports and the merge
// node need: objects deep-merge with the override winning on conflicts and
// slices appending, arrays concatenate, anything else is replaced by the
// override.
func MergeValues(base, override interface{}) (interface{}, error) {
	switch {
	case isObject(base) && isObject(override):
		baseMap := base.(map[string]interface{})
		overrideMap := override.(map[string]interface{})

		merged := make(map[string]interface{}, len(baseMap))
		for k, v := range baseMap {
			merged[k] = v
		}
		if err := mergo.Merge(&merged, overrideMap,
			mergo.WithOverride,
			mergo.WithAppendSlice); err != nil {
			return nil, err
		}
		return merged, nil

	case isArray(base) && isArray(override):
		baseSlice := base.([]interface{})
		overrideSlice := override.([]interface{})

		merged := make([]interface{}, 0, len(baseSlice)+len(overrideSlice))
		merged = append(merged, baseSlice...)
		merged = append(merged, overrideSlice...)
		return merged, nil

	default:
		return override, nil
	}
}

// MergeJSON merges two JSON documents under the MergeValues rules. Sinks
// use it to fold per-node output snapshots into one cumulative document.
func MergeJSON(current, update json.RawMessage) (json.RawMessage, error) {
	if len(current) == 0 {
		return update, nil
	}
	if len(update) == 0 {
		return current, nil
	}

	var currentData, updateData interface{}
	if err := json.Unmarshal(current, &currentData); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(update, &updateData); err != nil {
		return nil, err
	}

	merged, err := MergeValues(currentData, updateData)
	if err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

func isObject(v interface{}) bool {
	_, ok := v.(map[string]interface{})
	return ok
}

func isArray(v interface{}) bool {
	_, ok := v.([]interface{})
	return ok
}
