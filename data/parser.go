// Package data reads the suite's data files: request payloads embedded in the binary and the
// optional configuration file. Both may be written as JSON or YAML.
package data

import (
	"encoding/json"
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// ParseJSONOrYAML is used in the same way as json.Unmarshal, but if the data is YAML and not
// JSON, it converts the YAML to JSON first so that the target's JSON unmarshaling rules apply.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	var parsed interface{}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}
	normalized, err := yamlToJSONCompatible(parsed)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

// yamlToJSONCompatible converts maps with interface{} keys, which json.Marshal rejects, into
// maps with string keys.
func yamlToJSONCompatible(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			converted, err := yamlToJSONCompatible(item)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			converted, err := yamlToJSONCompatible(item)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			s, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("YAML data contained a map key of type %T; only string keys are allowed", key)
			}
			converted, err := yamlToJSONCompatible(item)
			if err != nil {
				return nil, err
			}
			out[s] = converted
		}
		return out, nil
	default:
		return value, nil
	}
}
