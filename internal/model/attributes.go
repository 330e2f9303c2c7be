package model

import (
	"encoding/json"
	"fmt"
)

// decodeWithAttributes unmarshals a JSON object, moving the named string
// fields into their targets and returning every other member untouched.
//
// The crawl backend attaches browser-specific attributes to cookies and
// requests (expires, httpOnly, resourceType, ...). We never interpret them,
// but they must survive a decode/encode round trip so stored reports keep the
// backend's original shape.
func decodeWithAttributes(data []byte, fields map[string]*string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	for key, target := range fields {
		value, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)

		// JSON null is an absent value, not an error
		if string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
	}

	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// encodeWithAttributes marshals the opaque attributes together with the
// named string fields. Named fields win over attributes of the same key.
// Empty values of fields listed in omitEmpty are left out.
func encodeWithAttributes(attrs map[string]json.RawMessage, fields map[string]string, omitEmpty ...string) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(attrs)+len(fields))
	for k, v := range attrs {
		out[k] = v
	}

	skip := make(map[string]bool, len(omitEmpty))
	for _, k := range omitEmpty {
		skip[k] = true
	}

	for key, value := range fields {
		if value == "" && skip[key] {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		out[key] = encoded
	}

	return json.Marshal(out)
}
