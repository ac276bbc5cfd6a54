package domain

import (
	"encoding/json"
	"slices"
)

// decodeObject splits a JSON object into the set of modelled keys it
// contains and every other key with its raw value
func decodeObject(b []byte, known []string) (map[string]bool, map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, nil, err
	}
	var present map[string]bool
	var extra map[string]json.RawMessage
	for k, v := range raw {
		if slices.Contains(known, k) {
			if present == nil {
				present = make(map[string]bool, len(known))
			}
			present[k] = true
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = v
	}
	return present, extra, nil
}

// encodeObject encodes fields and merges in extra. A modelled key is written
// when the decoded object had it, when it is listed in always, or when its
// value is not empty, so a record read from the store keeps its shape.
func encodeObject(fields any, present map[string]bool, extra map[string]json.RawMessage, always ...string) ([]byte, error) {
	known, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var encoded map[string]json.RawMessage
	if err := json.Unmarshal(known, &encoded); err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(encoded)+len(extra))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range encoded {
		if present[k] || slices.Contains(always, k) || !emptyJSON(v) {
			out[k] = v
			continue
		}
		delete(out, k)
	}
	return json.Marshal(out)
}

func emptyJSON(v json.RawMessage) bool {
	switch string(v) {
	case `""`, `null`, `[]`, `{}`:
		return true
	}
	return false
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
