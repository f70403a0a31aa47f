// Package jsonx holds the defensive decoding used at every remote-shape
// boundary: an unexpected payload degrades to an empty list, never an error.
package jsonx

import (
	"bytes"
	"encoding/json"
)

// List decodes raw as a list of T. A bare array is used as is; an object is
// searched for the first of fields holding an array. Elements that fail to
// decode are skipped. The result is never nil.
func List[T any](raw json.RawMessage, fields ...string) []T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []T{}
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return []T{}
		}
		out := make([]T, 0, len(items))
		for _, item := range items {
			var v T
			if err := json.Unmarshal(item, &v); err != nil {
				continue
			}
			out = append(out, v)
		}
		return out
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return []T{}
		}
		for _, f := range fields {
			if inner, ok := obj[f]; ok {
				inner = bytes.TrimSpace(inner)
				if len(inner) > 0 && inner[0] == '[' {
					return List[T](inner)
				}
			}
		}
	}
	return []T{}
}

// Object decodes raw into a map, returning an empty map for anything that is
// not a JSON object.
func Object(raw json.RawMessage) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

// String reads a string-ish field, accepting numbers as well.
func String(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			b, _ := json.Marshal(v)
			return string(b)
		}
	}
	return ""
}
