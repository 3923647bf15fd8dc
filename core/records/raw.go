// Package records maps the academic-records backend's loosely typed JSON into the stable shapes served to the UI.
// Nothing in here does I/O; every normalizer is total over a JSON object and defaults absent fields.
package records

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NA is the display value of every absent string field.
const NA = "N/A"

// ErrNotObject is returned when a payload's top-level value is not a JSON object.
var ErrNotObject = errors.New("records: payload is not a JSON object")

// Raw is an upstream JSON object, as decoded by encoding/json.
type Raw map[string]interface{}

// DecodeObject converts an untyped upstream value into a Raw.
// It accepts decoded maps as well as undecoded JSON bytes.
func DecodeObject(v interface{}) (Raw, error) {
	switch t := v.(type) {
	case Raw:
		return t, nil
	case map[string]interface{}:
		return Raw(t), nil
	case json.RawMessage:
		return decodeBytes(t)
	case []byte:
		return decodeBytes(t)
	default:
		return nil, ErrNotObject
	}
}

func decodeBytes(b []byte) (Raw, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(b, &obj); err != nil || obj == nil {
		return nil, ErrNotObject
	}
	return Raw(obj), nil
}

// Unwrap strips the {"data": {...}} envelope some endpoints use.
func Unwrap(raw Raw) Raw {
	if inner, ok := raw["data"].(map[string]interface{}); ok {
		return Raw(inner)
	}
	return raw
}

// List returns the objects of a JSON array, or of an array wrapped as {"data": [...]}. Non-object items are skipped.
func List(v interface{}) []Raw {
	if obj, ok := asObject(v); ok {
		v = obj["data"]
	}
	items, _ := v.([]interface{})
	out := make([]Raw, 0, len(items))
	for _, item := range items {
		if obj, ok := asObject(item); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Lookup resolves a dotted path ("room.building.name", "schedules.0.room_id") inside raw.
func (raw Raw) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(raw)
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case Raw:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// Value returns the first non-null value found at any of paths.
func (raw Raw) Value(paths ...string) interface{} {
	for _, p := range paths {
		if v, ok := raw.Lookup(p); ok {
			return v
		}
	}
	return nil
}

// String returns the first non-blank string (or number, formatted) found at any of paths, else "".
func (raw Raw) String(paths ...string) string {
	for _, p := range paths {
		v, ok := raw.Lookup(p)
		if !ok {
			continue
		}
		if s, ok := asString(v); ok && s != "" {
			return s
		}
	}
	return ""
}

// StringOr is String with a fallback for absence.
func (raw Raw) StringOr(def string, paths ...string) string {
	if s := raw.String(paths...); s != "" {
		return s
	}
	return def
}

// Float returns the first numeric value (JSON number or numeric string) found at any of paths.
func (raw Raw) Float(paths ...string) (float64, bool) {
	for _, p := range paths {
		v, ok := raw.Lookup(p)
		if !ok {
			continue
		}
		if f, ok := asFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// Int is Float truncated to an int.
func (raw Raw) Int(paths ...string) (int, bool) {
	f, ok := raw.Float(paths...)
	return int(f), ok
}

// Bool returns the first boolean-like value (bool, 0/1, "true"/"false"/"1"/"0") found at any of paths.
func (raw Raw) Bool(paths ...string) (bool, bool) {
	for _, p := range paths {
		v, ok := raw.Lookup(p)
		if !ok {
			continue
		}
		if b, ok := asBool(v); ok {
			return b, true
		}
	}
	return false, false
}

// Object returns the object at path, or an empty Raw.
func (raw Raw) Object(path string) Raw {
	v, _ := raw.Lookup(path)
	if obj, ok := asObject(v); ok {
		return obj
	}
	return Raw{}
}

// Objects returns the first array of objects found at any of paths.
// A single object at the path is returned as a one-element list.
func (raw Raw) Objects(paths ...string) []Raw {
	for _, p := range paths {
		v, ok := raw.Lookup(p)
		if !ok {
			continue
		}
		if obj, ok := asObject(v); ok {
			return []Raw{obj}
		}
		if _, ok := v.([]interface{}); ok {
			return List(v)
		}
	}
	return nil
}

func asObject(v interface{}) (Raw, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return Raw(t), true
	case Raw:
		return t, true
	}
	return nil, false
}

func asString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func asBool(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case int:
		return t != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no", "":
			return false, true
		}
	}
	return false, false
}
