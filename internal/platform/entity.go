package platform

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Entity is a loosely typed platform record as exchanged over the Admin API.
type Entity map[string]interface{}

// ID returns the "id" attribute.
func (e Entity) ID() string {
	return e.String("id")
}

// String returns a string attribute, or "" when absent.
func (e Entity) String(key string) string {
	return AsString(e[key])
}

// Path resolves a dotted path through nested maps, e.g. "customFields.code".
func Path(m map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = m
	for _, part := range splitPath(path) {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case Entity:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// AsString converts scalars to their string form.
func AsString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// AsFloat converts numeric values, returning false for anything else.
func AsFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

// AsMap returns v as a JSON object.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case Entity:
		return t, true
	}
	return nil, false
}

// AsSlice returns v as a JSON array.
func AsSlice(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []Entity:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	case []map[string]interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}

// IDs collects the "id" attribute of each entity.
func IDs(entities []Entity) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID())
	}
	return out
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

// endpointName maps an entity name to its URL segment (product_media -> product-media).
func endpointName(entity string) string {
	return strings.ReplaceAll(entity, "_", "-")
}
