// Package hit models result records returned by the predictive database
// and the confidence rules applied to them.
package hit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Well-known hit keys.
const (
	KeyProbability = "$p"
	KeyScore       = "$score"
	KeySimilarity  = "$similarity"
	KeyValue       = "$value"
	KeyWhy         = "$why"
	KeyFrequency   = "$f"
	KeyFeature     = "feature"
	KeyLift        = "lift"
	KeyRelated     = "related"
	KeyID          = "id"
)

// Hit is a single result record. Its shape depends on the query that produced it.
type Hit map[string]any

// Float returns a numeric field. JSON numbers, numeric strings and booleans are accepted.
func (h Hit) Float(key string) (float64, bool) {
	switch v := h[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// String returns a field rendered as text. Missing and null fields yield "".
func (h Hit) String(key string) string {
	v, ok := h[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Has reports whether the field is present and non-null.
func (h Hit) Has(key string) bool {
	v, ok := h[key]
	return ok && v != nil
}

// Probability returns $p, or 0 when absent.
func (h Hit) Probability() float64 {
	p, _ := h.Float(KeyProbability)
	return p
}

// Score returns $score, or 0 when absent.
func (h Hit) Score() float64 {
	s, _ := h.Float(KeyScore)
	return s
}

// Lift returns lift, or 0 when absent.
func (h Hit) Lift() float64 {
	l, _ := h.Float(KeyLift)
	return l
}

// Frequency returns $f, or 0 when absent.
func (h Hit) Frequency() float64 {
	f, _ := h.Float(KeyFrequency)
	return f
}

// Label returns the predicted label: feature, else $value, else id.
func (h Hit) Label() string {
	for _, k := range []string{KeyFeature, KeyValue, KeyID} {
		if h.Has(k) {
			return h.String(k)
		}
	}
	return ""
}

// Object returns a nested object field.
func (h Hit) Object(key string) (Hit, bool) {
	switch v := h[key].(type) {
	case map[string]any:
		return Hit(v), true
	case Hit:
		return v, true
	default:
		return nil, false
	}
}

// Path walks nested objects, e.g. Path("related", "purchases", "$has").
func (h Hit) Path(keys ...string) (any, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	cur := h
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur.Object(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	v, ok := cur[keys[len(keys)-1]]
	return v, ok
}

// Linked reads a linked field selected as "a.b". It may come back nested
// or under the dotted key.
func (h Hit) Linked(path string) string {
	if v, ok := h.Path(strings.Split(path, ".")...); ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return h.String(path)
}
