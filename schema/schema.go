// Package schema models per-intent extraction schemas as explicit recursive
// field trees and extracts structured values against them, accumulating
// anomalies instead of failing.
package schema

import (
	"fmt"
	"math"
	"sort"
)

// Kind enumerates the value kinds a field can declare.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindList
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindList:
		return "list"
	case KindStruct:
		return "dict"
	default:
		return "unknown"
	}
}

// Field declares one schema entry. Fields is set for KindStruct, Item for
// KindList. Declaration order is preserved, so anomaly output is
// deterministic.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Fields   []Field // nested fields when Kind == KindStruct
	Item     *Field  // item schema when Kind == KindList
}

// Result carries the extracted value mirroring the input shape plus every
// anomaly encountered. Anomalies never replace extracted data.
type Result struct {
	Extracted map[string]any
	Anomalies []string
}

// Extract validates value against the declared fields. Missing required
// fields, kind mismatches, non-dict list items, and undeclared keys are
// recorded as anomalies; present values are always copied through.
func Extract(value map[string]any, fields []Field) *Result {
	res := &Result{Extracted: make(map[string]any, len(fields))}
	extractInto(value, fields, "", res)
	return res
}

func extractInto(value map[string]any, fields []Field, prefix string, res *Result) {
	declared := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		declared[f.Name] = struct{}{}

		v, ok := value[f.Name]
		if !ok {
			if f.Required {
				res.Anomalies = append(res.Anomalies,
					fmt.Sprintf("%smissing required field '%s'", prefix, f.Name))
			}
			continue
		}

		if actual := kindOf(v); !kindMatches(f.Kind, v) {
			res.Anomalies = append(res.Anomalies,
				fmt.Sprintf("%sfield '%s' expected %s, got %s", prefix, f.Name, f.Kind, actual))
		}

		switch {
		case f.Kind == KindList && f.Item != nil:
			if items, ok := v.([]any); ok {
				res.Extracted[f.Name] = extractList(items, f, prefix, res)
				continue
			}
		case f.Kind == KindStruct && len(f.Fields) > 0:
			if nested, ok := v.(map[string]any); ok {
				sub := &Result{Extracted: make(map[string]any, len(f.Fields))}
				extractInto(nested, f.Fields, fmt.Sprintf("%sfield '%s': ", prefix, f.Name), sub)
				res.Extracted[f.Name] = sub.Extracted
				res.Anomalies = append(res.Anomalies, sub.Anomalies...)
				continue
			}
		}
		// Mismatched or scalar values are copied through unchanged.
		res.Extracted[f.Name] = v
	}

	// Undeclared keys are anomalies, reported in stable order.
	extra := make([]string, 0)
	for key := range value {
		if _, ok := declared[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		res.Anomalies = append(res.Anomalies,
			fmt.Sprintf("%sunexpected field '%s'", prefix, key))
	}
}

func extractList(items []any, f Field, prefix string, res *Result) []any {
	out := make([]any, 0, len(items))
	for i, item := range items {
		if f.Item.Kind == KindStruct {
			nested, ok := item.(map[string]any)
			if !ok {
				res.Anomalies = append(res.Anomalies,
					fmt.Sprintf("%sitem %d in list '%s' is not a dict", prefix, i, f.Name))
				out = append(out, item)
				continue
			}
			sub := &Result{Extracted: make(map[string]any, len(f.Item.Fields))}
			extractInto(nested, f.Item.Fields, "", sub)
			out = append(out, sub.Extracted)
			for _, anom := range sub.Anomalies {
				res.Anomalies = append(res.Anomalies,
					fmt.Sprintf("%sitem %d in list '%s': %s", prefix, i, f.Name, anom))
			}
			continue
		}

		if !kindMatches(f.Item.Kind, item) {
			res.Anomalies = append(res.Anomalies,
				fmt.Sprintf("%sitem %d in list '%s' expected %s, got %s",
					prefix, i, f.Name, f.Item.Kind, kindOf(item)))
		}
		out = append(out, item)
	}
	return out
}

func kindMatches(k Kind, v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindInteger:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			// JSON numbers decode to float64; whole values count as integers.
			return n == math.Trunc(n)
		}
		return false
	case KindList:
		_, ok := v.([]any)
		return ok
	case KindStruct:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

func kindOf(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64:
		return "integer"
	case float64:
		if n == math.Trunc(n) {
			return "integer"
		}
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "dict"
	default:
		return fmt.Sprintf("%T", v)
	}
}
