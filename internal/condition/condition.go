// Package condition evaluates boolean gating conditions against document
// data. It is pure and never returns an error: malformed operands degrade
// to false (or contribute 0 to sums) so a broken condition can never be
// mistaken for a satisfied one.
package condition

import (
	"fmt"
	"strconv"
	"strings"
)

type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

type ArrayMode string

const (
	ArrayAny   ArrayMode = "any"
	ArrayAll   ArrayMode = "all"
	ArrayNone  ArrayMode = "none"
	ArrayCount ArrayMode = "count"
	ArraySum   ArrayMode = "sum"
)

// Condition references a field (optionally dotted as "section.field" or
// via an explicit SectionKey) and compares it against Value. With an
// ArrayMode set, the section is treated as a repeatable sub-record list
// and the comparison aggregates over its rows.
type Condition struct {
	Field      string    `json:"field"`
	SectionKey string    `json:"sectionKey,omitempty"`
	Operator   string    `json:"operator"`
	Value      any       `json:"value"`
	ArrayMode  ArrayMode `json:"arrayMode,omitempty"`
}

// Compare evaluates a single comparison. Ordering operators coerce both
// operands to numbers and yield false when either side is non-numeric.
func Compare(left any, operator string, right any) bool {
	switch operator {
	case "=":
		return looseEqual(left, right)
	case "!=":
		return !looseEqual(left, right)
	case "<", "<=", ">", ">=":
		l, lok := toFloat(left)
		r, rok := toFloat(right)
		if !lok || !rok {
			return false
		}
		switch operator {
		case "<":
			return l < r
		case "<=":
			return l <= r
		case ">":
			return l > r
		default:
			return l >= r
		}
	case "in":
		return isMember(left, right)
	case "not_in":
		return !isMember(left, right)
	case "contains":
		return strings.Contains(toString(left), toString(right))
	case "starts_with":
		return strings.HasPrefix(toString(left), toString(right))
	case "ends_with":
		return strings.HasSuffix(toString(left), toString(right))
	}
	return false
}

// Evaluate checks one condition against a data record.
func Evaluate(c Condition, data map[string]any) bool {
	sectionKey := c.SectionKey
	fieldKey := c.Field
	if before, after, found := strings.Cut(c.Field, "."); found {
		sectionKey = before
		fieldKey = after
	}

	operator := c.Operator
	if operator == "" {
		operator = "="
	}

	// Scalar lookup when no repeatable section applies.
	if sectionKey == "" || c.ArrayMode == "" {
		return Compare(data[fieldKey], operator, c.Value)
	}

	rows, ok := data[sectionKey].([]any)
	if !ok {
		return false
	}

	switch c.ArrayMode {
	case ArrayAny:
		for _, row := range rows {
			if Compare(rowField(row, fieldKey), operator, c.Value) {
				return true
			}
		}
		return false

	case ArrayAll:
		// An empty section does not satisfy "all": empty repeatable
		// sections must not vacuously pass approval gates.
		if len(rows) == 0 {
			return false
		}
		for _, row := range rows {
			if !Compare(rowField(row, fieldKey), operator, c.Value) {
				return false
			}
		}
		return true

	case ArrayNone:
		for _, row := range rows {
			if Compare(rowField(row, fieldKey), operator, c.Value) {
				return false
			}
		}
		return true

	case ArrayCount:
		return Compare(len(rows), operator, c.Value)

	case ArraySum:
		var total float64
		for _, row := range rows {
			if v, ok := toFloat(rowField(row, fieldKey)); ok {
				total += v
			}
		}
		return Compare(total, operator, c.Value)
	}

	return false
}

// EvaluateAll combines conditions with and/or logic. An empty list is
// vacuously true.
func EvaluateAll(conditions []Condition, data map[string]any, logic Logic) bool {
	if len(conditions) == 0 {
		return true
	}
	if logic == LogicOr {
		for _, c := range conditions {
			if Evaluate(c, data) {
				return true
			}
		}
		return false
	}
	for _, c := range conditions {
		if !Evaluate(c, data) {
			return false
		}
	}
	return true
}

func rowField(row any, field string) any {
	if m, ok := row.(map[string]any); ok {
		return m[field]
	}
	return nil
}

func looseEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	// JSON decoding yields float64 but in-process callers pass ints;
	// numeric values compare by value regardless of concrete type.
	if l, lok := numericValue(left); lok {
		r, rok := numericValue(right)
		return rok && l == r
	}
	if ls, ok := left.(string); ok {
		rs, rok := right.(string)
		return rok && ls == rs
	}
	if lb, ok := left.(bool); ok {
		rb, rok := right.(bool)
		return rok && lb == rb
	}
	return false
}

func isMember(left, right any) bool {
	switch seq := right.(type) {
	case []any:
		for _, item := range seq {
			if looseEqual(left, item) {
				return true
			}
		}
		return false
	case []string:
		s, ok := left.(string)
		if !ok {
			return false
		}
		for _, item := range seq {
			if s == item {
				return true
			}
		}
		return false
	case string:
		s, ok := left.(string)
		return ok && strings.Contains(seq, s)
	}
	return false
}

// numericValue converts Go numeric types without parsing strings, so "1"
// and 1 stay distinct under equality.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// toFloat additionally parses numeric strings, matching the coercion of
// the ordering operators.
func toFloat(v any) (float64, bool) {
	if f, ok := numericValue(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
