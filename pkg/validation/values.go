package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/formx360/formx/pkg/schema"
)

// isBlank reports whether v carries no answer at all: null or a whitespace-only string.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// isEmpty extends isBlank with empty lists and objects. Zero and false are answers.
func isEmpty(v any) bool {
	if isBlank(v) {
		return true
	}
	switch t := v.(type) {
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// scalarValue is textValue restricted to the shapes an option value can take.
func scalarValue(v any) (string, bool) {
	return textValue(v)
}

func numberValue(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// dateValue parses ISO 8601 dates. Dates without a zone are read as UTC so that bounds and
// answers compare as calendar dates.
func dateValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// upperDateBound parses a max_date rule. A bare calendar date covers that whole day.
func upperDateBound(s string) (time.Time, bool) {
	if d, err := time.Parse(time.DateOnly, strings.TrimSpace(s)); err == nil {
		return d.AddDate(0, 0, 1).Add(-time.Nanosecond), true
	}
	return dateValue(s)
}

func fileValue(v any) (schema.FileValue, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return schema.FileValue{}, false
	}
	var out schema.FileValue
	out.Type, _ = obj["type"].(string)
	out.Name, _ = obj["name"].(string)
	if size, ok := numberValue(obj["size"]); ok {
		out.Size = size
	}
	return out, true
}
