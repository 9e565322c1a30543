package songform

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fields is a sparse partial song keyed by column. A present key with a nil
// value is an explicit null; an absent key leaves the column untouched.
type Fields map[string]any

var (
	textFields = []string{"name", "project_name", "path", "url"}
	dateFields = []string{"due_date", "release_date"}

	truthy = map[string]bool{"1": true, "true": true, "t": true, "yes": true, "y": true, "on": true}
)

// Normalize coerces the scalar song fields present in bag. Reference fields
// are left to Resolve and unknown keys are ignored. Coercion never fails:
// values that cannot be interpreted become null.
func Normalize(bag map[string]any) Fields {
	fields := Fields{}

	for _, key := range textFields {
		if v, ok := bag[key]; ok {
			fields[key] = textValue(v)
		}
	}
	for _, key := range dateFields {
		if v, ok := bag[key]; ok {
			fields[key] = textValue(v)
		}
	}
	if v, ok := bag["rating"]; ok {
		fields["rating"] = ratingValue(v)
	}
	if v, ok := bag["in_album"]; ok {
		fields["in_album"] = boolValue(v)
	}

	return fields
}

// textValue passes strings through and maps falsy input to null.
func textValue(v any) any {
	if isFalsy(v) {
		return nil
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func ratingValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil
		}
		return n
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return n
		}
		f, err := val.Float64()
		if err != nil {
			return nil
		}
		return truncate(f)
	case float64:
		return truncate(val)
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(val)
	case int64:
		return val
	default:
		return nil
	}
}

func truncate(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	return int64(f)
}

func boolValue(v any) bool {
	switch val := v.(type) {
	case string:
		return truthy[strings.ToLower(val)]
	case bool:
		return val
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return n != 0
		}
		f, err := val.Float64()
		return err == nil && int64(f) != 0
	case float64:
		return int64(val) != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	default:
		return !isFalsy(val)
	}
}

// isFalsy reports whether v counts as empty: null, "", false, zero, or an
// empty array or object.
func isFalsy(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case float64:
		return val == 0
	case int:
		return val == 0
	case int64:
		return val == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
