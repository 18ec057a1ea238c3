package legacy

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// record is one loosely typed object from a legacy dump.
type record map[string]any

// str returns the first present key as a string. Numbers are formatted
// without exponent so numeric IDs survive.
func (r record) str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if v != "" {
				return strings.TrimSpace(v)
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

// num returns the first present key as a number; numeric strings are parsed.
func (r record) num(keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := r[k].(type) {
		case float64:
			return v, true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return f, true
			}
		}
	}
	return 0, false
}

func (r record) integer(keys ...string) int {
	v, _ := r.num(keys...)
	return int(v)
}

// minor reads a money field. Numbers are already in minor units; strings
// come from form inputs in major units.
func (r record) minor(keys ...string) int64 {
	for _, k := range keys {
		switch v := r[k].(type) {
		case float64:
			return int64(math.Round(v))
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return int64(math.Round(f * 100))
			}
		}
	}
	return 0
}

// flag reads a boolean under any of keys, falling back to def.
func (r record) flag(def bool, keys ...string) bool {
	for _, k := range keys {
		switch v := r[k].(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		case float64:
			return v != 0
		}
	}
	return def
}

func (r record) object(key string) record {
	if m, ok := r[key].(map[string]any); ok {
		return record(m)
	}
	return nil
}

func (r record) list(keys ...string) []record {
	for _, k := range keys {
		arr, ok := r[k].([]any)
		if !ok {
			continue
		}
		return records(arr)
	}
	return nil
}

func records(arr []any) []record {
	out := make([]record, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			out = append(out, record(m))
		}
	}
	return out
}

// timestamp accepts RFC 3339 strings, plain dates and epoch milliseconds.
func (r record) timestamp(keys ...string) (time.Time, bool) {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, v); err == nil {
					return t.UTC(), true
				}
			}
		case float64:
			if v > 0 {
				return time.UnixMilli(int64(v)).UTC(), true
			}
		}
	}
	return time.Time{}, false
}
