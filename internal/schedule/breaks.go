package schedule

import "encoding/json"

// NormalizeBreaks turns loosely typed break data into a BreakMap that holds
// every weekday. Entries without both a start and an end are dropped.
func NormalizeBreaks(raw any) BreakMap {
	out := make(BreakMap, len(Weekdays))
	for _, day := range Weekdays {
		out[day] = []BreakWindow{}
	}

	switch src := raw.(type) {
	case BreakMap:
		for _, day := range Weekdays {
			out[day] = appendValid(out[day], src[day])
		}
	case map[string][]BreakWindow:
		for _, day := range Weekdays {
			out[day] = appendValid(out[day], src[day])
		}
	case map[string]any:
		for _, day := range Weekdays {
			entries, ok := src[day].([]any)
			if !ok {
				continue
			}
			for _, e := range entries {
				if w, ok := windowFromAny(e); ok {
					out[day] = append(out[day], w)
				}
			}
		}
	}

	return out
}

// DecodeBreaks normalizes JSON break data. Corrupt input yields an empty map.
func DecodeBreaks(data []byte) BreakMap {
	if len(data) == 0 {
		return NormalizeBreaks(nil)
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return NormalizeBreaks(nil)
	}
	return NormalizeBreaks(raw)
}

func appendValid(dst, src []BreakWindow) []BreakWindow {
	for _, w := range src {
		if w.StartTime != "" && w.EndTime != "" {
			dst = append(dst, w)
		}
	}
	return dst
}

func windowFromAny(v any) (BreakWindow, bool) {
	switch e := v.(type) {
	case BreakWindow:
		return e, e.StartTime != "" && e.EndTime != ""
	case map[string]any:
		start, _ := e["startTime"].(string)
		end, _ := e["endTime"].(string)
		if start == "" || end == "" {
			return BreakWindow{}, false
		}
		return BreakWindow{StartTime: start, EndTime: end}, true
	}
	return BreakWindow{}, false
}
