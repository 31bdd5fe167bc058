package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Condition is the parsed form of a rule's trigger. Each recognized key of
// the raw mapping becomes its own typed member; keys the catalog does not
// recognize stay in Raw and are ignored at match time. A condition with no
// keys at all never matches: every rule must declare at least one trigger.
type Condition struct {
	// Raw is the condition as it appeared in the rule file, kept for
	// usage reporting.
	Raw map[string]any

	Time        *TimeWindow
	Context     *ContextMatch
	AccessCount *NumericBound
	ObjectCount *NumericBound
	Always      *AlwaysFlag
	Expr        *ExprCond
}

func (c Condition) IsEmpty() bool { return len(c.Raw) == 0 }

// TimeWindow bounds a rule to a local wall-clock interval. After and Before
// are seconds since midnight; comparison is strict, so the boundary instants
// themselves do not match.
type TimeWindow struct {
	After     *int
	Before    *int
	Malformed bool
}

// ContextMatch requires the request context to carry every listed key with
// the exact stringified value.
type ContextMatch struct {
	Required  map[string]string
	Malformed bool
}

// NumericBound compares an integer context value against optional bounds.
// Malformed is set when a bound value in the rule file cannot be read as an
// integer; a malformed bound fails the rule, never passes it.
type NumericBound struct {
	GreaterThan *int
	LessThan    *int
	Equals      *int
	Malformed   bool
}

// AlwaysFlag matches only when the rule file holds the boolean true; any
// other value contributes false.
type AlwaysFlag struct {
	Value bool
}

// ExprCond is a CEL expression over the variable ctx, a map of the
// stringified request context.
type ExprCond struct {
	Source    string
	Malformed bool
}

// ParseCondition builds the tagged representation of a raw condition
// mapping. Parsing is lenient: structurally broken sub-conditions are kept
// with their Malformed flag set so the matcher can fail them instead of the
// whole catalog load.
func ParseCondition(raw map[string]any) Condition {
	c := Condition{Raw: raw}
	if v, ok := raw["time"]; ok {
		c.Time = parseTimeWindow(v)
	}
	if v, ok := raw["context"]; ok {
		c.Context = parseContextMatch(v)
	}
	if v, ok := raw["accessCount"]; ok {
		c.AccessCount = parseNumericBound(v)
	}
	if v, ok := raw["objectCount"]; ok {
		c.ObjectCount = parseNumericBound(v)
	}
	if v, ok := raw["always"]; ok {
		b, isBool := v.(bool)
		c.Always = &AlwaysFlag{Value: isBool && b}
	}
	if v, ok := raw["expr"]; ok {
		s, isStr := v.(string)
		c.Expr = &ExprCond{Source: s, Malformed: !isStr || strings.TrimSpace(s) == ""}
	}
	return c
}

func parseTimeWindow(v any) *TimeWindow {
	m, ok := v.(map[string]any)
	if !ok {
		return &TimeWindow{Malformed: true}
	}
	w := &TimeWindow{}
	if raw, ok := m["after"]; ok {
		w.After = parseDayTime(raw)
		if w.After == nil {
			w.Malformed = true
		}
	}
	if raw, ok := m["before"]; ok {
		w.Before = parseDayTime(raw)
		if w.Before == nil {
			w.Malformed = true
		}
	}
	return w
}

func parseDayTime(v any) *int {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			sec := t.Hour()*3600 + t.Minute()*60 + t.Second()
			return &sec
		}
	}
	return nil
}

func parseContextMatch(v any) *ContextMatch {
	m, ok := v.(map[string]any)
	if !ok {
		return &ContextMatch{Malformed: true}
	}
	required := make(map[string]string, len(m))
	for k, val := range m {
		required[k] = fmt.Sprint(val)
	}
	return &ContextMatch{Required: required}
}

func parseNumericBound(v any) *NumericBound {
	m, ok := v.(map[string]any)
	if !ok {
		return &NumericBound{Malformed: true}
	}
	b := &NumericBound{}
	set := func(dst **int, raw any) {
		iv, ok := intFromAny(raw)
		if !ok {
			b.Malformed = true
			return
		}
		*dst = &iv
	}
	if raw, ok := m["greaterThan"]; ok {
		set(&b.GreaterThan, raw)
	}
	if raw, ok := m["lessThan"]; ok {
		set(&b.LessThan, raw)
	}
	if raw, ok := m["equals"]; ok {
		set(&b.Equals, raw)
	}
	return b
}

func intFromAny(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case fmt.Stringer:
		n, err := strconv.Atoi(t.String())
		return n, err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}
