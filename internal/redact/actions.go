package redact

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	maskSymbol = '*'
	fullMask   = "***"

	defaultPseudoPrefix = "pseu"
	defaultRoundTo      = 1000
)

// randomInt is swappable for deterministic tests.
var randomInt = func(n int) int { return rand.IntN(n) }

// Mask keeps the first two characters of longer strings and masks up to six
// of the rest; anything of length three or less (or non-string) collapses to
// the fixed three-symbol mask.
func Mask(value any) any {
	s, ok := value.(string)
	if !ok || len(s) <= 3 {
		return fullMask
	}
	masked := min(6, len(s)-2)
	return s[:2] + strings.Repeat(string(maskSymbol), masked)
}

// Pseudonymize replaces the value with prefix + random 0..9999 + suffix.
func Pseudonymize(_ any, params map[string]any) string {
	prefix := paramString(params, "prefix", defaultPseudoPrefix)
	suffix := paramString(params, "suffix", "")
	return prefix + strconv.Itoa(randomInt(10000)) + suffix
}

// Generalize rounds a numeric value down to the nearest multiple of the
// roundTo parameter and renders it as "<rounded>+". Non-numeric values
// collapse to the fixed mask; a missing or malformed roundTo falls back to
// its default instead of failing the field.
func Generalize(value any, params map[string]any) any {
	n, ok := numberValue(value)
	if !ok {
		return fullMask
	}
	roundTo := paramInt(params, "roundTo", defaultRoundTo)
	if roundTo <= 0 {
		roundTo = defaultRoundTo
	}
	rounded := (n / roundTo) * roundTo
	return strconv.Itoa(rounded) + "+"
}

// SliceDigits masks every character of value except the 1-based positions
// covered by the merged ranges, clamped to the string length.
func SliceDigits(value string, ranges []DigitRange) string {
	if value == "" || len(ranges) == 0 {
		return value
	}
	out := []byte(strings.Repeat(string(maskSymbol), len(value)))
	for _, r := range ranges {
		from := max(0, r.From-1)
		to := min(len(value), r.To)
		for i := from; i < to; i++ {
			out[i] = value[i]
		}
	}
	return string(out)
}

// numberValue accepts the numeric shapes a decoded payload can carry.
// Strings are deliberately not numbers here: a string field under a
// generalize rule collapses to the mask.
func numberValue(value any) (int, bool) {
	switch t := value.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

func paramString(params map[string]any, key, def string) string {
	if params == nil {
		return def
	}
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	return fmt.Sprint(v)
}

func paramInt(params map[string]any, key string, def int) int {
	if params == nil {
		return def
	}
	v, ok := params[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n)
		}
		return def
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
		return def
	default:
		return def
	}
}
