package redact

import (
	"fmt"
	"strings"

	"github.com/gatekeepr/gatekeepr/internal/fieldmap"
	"github.com/gatekeepr/gatekeepr/internal/rules"
)

// Engine applies the per-field redaction pipeline: allow-list filtering,
// digit slicing, then condition-matched rule actions.
type Engine struct {
	matcher *rules.Matcher
}

func NewEngine(matcher *rules.Matcher) *Engine {
	return &Engine{matcher: matcher}
}

// FilterAndTransform walks the raw fields in insertion order and emits the
// redacted result. objectId always passes the allow-list; every other field
// must be granted read access or it is dropped without a usage entry.
//
// Digit slicing runs before rule lookup and independently of it. Rule lookup
// tries the class-qualified key first, then the bare field name. A matching
// "none" rule overrides every other action for that field; "remove" excludes
// the field and stops further rules.
func (e *Engine) FilterAndTransform(
	raw fieldmap.Map,
	allowedRead []string,
	digits []DigitAccess,
	reqCtx map[string]any,
	summary Summary,
) fieldmap.Map {
	objectClass := ""
	if v, ok := raw.Get("objectEntityClass"); ok && v != nil {
		objectClass = strings.ToLower(fmt.Sprint(v))
	}

	matched := e.matcher.MatchingRules(reqCtx)
	perField := make(map[string][]rules.Rule)
	for _, r := range matched {
		perField[r.Field] = append(perField[r.Field], r)
	}

	mergedRanges := MergeDigitAccess(digits)

	allowed := make(map[string]struct{}, len(allowedRead))
	for _, f := range allowedRead {
		allowed[f] = struct{}{}
	}

	out := fieldmap.Map{}
	for _, entry := range raw {
		key, value := entry.Key, entry.Value

		if key != "objectId" {
			if _, ok := allowed[key]; !ok {
				continue
			}
		}

		qualifiedKey := objectClass + "." + key

		if ranges, ok := mergedRanges[key]; ok {
			if s, isString := value.(string); isString && s != "" {
				value = SliceDigits(s, ranges)
				summary.Track(qualifiedKey, "digitSlice", map[string]any{"source": "PM"})
			}
		}

		fieldRules, ok := perField[qualifiedKey]
		if !ok {
			fieldRules = perField[key]
		}

		if hasNoneRule(fieldRules) {
			summary.Track(qualifiedKey, rules.ActionNone, map[string]any{"override": true})
			out = append(out, fieldmap.Entry{Key: key, Value: value})
			continue
		}

		removed := false
		for _, r := range fieldRules {
			summary.Track(qualifiedKey, r.Action, r.Condition.Raw)

			switch r.Action {
			case rules.ActionRemove:
				removed = true
			case rules.ActionMask:
				value = Mask(value)
			case rules.ActionPseudonymize:
				value = Pseudonymize(value, r.Parameters)
			case rules.ActionGeneralize:
				value = Generalize(value, r.Parameters)
			}
			if removed {
				break
			}
		}

		if !removed {
			out = append(out, fieldmap.Entry{Key: key, Value: value})
		}
	}

	return out
}

func hasNoneRule(fieldRules []rules.Rule) bool {
	for _, r := range fieldRules {
		if r.Action == rules.ActionNone {
			return true
		}
	}
	return false
}
