package redact

import "sort"

// DigitRange is a 1-based inclusive span of character positions within a
// field value that may be disclosed unmasked. From and To arrive in no
// guaranteed direction.
type DigitRange struct {
	From int `json:"readableDigitsFrom"`
	To   int `json:"readableDigitsTo"`
}

// DigitAccess grants partial visibility on one field.
type DigitAccess struct {
	Property       string       `json:"property"`
	ReadableDigits []DigitRange `json:"readableDigits"`
}

// MergeRanges normalizes, sorts and folds a range list into the minimal
// sorted set of non-overlapping spans. Touching ranges coalesce: a gap of
// exactly one position merges, a larger gap does not.
func MergeRanges(ranges []DigitRange) []DigitRange {
	if len(ranges) == 0 {
		return nil
	}
	norm := make([]DigitRange, 0, len(ranges))
	for _, r := range ranges {
		if r.From > r.To {
			r.From, r.To = r.To, r.From
		}
		norm = append(norm, r)
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i].From < norm[j].From })

	merged := norm[:1]
	for _, cur := range norm[1:] {
		last := &merged[len(merged)-1]
		if cur.From <= last.To+1 {
			if cur.To > last.To {
				last.To = cur.To
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

// MergeDigitAccess folds grant entries into a per-field merged range map.
// Fields with no ranges are dropped.
func MergeDigitAccess(entries []DigitAccess) map[string][]DigitRange {
	if len(entries) == 0 {
		return nil
	}
	collected := make(map[string][]DigitRange)
	for _, e := range entries {
		if len(e.ReadableDigits) == 0 {
			continue
		}
		collected[e.Property] = append(collected[e.Property], e.ReadableDigits...)
	}
	for field, ranges := range collected {
		collected[field] = MergeRanges(ranges)
	}
	return collected
}
