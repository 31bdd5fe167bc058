package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Actions a rule may apply to a field. An unrecognized action value is a
// no-op on the value but is still tracked in the usage summary.
const (
	ActionRemove       = "remove"
	ActionMask         = "mask"
	ActionPseudonymize = "pseudonymize"
	ActionGeneralize   = "generalize"
	ActionNone         = "none"
)

// Rule is one condition-guarded action on a field. Field is either
// qualified ("vehicle.licensePlate") or bare ("licensePlate"). Rules are
// immutable once loaded; a reload replaces the whole catalog snapshot.
type Rule struct {
	Field      string
	Action     string
	Condition  Condition
	Parameters map[string]any
}

// ParseRules decodes a JSON array of rule definitions. A structurally
// unreadable file is rejected wholesale so the catalog can keep its
// last-known-good snapshot; per-condition oddities are kept as malformed
// sub-conditions that simply never match.
func ParseRules(data []byte) ([]Rule, error) {
	var raw []struct {
		Field      string         `json:"field"`
		Action     string         `json:"action"`
		Condition  map[string]any `json:"condition"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	out := make([]Rule, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.Field) == "" {
			return nil, fmt.Errorf("rules: entry %d has no field", i)
		}
		out = append(out, Rule{
			Field:      r.Field,
			Action:     r.Action,
			Condition:  ParseCondition(r.Condition),
			Parameters: r.Parameters,
		})
	}
	return out, nil
}
