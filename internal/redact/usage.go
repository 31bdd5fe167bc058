package redact

// RuleUsage accumulates how often one (field, action) pair fired during a
// single request or caller-supplied summary scope.
type RuleUsage struct {
	Field     string         `json:"field"`
	Action    string         `json:"action"`
	Condition map[string]any `json:"condition,omitempty"`
	Count     int            `json:"count"`
}

// Summary tracks rule applications keyed by field + "::" + action. It is
// request-scoped and not safe for concurrent use.
type Summary map[string]*RuleUsage

func NewSummary() Summary { return make(Summary) }

func (s Summary) Track(fieldKey, action string, condition map[string]any) {
	if s == nil {
		return
	}
	key := fieldKey + "::" + action
	usage, ok := s[key]
	if !ok {
		usage = &RuleUsage{Field: fieldKey, Action: action, Condition: condition}
		s[key] = usage
	}
	usage.Count++
}
