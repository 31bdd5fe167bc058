package rules

import (
	"testing"
	"time"
)

func fixedMatcher(t *testing.T, clock string, catalogRules ...Rule) *Matcher {
	t.Helper()
	cat := NewCatalog()
	cat.Replace(catalogRules)
	m := NewMatcher(cat)
	if m.envErr != nil {
		t.Fatalf("cel env: %v", m.envErr)
	}
	at, err := time.Parse("15:04:05", clock)
	if err != nil {
		t.Fatalf("bad clock: %v", err)
	}
	m.now = func() time.Time { return at }
	return m
}

func TestMatches_EmptyConditionNeverMatches(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	if m.Matches(ParseCondition(nil), map[string]any{"anything": 1}) {
		t.Fatal("empty condition matched")
	}
}

func TestMatches_TimeWindow(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	cases := []struct {
		name string
		raw  string
		want bool
	}{
		{"inside window", `{"time":{"after":"08:00","before":"18:00"}}`, true},
		{"before window", `{"time":{"after":"13:00"}}`, false},
		{"after window", `{"time":{"before":"11:00"}}`, false},
		{"boundary after excluded", `{"time":{"after":"12:00:00"}}`, false},
		{"boundary before excluded", `{"time":{"before":"12:00:00"}}`, false},
		{"no bounds", `{"time":{}}`, true},
		{"malformed never matches", `{"time":{"after":"noon"}}`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Matches(condFromJSON(t, tc.raw), nil); got != tc.want {
				t.Fatalf("got=%v", got)
			}
		})
	}
}

func TestMatches_ContextShortCircuits(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	cond := condFromJSON(t, `{"context":{"region":"EU"}}`)

	if m.Matches(cond, nil) {
		t.Fatal("matched with no request context")
	}
	if m.Matches(cond, map[string]any{"region": "US"}) {
		t.Fatal("matched with wrong value")
	}
	if m.Matches(cond, map[string]any{"other": "EU"}) {
		t.Fatal("matched with missing key")
	}
	if !m.Matches(cond, map[string]any{"region": "EU"}) {
		t.Fatal("exact match failed")
	}
	// Stringified comparison: numeric context value against string rule value.
	if !m.Matches(condFromJSON(t, `{"context":{"tier":"2"}}`), map[string]any{"tier": 2}) {
		t.Fatal("stringified comparison failed")
	}
}

// A failed context requirement defeats the rule even when an AND-combined
// key already contributed true. This asymmetry is load-bearing.
func TestMatches_ContextFailureBeatsAlwaysTrue(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	cond := condFromJSON(t, `{"always":true,"context":{"region":"EU"}}`)
	if m.Matches(cond, map[string]any{"region": "US"}) {
		t.Fatal("context failure did not defeat always:true")
	}
}

func TestMatches_AccessCountBounds(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	cond := condFromJSON(t, `{"accessCount":{"greaterThan":5}}`)

	if m.Matches(cond, map[string]any{"accessCount": 5}) {
		t.Fatal("5 > 5 held")
	}
	if !m.Matches(cond, map[string]any{"accessCount": 6}) {
		t.Fatal("6 > 5 failed")
	}
	if m.Matches(cond, map[string]any{}) {
		t.Fatal("missing accessCount matched")
	}
	if m.Matches(cond, map[string]any{"accessCount": "several"}) {
		t.Fatal("unparsable accessCount matched")
	}

	lt := condFromJSON(t, `{"objectCount":{"lessThan":3}}`)
	if !m.Matches(lt, map[string]any{"objectCount": 2}) {
		t.Fatal("2 < 3 failed")
	}
	if m.Matches(lt, map[string]any{"objectCount": 3}) {
		t.Fatal("3 < 3 held")
	}

	eq := condFromJSON(t, `{"accessCount":{"equals":4}}`)
	if !m.Matches(eq, map[string]any{"accessCount": "4"}) {
		t.Fatal("string context value should parse")
	}
	if m.Matches(eq, map[string]any{"accessCount": 5}) {
		t.Fatal("5 == 4 held")
	}
}

func TestMatches_MalformedBoundFailsClosed(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	cond := condFromJSON(t, `{"accessCount":{"greaterThan":"many"}}`)
	if m.Matches(cond, map[string]any{"accessCount": 100}) {
		t.Fatal("malformed bound matched")
	}
}

func TestMatches_Always(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	if !m.Matches(condFromJSON(t, `{"always":true}`), nil) {
		t.Fatal("always:true failed")
	}
	if m.Matches(condFromJSON(t, `{"always":"true"}`), nil) {
		t.Fatal("always:\"true\" matched")
	}
}

func TestMatches_TimeAndAlwaysAreConjoined(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	cond := condFromJSON(t, `{"time":{"after":"13:00"},"always":true}`)
	if m.Matches(cond, nil) {
		t.Fatal("failed time bound did not defeat always:true")
	}
}

func TestMatches_Expr(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")

	if !m.Matches(condFromJSON(t, `{"expr":"ctx['region'] == 'EU'"}`), map[string]any{"region": "EU"}) {
		t.Fatal("expr match failed")
	}
	if m.Matches(condFromJSON(t, `{"expr":"ctx['region'] == 'EU'"}`), map[string]any{"region": "US"}) {
		t.Fatal("expr mismatch matched")
	}
	// Context values are stringified before evaluation.
	if !m.Matches(condFromJSON(t, `{"expr":"ctx['accessCount'] == '3'"}`), map[string]any{"accessCount": 3}) {
		t.Fatal("stringified expr context failed")
	}
	// Compile errors and missing keys fail the rule, never pass it.
	if m.Matches(condFromJSON(t, `{"expr":"ctx['region'] =="}`), map[string]any{"region": "EU"}) {
		t.Fatal("broken expression matched")
	}
	if m.Matches(condFromJSON(t, `{"expr":"ctx['missing'] == 'x'"}`), map[string]any{}) {
		t.Fatal("missing key matched")
	}
	// Non-boolean result is a non-match.
	if m.Matches(condFromJSON(t, `{"expr":"ctx['region']"}`), map[string]any{"region": "EU"}) {
		t.Fatal("non-boolean expr matched")
	}
}

func TestMatches_ExprProgramCacheReused(t *testing.T) {
	m := fixedMatcher(t, "12:00:00")
	cond := condFromJSON(t, `{"expr":"ctx['region'] == 'EU'"}`)
	ctx := map[string]any{"region": "EU"}
	if !m.Matches(cond, ctx) || !m.Matches(cond, ctx) {
		t.Fatal("repeat evaluation failed")
	}
	if _, ok := m.programs.Load(cond.Expr.Source); !ok {
		t.Fatal("program not cached")
	}
}

func TestMatchingRules_PreservesCatalogOrder(t *testing.T) {
	always := ParseCondition(map[string]any{"always": true})
	never := ParseCondition(map[string]any{"always": false})
	m := fixedMatcher(t, "12:00:00",
		Rule{Field: "a", Action: ActionMask, Condition: always},
		Rule{Field: "b", Action: ActionRemove, Condition: never},
		Rule{Field: "c", Action: ActionNone, Condition: always},
	)
	got := m.MatchingRules(map[string]any{})
	if len(got) != 2 || got[0].Field != "a" || got[1].Field != "c" {
		t.Fatalf("got=%v", got)
	}
}
