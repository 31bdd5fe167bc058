package rules

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
)

// Matcher evaluates rule conditions against a request context.
//
// Combination semantics are deliberately uneven and must stay that way:
// time, always and expr AND into a running flag, while context, accessCount
// and objectCount fail the rule immediately when violated. The difference
// is observable when a short-circuit key fails after an AND key already
// contributed true.
type Matcher struct {
	catalog *Catalog
	now     func() time.Time

	env      *cel.Env
	envErr   error
	programs sync.Map // expression source -> cel.Program
}

func NewMatcher(catalog *Catalog) *Matcher {
	env, err := cel.NewEnv(cel.Variable("ctx", cel.MapType(cel.StringType, cel.StringType)))
	return &Matcher{
		catalog: catalog,
		now:     time.Now,
		env:     env,
		envErr:  err,
	}
}

// MatchingRules returns the subset of the current catalog snapshot whose
// conditions hold for the given context, in catalog order.
func (m *Matcher) MatchingRules(reqCtx map[string]any) []Rule {
	snapshot := m.catalog.Rules()
	var out []Rule
	for _, r := range snapshot {
		if m.Matches(r.Condition, reqCtx) {
			out = append(out, r)
		}
	}
	return out
}

func (m *Matcher) Matches(c Condition, reqCtx map[string]any) bool {
	if c.IsEmpty() {
		return false
	}

	matched := true

	if c.Time != nil {
		if c.Time.Malformed {
			matched = false
		} else {
			now := secondsOfDay(m.now())
			afterOK := c.Time.After == nil || now > *c.Time.After
			beforeOK := c.Time.Before == nil || now < *c.Time.Before
			matched = matched && afterOK && beforeOK
		}
	}

	if c.Context != nil {
		if c.Context.Malformed || reqCtx == nil {
			return false
		}
		for key, want := range c.Context.Required {
			got, ok := reqCtx[key]
			if !ok || got == nil || fmt.Sprint(got) != want {
				return false
			}
		}
	}

	if c.AccessCount != nil && !boundHolds(c.AccessCount, reqCtx, "accessCount") {
		return false
	}
	if c.ObjectCount != nil && !boundHolds(c.ObjectCount, reqCtx, "objectCount") {
		return false
	}

	if c.Always != nil {
		matched = matched && c.Always.Value
	}

	if c.Expr != nil {
		matched = matched && m.evalExpr(c.Expr, reqCtx)
	}

	return matched
}

// boundHolds requires the named context value to exist and parse as an
// integer; a missing key, an unparsable value or any violated bound fails.
func boundHolds(b *NumericBound, reqCtx map[string]any, key string) bool {
	if b.Malformed || reqCtx == nil {
		return false
	}
	raw, ok := reqCtx[key]
	if !ok || raw == nil {
		return false
	}
	actual, ok := intFromAny(raw)
	if !ok {
		return false
	}
	if b.GreaterThan != nil && actual <= *b.GreaterThan {
		return false
	}
	if b.LessThan != nil && actual >= *b.LessThan {
		return false
	}
	if b.Equals != nil && actual != *b.Equals {
		return false
	}
	return true
}

func (m *Matcher) evalExpr(e *ExprCond, reqCtx map[string]any) bool {
	if e.Malformed || m.envErr != nil {
		return false
	}
	prog, ok := m.cachedProgram(e.Source)
	if !ok {
		return false
	}

	strCtx := make(map[string]string, len(reqCtx))
	for k, v := range reqCtx {
		if v != nil {
			strCtx[k] = fmt.Sprint(v)
		}
	}

	out, _, err := prog.Eval(map[string]any{"ctx": strCtx})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func (m *Matcher) cachedProgram(source string) (cel.Program, bool) {
	if cached, ok := m.programs.Load(source); ok {
		return cached.(cel.Program), true
	}
	ast, iss := m.env.Compile(source)
	if iss != nil && iss.Err() != nil {
		return nil, false
	}
	prog, err := m.env.Program(ast)
	if err != nil {
		return nil, false
	}
	m.programs.Store(source, prog)
	return prog, true
}

func secondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
