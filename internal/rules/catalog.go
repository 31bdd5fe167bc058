package rules

import "sync/atomic"

// Catalog holds the current rule list. Replace swaps the whole snapshot
// atomically: readers see either the old generation or the new one, never a
// partially updated list, and neither side blocks the other.
type Catalog struct {
	snapshot atomic.Pointer[[]Rule]
}

func NewCatalog() *Catalog {
	c := &Catalog{}
	empty := []Rule{}
	c.snapshot.Store(&empty)
	return c
}

// Rules returns the current snapshot. The returned slice must be treated as
// read-only.
func (c *Catalog) Rules() []Rule {
	return *c.snapshot.Load()
}

// Replace installs a new generation. The input is copied so later caller
// mutations cannot leak into a published snapshot.
func (c *Catalog) Replace(rules []Rule) {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	c.snapshot.Store(&cp)
}

func (c *Catalog) Len() int {
	return len(c.Rules())
}
