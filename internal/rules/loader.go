package rules

import (
	"os"
)

// Loader reads the rule file and installs the result in the catalog. On any
// read or parse failure the catalog is left untouched, so consumers keep
// the last-known-good snapshot.
type Loader struct {
	path    string
	catalog *Catalog
}

func NewLoader(path string, catalog *Catalog) *Loader {
	return &Loader{path: path, catalog: catalog}
}

func (l *Loader) Path() string { return l.path }

func (l *Loader) Load() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}
	parsed, err := ParseRules(data)
	if err != nil {
		return 0, err
	}
	l.catalog.Replace(parsed)
	return len(parsed), nil
}
