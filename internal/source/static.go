// Package source provides the raw object data backends. The handler only
// ever sees the RawDataSource port; which backend serves it is a deployment
// concern.
package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gatekeepr/gatekeepr/internal/fieldmap"
	"github.com/gatekeepr/gatekeepr/pkg/httperr"
)

type datasetObject struct {
	ObjectID          string       `yaml:"objectId"`
	ObjectEntityClass string       `yaml:"objectEntityClass"`
	Attributes        fieldmap.Map `yaml:"attributes"`
}

type dataset struct {
	Objects []datasetObject `yaml:"objects"`
}

// Static serves objects from a YAML dataset loaded once at startup. Meant
// for demos and tests, where running Postgres is more ceremony than the
// data deserves.
type Static struct {
	objects map[string]datasetObject
}

func NewStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read dataset: %w", err)
	}
	var ds dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("source: parse dataset: %w", err)
	}

	objects := make(map[string]datasetObject, len(ds.Objects))
	for _, obj := range ds.Objects {
		if strings.TrimSpace(obj.ObjectID) == "" {
			return nil, fmt.Errorf("source: dataset object without objectId")
		}
		objects[obj.ObjectID] = obj
	}
	return &Static{objects: objects}, nil
}

func (s *Static) Fetch(_ context.Context, objectID, entityClass string) (fieldmap.Map, error) {
	obj, ok := s.objects[objectID]
	if !ok {
		return nil, httperr.NewNotFound(fmt.Sprintf("object %q not found", objectID))
	}
	if entityClass != "" && !strings.EqualFold(entityClass, obj.ObjectEntityClass) {
		return nil, httperr.NewNotFound(fmt.Sprintf("object %q not found in class %q", objectID, entityClass))
	}
	return withIdentity(obj.Attributes, obj.ObjectID, obj.ObjectEntityClass), nil
}

// withIdentity front-loads the objectId and objectEntityClass pairs the
// redaction engine keys on, unless the attributes already carry them.
func withIdentity(attrs fieldmap.Map, objectID, entityClass string) fieldmap.Map {
	out := fieldmap.Map{}
	if !attrs.Has("objectId") {
		out.Set("objectId", objectID)
	}
	if entityClass != "" && !attrs.Has("objectEntityClass") {
		out.Set("objectEntityClass", entityClass)
	}
	return append(out, attrs...)
}
