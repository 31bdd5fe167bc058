package gate

import (
	"context"

	"github.com/gatekeepr/gatekeepr/internal/fieldmap"
)

// RightsProvider resolves per-field grants. GetRights reports "no grant" as
// empty ObjectProperties, not as an error; errors mean the provider itself
// failed and the affected object is skipped.
type RightsProvider interface {
	GetRights(ctx context.Context, applicationID, objectID, identityID, requestedByID string) (ObjectProperties, error)
	Search(ctx context.Context, applicationID, identityID, requestedByID, entityClass string, createdByMyOwn bool, pageSize int) ([]ObjectAccess, error)
}

// RawDataSource supplies the unredacted attributes of an object, including
// at minimum the objectEntityClass field.
type RawDataSource interface {
	Fetch(ctx context.Context, objectID, entityClass string) (fieldmap.Map, error)
}
