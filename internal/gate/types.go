package gate

import (
	"time"

	"github.com/gatekeepr/gatekeepr/internal/fieldmap"
	"github.com/gatekeepr/gatekeepr/internal/redact"
)

// AccessRequest carries everything needed to resolve and redact one or more
// objects. Context is owned by this request; the handler writes the
// synthetic accessCount and objectCount keys into it before rule matching.
type AccessRequest struct {
	ApplicationID     string         `json:"applicationId"`
	IdentityID        string         `json:"identityId"`
	RequestedByID     string         `json:"requestedById"`
	ObjectID          string         `json:"objectId"`
	ObjectIDs         []string       `json:"objectIds"`
	ObjectEntityClass string         `json:"objectEntityClass"`
	Context           map[string]any `json:"context"`
	CreatedByMyOwn    *bool          `json:"createdByMyOwn"`
	PageSize          int            `json:"pageSize"`
}

// ObjectProperties is the per-object, per-identity grant supplied by the
// rights provider: field sets per permission plus digit-level visibility.
type ObjectProperties struct {
	ReadProperties       []string             `json:"readProperties"`
	WriteProperties      []string             `json:"writeProperties"`
	ShareReadProperties  []string             `json:"shareReadProperties"`
	ShareWriteProperties []string             `json:"shareWriteProperties"`
	DigitsAccess         []redact.DigitAccess `json:"digitsAccess"`
}

// IsEmpty is the "no grant" sentinel: without readable fields the object is
// omitted from the response entirely.
func (p ObjectProperties) IsEmpty() bool {
	return len(p.ReadProperties) == 0
}

// ObjectAccess is one search result: an object paired with the rights the
// identity holds on it.
type ObjectAccess struct {
	ApplicationID     string           `json:"applicationId"`
	ObjectID          string           `json:"objectId"`
	ObjectEntityClass string           `json:"objectEntityClass"`
	IdentityID        string           `json:"identityId"`
	ObjectProperties  ObjectProperties `json:"objectProperties"`
}

// AccessibleObject is one fully processed result: the grant that admitted
// it plus the redacted field data.
type AccessibleObject struct {
	ApplicationID     string           `json:"applicationId"`
	ObjectID          string           `json:"objectId"`
	ObjectEntityClass string           `json:"objectEntityClass"`
	IdentityID        string           `json:"identityId"`
	ObjectProperties  ObjectProperties `json:"objectProperties"`
	FilteredData      fieldmap.Map     `json:"filteredData"`
}

type AccessResponse struct {
	Objects   []AccessibleObject `json:"objects"`
	Status    string             `json:"status"`
	Message   string             `json:"message,omitempty"`
	Timestamp string             `json:"timestamp"`
}

type FilteredAccessResponse struct {
	Data      any    `json:"data"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func ErrorResponse(msg string) AccessResponse {
	return AccessResponse{Status: "error", Message: msg, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func FilteredErrorResponse(msg string) FilteredAccessResponse {
	return FilteredAccessResponse{Status: "error", Message: msg, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}
