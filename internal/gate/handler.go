package gate

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gatekeepr/gatekeepr/internal/access"
	"github.com/gatekeepr/gatekeepr/internal/fieldmap"
	"github.com/gatekeepr/gatekeepr/internal/redact"
)

// ObjectRequestHandler coordinates one access request end to end: counter
// touch, rights lookup, raw-data fetch, redaction, assembly. Failures of the
// external collaborators are isolated per object and never abort the rest of
// a multi-object request.
type ObjectRequestHandler struct {
	rights  RightsProvider
	source  RawDataSource
	engine  *redact.Engine
	counter *access.Counter
	now     func() time.Time
}

func NewObjectRequestHandler(rights RightsProvider, source RawDataSource, engine *redact.Engine, counter *access.Counter) *ObjectRequestHandler {
	return &ObjectRequestHandler{
		rights:  rights,
		source:  source,
		engine:  engine,
		counter: counter,
		now:     time.Now,
	}
}

// HandleRequest processes a single-object, multi-object or class-search
// request. The summary sink may be nil when the caller does not care about
// rule usage.
func (h *ObjectRequestHandler) HandleRequest(ctx context.Context, req *AccessRequest, summary redact.Summary) AccessResponse {
	requestedBy := strings.TrimSpace(req.RequestedByID)
	if requestedBy == "" {
		requestedBy = req.IdentityID
	}

	var objects []AccessibleObject
	switch {
	case len(req.ObjectIDs) > 0:
		for _, objectID := range req.ObjectIDs {
			if obj := h.handleDirect(ctx, req, objectID, requestedBy, summary); obj != nil {
				objects = append(objects, *obj)
			}
		}
	case strings.TrimSpace(req.ObjectID) != "":
		if obj := h.handleDirect(ctx, req, req.ObjectID, requestedBy, summary); obj != nil {
			objects = append(objects, *obj)
		}
	case strings.TrimSpace(req.ObjectEntityClass) != "":
		objects = h.handleSearch(ctx, req, requestedBy, summary)
	}

	return AccessResponse{
		Objects:   objects,
		Status:    "success",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
}

// HandleFiltered runs HandleRequest and strips the response down to the
// redacted data: a single mapping for one object, a list otherwise.
func (h *ObjectRequestHandler) HandleFiltered(ctx context.Context, req *AccessRequest) FilteredAccessResponse {
	summary := redact.NewSummary()
	full := h.HandleRequest(ctx, req, summary)

	filtered := make([]any, 0, len(full.Objects))
	for _, obj := range full.Objects {
		filtered = append(filtered, obj.FilteredData)
	}
	var data any = filtered
	if len(filtered) == 1 {
		data = filtered[0]
	}

	for _, usage := range summary {
		log.Printf("gate: applied rule field=%q action=%q count=%d", usage.Field, usage.Action, usage.Count)
	}

	return FilteredAccessResponse{
		Data:      data,
		Status:    full.Status,
		Message:   full.Message,
		Timestamp: full.Timestamp,
	}
}

func (h *ObjectRequestHandler) handleDirect(ctx context.Context, req *AccessRequest, objectID, requestedBy string, summary redact.Summary) *AccessibleObject {
	h.touch(req, objectID, requestedBy)

	rights, err := h.rights.GetRights(ctx, req.ApplicationID, objectID, req.IdentityID, requestedBy)
	if err != nil {
		log.Printf("gate: rights lookup failed for object %q, skipping: %v", objectID, err)
		return nil
	}
	if rights.IsEmpty() {
		log.Printf("gate: no access rights for object %q, identity %q", objectID, req.IdentityID)
		return nil
	}

	raw, err := h.source.Fetch(ctx, objectID, req.ObjectEntityClass)
	if err != nil {
		log.Printf("gate: raw data fetch failed for object %q, skipping: %v", objectID, err)
		return nil
	}

	return h.buildAccessible(req, objectID, req.ObjectEntityClass, rights, raw, summary)
}

func (h *ObjectRequestHandler) handleSearch(ctx context.Context, req *AccessRequest, requestedBy string, summary redact.Summary) []AccessibleObject {
	ownedOnly := true
	if req.CreatedByMyOwn != nil {
		ownedOnly = *req.CreatedByMyOwn
	}

	accessList, err := h.rights.Search(ctx, req.ApplicationID, req.IdentityID, requestedBy, req.ObjectEntityClass, ownedOnly, req.PageSize)
	if err != nil {
		log.Printf("gate: search failed for class %q: %v", req.ObjectEntityClass, err)
		return nil
	}

	// Every object in the same search is matched against the same
	// objectCount.
	if req.Context == nil {
		req.Context = make(map[string]any)
	}
	req.Context["objectCount"] = len(accessList)

	var results []AccessibleObject
	for _, oa := range accessList {
		if oa.ObjectProperties.IsEmpty() {
			continue
		}
		h.touch(req, oa.ObjectID, requestedBy)

		raw, err := h.source.Fetch(ctx, oa.ObjectID, req.ObjectEntityClass)
		if err != nil {
			log.Printf("gate: raw data fetch failed for object %q, skipping: %v", oa.ObjectID, err)
			continue
		}
		if obj := h.buildAccessible(req, oa.ObjectID, req.ObjectEntityClass, oa.ObjectProperties, raw, summary); obj != nil {
			results = append(results, *obj)
		}
	}
	return results
}

// touch records the access and exposes the fresh count to rule matching
// before the object is processed.
func (h *ObjectRequestHandler) touch(req *AccessRequest, objectID, requestedBy string) {
	count := h.counter.Touch(req.IdentityID, requestedBy, objectID, h.now())
	if req.Context == nil {
		req.Context = make(map[string]any)
	}
	req.Context["accessCount"] = count
}

func (h *ObjectRequestHandler) buildAccessible(req *AccessRequest, objectID, entityClass string, rights ObjectProperties, raw fieldmap.Map, summary redact.Summary) *AccessibleObject {
	filtered := h.engine.FilterAndTransform(raw, rights.ReadProperties, rights.DigitsAccess, req.Context, summary)
	return &AccessibleObject{
		ApplicationID:     req.ApplicationID,
		ObjectID:          objectID,
		ObjectEntityClass: entityClass,
		IdentityID:        req.IdentityID,
		ObjectProperties:  rights,
		FilteredData:      filtered,
	}
}
