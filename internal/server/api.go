package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gatekeepr/gatekeepr/internal/access"
	"github.com/gatekeepr/gatekeepr/internal/gate"
	"github.com/gatekeepr/gatekeepr/internal/redact"
	"github.com/gatekeepr/gatekeepr/internal/routing"
	"github.com/gatekeepr/gatekeepr/internal/rules"
	"github.com/gatekeepr/gatekeepr/pkg/httperr"
)

const maxRequestBody = 1 << 20

type api struct {
	handler     *gate.ObjectRequestHandler
	loader      *rules.Loader
	catalog     *rules.Catalog
	counter     *access.Counter
	application string
}

// decodeRequest reads and validates the access request body. Identity is
// only mandatory for a single-object lookup; multi-object and class-search
// requests may run on requestedById alone, or for search on neither.
func (a *api) decodeRequest(w http.ResponseWriter, r *http.Request) (*gate.AccessRequest, error) {
	var req gate.AccessRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, httperr.NewBadRequest("invalid request body: " + err.Error())
	}
	if req.ApplicationID == "" {
		req.ApplicationID = a.application
	}

	singleObject := strings.TrimSpace(req.ObjectID) != "" && len(req.ObjectIDs) == 0
	hasTarget := strings.TrimSpace(req.ObjectID) != "" ||
		len(req.ObjectIDs) > 0 ||
		strings.TrimSpace(req.ObjectEntityClass) != ""
	if !hasTarget {
		return nil, httperr.NewBadRequest("one of objectId, objectIds or objectEntityClass is required")
	}
	if singleObject && strings.TrimSpace(req.IdentityID) == "" {
		return nil, httperr.NewBadRequest("identityId is required when requesting a single object")
	}
	return &req, nil
}

func (a *api) handleRequest(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeRequest(w, r)
	if err != nil {
		if httperr.IsBadRequest(err) {
			routing.WriteJSON(w, http.StatusBadRequest, gate.ErrorResponse(err.Error()))
			return
		}
		routing.WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	summary := redact.NewSummary()
	resp := a.handler.HandleRequest(r.Context(), req, summary)
	for _, usage := range summary {
		log.Printf("server: applied rule field=%q action=%q count=%d", usage.Field, usage.Action, usage.Count)
	}
	routing.WriteJSON(w, http.StatusOK, resp)
}

func (a *api) handleFiltered(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeRequest(w, r)
	if err != nil {
		if httperr.IsBadRequest(err) {
			routing.WriteJSON(w, http.StatusBadRequest, gate.FilteredErrorResponse(err.Error()))
			return
		}
		routing.WriteError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	routing.WriteJSON(w, http.StatusOK, a.handler.HandleFiltered(r.Context(), req))
}

type reloadResponse struct {
	Status    string `json:"status"`
	Rules     int    `json:"rules"`
	Timestamp string `json:"timestamp"`
}

func (a *api) handleRulesReload(w http.ResponseWriter, r *http.Request) {
	n, err := a.loader.Load()
	if err != nil {
		log.Printf("server: manual rule reload failed: %v", err)
		routing.WriteError(w, r, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	log.Printf("server: reloaded %d rules from %s", n, a.loader.Path())
	routing.WriteJSON(w, http.StatusOK, reloadResponse{
		Status:    "success",
		Rules:     n,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type healthResponse struct {
	Status      string `json:"status"`
	Rules       int    `json:"rules"`
	TrackedKeys int    `json:"trackedKeys"`
}

func (a *api) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	routing.WriteJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Rules:       len(a.catalog.Rules()),
		TrackedKeys: a.counter.Len(),
	})
}
