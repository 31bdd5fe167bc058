// Package authz is a RightsProvider backed by a local casbin model and
// policy file, for deployments that run without an external Policy Machine.
//
// Policy rows are five-tuples: p, identity, entityClass, objectId, field,
// action. entityClass and objectId accept the wildcard "*". The action is
// one of read|write|shareRead|shareWrite, or digits:<from-to[,from-to...]>
// to grant partial character visibility on the field.
package authz

import (
	"context"
	"strconv"
	"strings"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/gatekeepr/gatekeepr/internal/gate"
	"github.com/gatekeepr/gatekeepr/internal/redact"
)

type Provider struct {
	enforcer *casbin.Enforcer
}

func NewProvider(modelPath, policyPath string) (*Provider, error) {
	adapter := fileadapter.NewAdapter(policyPath)
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(adapter)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Provider{enforcer: enforcer}, nil
}

func (p *Provider) GetRights(_ context.Context, _, objectID, identityID, requestedByID string) (gate.ObjectProperties, error) {
	rows, err := p.rowsFor(identityID, requestedByID)
	if err != nil {
		return gate.ObjectProperties{}, err
	}
	return collectRights(rows, func(_, obj string) bool {
		return obj == "*" || obj == objectID
	}), nil
}

// Search enumerates the concrete objects of the class the identity holds at
// least one readable field on, in policy order. The createdByMyOwn hint has
// no meaning for a flat policy file and is ignored.
func (p *Provider) Search(_ context.Context, _, identityID, requestedByID, entityClass string, _ bool, pageSize int) ([]gate.ObjectAccess, error) {
	rows, err := p.rowsFor(identityID, requestedByID)
	if err != nil {
		return nil, err
	}

	identity := subject(identityID, requestedByID)
	seen := make(map[string]struct{})
	var order []string
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		cls, obj := row[1], row[2]
		if obj == "*" || !classMatches(cls, entityClass) {
			continue
		}
		if _, ok := seen[obj]; ok {
			continue
		}
		seen[obj] = struct{}{}
		order = append(order, obj)
	}

	var out []gate.ObjectAccess
	for _, objectID := range order {
		props := collectRights(rows, func(cls, obj string) bool {
			return (obj == "*" || obj == objectID) && classMatches(cls, entityClass)
		})
		if props.IsEmpty() {
			continue
		}
		out = append(out, gate.ObjectAccess{
			ObjectID:          objectID,
			ObjectEntityClass: entityClass,
			IdentityID:        identity,
			ObjectProperties:  props,
		})
		if pageSize > 0 && len(out) >= pageSize {
			break
		}
	}
	return out, nil
}

func (p *Provider) rowsFor(identityID, requestedByID string) ([][]string, error) {
	return p.enforcer.GetFilteredPolicy(0, subject(identityID, requestedByID))
}

func subject(identityID, requestedByID string) string {
	if strings.TrimSpace(identityID) == "" {
		return requestedByID
	}
	return identityID
}

func classMatches(policyClass, requestClass string) bool {
	return policyClass == "*" || strings.EqualFold(policyClass, requestClass)
}

func collectRights(rows [][]string, match func(cls, obj string) bool) gate.ObjectProperties {
	props := gate.ObjectProperties{}
	seen := make(map[string]struct{})
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		cls, obj, field, action := row[1], row[2], row[3], row[4]
		if !match(cls, obj) {
			continue
		}
		key := action + "|" + field
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		switch {
		case action == "read":
			props.ReadProperties = append(props.ReadProperties, field)
		case action == "write":
			props.WriteProperties = append(props.WriteProperties, field)
		case action == "shareRead":
			props.ShareReadProperties = append(props.ShareReadProperties, field)
		case action == "shareWrite":
			props.ShareWriteProperties = append(props.ShareWriteProperties, field)
		case strings.HasPrefix(action, "digits:"):
			ranges := parseDigitRanges(strings.TrimPrefix(action, "digits:"))
			if len(ranges) > 0 {
				props.DigitsAccess = append(props.DigitsAccess, redact.DigitAccess{
					Property:       field,
					ReadableDigits: ranges,
				})
			}
		}
	}
	return props
}

// parseDigitRanges reads "1-3,5-6"; malformed parts are skipped rather than
// granting anything by accident.
func parseDigitRanges(spec string) []redact.DigitRange {
	var out []redact.DigitRange
	for part := range strings.SplitSeq(spec, ",") {
		lo, hi, ok := strings.Cut(strings.TrimSpace(part), "-")
		if !ok {
			continue
		}
		from, err1 := strconv.Atoi(strings.TrimSpace(lo))
		to, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, redact.DigitRange{From: from, To: to})
	}
	return out
}
