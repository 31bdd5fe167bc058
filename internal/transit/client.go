// Package transit talks to the external Policy Machine that owns the raw
// per-field grants. It is a thin fetch/decode wrapper; all decisions about
// what the grants mean happen in the redaction core.
package transit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gatekeepr/gatekeepr/internal/gate"
	"github.com/gatekeepr/gatekeepr/pkg/httperr"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("transit: http %d: %s", e.StatusCode, msg)
}

func New(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("transit: missing base url")
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New("transit: invalid base url")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type accessRightsPayload struct {
	ObjectID          string                `json:"objectId"`
	ObjectEntityClass string                `json:"objectEntityClass"`
	IdentityID        string                `json:"identityId"`
	ObjectProperties  gate.ObjectProperties `json:"objectProperties"`
}

type searchPayload struct {
	Objects []gate.ObjectAccess `json:"objects"`
}

// GetRights resolves the grant for one object. A 404 from the Policy
// Machine means "no grant" and is reported as the empty-rights sentinel,
// not as an error.
func (c *Client) GetRights(ctx context.Context, applicationID, objectID, identityID, requestedByID string) (gate.ObjectProperties, error) {
	q := url.Values{}
	q.Set("identityId", identityID)
	q.Set("requestedById", requestedByID)
	endpoint := fmt.Sprintf("%s/application/%s/access/%s?%s",
		c.baseURL, url.PathEscape(applicationID), url.PathEscape(objectID), q.Encode())

	var payload accessRightsPayload
	notFound, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return gate.ObjectProperties{}, httperr.NewUpstream(err.Error())
	}
	if notFound {
		return gate.ObjectProperties{}, nil
	}
	return payload.ObjectProperties, nil
}

// Search lists the objects of a class the identity may access, each paired
// with its grant.
func (c *Client) Search(ctx context.Context, applicationID, identityID, requestedByID, entityClass string, createdByMyOwn bool, pageSize int) ([]gate.ObjectAccess, error) {
	q := url.Values{}
	if strings.TrimSpace(identityID) != "" {
		q.Set("identityId", identityID)
	}
	q.Set("requestedById", requestedByID)
	q.Set("objectEntityClass", entityClass)
	q.Set("createdByMyOwn", strconv.FormatBool(createdByMyOwn))
	if pageSize > 0 {
		q.Set("pagesize", strconv.Itoa(pageSize))
	}
	endpoint := fmt.Sprintf("%s/application/%s/access/search/?%s",
		c.baseURL, url.PathEscape(applicationID), q.Encode())

	var payload searchPayload
	notFound, err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		return nil, httperr.NewUpstream(err.Error())
	}
	if notFound {
		return nil, nil
	}
	return payload.Objects, nil
}

// getJSON performs an authenticated GET. The notFound return separates the
// "no grant" case from real failures.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (notFound bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return true, nil
	}
	if resp.StatusCode/100 != 2 {
		return false, readHTTPError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, err
	}
	return false, nil
}

func readHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var envelope struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &envelope)
	return &HTTPError{StatusCode: resp.StatusCode, Message: envelope.Message}
}
