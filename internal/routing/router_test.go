package routing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeErrorEnvelope(t *testing.T, rec *httptest.ResponseRecorder) ErrorEnvelope {
	t.Helper()
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (body=%s)", err, rec.Body.String())
	}
	return env
}

func TestRouter_Dispatch(t *testing.T) {
	r := NewRouter()
	r.HandleFunc(http.MethodPost, "/gatekeepr/request", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/gatekeepr/request", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestRouter_NotFound(t *testing.T) {
	r := NewRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
	env := decodeErrorEnvelope(t, rec)
	if env.Code != "not_found" || env.Meta.Path != "/nope" || env.Meta.Method != http.MethodGet {
		t.Fatalf("env=%+v", env)
	}
	if env.TraceID == "" {
		t.Fatal("trace id missing")
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := NewRouter()
	r.HandleFunc(http.MethodPost, "/gatekeepr/request", func(http.ResponseWriter, *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gatekeepr/request", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d", rec.Code)
	}
	if env := decodeErrorEnvelope(t, rec); env.Code != "method_not_allowed" {
		t.Fatalf("env=%+v", env)
	}
}

func TestRouter_PanicRecovery(t *testing.T) {
	r := NewRouter()
	r.HandleFunc(http.MethodGet, "/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if env := decodeErrorEnvelope(t, rec); env.Code != "internal_error" {
		t.Fatalf("env=%+v", env)
	}
}
