package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_UsesTraceparent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	rec := httptest.NewRecorder()
	WriteError(rec, req, http.StatusBadRequest, "bad_request", "nope")

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type=%q", ct)
	}
	env := decodeErrorEnvelope(t, rec)
	if env.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace id=%q", env.TraceID)
	}
}

func TestWriteError_MintsTraceIDWhenHeaderIsBad(t *testing.T) {
	for _, header := range []string{
		"",
		"garbage",
		"00-short-00f067aa0ba902b7-01",
		"00-00000000000000000000000000000000-00f067aa0ba902b7-01",
		"00-4bf92f3577b34da6a3ce929d0e0e47zz-00f067aa0ba902b7-01",
	} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if header != "" {
			req.Header.Set("traceparent", header)
		}
		rec := httptest.NewRecorder()
		WriteError(rec, req, http.StatusNotFound, "not_found", "nope")

		env := decodeErrorEnvelope(t, rec)
		if len(env.TraceID) < 32 {
			t.Fatalf("header=%q: trace id=%q", header, env.TraceID)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]string{"status": "success"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"status\":\"success\"}\n" {
		t.Fatalf("body=%q", got)
	}
}
