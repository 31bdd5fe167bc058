package routing

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gatekeepr/gatekeepr/pkg/traceid"
)

type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	TraceID string            `json:"trace_id"`
	Meta    ErrorEnvelopeMeta `json:"meta"`
}

type ErrorEnvelopeMeta struct {
	Path   string `json:"path"`
	Method string `json:"method"`
}

// WriteError emits the uniform JSON error envelope. Every surface of this
// service is an API surface, so there is no content negotiation.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Code:    code,
		Message: message,
		TraceID: traceIDFromRequest(r),
		Meta: ErrorEnvelopeMeta{
			Path:   r.URL.Path,
			Method: r.Method,
		},
	})
}

// WriteJSON emits a success body. Encoding failures after the header is
// written cannot be reported to the client anymore.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// traceIDFromRequest extracts the trace id from a W3C traceparent header,
// minting a fresh one when the header is absent or malformed.
func traceIDFromRequest(r *http.Request) string {
	traceparent := strings.TrimSpace(r.Header.Get("traceparent"))
	if traceparent == "" {
		return traceid.NewString()
	}
	parts := strings.Split(traceparent, "-")
	if len(parts) != 4 {
		return traceid.NewString()
	}
	tid := strings.ToLower(parts[1])
	if len(tid) != 32 || tid == "00000000000000000000000000000000" {
		return traceid.NewString()
	}
	for _, ch := range tid {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return traceid.NewString()
		}
	}
	return tid
}
