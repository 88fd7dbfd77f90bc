package api

import (
	"encoding/json"
	"net/http"

	"github.com/claw-network/clawnet/internal/clawerr"
)

// errorResponse is the JSON body of every non-2xx response: a stable
// string code (spec §7's Kind) plus a human-readable message.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// httpStatusFor maps a clawerr.Kind to its HTTP status, per spec §7.
func httpStatusFor(kind clawerr.Kind) int {
	switch kind {
	case clawerr.Invalid:
		return http.StatusBadRequest
	case clawerr.Unauthorized:
		return http.StatusUnauthorized
	case clawerr.Duplicate:
		return http.StatusConflict
	case clawerr.OutOfOrder:
		return http.StatusAccepted // buffered, not rejected
	case clawerr.StaleResource:
		return http.StatusConflict
	case clawerr.NotFound:
		return http.StatusNotFound
	case clawerr.Conflict:
		return http.StatusConflict
	case clawerr.RateLimited:
		return http.StatusTooManyRequests
	case clawerr.Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as the stable error-code body of spec §7. A
// non-clawerr error (a programming bug, not a domain rejection) is
// reported as an opaque 500 rather than leaking internals.
func writeError(w http.ResponseWriter, err error) {
	ce, ok := err.(*clawerr.Error)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "Internal", Message: "internal error"})
		return
	}
	writeJSON(w, httpStatusFor(ce.Kind), errorResponse{Code: string(ce.Kind), Message: ce.Message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
