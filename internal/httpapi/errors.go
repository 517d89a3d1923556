package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/planfoundry/compliance-checker/core"
	"github.com/planfoundry/compliance-checker/internal/logging"
)

var (
	// ErrBadParameter is a package-level sentinel for invalid request
	// parameters.
	ErrBadParameter = errors.New("bad parameter")
	// ErrUnparsableModel is a package-level sentinel for model payloads
	// that cannot be decoded.
	ErrUnparsableModel = errors.New("unparsable model")
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFromError maps checker errors onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, core.ErrNoModel):
		return http.StatusConflict
	case errors.Is(err, ErrBadParameter):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnparsableModel):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders an error as the JSON envelope with the mapped status.
func writeError(ctx context.Context, w http.ResponseWriter, log logging.Logger, err error) {
	status := statusFromError(err)
	if log != nil {
		log.Warn(ctx, "request failed",
			logging.Int("status", status),
			logging.Err(err),
		)
	}
	writeJSON(w, status, errorBody{
		Error:     err.Error(),
		RequestID: logging.RequestIDFromContext(ctx),
	})
}

// writeJSON renders v with the given status. Encoding failures are beyond
// saving at this point; the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
