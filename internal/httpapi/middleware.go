package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/planfoundry/compliance-checker/internal/logging"
)

// requestIDHeader carries a caller-supplied correlation ID. When absent a
// fresh UUID is assigned; either way the ID is echoed on the response and
// attached to the request context for logging.
const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
