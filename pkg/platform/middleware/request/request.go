// Package request assigns each inbound request an ID for log and audit
// correlation.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"vaultcore/pkg/requestcontext"
)

// Middleware honors an X-Request-ID supplied by an upstream proxy and
// generates one otherwise. The ID is echoed back on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
