// Package auth provides tenant authentication middleware. Every vault
// endpoint is tenant-scoped; requests without a valid tenant token never
// reach a handler.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	id "vaultcore/pkg/domain"
	request "vaultcore/pkg/platform/middleware/request"
	"vaultcore/pkg/requestcontext"
)

// TenantValidator defines the interface for validating tenant tokens.
type TenantValidator interface {
	ExtractTenantID(tokenString string) (uuid.UUID, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireTenant validates the bearer token and records the authenticated
// tenant in the request context.
func RequireTenant(validator TenantValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			tenantID, err := validator.ExtractTenantID(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithTenantID(ctx, id.TenantID(tenantID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
