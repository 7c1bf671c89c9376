// Package metadata extracts client metadata from the request for write
// provenance and audit correlation.
package metadata

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"vaultcore/pkg/requestcontext"
)

// ClientMetadata records a compact client descriptor (browser and platform
// parsed from the User-Agent) in the context. Applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientDescriptor(r.Context(), DescribeClient(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DescribeClient condenses a raw User-Agent string into "Browser x.y (OS)".
// Raw User-Agent strings never reach logs or audit events.
func DescribeClient(rawUA string) string {
	if rawUA == "" {
		return ""
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}
	desc := name
	if version != "" {
		desc = fmt.Sprintf("%s %s", name, version)
	}
	if os := ua.OS(); os != "" {
		desc = fmt.Sprintf("%s (%s)", desc, os)
	}
	return desc
}

// ClientIPFromRequest extracts the real client IP, handling proxies.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
