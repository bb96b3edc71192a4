package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/storefront-crm/lead-ingest-service/common/tenant"
	"github.com/storefront-crm/lead-ingest-service/common/utils"
)

// ApiKey guards routes with a static backend API key carried in X-API-KEY.
// An empty configured key disables the check for local development.
func ApiKey(apiKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-KEY")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				utils.WriteError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TenantID requires the X-Tenant-ID header and stores it on the request
// context. Every route behind this middleware operates on exactly one tenant.
func TenantID() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID := r.Header.Get("X-Tenant-ID")
			if tenantID == "" {
				utils.WriteError(w, http.StatusBadRequest, "Missing X-Tenant-ID header")
				return
			}

			next.ServeHTTP(w, r.WithContext(tenant.WithID(r.Context(), tenantID)))
		})
	}
}
