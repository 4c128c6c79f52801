package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/classification/pkg/composables"
)

// ProvidePool makes the connection pool available to repositories via
// the context, so handlers never touch the pool directly.
func ProvidePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// RequireTenant resolves the tenant from the given header and rejects
// requests without a valid tenant id. Tenant resolution is a transport
// concern; everything below the controller just reads the context.
func RequireTenant(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				writeError(w, http.StatusBadRequest, "TENANT_REQUIRED", "missing tenant header")
				return
			}
			tenantID, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "TENANT_INVALID", "tenant header is not a uuid")
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithTenantID(r.Context(), tenantID)))
		})
	}
}

// ProvideActor reads the acting user from a header; absent headers fall
// back to the composables default.
func ProvideActor(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := strings.TrimSpace(r.Header.Get(header))
			ctx := r.Context()
			if actor != "" {
				ctx = composables.WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": message})
}

// RequestLog attaches a request-scoped logrus entry and emits one line
// per completed request.
func RequestLog(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			entry := logger.WithFields(logrus.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			next.ServeHTTP(w, r.WithContext(composables.WithLogger(r.Context(), entry)))
			entry.WithField("duration", time.Since(start).String()).Info("request completed")
		})
	}
}
