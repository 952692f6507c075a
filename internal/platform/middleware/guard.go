package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"paygrid/pkg/runtime/access"
)

// Guard enforces an access policy at a route boundary. The guarded method
// name appears in denial reasons so callers can tell which entry point
// rejected them.
func Guard(method string, policy access.Policy, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rc, ok := GetDomainContext(ctx)
			if !ok {
				logger.ErrorContext(ctx, "guard invoked without a domain context",
					"method", method,
					"request_id", GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal_error"}`))
				return
			}

			decision := access.Evaluate(rc, method, policy)
			if !decision.Allowed {
				logger.WarnContext(ctx, "access denied",
					"method", method,
					"reason", decision.Reason,
					"request_id", rc.RequestID,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":  "access_denied",
					"reason": decision.Reason,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
