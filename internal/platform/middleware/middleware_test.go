package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygrid/pkg/domain"
	"paygrid/pkg/runtime/access"
	"paygrid/pkg/runtime/domainctx"
	"paygrid/pkg/runtime/telemetry"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubValidator struct {
	claims *JWTClaims
	err    error
}

func (v *stubValidator) ValidateToken(string) (*JWTClaims, error) {
	return v.claims, v.err
}

func TestRequestID(t *testing.T) {
	t.Run("assigns an id when the header is absent", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("honors an incoming header", func(t *testing.T) {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "req-123")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "req-123", seen)
	})
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		require.NotNil(t, claims)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes claims through", func(t *testing.T) {
		validator := &stubValidator{claims: &JWTClaims{UserID: "u-1", Verified: true}}
		handler := RequireAuth(validator, discard)(next)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer some-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		handler := RequireAuth(&stubValidator{}, discard)(next)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		validator := &stubValidator{err: errors.New("expired")}
		handler := RequireAuth(validator, discard)(next)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestContextLifecycle(t *testing.T) {
	store := domainctx.NewInMemory()
	collector := telemetry.New()

	var inFlight int
	handler := RequestID(RequestContext(store, collector, discard)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, ok := GetDomainContext(r.Context())
			require.True(t, ok)
			assert.Equal(t, domain.DomainWallet, rc.Domain)
			assert.Equal(t, domain.OperationRead, rc.Operation)

			stored, err := store.Get(r.Context(), rc.RequestID)
			require.NoError(t, err)
			assert.Equal(t, rc.RequestID, stored.RequestID)
			inFlight = store.Len()
		})))

	req := httptest.NewRequest(http.MethodGet, "/v1/runtime/services", nil)
	req.Header.Set("X-Domain", "wallet")
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, inFlight)
	assert.Equal(t, 0, store.Len(), "context must be cleared on exit")

	summary := collector.Performance("wallet.api")
	assert.Equal(t, int64(1), summary.TotalRequests)
	assert.Equal(t, int64(1), summary.SuccessfulRequests)
}

func TestRequestContextClearsOnPanic(t *testing.T) {
	store := domainctx.NewInMemory()
	collector := telemetry.New()

	handler := RequestID(Recovery(discard)(RequestContext(store, collector, discard)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("handler bug")
		}))))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, store.Len(), "context must be cleared even when the handler panics")
}

func TestGuard(t *testing.T) {
	policy := access.Policy{
		Domain:               domain.DomainWallet,
		Operation:            domain.OperationRead,
		RequiresVerification: true,
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(rc domainctx.Context) *httptest.ResponseRecorder {
		handler := Guard("WalletService.balance", policy, discard)(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), contextKeyDomainContext{}, rc)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	t.Run("verified user is allowed", func(t *testing.T) {
		rec := serve(domainctx.Context{
			Domain: domain.DomainWallet,
			User:   domainctx.User{ID: "u-1", Verified: true},
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unverified user is denied with the method name", func(t *testing.T) {
		rec := serve(domainctx.Context{
			Domain: domain.DomainWallet,
			User:   domainctx.User{ID: "u-2"},
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "WalletService.balance")
	})

	t.Run("missing domain context is an internal error", func(t *testing.T) {
		handler := Guard("WalletService.balance", policy, discard)(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
