package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mssola/useragent"

	"paygrid/pkg/domain"
	"paygrid/pkg/runtime/domainctx"
	"paygrid/pkg/runtime/telemetry"
)

type contextKeyDomainContext struct{}

// GetDomainContext retrieves the request's domain context. The second return
// is false outside the RequestContext middleware.
func GetDomainContext(ctx context.Context) (domainctx.Context, bool) {
	rc, ok := ctx.Value(contextKeyDomainContext{}).(domainctx.Context)
	return rc, ok
}

// RequestContext acquires a domain context for the request, stores it, and
// guarantees release on every exit path, panics included. The service's
// response time is recorded on the way out.
//
// The executing domain comes from the X-Domain header (defaulting to the
// runtime's own domain); cross-domain intent is declared via X-Target-Domain.
func RequestContext(store domainctx.Store, collector *telemetry.Collector, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			rc := domainctx.Context{
				RequestID: domain.RequestID(GetRequestID(ctx)),
				Domain:    parseDomainHeader(r, "X-Domain", domain.DomainRuntime),
				Operation: operationFor(r.Method),
				Client:    clientInfo(r),
				StartedAt: time.Now().UTC(),
			}
			if target := r.Header.Get("X-Target-Domain"); target != "" {
				rc.TargetDomain = parseDomainHeader(r, "X-Target-Domain", "")
			}
			if claims := GetClaims(ctx); claims != nil {
				rc.User = domainctx.User{
					ID:       claims.UserID,
					Verified: claims.Verified,
					Admin:    claims.Admin,
				}
			}

			if err := store.Put(ctx, rc); err != nil {
				logger.WarnContext(ctx, "context store unavailable, serving without shared context",
					"error", err,
					"request_id", rc.RequestID,
				)
			} else {
				defer func() {
					if err := store.Clear(context.WithoutCancel(ctx), rc.RequestID); err != nil {
						logger.WarnContext(ctx, "failed to clear request context",
							"error", err,
							"request_id", rc.RequestID,
						)
					}
				}()
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				success := sw.status < http.StatusInternalServerError
				collector.RecordResponseTime(
					rc.Domain.String()+".api", r.Method, time.Since(rc.StartedAt), success)
			}()

			ctx = context.WithValue(ctx, contextKeyDomainContext{}, rc)
			next.ServeHTTP(sw, r.WithContext(ctx))
		})
	}
}

func parseDomainHeader(r *http.Request, header string, fallback domain.Name) domain.Name {
	value := r.Header.Get(header)
	if value == "" {
		return fallback
	}
	name, err := domain.ParseName(value)
	if err != nil {
		return fallback
	}
	return name
}

func operationFor(method string) domain.Operation {
	switch method {
	case http.MethodGet, http.MethodHead:
		return domain.OperationRead
	case http.MethodPost:
		return domain.OperationExecute
	default:
		return domain.OperationWrite
	}
}

func clientInfo(r *http.Request) domainctx.Client {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}

	info := domainctx.Client{IP: ip, UserAgent: r.UserAgent()}
	if info.UserAgent != "" {
		ua := useragent.New(info.UserAgent)
		browser, version := ua.Browser()
		if browser != "" {
			info.Browser = browser + " " + version
		}
		info.Platform = ua.Platform()
	}
	return info
}
