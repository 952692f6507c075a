// Package domainctx stores per-request domain context: which domain and
// operation a request is executing, who is acting, and when it started.
// Contexts are keyed by request ID, replace-only, and caller-managed: the
// middleware that creates a context is responsible for clearing it on every
// exit path, success or not.
package domainctx

import (
	"context"
	"time"

	"paygrid/pkg/domain"
)

// User is the acting principal recorded for a request.
type User struct {
	ID       string `json:"id"`
	Verified bool   `json:"verified"`
	Admin    bool   `json:"admin"`
}

// Client captures request client metadata for diagnostics and audit.
type Client struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Browser   string `json:"browser,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// Context is the per-request state consulted by access control and
// diagnostics. Immutable once stored; replace the whole value to update.
type Context struct {
	RequestID domain.RequestID `json:"request_id"`
	Domain    domain.Name      `json:"domain"`
	// TargetDomain is set when the request declares cross-domain intent.
	TargetDomain domain.Name      `json:"target_domain,omitempty"`
	Operation    domain.Operation `json:"operation"`
	User         User             `json:"user"`
	Client       Client           `json:"client"`
	StartedAt    time.Time        `json:"started_at"`
}

// CrossDomain reports whether the request targets a domain other than the one
// it is executing in.
func (c Context) CrossDomain() bool {
	return !c.TargetDomain.IsNil() && c.TargetDomain != c.Domain
}

// Store holds the contexts of currently live requests. Implementations must
// be safe for concurrent use; last write wins on Put.
type Store interface {
	Put(ctx context.Context, rc Context) error
	Get(ctx context.Context, id domain.RequestID) (Context, error)
	Clear(ctx context.Context, id domain.RequestID) error
	// ByDomain returns a snapshot of all stored contexts for a domain,
	// used by diagnostics endpoints.
	ByDomain(ctx context.Context, d domain.Name) ([]Context, error)
}
