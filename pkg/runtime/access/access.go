// Package access decides whether a request may execute a guarded domain
// method. Evaluation is a pure function of the request context and the
// method's declared policy: no hidden state, no I/O. Denials are data, not
// errors; the guard layer turns them into caller-visible rejections.
package access

import (
	"fmt"

	"paygrid/pkg/domain"
	"paygrid/pkg/runtime/domainctx"
)

// Policy declares the access requirements of one guarded method.
type Policy struct {
	// Domain the guarded method belongs to.
	Domain domain.Name
	// Operation kind the method performs. Like a domain mismatch, a
	// different operation in the context is informative, not fatal.
	Operation domain.Operation
	// RequiresVerification demands a verified user; admins pass regardless.
	RequiresVerification bool
	// AllowCrossDomain permits calls whose context targets another domain.
	AllowCrossDomain bool
}

// Decision is the outcome of one access check. Reason is set only on denial
// and names the method and domains involved so the caller can act on it.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

var allowed = Decision{Allowed: true}

// Evaluate applies the policy's rules in order:
//  1. A context executing in a different domain than the policy declares is
//     not denied by itself; callers routinely traverse shared services.
//  2. Declared cross-domain intent (target differs from current domain) is
//     denied unless the policy allows it.
//  3. A verification-requiring method denies users who are neither verified
//     nor admin.
//  4. Otherwise the call is allowed.
//
// method is the guarded method's declared name, used in denial reasons.
func Evaluate(rc domainctx.Context, method string, p Policy) Decision {
	if rc.CrossDomain() && !p.AllowCrossDomain {
		return deny("Cross-domain access from %q to %q is not permitted for %s",
			rc.Domain, rc.TargetDomain, method)
	}

	if p.RequiresVerification && !rc.User.Verified && !rc.User.Admin {
		return deny("%s on domain %q requires a verified user (user %q is unverified)",
			method, p.Domain, rc.User.ID)
	}

	return allowed
}
