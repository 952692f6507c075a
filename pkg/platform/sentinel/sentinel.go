package sentinel

import "errors"

// Sentinel errors for runtime facts. The registry, locator, and context store
// return these (optionally wrapped) so callers can branch with errors.Is
// without string matching.
//
// These represent factual states about runtime resources, not access
// decisions:
// - ErrNotFound: no descriptor, instance, or context under the given key
// - ErrConflict: a name is already registered
// - ErrInvalidState: a descriptor or registration is malformed
// - ErrUnavailable: a backing resource (redis, kafka) cannot be reached
//
// Access-control denials are data (access.Decision), never errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
