// Package domain holds the primitives shared by every runtime component:
// business domain names, operation kinds, and request identifiers.
//
// Values are constructed via Parse* functions at trust boundaries so the
// allowlists stay the single source of truth; direct casting bypasses
// validation.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Name identifies a bounded business area whose services are
// access-controlled as a unit.
type Name string

// Domains of the fintech backend this runtime serves.
const (
	DomainUser        Name = "user"
	DomainWallet      Name = "wallet"
	DomainTransaction Name = "transaction"
	DomainCard        Name = "card"
	DomainRamp        Name = "ramp"
	// DomainRuntime covers the runtime's own infrastructure services.
	DomainRuntime Name = "runtime"
)

var validDomains = map[Name]bool{
	DomainUser:        true,
	DomainWallet:      true,
	DomainTransaction: true,
	DomainCard:        true,
	DomainRamp:        true,
	DomainRuntime:     true,
}

// ParseName validates and returns a domain Name.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !validDomains[n] {
		return "", fmt.Errorf("unknown domain: %s", s)
	}
	return n, nil
}

// String returns the string representation of the domain name.
func (n Name) String() string {
	return string(n)
}

// IsNil returns true if the domain name is empty.
func (n Name) IsNil() bool {
	return n == ""
}

// Operation classifies what a guarded call does to its domain.
type Operation string

// Supported operation kinds.
const (
	OperationRead    Operation = "read"
	OperationWrite   Operation = "write"
	OperationExecute Operation = "execute"
)

var validOperations = map[Operation]bool{
	OperationRead:    true,
	OperationWrite:   true,
	OperationExecute: true,
}

// ParseOperation validates and returns an Operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if !validOperations[op] {
		return "", fmt.Errorf("unknown operation: %s", s)
	}
	return op, nil
}

// String returns the string representation of the operation.
func (op Operation) String() string {
	return string(op)
}

// RequestID keys a live request's context in the context store. Callers supply
// it and must keep it unique across concurrently live requests.
type RequestID string

// NewRequestID returns a fresh unique request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.NewString())
}

// String returns the string representation of the request ID.
func (r RequestID) String() string {
	return string(r)
}

// IsNil returns true if the request ID is empty.
func (r RequestID) IsNil() bool {
	return r == ""
}
