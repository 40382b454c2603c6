package cybersource

import "fmt"

// The error taxonomy callers branch on. Declines are not errors: they come
// back as outcomes with Success=false. Everything here except TransportError
// is deterministic for the same inputs — no hidden retries happen below the
// service layer.

// ValidationError means the caller's input was malformed and no network call
// was made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid request: %s", e.Reason)
}

// InvalidReferenceError means an authorization token or profile reference
// failed to decode, or lacks a field the requested operation needs. It is
// raised before any network call.
type InvalidReferenceError struct {
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid authorization reference: %s", e.Reason)
}

// ProviderAuthError means the gateway rejected our credentials. Retrying with
// the same credentials will not help.
type ProviderAuthError struct {
	Fault string
}

func (e *ProviderAuthError) Error() string {
	return e.Fault
}

// UnsupportedOperationError means the merchant account lacks the capability
// for the requested operation (e.g. asynchronous adjust).
type UnsupportedOperationError struct {
	Operation string
	Reason    string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("operation %s not enabled for this merchant account: %s", e.Operation, e.Reason)
}

// TransportError wraps a network or timeout failure from the HTTP transport.
// Safe to retry per the caller's policy.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
