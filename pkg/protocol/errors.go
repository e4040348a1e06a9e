package protocol

import "errors"

// ErrorCode is a stable, machine-branchable failure code carried on result
// objects. Callers branch on the code, never on message text.
type ErrorCode string

// Error code constants, grouped by taxonomy.
const (
	// Resolution errors.
	ErrUnknownModule ErrorCode = "UNKNOWN_MODULE"
	ErrInvalidDomain ErrorCode = "INVALID_DOMAIN"

	// Authorization errors.
	ErrPrimaryOnly          ErrorCode = "PRIMARY_ONLY"
	ErrUnauthorizedManager  ErrorCode = "UNAUTHORIZED_MANAGER"
	ErrManagerNotAuthorized ErrorCode = "MANAGER_NOT_AUTHORIZED"
	ErrPermissionDenied     ErrorCode = "PERMISSION_DENIED"

	// Contention errors.
	ErrLockHeld     ErrorCode = "LOCK_HELD"
	ErrDomainLocked ErrorCode = "DOMAIN_LOCKED"

	// Not-found errors.
	ErrLockNotFound    ErrorCode = "LOCK_NOT_FOUND"
	ErrManagerNotFound ErrorCode = "MANAGER_NOT_FOUND"
)

// ErrStoreContention is returned when an operation exhausts its optimistic
// compare-and-swap retries against the document store. This is a transient
// infrastructure failure, not a coordination outcome; callers may retry.
var ErrStoreContention = errors.New("document store contention: compare-and-swap retries exhausted")
