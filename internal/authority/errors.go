package authority

import "errors"

// Coverage, conflict, and lookup errors per the issuance algorithm.
var (
	// ErrNbfAfterExp flags a request whose exp does not strictly follow
	// its nbf.
	ErrNbfAfterExp = errors.New("authority: exp must be after nbf")

	// ErrNoTokenKeyCoverage and ErrNoRootKeyCoverage mean epoch extension
	// was attempted and the authority still cannot cover the requested
	// window: a misconfiguration (key interval/buffer mismatch,
	// or a frozen clock in tests) rather than a transient condition.
	ErrNoTokenKeyCoverage = errors.New("authority: no token-key epoch coverage for requested window")
	ErrNoRootKeyCoverage  = errors.New("authority: no root-key epoch coverage for requested window")

	// ErrDuplicateAuthorization flags a gufi that already has a live
	// authorization.
	ErrDuplicateAuthorization = errors.New("authority: gufi already authorized")

	// ErrAuthorizationNotFound and ErrKeyNotFound are 404-shaped lookup
	// misses.
	ErrAuthorizationNotFound = errors.New("authority: authorization not found")
	ErrKeyNotFound           = errors.New("authority: key not found")

	// ErrOperatorNotFound flags a missing operator directory entry.
	ErrOperatorNotFound = errors.New("authority: operator not found")
)
