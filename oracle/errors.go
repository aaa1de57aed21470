package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned for operations on a token with no
	// configuration record.
	ErrNotConfigured = errors.New("oracle: token not configured")

	// ErrInvalidConfiguration rejects a configureToken call whose wiring
	// cannot be decoded.
	ErrInvalidConfiguration = errors.New("oracle: invalid token configuration")

	// ErrLengthMismatch rejects a batch update whose token and rate slices
	// differ in length. No partial writes occur.
	ErrLengthMismatch = errors.New("oracle: tokens and rates length mismatch")

	// ErrInvalidInterval rejects a non-positive price update interval.
	ErrInvalidInterval = errors.New("oracle: price update interval must be positive")
)

// RoleError reports a failed capability check. The offending call causes no
// state change.
type RoleError struct {
	Capability Capability
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("oracle: missing capability %q", e.Capability)
}
