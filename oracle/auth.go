package oracle

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Capability is a named permission required by a mutating operation.
type Capability string

const (
	// CapConfigurator may configure and remove tokens.
	CapConfigurator Capability = "configurator"

	// CapRateUpdater may write rates directly, bypassing resolution.
	CapRateUpdater Capability = "rate-updater"

	// CapAdmin may change the price update interval.
	CapAdmin Capability = "admin"
)

// Auth is the authorization context passed into each gated operation. There
// is no ambient privilege: an operation sees only the capabilities its
// caller presents.
type Auth struct {
	caps mapset.Set[Capability]
}

// NewAuth builds an authorization context carrying the given capabilities.
func NewAuth(caps ...Capability) Auth {
	set := mapset.NewSet[Capability]()
	for _, c := range caps {
		set.Add(c)
	}
	return Auth{caps: set}
}

// Has reports whether the context carries the capability.
func (a Auth) Has(c Capability) bool {
	return a.caps != nil && a.caps.Contains(c)
}

// require returns a RoleError when the capability is absent.
func (a Auth) require(c Capability) error {
	if !a.Has(c) {
		return &RoleError{Capability: c}
	}
	return nil
}
