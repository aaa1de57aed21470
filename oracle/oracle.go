package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Resolver produces a normalized 18-decimal price for one token. A failed
// resolution is reported with ok=false, never with a panic, and must leave
// no state behind.
type Resolver interface {
	Resolve(ctx context.Context, token common.Address, w Wiring) (*uint256.Int, bool)
}

// Config holds the configuration for the Oracle.
type Config struct {
	Resolver Resolver
	Logger   *slog.Logger

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.Resolver == nil {
		return errors.New("config: Resolver is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Oracle is the operation surface over the configured token set and the
// current rate table. Mutations are capability-gated; a failed check rejects
// the call with a RoleError and no state change.
//
// One lock covers registry and store. A refresh pass resolves outside the
// lock (source reads are slow round-trips) and applies each result under it,
// so manual overrides may interleave with a running pass; last write wins.
type Oracle struct {
	mu       sync.RWMutex
	registry *registry
	store    *store
	resolver Resolver
	logger   *slog.Logger
}

// New creates an Oracle with an empty token set and a stale rate table.
func New(cfg Config) (*Oracle, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Oracle{
		registry: newRegistry(),
		store:    newStore(now),
		resolver: cfg.Resolver,
		logger:   cfg.Logger,
	}, nil
}

// ConfigureToken upserts the token's source wiring. Requires the
// configurator capability. The wiring is decoded once here; a config that
// cannot be decoded is rejected whole.
func (o *Oracle) ConfigureToken(auth Auth, token common.Address, cfg TokenConfig) error {
	if err := auth.require(CapConfigurator); err != nil {
		return err
	}
	w, err := cfg.Decode()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, token, err)
	}

	o.mu.Lock()
	added := o.registry.configure(token, cfg, w)
	o.mu.Unlock()

	o.logger.Info("token configured",
		"token", token,
		"kind", cfg.PrimaryKind,
		"primary", cfg.PrimarySource,
		"fallback", cfg.FallbackSource,
		"added", added,
	)
	return nil
}

// RemoveToken deletes the token's configuration and any stored rate.
// Requires the configurator capability.
func (o *Oracle) RemoveToken(auth Auth, token common.Address) error {
	if err := auth.require(CapConfigurator); err != nil {
		return err
	}

	o.mu.Lock()
	removed := o.registry.remove(token)
	if removed {
		o.store.deleteRate(token)
	}
	o.mu.Unlock()

	if !removed {
		return fmt.Errorf("%w: %s", ErrNotConfigured, token)
	}
	o.logger.Info("token removed", "token", token)
	return nil
}

// UpdateRate writes one rate directly, bypassing resolution. Requires the
// rate-updater capability.
func (o *Oracle) UpdateRate(auth Auth, token common.Address, rate *uint256.Int) error {
	if err := auth.require(CapRateUpdater); err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.registry.isConfigured(token) {
		return fmt.Errorf("%w: %s", ErrNotConfigured, token)
	}
	o.store.setRate(token, rate)
	return nil
}

// BatchUpdateRates writes several rates directly. The batch is validated
// before any write: mismatched lengths or an unconfigured token reject the
// whole call with no partial writes. Requires the rate-updater capability.
func (o *Oracle) BatchUpdateRates(auth Auth, tokens []common.Address, rates []*uint256.Int) error {
	if err := auth.require(CapRateUpdater); err != nil {
		return err
	}
	if len(tokens) != len(rates) {
		return fmt.Errorf("%w: %d tokens, %d rates", ErrLengthMismatch, len(tokens), len(rates))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for _, token := range tokens {
		if !o.registry.isConfigured(token) {
			return fmt.Errorf("%w: %s", ErrNotConfigured, token)
		}
	}
	for i, token := range tokens {
		o.store.setRate(token, rates[i])
	}
	return nil
}

// SetPriceUpdateInterval changes the desired refresh cadence, effective for
// every subsequent staleness check. The StalenessPeriod ceiling still holds.
// Requires the admin capability.
func (o *Oracle) SetPriceUpdateInterval(auth Auth, d time.Duration) error {
	if err := auth.require(CapAdmin); err != nil {
		return err
	}
	if d <= 0 {
		return ErrInvalidInterval
	}

	o.mu.Lock()
	o.store.setInterval(d)
	o.mu.Unlock()

	o.logger.Info("price update interval changed", "interval", d)
	return nil
}

// GetRate returns the stored rate, or the zero value for an unknown token.
func (o *Oracle) GetRate(token common.Address) *uint256.Int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.store.rate(token)
}

// GetTokenPrice is the strict read: it fails on unconfigured tokens instead
// of returning an ambiguous zero.
func (o *Oracle) GetTokenPrice(token common.Address) (*uint256.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.registry.isConfigured(token) {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, token)
	}
	return o.store.rate(token), nil
}

// ArePricesStale reports whether the rate table is older than the configured
// interval, or older than the absolute StalenessPeriod ceiling.
func (o *Oracle) ArePricesStale() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.store.stale()
}

// LastPriceUpdate returns the timestamp of the most recent successful
// refresh pass.
func (o *Oracle) LastPriceUpdate() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.store.lastUpdate
}

// PriceUpdateInterval returns the configured refresh cadence.
func (o *Oracle) PriceUpdateInterval() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.store.interval
}

// IsConfigured reports membership in the configured token set.
func (o *Oracle) IsConfigured(token common.Address) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.registry.isConfigured(token)
}

// TokenConfigOf returns the stored configuration for the token.
func (o *Oracle) TokenConfigOf(token common.Address) (TokenConfig, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.registry.config(token)
}

// ConfiguredTokens returns a defensive copy of the token set in iteration
// order. Order is not stable across removals.
func (o *Oracle) ConfiguredTokens() []common.Address {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.registry.all()
}

// RefreshAll resolves every configured token once, in set order, applying
// each success and skipping each failure; one bad source never blocks the
// rest of the pass. The global update timestamp advances, and true is
// returned, only when at least one token was updated — a pass of
// all-failures leaves staleness in place to trigger the next attempt.
func (o *Oracle) RefreshAll(ctx context.Context) bool {
	o.mu.RLock()
	tokens := o.registry.all()
	wirings := make([]Wiring, len(tokens))
	for i, token := range tokens {
		wirings[i], _ = o.registry.wiring(token)
	}
	o.mu.RUnlock()

	updated := 0
	failed := 0
	for i, token := range tokens {
		price, ok := o.resolver.Resolve(ctx, token, wirings[i])
		if !ok {
			failed++
			o.logger.Warn("price resolution failed", "token", token)
			continue
		}

		o.mu.Lock()
		// The token may have been removed while we were resolving; a write
		// now would resurrect a deleted rate record.
		if o.registry.isConfigured(token) {
			o.store.setRate(token, price)
			updated++
		}
		o.mu.Unlock()
	}

	if updated == 0 {
		o.logger.Warn("refresh pass made no progress", "tokens", len(tokens), "failed", failed)
		return false
	}

	o.mu.Lock()
	o.store.markUpdated()
	o.mu.Unlock()

	o.logger.Info("refresh pass finished", "updated", updated, "failed", failed)
	return true
}

// UpdateAllPricesIfNeeded refreshes only when prices are stale. It is not
// capability-gated: anyone may pay to make the table fresh. Reports whether
// an update occurred.
func (o *Oracle) UpdateAllPricesIfNeeded(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !o.ArePricesStale() {
		return false, nil
	}
	return o.RefreshAll(ctx), nil
}
