// Package oracle holds the configured token set, the current rate table and
// the capability-gated operations over them. Rates are unsigned fixed-point
// values with 18 fractional decimal digits, denominated in the native asset.
package oracle

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

const (
	// StalenessPeriod is the absolute ceiling beyond which prices are always
	// considered stale, regardless of the configured update interval.
	StalenessPeriod = 24 * time.Hour

	// DefaultPriceUpdateInterval is the desired refresh cadence until an
	// admin overrides it.
	DefaultPriceUpdateInterval = 12 * time.Hour
)

// Precision returns the fixed-point scale shared by every stored rate (1e18).
func Precision() *uint256.Int {
	return uint256.NewInt(params.Ether)
}

// SourceKind identifies how a token's primary price is read.
type SourceKind uint8

const (
	// KindFeedAggregator reads the latest round of a price feed aggregator
	// and rescales its answer from the feed's reported decimals.
	KindFeedAggregator SourceKind = iota + 1

	// KindPoolDerived reads a pool's exchange-rate accessor, which follows
	// the 1e18 convention.
	KindPoolDerived

	// KindProtocolViewCall invokes a configured read-only accessor on the
	// primary source, optionally passing the token as the sole argument.
	KindProtocolViewCall
)

// Valid reports whether k is a recognized source kind.
func (k SourceKind) Valid() bool {
	switch k {
	case KindFeedAggregator, KindPoolDerived, KindProtocolViewCall:
		return true
	default:
		return false
	}
}

func (k SourceKind) String() string {
	switch k {
	case KindFeedAggregator:
		return "feed-aggregator"
	case KindPoolDerived:
		return "pool-derived"
	case KindProtocolViewCall:
		return "protocol-view-call"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseSourceKind parses the textual form used in configuration files.
func ParseSourceKind(s string) (SourceKind, error) {
	switch s {
	case "feed-aggregator":
		return KindFeedAggregator, nil
	case "pool-derived":
		return KindPoolDerived, nil
	case "protocol-view-call":
		return KindProtocolViewCall, nil
	default:
		return 0, fmt.Errorf("unknown source kind %q", s)
	}
}

// Selector is a 4-byte function selector.
type Selector [4]byte

// IsZero reports whether no selector is set.
func (s Selector) IsZero() bool {
	return s == Selector{}
}

// String returns the hex string representation of the selector.
// Output: a standard hex string starting with "0x".
func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// MarshalJSON serializes the selector as a hex string.
func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses a hex string into the selector.
func (s *Selector) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSelector(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSelector parses a 4-byte selector from hex, with optional 0x prefix.
func ParseSelector(raw string) (Selector, error) {
	trimmed := strings.TrimPrefix(raw, "0x")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return Selector{}, err
	}
	if len(b) != 4 {
		return Selector{}, fmt.Errorf("selector must be 4 bytes, got %d", len(b))
	}
	var s Selector
	copy(s[:], b)
	return s, nil
}

// TokenConfig is the source wiring for one configured token, as written by
// the configurator. It is stored whole; re-configuring a token overwrites
// the entire record.
type TokenConfig struct {
	PrimaryKind   SourceKind
	PrimarySource common.Address

	// NeedsArg applies to the generic call shape: when set, the token
	// address is passed as the sole ABI-encoded argument. It governs both
	// the fallback call and a protocol-view-call primary.
	NeedsArg bool

	// FallbackSource is the target of the generic fallback call; the zero
	// address disables the fallback.
	FallbackSource   common.Address
	FallbackSelector Selector
}

// Source is a price source decoded into the variant a resolver dispatches
// on. Exactly one of FeedSource, PoolSource or GenericSource.
type Source interface {
	isSource()
}

// FeedSource reads a feed aggregator's latest round.
type FeedSource struct {
	Addr common.Address
}

// PoolSource reads a pool's exchange-rate accessor.
type PoolSource struct {
	Addr common.Address
}

// GenericSource performs a raw selector call, the shape shared by
// protocol-view-call primaries and every fallback. Its raw return word is
// trusted to already be 18-decimal fixed point; that is a configuration
// contract, not a runtime-checked invariant.
type GenericSource struct {
	Addr     common.Address
	Selector Selector
	NeedsArg bool
}

func (FeedSource) isSource()    {}
func (PoolSource) isSource()    {}
func (GenericSource) isSource() {}

// Wiring is a TokenConfig decoded once, at configuration time, so raw
// selector bytes are never re-interpreted on lookup.
type Wiring struct {
	Primary Source

	// Fallback is nil when no fallback source is configured.
	Fallback *GenericSource
}

// Decode validates the config and builds its dispatchable source variants.
func (c TokenConfig) Decode() (Wiring, error) {
	if !c.PrimaryKind.Valid() {
		return Wiring{}, fmt.Errorf("%w: %s", errUnknownSourceKind, c.PrimaryKind)
	}
	if c.PrimarySource == (common.Address{}) {
		return Wiring{}, errZeroPrimarySource
	}

	var w Wiring
	switch c.PrimaryKind {
	case KindFeedAggregator:
		w.Primary = FeedSource{Addr: c.PrimarySource}
	case KindPoolDerived:
		w.Primary = PoolSource{Addr: c.PrimarySource}
	case KindProtocolViewCall:
		if c.FallbackSelector.IsZero() {
			return Wiring{}, errMissingSelector
		}
		w.Primary = GenericSource{
			Addr:     c.PrimarySource,
			Selector: c.FallbackSelector,
			NeedsArg: c.NeedsArg,
		}
	}

	if c.FallbackSource != (common.Address{}) {
		if c.FallbackSelector.IsZero() {
			return Wiring{}, errMissingSelector
		}
		w.Fallback = &GenericSource{
			Addr:     c.FallbackSource,
			Selector: c.FallbackSelector,
			NeedsArg: c.NeedsArg,
		}
	}
	return w, nil
}

var (
	errUnknownSourceKind = errors.New("unknown primary source kind")
	errZeroPrimarySource = errors.New("primary source is the zero address")
	errMissingSelector   = errors.New("selector required but not set")
)
