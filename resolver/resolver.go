// Package resolver turns a token's configured source wiring into a
// normalized 18-decimal price, reading the primary source first and falling
// back to the generic call when it fails.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
)

// ContractCaller is the read-only EVM call surface the resolver needs.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds the configuration for the Resolver.
type Config struct {
	Caller ContractCaller
	Logger *slog.Logger

	// Now overrides the clock used for feed round age checks; nil means
	// time.Now.
	Now func() time.Time
}

// validate checks if the configuration is valid.
func (c *Config) validate() error {
	if c.Caller == nil {
		return errors.New("config: Caller is required")
	}
	if c.Logger == nil {
		return errors.New("config: Logger is required")
	}
	return nil
}

// Resolver resolves token prices from configured on-chain sources.
type Resolver struct {
	caller ContractCaller
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new Resolver.
func New(cfg Config) (*Resolver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		caller: cfg.Caller,
		logger: cfg.Logger,
		now:    now,
	}, nil
}

// Resolve reads the token's primary source and, if that fails for any
// reason, its fallback. A failed call, a bad decode, a non-positive value
// and a too-old feed round are all the same outcome: ok=false. Resolve
// never returns ok=true with a non-positive price.
func (r *Resolver) Resolve(ctx context.Context, token common.Address, w oracle.Wiring) (*uint256.Int, bool) {
	price, err := r.resolvePrimary(ctx, token, w.Primary)
	if err == nil {
		return price, true
	}
	r.logger.Debug("primary source failed", "token", token, "error", err)

	if w.Fallback == nil {
		return nil, false
	}
	price, err = r.callGeneric(ctx, token, *w.Fallback)
	if err != nil {
		r.logger.Debug("fallback source failed", "token", token, "error", err)
		return nil, false
	}
	return price, true
}

func (r *Resolver) resolvePrimary(ctx context.Context, token common.Address, src oracle.Source) (*uint256.Int, error) {
	switch s := src.(type) {
	case oracle.FeedSource:
		return r.readFeed(ctx, s)
	case oracle.PoolSource:
		return r.readPool(ctx, s)
	case oracle.GenericSource:
		return r.callGeneric(ctx, token, s)
	default:
		return nil, fmt.Errorf("unknown source variant %T", src)
	}
}

// call performs one read-only contract call at the latest block.
func (r *Resolver) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// normalize scales a positive answer reported at d decimals to the
// 18-decimal fixed point used by the rate store.
func normalize(answer *big.Int, d uint8) (*uint256.Int, error) {
	if answer.Sign() <= 0 {
		return nil, fmt.Errorf("non-positive value %s", answer)
	}
	v, overflow := uint256.FromBig(answer)
	if overflow {
		return nil, fmt.Errorf("value %s overflows uint256", answer)
	}
	switch {
	case d == 18:
		return v, nil
	case d < 18:
		scale := pow10(18 - d)
		scaled, overflow := new(uint256.Int).MulOverflow(v, scale)
		if overflow {
			return nil, fmt.Errorf("value %s overflows at %d decimals", answer, d)
		}
		return scaled, nil
	default:
		return new(uint256.Int).Div(v, pow10(d-18)), nil
	}
}

func pow10(n uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustPack(parsed abi.ABI, method string) []byte {
	data, err := parsed.Pack(method)
	if err != nil {
		panic(err)
	}
	return data
}
