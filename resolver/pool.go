package resolver

import (
	"context"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
)

// poolABI is the rate-provider convention: getRate() returns the pool's
// exchange rate already scaled to 1e18.
var poolABI = mustParseABI(`[
	{"name":"getRate","type":"function","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint256"}
	]}
]`)

var getRateCall = mustPack(poolABI, "getRate")

// readPool reads the pool's exchange-rate accessor. The accessor's own
// precision convention is 1e18, so no rescaling is needed; a pool with
// another convention needs its own source kind, not a silent scale factor.
func (r *Resolver) readPool(ctx context.Context, src oracle.PoolSource) (*uint256.Int, error) {
	out, err := r.call(ctx, src.Addr, getRateCall)
	if err != nil {
		return nil, fmt.Errorf("getRate: %w", err)
	}
	vals, err := poolABI.Unpack("getRate", out)
	if err != nil {
		return nil, fmt.Errorf("decode getRate: %w", err)
	}
	rate, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected rate type %T", vals[0])
	}
	return normalize(rate, 18)
}
