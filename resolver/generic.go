package resolver

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
)

// callGeneric performs the raw selector call shared by protocol-view-call
// primaries and every fallback: the selector, then the ABI-padded token
// address iff the source takes it as its sole argument. The returned word
// is decoded as an unsigned integer and trusted to already be 18-decimal.
func (r *Resolver) callGeneric(ctx context.Context, token common.Address, src oracle.GenericSource) (*uint256.Int, error) {
	data := make([]byte, 0, 4+32)
	data = append(data, src.Selector[:]...)
	if src.NeedsArg {
		data = append(data, common.LeftPadBytes(token.Bytes(), 32)...)
	}

	out, err := r.call(ctx, src.Addr, data)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", src.Selector, err)
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("call %s: short return of %d bytes", src.Selector, len(out))
	}

	v := new(uint256.Int).SetBytes(out[:32])
	if v.IsZero() {
		return nil, fmt.Errorf("call %s: zero rate", src.Selector)
	}
	return v, nil
}
