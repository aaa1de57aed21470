package resolver

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"github.com/EigenExplorer/liquid-avs-token-sub007/oracle"
)

// feedABI covers the aggregator read surface: the latest round and the
// feed's reported decimal precision.
var feedABI = mustParseABI(`[
	{"name":"latestRoundData","type":"function","stateMutability":"view","inputs":[],"outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}
	]},
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint8"}
	]}
]`)

var (
	latestRoundDataCall = mustPack(feedABI, "latestRoundData")
	decimalsCall        = mustPack(feedABI, "decimals")
)

// readFeed reads the aggregator's latest round, rejects a non-positive
// answer or a round older than the staleness ceiling, and rescales the
// answer from the feed's decimals to 18.
func (r *Resolver) readFeed(ctx context.Context, src oracle.FeedSource) (*uint256.Int, error) {
	out, err := r.call(ctx, src.Addr, latestRoundDataCall)
	if err != nil {
		return nil, fmt.Errorf("latestRoundData: %w", err)
	}
	vals, err := feedABI.Unpack("latestRoundData", out)
	if err != nil {
		return nil, fmt.Errorf("decode latestRoundData: %w", err)
	}
	answer, ok := vals[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected answer type %T", vals[1])
	}
	updatedAt, ok := vals[3].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected updatedAt type %T", vals[3])
	}

	if !updatedAt.IsInt64() {
		return nil, fmt.Errorf("updatedAt %s out of range", updatedAt)
	}
	age := r.now().Sub(time.Unix(updatedAt.Int64(), 0))
	if age > oracle.StalenessPeriod {
		return nil, fmt.Errorf("feed round is %s old, past the %s ceiling", age, oracle.StalenessPeriod)
	}

	decimals, err := r.readFeedDecimals(ctx, src)
	if err != nil {
		return nil, err
	}
	return normalize(answer, decimals)
}

func (r *Resolver) readFeedDecimals(ctx context.Context, src oracle.FeedSource) (uint8, error) {
	out, err := r.call(ctx, src.Addr, decimalsCall)
	if err != nil {
		return 0, fmt.Errorf("decimals: %w", err)
	}
	vals, err := feedABI.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("decode decimals: %w", err)
	}
	d, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", vals[0])
	}
	return d, nil
}
