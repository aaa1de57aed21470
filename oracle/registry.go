package oracle

import (
	"github.com/ethereum/go-ethereum/common"
)

// registry owns the configured token set: a dense array for iteration order
// plus an index map for membership, so removal is swap-with-last-and-truncate
// and lookup never scans. A token appears in the array exactly once iff it
// has an index entry.
type registry struct {
	tokens  []common.Address
	index   map[common.Address]int
	configs map[common.Address]TokenConfig
	wirings map[common.Address]Wiring
}

func newRegistry() *registry {
	return &registry{
		index:   make(map[common.Address]int),
		configs: make(map[common.Address]TokenConfig),
		wirings: make(map[common.Address]Wiring),
	}
}

// isConfigured reports set membership.
func (r *registry) isConfigured(token common.Address) bool {
	_, ok := r.index[token]
	return ok
}

// configure upserts the token's record. A token already present keeps its
// position and is overwritten whole; a new token is appended. Reports
// whether the token was newly added.
func (r *registry) configure(token common.Address, cfg TokenConfig, w Wiring) bool {
	added := false
	if _, ok := r.index[token]; !ok {
		r.index[token] = len(r.tokens)
		r.tokens = append(r.tokens, token)
		added = true
	}
	r.configs[token] = cfg
	r.wirings[token] = w
	return added
}

// remove swap-removes the token. Iteration order of the remaining tokens is
// not stable across removals. Reports whether the token was present.
func (r *registry) remove(token common.Address) bool {
	pos, ok := r.index[token]
	if !ok {
		return false
	}
	last := len(r.tokens) - 1
	if pos != last {
		moved := r.tokens[last]
		r.tokens[pos] = moved
		r.index[moved] = pos
	}
	r.tokens = r.tokens[:last]
	delete(r.index, token)
	delete(r.configs, token)
	delete(r.wirings, token)
	return true
}

// config returns the token's stored configuration.
func (r *registry) config(token common.Address) (TokenConfig, bool) {
	cfg, ok := r.configs[token]
	return cfg, ok
}

// wiring returns the token's decoded source variants.
func (r *registry) wiring(token common.Address) (Wiring, bool) {
	w, ok := r.wirings[token]
	return w, ok
}

// all returns a defensive copy of the configured tokens in iteration order.
func (r *registry) all() []common.Address {
	out := make([]common.Address, len(r.tokens))
	copy(out, r.tokens)
	return out
}

func (r *registry) len() int {
	return len(r.tokens)
}
