package market

import (
	"fmt"
	"math/big"
	"sync"
)

// StaticTokenResolver serves token clients from a fixed registry. Assets
// without a registered client fail their transfers, which the engine reports
// as a failed pull or payout.
type StaticTokenResolver struct {
	mu      sync.RWMutex
	clients map[[20]byte]Token
}

func NewStaticTokenResolver() *StaticTokenResolver {
	return &StaticTokenResolver{clients: make(map[[20]byte]Token)}
}

// Register binds an asset identifier to its client, replacing any prior one.
func (r *StaticTokenResolver) Register(asset [20]byte, token Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[asset] = token
}

func (r *StaticTokenResolver) Token(asset [20]byte) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.clients[asset]
	if !ok {
		return nil, fmt.Errorf("no client registered for asset %x", asset)
	}
	return token, nil
}

// NativeTransferFunc adapts a function to the NativeTransferrer interface.
type NativeTransferFunc func(to [20]byte, amount *big.Int) error

func (f NativeTransferFunc) Transfer(to [20]byte, amount *big.Int) error {
	return f(to, amount)
}
