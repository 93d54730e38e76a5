package utils

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ccoveille/go-safecast"
)

// SupportedType maps a network name to a per-network value, e.g. the default
// explorer URL.
type SupportedType[V any] map[string]V

type cacheEntry[V any] struct {
	value V
	setAt time.Time
}

// Cache is a small TTL cache keyed by string. A zero TTL means entries never
// expire.
type Cache[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry[V]
}

func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		entries: make(map[string]cacheEntry[V]),
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.ttl > 0 && time.Since(entry.setAt) > c.ttl {
		var zero V
		return zero, false
	}
	return entry.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: value, setAt: time.Now()}
}

// NetworkParams resolves a network name from the command line to its chain
// parameters.
func NetworkParams(name string) (*chaincfg.Params, error) {
	switch name {
	case "", "mainnet", "bitcoin":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network: %s", name)
	}
}

// BtcToSatoshi converts a BTC amount entered by the user to satoshis,
// rejecting non-positive, non-finite and out-of-range values.
func BtcToSatoshi(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount is not a finite number")
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	sats, err := safecast.ToInt64(math.Round(amount * btcutil.SatoshiPerBitcoin))
	if err != nil {
		return 0, fmt.Errorf("amount out of range: %w", err)
	}
	return sats, nil
}
