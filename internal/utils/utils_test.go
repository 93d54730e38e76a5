package utils

import (
	"math"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	cache := NewCache[uint64](0)

	_, ok := cache.Get("fee")
	require.False(t, ok)

	cache.Set("fee", 21)
	got, ok := cache.Get("fee")
	require.True(t, ok)
	require.Equal(t, uint64(21), got)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache[string](time.Millisecond)

	cache.Set("tx", "deadbeef")
	got, ok := cache.Get("tx")
	require.True(t, ok)
	require.Equal(t, "deadbeef", got)

	time.Sleep(5 * time.Millisecond)
	_, ok = cache.Get("tx")
	require.False(t, ok)
}

func TestNetworkParams(t *testing.T) {
	tests := []struct {
		name string
		want *chaincfg.Params
	}{
		{name: "mainnet", want: &chaincfg.MainNetParams},
		{name: "", want: &chaincfg.MainNetParams},
		{name: "testnet", want: &chaincfg.TestNet3Params},
		{name: "signet", want: &chaincfg.SigNetParams},
		{name: "regtest", want: &chaincfg.RegressionNetParams},
	}

	for _, tt := range tests {
		got, err := NetworkParams(tt.name)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	_, err := NetworkParams("litecoin")
	require.Error(t, err)
}

func TestBtcToSatoshi(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		want    int64
		wantErr bool
	}{
		{name: "one btc", amount: 1, want: 100000000},
		{name: "typical amount", amount: 0.0005, want: 50000},
		{name: "single satoshi", amount: 0.00000001, want: 1},
		{name: "rounded", amount: 0.000000014, want: 1},
		{name: "zero", amount: 0, wantErr: true},
		{name: "negative", amount: -0.5, wantErr: true},
		{name: "nan", amount: math.NaN(), wantErr: true},
		{name: "infinite", amount: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BtcToSatoshi(tt.amount)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
