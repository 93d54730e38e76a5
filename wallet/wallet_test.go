package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestNewLegacyFreshEntropy(t *testing.T) {
	first, err := NewLegacy(&chaincfg.MainNetParams)
	require.NoError(t, err)
	second, err := NewLegacy(&chaincfg.MainNetParams)
	require.NoError(t, err)

	require.NotEmpty(t, first.PrivateKey)
	require.NotEmpty(t, first.Address)
	require.NotEqual(t, first.PrivateKey, second.PrivateKey)
	require.NotEqual(t, first.Address, second.Address)
}

func TestAddressFormats(t *testing.T) {
	legacy, err := NewLegacy(&chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, Legacy, legacy.Format)

	decoded, err := btcutil.DecodeAddress(legacy.Address, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressPubKeyHash{}, decoded)

	// Same key, segwit encoding: different address, script-hash type.
	segwit, err := FromWIF(legacy.PrivateKey, Segwit, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, Segwit, segwit.Format)
	require.NotEqual(t, legacy.Address, segwit.Address)

	decoded, err = btcutil.DecodeAddress(segwit.Address, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.IsType(t, &btcutil.AddressScriptHash{}, decoded)
}

func TestFromWIFConsistency(t *testing.T) {
	created, err := NewSegwit(&chaincfg.TestNet3Params)
	require.NoError(t, err)

	rebuilt, err := FromWIF(created.PrivateKey, Segwit, &chaincfg.TestNet3Params)
	require.NoError(t, err)
	require.Equal(t, created, rebuilt)
}

func TestFromWIFErrors(t *testing.T) {
	_, err := FromWIF("not-a-wif", Legacy, &chaincfg.MainNetParams)
	require.Error(t, err)

	testnetWallet, err := NewLegacy(&chaincfg.TestNet3Params)
	require.NoError(t, err)
	_, err = FromWIF(testnetWallet.PrivateKey, Legacy, &chaincfg.MainNetParams)
	require.Error(t, err)
}

func TestSession(t *testing.T) {
	session := NewSession()
	require.Equal(t, 0, session.Len())

	_, ok := session.At(1)
	require.False(t, ok)

	first, err := NewLegacy(&chaincfg.MainNetParams)
	require.NoError(t, err)
	second, err := NewSegwit(&chaincfg.MainNetParams)
	require.NoError(t, err)

	session.Add(first)
	session.Add(second)
	require.Equal(t, 2, session.Len())

	// 1-based selection, insertion order.
	got, ok := session.At(1)
	require.True(t, ok)
	require.Equal(t, first, got)
	got, ok = session.At(2)
	require.True(t, ok)
	require.Equal(t, second, got)

	_, ok = session.At(0)
	require.False(t, ok)
	_, ok = session.At(3)
	require.False(t, ok)

	// All returns a copy, mutating it leaves the session intact.
	all := session.All()
	all[0] = Wallet{}
	got, _ = session.At(1)
	require.Equal(t, first, got)
}
