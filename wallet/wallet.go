// Package wallet generates single-key Bitcoin wallets and derives their
// legacy or SegWit-compatible addresses. Keys are held only in memory.
package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// Format names the address encoding of a wallet.
type Format string

const (
	Legacy Format = "P2PKH (Legacy)"
	Segwit Format = "P2SH-P2WPKH (SegWit)"
)

// Wallet pairs a WIF-encoded private key with the address derived from it.
// Records are immutable after creation.
type Wallet struct {
	PrivateKey string
	Address    string
	Format     Format
}

// NewLegacy creates a wallet with a fresh random key and a P2PKH address.
func NewLegacy(params *chaincfg.Params) (Wallet, error) {
	return newWallet(Legacy, params)
}

// NewSegwit creates a wallet with a fresh random key and a P2SH-P2WPKH
// address.
func NewSegwit(params *chaincfg.Params) (Wallet, error) {
	return newWallet(Segwit, params)
}

func newWallet(format Format, params *chaincfg.Params) (Wallet, error) {
	privKey, err := btcec.NewPrivateKey()
	if err != nil {
		return Wallet{}, err
	}

	wif, err := btcutil.NewWIF(privKey, params, true)
	if err != nil {
		return Wallet{}, err
	}

	address, err := deriveAddress(wif, format, params)
	if err != nil {
		return Wallet{}, err
	}

	return Wallet{
		PrivateKey: wif.String(),
		Address:    address,
		Format:     format,
	}, nil
}

// FromWIF rebuilds the wallet record of an existing private key, deriving the
// address for the requested format.
func FromWIF(wifStr string, format Format, params *chaincfg.Params) (Wallet, error) {
	wif, err := btcutil.DecodeWIF(wifStr)
	if err != nil {
		return Wallet{}, fmt.Errorf("invalid private key: %s", err)
	}
	if !wif.IsForNet(params) {
		return Wallet{}, fmt.Errorf("private key is not valid for network %s", params.Name)
	}

	address, err := deriveAddress(wif, format, params)
	if err != nil {
		return Wallet{}, err
	}

	return Wallet{
		PrivateKey: wif.String(),
		Address:    address,
		Format:     format,
	}, nil
}

func deriveAddress(wif *btcutil.WIF, format Format, params *chaincfg.Params) (string, error) {
	pubKeyHash := btcutil.Hash160(wif.SerializePubKey())

	switch format {
	case Legacy:
		addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params)
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil
	case Segwit:
		// Wrap the v0 witness program in a script hash (BIP 49 style).
		redeemScript, err := RedeemScript(wif, params)
		if err != nil {
			return "", err
		}
		addr, err := btcutil.NewAddressScriptHash(redeemScript, params)
		if err != nil {
			return "", err
		}
		return addr.EncodeAddress(), nil
	default:
		return "", fmt.Errorf("unknown wallet format: %s", format)
	}
}

// RedeemScript returns the p2wpkh witness program script that a P2SH-P2WPKH
// address of this key commits to.
func RedeemScript(wif *btcutil.WIF, params *chaincfg.Params) ([]byte, error) {
	witnessProg := btcutil.Hash160(wif.SerializePubKey())
	witnessAddr, err := btcutil.NewAddressWitnessPubKeyHash(witnessProg, params)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(witnessAddr)
}
