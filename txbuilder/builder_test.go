package txbuilder_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	bitcoinlab "github.com/supertren/bitcoin-lab-en"
	"github.com/supertren/bitcoin-lab-en/explorer"
	"github.com/supertren/bitcoin-lab-en/txbuilder"
	"github.com/supertren/bitcoin-lab-en/wallet"
)

type fakeExplorer struct {
	utxos   []explorer.Utxo
	feeRate uint64
	feeErr  error
	utxoErr error
}

func (f *fakeExplorer) BaseUrl() string                       { return "fake://" }
func (f *fakeExplorer) GetBalance(string) (uint64, error)     { return 0, nil }
func (f *fakeExplorer) GetTxHistory(string) ([]string, error) { return nil, nil }
func (f *fakeExplorer) GetTxHex(string) (string, error)       { return "", nil }

func (f *fakeExplorer) GetFeeRate() (uint64, error) {
	return f.feeRate, f.feeErr
}

func (f *fakeExplorer) GetUtxos(string) ([]explorer.Utxo, error) {
	return f.utxos, f.utxoErr
}

func someUtxos(amounts ...uint64) []explorer.Utxo {
	utxos := make([]explorer.Utxo, 0, len(amounts))
	for i, amount := range amounts {
		utxos = append(utxos, explorer.Utxo{
			Txid:   strings.Repeat("ab", 32),
			Vout:   uint32(i),
			Amount: amount,
			Status: explorer.ConfirmedStatus{Confirmed: true},
		})
	}
	return utxos
}

func decodeTx(t *testing.T, txHex string) *wire.MsgTx {
	t.Helper()
	raw, err := hex.DecodeString(txHex)
	require.NoError(t, err)
	tx := &wire.MsgTx{}
	require.NoError(t, tx.Deserialize(bytes.NewReader(raw)))
	return tx
}

func TestSimulateLegacy(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewLegacy(params)
	require.NoError(t, err)
	dest, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{
		utxos:   someUtxos(100000),
		feeRate: 10,
	}, params)

	result, err := builder.Simulate(source.PrivateKey, dest.Address, 0.0005, wallet.Legacy)
	require.NoError(t, err)
	require.Equal(t, source.Address, result.Source)
	require.Equal(t, dest.Address, result.Destination)
	require.Equal(t, 0.0005, result.AmountBTC)
	require.Equal(t, uint64(10), result.Fee)

	tx := decodeTx(t, result.TxHex)
	require.Len(t, tx.TxIn, 1)
	require.NotEmpty(t, tx.TxIn[0].SignatureScript)
	require.Empty(t, tx.TxIn[0].Witness)

	// Destination, OP_RETURN payload and change.
	require.Len(t, tx.TxOut, 3)
	require.Equal(t, int64(50000), tx.TxOut[0].Value)
	require.Equal(t, int64(0), tx.TxOut[1].Value)
	require.Contains(t, string(tx.TxOut[1].PkScript), "Test transaction from Bitcoin Laboratory")
	require.Equal(t, int64(49990), tx.TxOut[2].Value)
}

func TestSimulateSegwit(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewSegwit(params)
	require.NoError(t, err)
	dest, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{
		utxos:   someUtxos(100000),
		feeRate: 10,
	}, params)

	result, err := builder.Simulate(source.PrivateKey, dest.Address, 0.0005, wallet.Segwit)
	require.NoError(t, err)

	tx := decodeTx(t, result.TxHex)
	require.Len(t, tx.TxIn, 1)
	// Signature plus pubkey in the witness, witness program in the scriptSig.
	require.Len(t, tx.TxIn[0].Witness, 2)
	require.NotEmpty(t, tx.TxIn[0].SignatureScript)
}

func TestSimulateMultipleInputs(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewLegacy(params)
	require.NoError(t, err)
	dest, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{
		utxos:   someUtxos(30000, 30000, 30000),
		feeRate: 10,
	}, params)

	result, err := builder.Simulate(source.PrivateKey, dest.Address, 0.0005, wallet.Legacy)
	require.NoError(t, err)

	tx := decodeTx(t, result.TxHex)
	require.Len(t, tx.TxIn, 2)
	for _, in := range tx.TxIn {
		require.NotEmpty(t, in.SignatureScript)
	}
	// 60000 selected, 50000 sent, 10 fee.
	require.Equal(t, int64(9990), tx.TxOut[2].Value)
}

func TestSimulateSubDustChange(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewLegacy(params)
	require.NoError(t, err)
	dest, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{
		utxos:   someUtxos(50500),
		feeRate: 10,
	}, params)

	result, err := builder.Simulate(source.PrivateKey, dest.Address, 0.0005, wallet.Legacy)
	require.NoError(t, err)

	// The 490 sat change is below the dust limit and folded into the fee.
	tx := decodeTx(t, result.TxHex)
	require.Len(t, tx.TxOut, 2)
}

func TestSimulateInsufficientFunds(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewLegacy(params)
	require.NoError(t, err)
	dest, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{
		utxos:   someUtxos(1000),
		feeRate: 10,
	}, params)

	_, err = builder.Simulate(source.PrivateKey, dest.Address, 0.0005, wallet.Legacy)
	require.Error(t, err)
	require.Equal(t, bitcoinlab.KindInsufficientFunds, bitcoinlab.KindOf(err))
	require.Regexp(t, "^Error creating transaction", err.Error())
}

func TestSimulateInvalidDestination(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{feeRate: 10}, params)

	_, err = builder.Simulate(source.PrivateKey, "not-an-address", 0.0005, wallet.Legacy)
	require.Error(t, err)
	require.Equal(t, bitcoinlab.KindInvalidAddress, bitcoinlab.KindOf(err))
}

func TestSimulateInvalidAmount(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewLegacy(params)
	require.NoError(t, err)
	dest, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{feeRate: 10}, params)

	_, err = builder.Simulate(source.PrivateKey, dest.Address, -1, wallet.Legacy)
	require.Error(t, err)
	require.Equal(t, bitcoinlab.KindParse, bitcoinlab.KindOf(err))
}

func TestSimulateExplorerErrorKindPreserved(t *testing.T) {
	params := &chaincfg.MainNetParams
	source, err := wallet.NewLegacy(params)
	require.NoError(t, err)
	dest, err := wallet.NewLegacy(params)
	require.NoError(t, err)

	builder := txbuilder.New(&fakeExplorer{
		feeErr: bitcoinlab.NewError(
			bitcoinlab.KindTimeout, "estimating fee", errors.New("deadline exceeded"),
		),
	}, params)

	_, err = builder.Simulate(source.PrivateKey, dest.Address, 0.0005, wallet.Legacy)
	require.Error(t, err)
	require.Equal(t, bitcoinlab.KindTimeout, bitcoinlab.KindOf(err))
	require.Regexp(t, "^Error creating transaction", err.Error())
}
