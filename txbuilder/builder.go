// Package txbuilder assembles and locally signs demonstration transactions.
// The produced hex is never broadcast: it exists so the user can inspect what
// a real spend from their session wallet would look like.
package txbuilder

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/ccoveille/go-safecast"
	log "github.com/sirupsen/logrus"

	bitcoinlab "github.com/supertren/bitcoin-lab-en"
	"github.com/supertren/bitcoin-lab-en/explorer"
	"github.com/supertren/bitcoin-lab-en/internal/utils"
	"github.com/supertren/bitcoin-lab-en/wallet"
)

const (
	// Payload embedded in every simulated transaction.
	simulationPayload = "Test transaction from Bitcoin Laboratory"

	// Outputs below this value are not relayed; sub-dust change is folded
	// into the fee instead.
	dustLimit = 546

	op = "creating transaction"
)

// Simulation is the outcome of a transaction build: the serialized hex plus
// the figures it was built from.
type Simulation struct {
	Source      string
	Destination string
	AmountBTC   float64
	Fee         uint64
	TxHex       string
}

type Builder struct {
	explorer explorer.Explorer
	net      *chaincfg.Params
}

func New(explorerSvc explorer.Explorer, net *chaincfg.Params) *Builder {
	return &Builder{explorer: explorerSvc, net: net}
}

// Simulate builds and signs a transaction spending from the wallet behind
// wifStr to destination. The current estimated fee rate figure is applied as
// an absolute satoshi fee. The transaction is returned serialized, not sent.
func (b *Builder) Simulate(
	wifStr, destination string, amountBTC float64, format wallet.Format,
) (*Simulation, error) {
	source, err := wallet.FromWIF(wifStr, format, b.net)
	if err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}
	wif, err := btcutil.DecodeWIF(wifStr)
	if err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	destAddr, err := btcutil.DecodeAddress(destination, b.net)
	if err != nil {
		return nil, bitcoinlab.NewError(
			bitcoinlab.KindInvalidAddress, op, fmt.Errorf("invalid destination address: %s", err),
		)
	}
	destScript, err := txscript.PayToAddrScript(destAddr)
	if err != nil {
		return nil, bitcoinlab.NewError(
			bitcoinlab.KindInvalidAddress, op, fmt.Errorf("invalid destination address: %s", err),
		)
	}

	amount, err := utils.BtcToSatoshi(amountBTC)
	if err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	feeRate, err := b.explorer.GetFeeRate()
	if err != nil {
		return nil, wrapErr(err)
	}
	fee, err := safecast.ToInt64(feeRate)
	if err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	utxos, err := b.explorer.GetUtxos(source.Address)
	if err != nil {
		return nil, wrapErr(err)
	}

	selected, selectedAmount, err := selectUtxos(utxos, amount+fee)
	if err != nil {
		return nil, err
	}

	sourceScript, err := txscript.PayToAddrScript(mustDecode(source.Address, b.net))
	if err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindInvalidAddress, op, err)
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(selected))
	for _, u := range selected {
		hash, err := chainhash.NewHashFromStr(u.Txid)
		if err != nil {
			return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
		}
		outPoint := wire.NewOutPoint(hash, u.Vout)
		tx.AddTxIn(wire.NewTxIn(outPoint, nil, nil))

		utxoAmount, err := safecast.ToInt64(u.Amount)
		if err != nil {
			return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
		}
		prevOuts[*outPoint] = wire.NewTxOut(utxoAmount, sourceScript)
	}

	tx.AddTxOut(wire.NewTxOut(amount, destScript))

	payloadScript, err := txscript.NullDataScript([]byte(simulationPayload))
	if err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}
	tx.AddTxOut(wire.NewTxOut(0, payloadScript))

	change := selectedAmount - amount - fee
	if change >= dustLimit {
		tx.AddTxOut(wire.NewTxOut(change, sourceScript))
	} else if change > 0 {
		log.Debugf("txbuilder: folding sub-dust change of %d sats into the fee", change)
	}

	if err := b.sign(tx, wif, format, selected, sourceScript, prevOuts); err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	return &Simulation{
		Source:      source.Address,
		Destination: destination,
		AmountBTC:   amountBTC,
		Fee:         feeRate,
		TxHex:       hex.EncodeToString(buf.Bytes()),
	}, nil
}

// selectUtxos accumulates utxos in explorer order until target is covered.
func selectUtxos(utxos []explorer.Utxo, target int64) ([]explorer.Utxo, int64, error) {
	selected := make([]explorer.Utxo, 0, len(utxos))
	selectedAmount := int64(0)

	for _, u := range utxos {
		if selectedAmount >= target {
			break
		}
		amount, err := safecast.ToInt64(u.Amount)
		if err != nil {
			return nil, 0, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
		}
		selected = append(selected, u)
		selectedAmount += amount
	}

	if selectedAmount < target {
		return nil, 0, bitcoinlab.NewError(
			bitcoinlab.KindInsufficientFunds, op,
			fmt.Errorf("not enough funds to cover amount %d", target),
		)
	}
	return selected, selectedAmount, nil
}

func (b *Builder) sign(
	tx *wire.MsgTx, wif *btcutil.WIF, format wallet.Format,
	selected []explorer.Utxo, sourceScript []byte, prevOuts map[wire.OutPoint]*wire.TxOut,
) error {
	switch format {
	case wallet.Legacy:
		for i := range tx.TxIn {
			sigScript, err := txscript.SignatureScript(
				tx, i, sourceScript, txscript.SigHashAll, wif.PrivKey, wif.CompressPubKey,
			)
			if err != nil {
				return err
			}
			tx.TxIn[i].SignatureScript = sigScript
		}
		return nil
	case wallet.Segwit:
		redeemScript, err := wallet.RedeemScript(wif, b.net)
		if err != nil {
			return err
		}
		// The script sig of a P2SH-P2WPKH input is a single push of the
		// witness program script.
		sigScript, err := txscript.NewScriptBuilder().AddData(redeemScript).Script()
		if err != nil {
			return err
		}

		sigHashes := txscript.NewTxSigHashes(tx, txscript.NewMultiPrevOutFetcher(prevOuts))
		for i, u := range selected {
			utxoAmount, err := safecast.ToInt64(u.Amount)
			if err != nil {
				return err
			}
			witness, err := txscript.WitnessSignature(
				tx, sigHashes, i, utxoAmount, redeemScript,
				txscript.SigHashAll, wif.PrivKey, wif.CompressPubKey,
			)
			if err != nil {
				return err
			}
			tx.TxIn[i].Witness = witness
			tx.TxIn[i].SignatureScript = sigScript
		}
		return nil
	default:
		return fmt.Errorf("unknown wallet format: %s", format)
	}
}

func wrapErr(err error) error {
	var qerr *bitcoinlab.Error
	if errors.As(err, &qerr) {
		return bitcoinlab.NewError(qerr.Kind, op, qerr.Err)
	}
	return bitcoinlab.NewError(bitcoinlab.KindNetwork, op, err)
}

func mustDecode(addr string, net *chaincfg.Params) btcutil.Address {
	// The address was derived by us from the WIF just above, it decodes.
	decoded, _ := btcutil.DecodeAddress(addr, net)
	return decoded
}
