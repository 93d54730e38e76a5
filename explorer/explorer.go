// Package explorer provides a thin facade over esplora-compatible REST APIs
// (mempool.space, blockstream.info, a local esplora instance) for address
// balance, transaction history, fee and UTXO lookups.
//
// All methods are synchronous and block until the HTTP call returns or the
// client times out. Failures are reported as *bitcoinlab.Error values so
// callers can distinguish a network failure from an invalid address or a
// malformed response.
package explorer

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/ccoveille/go-safecast"
	log "github.com/sirupsen/logrus"

	bitcoinlab "github.com/supertren/bitcoin-lab-en"
	"github.com/supertren/bitcoin-lab-en/internal/utils"
)

const feeCacheKey = "next-block"

var defaultExplorerUrls = utils.SupportedType[string]{
	chaincfg.MainNetParams.Name:       "https://mempool.space/api",
	chaincfg.TestNet3Params.Name:      "https://mempool.space/testnet/api",
	chaincfg.SigNetParams.Name:        "https://mempool.space/signet/api",
	chaincfg.RegressionNetParams.Name: "http://localhost:3000",
}

// Explorer exposes the blockchain lookups the menu relies on.
type Explorer interface {
	// BaseUrl returns the base URL of the explorer service.
	BaseUrl() string

	// GetBalance returns the confirmed plus unconfirmed balance of an
	// address in satoshis.
	GetBalance(addr string) (uint64, error)

	// GetTxHistory returns the transaction ids associated with an address,
	// in the order the explorer reports them.
	GetTxHistory(addr string) ([]string, error)

	// GetFeeRate returns the next-block fee estimate in sat/vB, rounded up
	// to a whole number. The value is cached for a short interval.
	GetFeeRate() (uint64, error)

	// GetUtxos returns the unspent outputs of an address with the address'
	// output script attached.
	GetUtxos(addr string) ([]Utxo, error)

	// GetTxHex returns the raw transaction hex for a transaction id.
	GetTxHex(txid string) (string, error)
}

type explorerSvc struct {
	baseUrl     string
	net         *chaincfg.Params
	client      *http.Client
	feeCacheTTL time.Duration
	feeCache    *utils.Cache[uint64]
	txCache     *utils.Cache[string]
}

// NewExplorer creates an explorer for the given network. If baseUrl is empty
// the default public endpoint for the network is used.
func NewExplorer(baseUrl string, net *chaincfg.Params, opts ...Option) (Explorer, error) {
	if len(baseUrl) == 0 {
		defaultUrl, ok := defaultExplorerUrls[net.Name]
		if !ok {
			return nil, fmt.Errorf(
				"cannot find default explorer url associated with network %s", net.Name,
			)
		}
		baseUrl = defaultUrl
	}

	if _, err := url.Parse(baseUrl); err != nil {
		return nil, fmt.Errorf("invalid base url: %s", err)
	}

	svc := &explorerSvc{
		baseUrl:     baseUrl,
		net:         net,
		client:      &http.Client{Timeout: 15 * time.Second},
		feeCacheTTL: time.Minute,
		txCache:     utils.NewCache[string](0),
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.feeCache = utils.NewCache[uint64](svc.feeCacheTTL)

	return svc, nil
}

func (e *explorerSvc) BaseUrl() string {
	return e.baseUrl
}

func (e *explorerSvc) GetBalance(addr string) (uint64, error) {
	const op = "getting balance"

	if _, err := e.outputScript(addr); err != nil {
		return 0, bitcoinlab.NewError(bitcoinlab.KindInvalidAddress, op, err)
	}

	body, err := e.get(op, fmt.Sprintf("%s/address/%s", e.baseUrl, addr))
	if err != nil {
		return 0, err
	}

	stats := addressStats{}
	if err := json.Unmarshal(body, &stats); err != nil {
		return 0, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	balance := stats.ChainStats.FundedTxoSum - stats.ChainStats.SpentTxoSum
	balance += stats.MempoolStats.FundedTxoSum - stats.MempoolStats.SpentTxoSum
	return balance, nil
}

func (e *explorerSvc) GetTxHistory(addr string) ([]string, error) {
	const op = "getting transaction history"

	if _, err := e.outputScript(addr); err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindInvalidAddress, op, err)
	}

	body, err := e.get(op, fmt.Sprintf("%s/address/%s/txs", e.baseUrl, addr))
	if err != nil {
		return nil, err
	}

	payload := make([]tx, 0)
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	txids := make([]string, 0, len(payload))
	for _, t := range payload {
		txids = append(txids, t.Txid)
	}
	return txids, nil
}

func (e *explorerSvc) GetFeeRate() (uint64, error) {
	const op = "estimating fee"

	if fee, ok := e.feeCache.Get(feeCacheKey); ok {
		return fee, nil
	}

	body, err := e.get(op, fmt.Sprintf("%s/fee-estimates", e.baseUrl))
	if err != nil {
		return 0, err
	}

	response := make(map[string]float64)
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	// A fractional sat/vB rate cannot be paid per byte, round up.
	fee := uint64(1)
	if rate, ok := response["1"]; ok && rate > 0 {
		rounded, err := safecast.ToUint64(math.Ceil(rate))
		if err != nil {
			return 0, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
		}
		fee = rounded
	}

	e.feeCache.Set(feeCacheKey, fee)
	return fee, nil
}

func (e *explorerSvc) GetUtxos(addr string) ([]Utxo, error) {
	const op = "getting utxos"

	outputScript, err := e.outputScript(addr)
	if err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindInvalidAddress, op, err)
	}

	body, err := e.get(op, fmt.Sprintf("%s/address/%s/utxo", e.baseUrl, addr))
	if err != nil {
		return nil, err
	}

	utxos := []utxo{}
	if err := json.Unmarshal(body, &utxos); err != nil {
		return nil, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	script := hex.EncodeToString(outputScript)
	result := make([]Utxo, 0, len(utxos))
	for i := range utxos {
		utxos[i].Script = script
		result = append(result, utxos[i].toUtxo())
	}
	return result, nil
}

func (e *explorerSvc) GetTxHex(txid string) (string, error) {
	const op = "getting tx hex"

	if txHex, ok := e.txCache.Get(txid); ok {
		return txHex, nil
	}

	body, err := e.get(op, fmt.Sprintf("%s/tx/%s/hex", e.baseUrl, txid))
	if err != nil {
		return "", err
	}

	txHex := string(body)
	e.txCache.Set(txid, txHex)
	return txHex, nil
}

func (e *explorerSvc) outputScript(addr string) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, e.net)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %s", err)
	}
	if !decoded.IsForNet(e.net) {
		return nil, fmt.Errorf("address %s is not valid for network %s", addr, e.net.Name)
	}

	outputScript, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %s", err)
	}
	return outputScript, nil
}

func (e *explorerSvc) get(op, endpoint string) ([]byte, error) {
	log.Debugf("explorer: GET %s", endpoint)

	resp, err := e.client.Get(endpoint)
	if err != nil {
		return nil, bitcoinlab.NetworkError(op, err)
	}
	// nolint:all
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, bitcoinlab.NetworkError(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, bitcoinlab.NewError(
			bitcoinlab.KindNetwork, op,
			fmt.Errorf("unexpected status %s: %s", resp.Status, string(body)),
		)
	}
	return body, nil
}
