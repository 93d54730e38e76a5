package explorer

// JSON shapes returned by esplora-compatible endpoints.

type txoStats struct {
	FundedTxoSum uint64 `json:"funded_txo_sum"`
	SpentTxoSum  uint64 `json:"spent_txo_sum"`
	TxCount      uint64 `json:"tx_count"`
}

type addressStats struct {
	Address      string   `json:"address"`
	ChainStats   txoStats `json:"chain_stats"`
	MempoolStats txoStats `json:"mempool_stats"`
}

type tx struct {
	Txid   string `json:"txid"`
	Status struct {
		Confirmed bool  `json:"confirmed"`
		BlockTime int64 `json:"block_time"`
	} `json:"status"`
}

type utxo struct {
	Txid   string `json:"txid"`
	Vout   uint32 `json:"vout"`
	Amount uint64 `json:"value"`
	Status struct {
		Confirmed bool  `json:"confirmed"`
		BlockTime int64 `json:"block_time"`
	} `json:"status"`
	Script string `json:"-"`
}

// ConfirmedStatus reports whether and when a transaction output was confirmed.
type ConfirmedStatus struct {
	Confirmed bool
	BlockTime int64
}

// Utxo is an unspent transaction output as reported by the explorer, with the
// output script of its owning address attached.
type Utxo struct {
	Txid   string
	Vout   uint32
	Amount uint64
	Script string
	Status ConfirmedStatus
}

func (u utxo) toUtxo() Utxo {
	return Utxo{
		Txid:   u.Txid,
		Vout:   u.Vout,
		Amount: u.Amount,
		Script: u.Script,
		Status: ConfirmedStatus{
			Confirmed: u.Status.Confirmed,
			BlockTime: u.Status.BlockTime,
		},
	}
}
