// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/state"
	"github.com/kvchain/kvchain/tx"
)

// RawTx is an rlp-encoded, signed transaction in hex form.
type RawTx struct {
	Raw string `json:"raw"`
}

// Transaction for json marshal.
type Transaction struct {
	ID        kvchain.Bytes32  `json:"id"`
	Origin    kvchain.Address  `json:"origin"`
	Nonce     uint64           `json:"nonce"`
	Kind      uint8            `json:"kind"`
	Receiver  *kvchain.Address `json:"receiver"`
	Amount    uint64           `json:"amount"`
	Key       string           `json:"key"`
	Value     string           `json:"value"`
	Signature string           `json:"signature"`
}

// Receipt for json marshal.
type Receipt struct {
	TxID    kvchain.Bytes32 `json:"txID"`
	Status  bool            `json:"status"`
	GasUsed uint64          `json:"gasUsed"`
	Outputs []*Output       `json:"outputs"`
}

// Output is one account written by the transaction.
type Output struct {
	Address kvchain.Address   `json:"address"`
	Nonce   uint64            `json:"nonce"`
	Balance uint64            `json:"balance"`
	Storage map[string]string `json:"storage"`
}

func convertTransaction(trx *tx.Transaction) (*Transaction, error) {
	origin, err := trx.Origin()
	if err != nil {
		return nil, err
	}
	return &Transaction{
		ID:        trx.Hash(),
		Origin:    origin,
		Nonce:     trx.Nonce(),
		Kind:      uint8(trx.Kind()),
		Receiver:  trx.Receiver(),
		Amount:    trx.Amount(),
		Key:       trx.Key(),
		Value:     trx.Value(),
		Signature: hexutil.Encode(trx.Signature()),
	}, nil
}

func convertReceipt(receipt *tx.Receipt) *Receipt {
	outputs := make([]*Output, 0, len(receipt.Outputs))
	for _, out := range receipt.Outputs {
		outputs = append(outputs, convertOutput(out.Address, out.Account))
	}
	return &Receipt{
		TxID:    receipt.TxHash,
		Status:  receipt.Status,
		GasUsed: receipt.GasUsed,
		Outputs: outputs,
	}
}

func convertOutput(addr kvchain.Address, acc *state.Account) *Output {
	return &Output{
		Address: addr,
		Nonce:   acc.Nonce,
		Balance: acc.Balance,
		Storage: acc.Storage,
	}
}
