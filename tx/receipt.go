// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/state"
)

// Receipt represents the result of one successfully applied transaction.
type Receipt struct {
	// the applied transaction
	Tx *Transaction
	// content hash of the transaction
	TxHash kvchain.Bytes32
	// status of tx execution
	Status bool
	// account states written by this tx, in application order
	Outputs []*Output
	// gas used by this tx
	GasUsed uint64
	// logs produced; extension point, unused
	Logs []*Log
}

// Output is one account mutation recorded by a receipt.
type Output struct {
	Address kvchain.Address
	Account *state.Account
}

// Log is an event log entry. Nothing emits logs yet.
type Log struct {
	Topics []kvchain.Bytes32
	Data   []byte
}

// Receipts slice of receipts.
type Receipts []*Receipt
