// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"
)

// Builder to make it easy to build a block object.
type Builder struct {
	headerBody headerBody
	txs        tx.Transactions
}

// Number set the block number.
func (b *Builder) Number(num uint64) *Builder {
	b.headerBody.Number = num
	return b
}

// ParentStateRoot set the pre-block state root.
func (b *Builder) ParentStateRoot(root kvchain.Bytes32) *Builder {
	b.headerBody.ParentStateRoot = root
	return b
}

// StateRoot set the post-block state root.
func (b *Builder) StateRoot(root kvchain.Bytes32) *Builder {
	b.headerBody.StateRoot = root
	return b
}

// Timestamp set the block timestamp, in microseconds.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.headerBody.Timestamp = ts
	return b
}

// Transaction adds a transaction.
func (b *Builder) Transaction(trx *tx.Transaction) *Builder {
	b.txs = append(b.txs, trx)
	return b
}

// Transactions adds transactions.
func (b *Builder) Transactions(txs tx.Transactions) *Builder {
	b.txs = append(b.txs, txs...)
	return b
}

// Build builds the block object.
func (b *Builder) Build() *Block {
	header := Header{body: b.headerBody}
	return &Block{
		header: &header,
		txs:    b.txs,
	}
}
