// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/kvchain/kvchain/kvchain"
)

// Builder to make it easy to build a transaction.
type Builder struct {
	body body
}

// Nonce set the sender sequence number.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Transfer makes the tx a transfer of amount to receiver.
func (b *Builder) Transfer(receiver kvchain.Address, amount uint64) *Builder {
	b.body.Kind = uint8(KindTransfer)
	cpy := receiver
	b.body.Receiver = &cpy
	b.body.Amount = amount
	b.body.Key = ""
	b.body.Value = ""
	return b
}

// SetKV makes the tx an upsert of key/value into the sender's storage table.
func (b *Builder) SetKV(key, value string) *Builder {
	b.body.Kind = uint8(KindSetKV)
	b.body.Receiver = nil
	b.body.Amount = 0
	b.body.Key = key
	b.body.Value = value
	return b
}

// Build builds the unsigned tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	return &tx
}
