// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"
)

// Status admission status of a pooled transaction.
type Status uint8

const (
	// StatusWaiting the tx sits behind a nonce gap of its sender.
	StatusWaiting Status = iota
	// StatusPending every lower-numbered tx of the sender is present locally,
	// so the tx may be offered to the ordering service.
	StatusPending
)

// String implements stringer.
func (s Status) String() string {
	if s == StatusPending {
		return "pending"
	}
	return "waiting"
}

// txObject wraps a pooled tx with its recovered origin and admission status.
type txObject struct {
	*tx.Transaction

	origin kvchain.Address
	status Status
}

func newTxObject(trx *tx.Transaction) (*txObject, error) {
	origin, err := trx.Origin()
	if err != nil {
		return nil, err
	}
	return &txObject{
		Transaction: trx,
		origin:      origin,
	}, nil
}

// Origin returns the recovered sender address.
func (o *txObject) Origin() kvchain.Address {
	return o.origin
}
