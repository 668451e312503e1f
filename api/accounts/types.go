// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/state"
)

// Account for json marshal.
type Account struct {
	Address kvchain.Address   `json:"address"`
	Nonce   uint64            `json:"nonce"`
	Balance uint64            `json:"balance"`
	Storage map[string]string `json:"storage"`
}

// Storage is one account storage value.
type Storage struct {
	Value string `json:"value"`
}

func convertAccount(addr kvchain.Address, acc *state.Account) *Account {
	return &Account{
		Address: addr,
		Nonce:   acc.Nonce,
		Balance: acc.Balance,
		Storage: acc.Storage,
	}
}
