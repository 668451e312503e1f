// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kvchain/kvchain/kvchain"
)

// Account is the state of an account: next expected transaction nonce, fungible
// balance and an arbitrary per-account string key/value table.
type Account struct {
	Nonce   uint64            `json:"nonce"`
	Balance uint64            `json:"balance"`
	Storage map[string]string `json:"storage"`
}

// NewAccount creates an empty account with zero balance.
func NewAccount() *Account {
	return &Account{Storage: make(map[string]string)}
}

// NewFaucetAccount creates an account funded with the faucet balance.
// It is the default state of an account first seen as a transaction sender.
func NewFaucetAccount() *Account {
	return &Account{Balance: kvchain.FaucetBalance, Storage: make(map[string]string)}
}

// Copy makes a deep copy of the account.
func (a *Account) Copy() *Account {
	storage := make(map[string]string, len(a.Storage))
	for k, v := range a.Storage {
		storage[k] = v
	}
	return &Account{
		Nonce:   a.Nonce,
		Balance: a.Balance,
		Storage: storage,
	}
}

// StorageEntry is one key/value pair of the account storage table.
type StorageEntry struct {
	Key   string
	Value string
}

// StorageEntries returns the storage table as entries sorted by key.
// The sorted form is what gets encoded, so the account digest does not depend
// on map iteration order.
func (a *Account) StorageEntries() []StorageEntry {
	entries := make([]StorageEntry, 0, len(a.Storage))
	for k, v := range a.Storage {
		entries = append(entries, StorageEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

type accountBody struct {
	Nonce   uint64
	Balance uint64
	Storage []StorageEntry
}

// EncodeRLP implements rlp.Encoder.
func (a *Account) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &accountBody{a.Nonce, a.Balance, a.StorageEntries()})
}

// DecodeRLP implements rlp.Decoder.
func (a *Account) DecodeRLP(s *rlp.Stream) error {
	var body accountBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	storage := make(map[string]string, len(body.Storage))
	for _, entry := range body.Storage {
		storage[entry.Key] = entry.Value
	}
	*a = Account{
		Nonce:   body.Nonce,
		Balance: body.Balance,
		Storage: storage,
	}
	return nil
}

// Digest computes the digest of the account bound to its address. It is the
// unit folded into the rolling state root on every account mutation.
func (a *Account) Digest(addr kvchain.Address) kvchain.Bytes32 {
	encoded, err := rlp.EncodeToBytes(a)
	if err != nil {
		// the account body is always encodable
		panic(err)
	}
	return kvchain.Blake2b(addr.Bytes(), encoded)
}
