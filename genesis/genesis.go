// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis loads the initial account allocation applied before block
// one. The allocation seeds balances and storage but does not contribute to
// the state root.
package genesis

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/state"
)

// Alloc maps addresses to their initial account state.
type Alloc map[kvchain.Address]*state.Account

// Default returns an empty allocation. Every account then starts from the
// faucet default on first use as a sender.
func Default() Alloc {
	return Alloc{}
}

// Load parses an allocation document:
//
//	{
//	  "0x...20-byte-address": {"nonce": 0, "balance": 1000, "storage": {"k": "v"}},
//	  ...
//	}
func Load(r io.Reader) (Alloc, error) {
	var raw map[string]*state.Account
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode genesis alloc")
	}

	alloc := make(Alloc, len(raw))
	for addrStr, acc := range raw {
		addr, err := kvchain.ParseAddress(addrStr)
		if err != nil {
			return nil, errors.Wrapf(err, "genesis alloc key %q", addrStr)
		}
		if acc == nil {
			return nil, errors.Errorf("genesis alloc %q: null account", addrStr)
		}
		if acc.Storage == nil {
			acc.Storage = make(map[string]string)
		}
		alloc[addr] = acc
	}
	return alloc, nil
}

// LoadFile loads an allocation document from a file.
func LoadFile(path string) (Alloc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open genesis file")
	}
	defer f.Close()
	return Load(f)
}
