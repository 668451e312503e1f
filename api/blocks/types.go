// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"github.com/kvchain/kvchain/kvchain"
)

// JSONBlock for json marshal.
type JSONBlock struct {
	ID              kvchain.Bytes32 `json:"id"`
	Number          uint64          `json:"number"`
	ParentStateRoot kvchain.Bytes32 `json:"parentStateRoot"`
	StateRoot       kvchain.Bytes32 `json:"stateRoot"`
	Timestamp       uint64          `json:"timestamp"`
	Transactions    []string        `json:"transactions"`
}
