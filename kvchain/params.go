// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kvchain

// Constants of the chain.
const (
	// FaucetBalance balance granted to an account the first time it is seen as a
	// transaction sender.
	FaucetBalance uint64 = 5_000_000_000

	// TxGas gas charged per transaction. Execution is metered with a flat rate.
	TxGas uint64 = 21_000

	// BlockInterval time interval between two consecutive blocks in solo mode, in seconds.
	BlockInterval uint64 = 1
)
