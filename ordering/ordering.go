// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ordering

import (
	"context"

	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"
)

// OrderedBlock is a block handed down by the ordering service: its position in
// the chain is fixed, but it has not reached finality yet.
type OrderedBlock struct {
	ID        kvchain.Bytes32
	Number    uint64
	Timestamp uint64 // microseconds
	Txs       tx.Transactions
}

// BlockNumHash identifies a block that has reached finality.
type BlockNumHash struct {
	Num  uint64
	Hash kvchain.Bytes32
}

// Service is the contract of the external consensus/ordering engine. BFT
// safety and liveness are entirely its responsibility; the execution layer
// consumes its block sequences as already correct.
//
// All three calls may transiently fail; callers recover by logging and
// retrying the poll.
type Service interface {
	// GetOrderedBlocks returns ordered, not yet final blocks starting at block
	// number from, at most max of them. It blocks until at least one block is
	// available or ctx is done.
	GetOrderedBlocks(ctx context.Context, from uint64, max int) ([]OrderedBlock, error)

	// GetCommittedBlocks returns blocks that have reached finality, starting
	// at block number from, at most max of them. It blocks until at least one
	// is available or ctx is done.
	GetCommittedBlocks(ctx context.Context, from uint64, max int) ([]BlockNumHash, error)

	// SetComputeRes reports the state root computed by executing the block.
	SetComputeRes(ctx context.Context, blockID kvchain.Bytes32, root kvchain.Bytes32, num uint64) error
}
