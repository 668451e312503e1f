// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"sync"

	"github.com/kvchain/kvchain/block"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"
)

// StagedBlock is an executed but not yet committed block outcome.
// ID is the identifier assigned by the ordering layer, not the header ID.
type StagedBlock struct {
	ID       kvchain.Bytes32
	Root     kvchain.Bytes32
	Block    *block.Block
	Receipts tx.Receipts
}

// stagedBlocks is the pending-results table between the execute and commit
// stages, keyed by block number. Both stages touch it briefly; the lock is
// never held across a poll to the ordering service.
type stagedBlocks struct {
	lock   sync.Mutex
	blocks map[uint64]*StagedBlock
}

func newStagedBlocks() *stagedBlocks {
	return &stagedBlocks{
		blocks: make(map[uint64]*StagedBlock),
	}
}

func (s *stagedBlocks) put(num uint64, staged *StagedBlock) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.blocks[num] = staged
}

func (s *stagedBlocks) remove(num uint64) (*StagedBlock, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	staged, ok := s.blocks[num]
	if ok {
		delete(s.blocks, num)
	}
	return staged, ok
}

func (s *stagedBlocks) len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.blocks)
}
