// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo implements an in-process ordering service for development and
// single-node deployments. It packs pending pool transactions into ordered
// blocks on a fixed interval and treats a block as final as soon as its
// execution result has been reported back.
package solo

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/co"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/log"
	"github.com/kvchain/kvchain/ordering"
	"github.com/kvchain/kvchain/tx"
	"github.com/kvchain/kvchain/txpool"
)

var logger = log.WithContext("pkg", "solo")

const (
	defaultMaxBlockTxs = 500
	onDemandInterval   = 20 * time.Millisecond
)

// Options configure the solo orderer.
type Options struct {
	// BlockInterval is the packing period. Zero means one second.
	BlockInterval time.Duration
	// OnDemand packs as soon as executable transactions show up instead of
	// waiting for the full interval.
	OnDemand bool
	// MaxBlockTxs caps transactions per block. Zero means the default cap.
	MaxBlockTxs int
	// NextBlockNum is the number the first packed block gets, used to resume
	// numbering over an existing chain. Zero means 1.
	NextBlockNum uint64
}

// Solo packs blocks from the attached pool and implements ordering.Service.
// Block numbers start at 1 and are dense; finality advances contiguously as
// compute results arrive.
type Solo struct {
	pool *txpool.TxPool
	opts Options

	// base is one less than the first block number; blocks[i] has number
	// base+i+1 and finality starts from base
	base      uint64
	lock      sync.Mutex
	blocks    []ordering.OrderedBlock
	packed    map[kvchain.Bytes32]bool
	results   map[uint64]kvchain.Bytes32
	finalized uint64

	packedSig co.Signal
	resultSig co.Signal
}

// New creates a solo orderer over the given pool.
func New(pool *txpool.TxPool, opts Options) *Solo {
	if opts.BlockInterval <= 0 {
		opts.BlockInterval = time.Duration(kvchain.BlockInterval) * time.Second
	}
	if opts.MaxBlockTxs <= 0 {
		opts.MaxBlockTxs = defaultMaxBlockTxs
	}
	if opts.NextBlockNum == 0 {
		opts.NextBlockNum = 1
	}
	return &Solo{
		pool:      pool,
		opts:      opts,
		base:      opts.NextBlockNum - 1,
		finalized: opts.NextBlockNum - 1,
		packed:    make(map[kvchain.Bytes32]bool),
		results:   make(map[uint64]kvchain.Bytes32),
	}
}

// Run packs blocks until ctx is done.
func (s *Solo) Run(ctx context.Context) error {
	interval := s.opts.BlockInterval
	if s.opts.OnDemand {
		interval = onDemandInterval
	}
	logger.Info("solo ordering started", "interval", interval, "on-demand", s.opts.OnDemand)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("solo ordering stopped")
			return nil
		case <-ticker.C:
			s.pack()
		}
	}
}

// pack snapshots the currently executable transactions that have not been
// placed in a block yet and seals them into the next block.
func (s *Solo) pack() {
	executables := s.pool.Executables()

	s.lock.Lock()
	var txs tx.Transactions
	for _, trx := range executables {
		if s.packed[trx.Hash()] {
			continue
		}
		txs = append(txs, trx)
		if len(txs) >= s.opts.MaxBlockTxs {
			break
		}
	}
	if len(txs) == 0 {
		s.lock.Unlock()
		return
	}

	num := s.base + uint64(len(s.blocks)) + 1
	ts := uint64(time.Now().UnixMicro())
	ob := ordering.OrderedBlock{
		ID:        blockID(num, ts, txs),
		Number:    num,
		Timestamp: ts,
		Txs:       txs,
	}
	s.blocks = append(s.blocks, ob)
	for _, trx := range txs {
		s.packed[trx.Hash()] = true
	}
	s.lock.Unlock()

	s.packedSig.Broadcast()
	logger.Debug("block packed", "num", num, "txs", len(txs))
}

// GetOrderedBlocks implements ordering.Service.
func (s *Solo) GetOrderedBlocks(ctx context.Context, from uint64, max int) ([]ordering.OrderedBlock, error) {
	if from <= s.base {
		from = s.base + 1
	}
	for {
		w := s.packedSig.NewWaiter()

		s.lock.Lock()
		var out []ordering.OrderedBlock
		for num := from; num <= s.base+uint64(len(s.blocks)) && len(out) < max; num++ {
			out = append(out, s.blocks[num-s.base-1])
		}
		s.lock.Unlock()

		if len(out) > 0 {
			return out, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.C():
		}
	}
}

// GetCommittedBlocks implements ordering.Service.
func (s *Solo) GetCommittedBlocks(ctx context.Context, from uint64, max int) ([]ordering.BlockNumHash, error) {
	if from <= s.base {
		from = s.base + 1
	}
	for {
		w := s.resultSig.NewWaiter()

		s.lock.Lock()
		var out []ordering.BlockNumHash
		for num := from; num <= s.finalized && len(out) < max; num++ {
			out = append(out, ordering.BlockNumHash{Num: num, Hash: s.blocks[num-s.base-1].ID})
		}
		s.lock.Unlock()

		if len(out) > 0 {
			return out, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.C():
		}
	}
}

// SetComputeRes implements ordering.Service. With no consensus to wait for,
// a reported result immediately finalizes the block, in block-number order.
func (s *Solo) SetComputeRes(_ context.Context, blockID kvchain.Bytes32, root kvchain.Bytes32, num uint64) error {
	s.lock.Lock()
	if num <= s.base || num > s.base+uint64(len(s.blocks)) {
		s.lock.Unlock()
		return errors.Errorf("unknown block %d", num)
	}
	if s.blocks[num-s.base-1].ID != blockID {
		s.lock.Unlock()
		return errors.Errorf("block id mismatch at %d", num)
	}
	s.results[num] = root
	for {
		if _, ok := s.results[s.finalized+1]; !ok {
			break
		}
		s.finalized++
	}
	s.lock.Unlock()

	s.resultSig.Broadcast()
	return nil
}

// Finalized returns the highest finalized block number.
func (s *Solo) Finalized() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.finalized
}

func blockID(num uint64, ts uint64, txs tx.Transactions) kvchain.Bytes32 {
	return kvchain.Blake2bFn(func(w io.Writer) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], num)
		w.Write(buf[:])
		binary.BigEndian.PutUint64(buf[:], ts)
		w.Write(buf[:])
		for _, trx := range txs {
			hash := trx.Hash()
			w.Write(hash.Bytes())
		}
	})
}
