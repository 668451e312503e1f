// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package executor drives the two-stage block pipeline: it pulls ordered
// blocks from the ordering service, applies their transactions to the world
// state, and once a block reaches finality persists it together with its
// receipts and state root.
//
// Execution runs ahead of commitment. An executed block parks in a staged
// table until the ordering service reports it final; a finalized block that
// was never executed is a pipeline invariant violation and stops the
// executor.
package executor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/block"
	"github.com/kvchain/kvchain/co"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/log"
	"github.com/kvchain/kvchain/ordering"
	"github.com/kvchain/kvchain/state"
	"github.com/kvchain/kvchain/tx"
)

var logger = log.WithContext("pkg", "executor")

var errNotStaged = errors.New("finalized block was never executed")

const (
	defaultMaxBatch = 64

	backoffMin = 100 * time.Millisecond
	backoffMax = 5 * time.Second
)

// Storage persists committed chain data.
type Storage interface {
	SaveBlock(*block.Block) error
	SaveReceipts(tx.Receipts) error
	SaveStateRoot(uint64, kvchain.Bytes32) error
}

// TxPool is the mempool subset needed to prune committed transactions.
// It may be nil when no pool is attached.
type TxPool interface {
	Remove(origin kvchain.Address, nonce uint64)
}

// Executor applies ordered blocks to the state and commits finalized ones.
type Executor struct {
	ordering ordering.Service
	store    Storage
	stater   *state.State
	pool     TxPool
	staged   *stagedBlocks
	startNum uint64
	maxBatch int
	goes     co.Goes
}

// New creates an executor that resumes both pipeline stages at startNum.
func New(svc ordering.Service, store Storage, stater *state.State, pool TxPool, startNum uint64) *Executor {
	return &Executor{
		ordering: svc,
		store:    store,
		stater:   stater,
		pool:     pool,
		staged:   newStagedBlocks(),
		startNum: startNum,
		maxBatch: defaultMaxBatch,
	}
}

// Run starts the execute and commit loops and blocks until both return.
// It returns nil on context cancellation, or the first fatal pipeline error.
// A fatal error in either loop cancels the other.
func (e *Executor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	e.goes.Go(func() {
		if err := e.executeLoop(ctx); err != nil {
			errCh <- err
			cancel()
		}
	})
	e.goes.Go(func() {
		if err := e.commitLoop(ctx); err != nil {
			errCh <- err
			cancel()
		}
	})
	e.goes.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func (e *Executor) executeLoop(ctx context.Context) error {
	next := e.startNum
	var retry backoff
	for {
		blocks, err := e.ordering.GetOrderedBlocks(ctx, next, e.maxBatch)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("failed to fetch ordered blocks", "from", next, "err", err)
			if !retry.sleep(ctx) {
				return nil
			}
			continue
		}
		retry.reset()

		for _, ob := range blocks {
			if err := e.executeBlock(ctx, &ob); err != nil {
				logger.Error("block execution failed", "num", ob.Number, "err", err)
				return err
			}
			next = ob.Number + 1
		}
	}
}

// executeBlock applies the block under one exclusive state update, stages the
// outcome and reports the computed root back to the ordering service.
func (e *Executor) executeBlock(ctx context.Context, ob *ordering.OrderedBlock) error {
	var staged *StagedBlock
	if err := e.stater.Update(func(w *state.Writer) error {
		parentRoot := w.Root()
		receipts := make(tx.Receipts, 0, len(ob.Txs))
		for _, trx := range ob.Txs {
			receipt, err := e.executeTransaction(w, trx)
			if err != nil {
				return errors.Wrapf(err, "tx %v", trx.Hash())
			}
			if receipt != nil {
				receipts = append(receipts, receipt)
			}
		}
		w.SetBlockNumber(ob.Number)

		blk := new(block.Builder).
			Number(ob.Number).
			ParentStateRoot(parentRoot).
			StateRoot(w.Root()).
			Timestamp(ob.Timestamp).
			Transactions(ob.Txs).
			Build()
		staged = &StagedBlock{
			ID:       ob.ID,
			Root:     w.Root(),
			Block:    blk,
			Receipts: receipts,
		}
		return nil
	}); err != nil {
		return err
	}

	e.staged.put(ob.Number, staged)
	metricBlockExecutedCount().Add(1)
	metricStagedGauge().Set(int64(e.staged.len()))
	logger.Debug("block executed", "num", ob.Number, "txs", len(ob.Txs), "root", staged.Root)

	// Finality does not depend on this report in this deployment, so a
	// failed report is not fatal.
	if err := e.ordering.SetComputeRes(ctx, ob.ID, staged.Root, ob.Number); err != nil {
		logger.Warn("failed to report compute result", "num", ob.Number, "err", err)
	}
	return nil
}

// executeTransaction applies one transaction. A nil receipt with nil error
// means the transaction was dropped without touching the state.
func (e *Executor) executeTransaction(w *state.Writer, trx *tx.Transaction) (*tx.Receipt, error) {
	origin, err := trx.Origin()
	if err != nil {
		return nil, errors.Wrap(err, "recover origin")
	}
	sender, ok := w.GetAccount(origin)
	if !ok {
		sender = state.NewFaucetAccount()
	}

	switch {
	case trx.Nonce() < sender.Nonce:
		// already applied in an earlier block, replay is a no-op
		logger.Warn("stale transaction skipped", "origin", origin, "nonce", trx.Nonce(), "expected", sender.Nonce)
		metricTxDroppedCount().AddWithLabel(1, map[string]string{"reason": "stale_nonce"})
		return nil, nil
	case trx.Nonce() > sender.Nonce:
		return nil, errors.Errorf("nonce gap: got %d, expected %d", trx.Nonce(), sender.Nonce)
	}

	var outputs []*tx.Output
	switch trx.Kind() {
	case tx.KindTransfer:
		receiverAddr := trx.Receiver()
		if receiverAddr == nil {
			logger.Warn("transfer without receiver dropped", "origin", origin, "nonce", trx.Nonce())
			metricTxDroppedCount().AddWithLabel(1, map[string]string{"reason": "no_receiver"})
			return nil, nil
		}
		amount := trx.Amount()
		if sender.Balance < amount {
			logger.Warn("insufficient balance, transaction dropped",
				"origin", origin, "nonce", trx.Nonce(), "balance", sender.Balance, "amount", amount)
			metricTxDroppedCount().AddWithLabel(1, map[string]string{"reason": "insufficient_balance"})
			return nil, nil
		}
		if *receiverAddr == origin {
			// self transfer moves nothing, only the nonce advances
			sender.Nonce++
			outputs = append(outputs, &tx.Output{Address: origin, Account: sender})
			break
		}
		receiver, ok := w.GetAccount(*receiverAddr)
		if !ok {
			receiver = state.NewAccount()
		}
		receiver.Balance += amount
		sender.Balance -= amount
		sender.Nonce++
		outputs = append(outputs,
			&tx.Output{Address: *receiverAddr, Account: receiver},
			&tx.Output{Address: origin, Account: sender})
	case tx.KindSetKV:
		sender.Storage[trx.Key()] = trx.Value()
		sender.Nonce++
		outputs = append(outputs, &tx.Output{Address: origin, Account: sender})
	default:
		return nil, errors.Errorf("unknown tx kind %d", trx.Kind())
	}

	for _, out := range outputs {
		if err := w.UpdateAccount(out.Address, out.Account); err != nil {
			return nil, err
		}
	}
	return &tx.Receipt{
		Tx:      trx,
		TxHash:  trx.Hash(),
		Status:  true,
		Outputs: outputs,
		GasUsed: kvchain.TxGas,
	}, nil
}

// Replay re-applies already committed blocks to rebuild the in-memory state
// after a restart. Each recomputed root is checked against the stored header;
// a mismatch means the database and the execution rules disagree.
func (e *Executor) Replay(blocks []*block.Block) error {
	for _, blk := range blocks {
		header := blk.Header()
		if err := e.stater.Update(func(w *state.Writer) error {
			for _, trx := range blk.Transactions() {
				if _, err := e.executeTransaction(w, trx); err != nil {
					return err
				}
			}
			w.SetBlockNumber(header.Number())
			if w.Root() != header.StateRoot() {
				return errors.Errorf("state root mismatch, want %v got %v", header.StateRoot(), w.Root())
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "replay block %d", header.Number())
		}
	}
	return nil
}

func (e *Executor) commitLoop(ctx context.Context) error {
	next := e.startNum
	var retry backoff
	for {
		finalized, err := e.ordering.GetCommittedBlocks(ctx, next, e.maxBatch)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("failed to fetch committed blocks", "from", next, "err", err)
			if !retry.sleep(ctx) {
				return nil
			}
			continue
		}
		retry.reset()

		for _, fin := range finalized {
			if err := e.commitBlock(fin); err != nil {
				logger.Error("block commit failed", "num", fin.Num, "err", err)
				return err
			}
			next = fin.Num + 1
		}
	}
}

// commitBlock persists one finalized block. Storage failures are logged and
// the block is left behind; only a missing staged entry is fatal since it
// means finality overtook execution.
func (e *Executor) commitBlock(fin ordering.BlockNumHash) error {
	staged, ok := e.staged.remove(fin.Num)
	if !ok {
		return errors.Wrapf(errNotStaged, "block %d", fin.Num)
	}
	metricStagedGauge().Set(int64(e.staged.len()))

	if fin.Hash != staged.ID {
		logger.Warn("finalized block id mismatch", "num", fin.Num, "finalized", fin.Hash, "executed", staged.ID)
	}

	if e.pool != nil {
		for _, trx := range staged.Block.Transactions() {
			if origin, err := trx.Origin(); err == nil {
				e.pool.Remove(origin, trx.Nonce())
			}
		}
	}

	if err := e.store.SaveBlock(staged.Block); err != nil {
		logger.Warn("failed to persist block", "num", fin.Num, "err", err)
		return nil
	}
	if err := e.store.SaveReceipts(staged.Receipts); err != nil {
		logger.Warn("failed to persist receipts", "num", fin.Num, "err", err)
		return nil
	}
	if err := e.store.SaveStateRoot(fin.Num, staged.Root); err != nil {
		logger.Warn("failed to persist state root", "num", fin.Num, "err", err)
		return nil
	}

	metricBlockCommittedCount().Add(1)
	logger.Info("block persisted",
		"num", fin.Num,
		"txs", len(staged.Block.Transactions()),
		"root", staged.Root)
	return nil
}

// backoff implements capped exponential retry delays for polling failures.
type backoff struct {
	delay time.Duration
}

// sleep waits for the current delay then doubles it, capped at backoffMax.
// Returns false if ctx ended while waiting.
func (b *backoff) sleep(ctx context.Context) bool {
	if b.delay < backoffMin {
		b.delay = backoffMin
	}
	timer := time.NewTimer(b.delay)
	defer timer.Stop()

	if b.delay *= 2; b.delay > backoffMax {
		b.delay = backoffMax
	}

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (b *backoff) reset() {
	b.delay = 0
}
