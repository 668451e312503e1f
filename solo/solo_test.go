// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"
	"github.com/kvchain/kvchain/txpool"
)

func TestPackExecutables(t *testing.T) {
	pool := txpool.New()
	s := New(pool, Options{})

	key, _ := crypto.GenerateKey()
	trx0 := tx.MustSign(new(tx.Builder).Nonce(0).SetKV("a", "1").Build(), key)
	trx1 := tx.MustSign(new(tx.Builder).Nonce(1).SetKV("b", "2").Build(), key)
	// nonce 3 has a gap, it must not be packed
	trx3 := tx.MustSign(new(tx.Builder).Nonce(3).SetKV("c", "3").Build(), key)

	for _, trx := range []*tx.Transaction{trx0, trx1, trx3} {
		_, err := pool.Add(trx)
		require.NoError(t, err)
	}

	s.pack()

	blocks, err := s.GetOrderedBlocks(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, uint64(1), blocks[0].Number)
	require.Len(t, blocks[0].Txs, 2)
	assert.Equal(t, trx0.Hash(), blocks[0].Txs[0].Hash())
	assert.Equal(t, trx1.Hash(), blocks[0].Txs[1].Hash())
}

func TestPackSkipsEmptyAndDuplicates(t *testing.T) {
	pool := txpool.New()
	s := New(pool, Options{})

	s.pack()
	assert.Empty(t, s.blocks)

	key, _ := crypto.GenerateKey()
	trx := tx.MustSign(new(tx.Builder).Nonce(0).SetKV("a", "1").Build(), key)
	_, err := pool.Add(trx)
	require.NoError(t, err)

	// the pool keeps the tx until commit prunes it; repacking before that
	// must not produce a second block with the same tx
	s.pack()
	s.pack()
	require.Len(t, s.blocks, 1)

	trx1 := tx.MustSign(new(tx.Builder).Nonce(1).SetKV("b", "2").Build(), key)
	_, err = pool.Add(trx1)
	require.NoError(t, err)
	s.pack()
	require.Len(t, s.blocks, 2)
	require.Len(t, s.blocks[1].Txs, 1)
	assert.Equal(t, trx1.Hash(), s.blocks[1].Txs[0].Hash())
}

func TestGetOrderedBlocksWaits(t *testing.T) {
	pool := txpool.New()
	s := New(pool, Options{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		blocks, err := s.GetOrderedBlocks(context.Background(), 1, 10)
		assert.NoError(t, err)
		assert.Len(t, blocks, 1)
	}()

	select {
	case <-done:
		t.Fatal("returned before any block was packed")
	case <-time.After(50 * time.Millisecond):
	}

	key, _ := crypto.GenerateKey()
	_, err := pool.Add(tx.MustSign(new(tx.Builder).Nonce(0).SetKV("a", "1").Build(), key))
	require.NoError(t, err)
	s.pack()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("did not observe packed block")
	}
}

func TestGetOrderedBlocksCtxCancel(t *testing.T) {
	s := New(txpool.New(), Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.GetOrderedBlocks(ctx, 1, 10)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFinalityAdvancesContiguously(t *testing.T) {
	pool := txpool.New()
	s := New(pool, Options{})

	key, _ := crypto.GenerateKey()
	for nonce := uint64(0); nonce < 2; nonce++ {
		_, err := pool.Add(tx.MustSign(new(tx.Builder).Nonce(nonce).SetKV("k", "v").Build(), key))
		require.NoError(t, err)
		s.pack()
	}
	require.Len(t, s.blocks, 2)

	root := kvchain.Blake2b([]byte("root"))

	// result for block 2 alone finalizes nothing
	require.NoError(t, s.SetComputeRes(context.Background(), s.blocks[1].ID, root, 2))
	assert.Equal(t, uint64(0), s.Finalized())

	require.NoError(t, s.SetComputeRes(context.Background(), s.blocks[0].ID, root, 1))
	assert.Equal(t, uint64(2), s.Finalized())

	fins, err := s.GetCommittedBlocks(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, fins, 2)
	assert.Equal(t, uint64(1), fins[0].Num)
	assert.Equal(t, s.blocks[0].ID, fins[0].Hash)
	assert.Equal(t, uint64(2), fins[1].Num)
}

func TestSetComputeResRejectsUnknown(t *testing.T) {
	s := New(txpool.New(), Options{})

	root := kvchain.Blake2b([]byte("root"))
	assert.Error(t, s.SetComputeRes(context.Background(), kvchain.Bytes32{}, root, 1))

	pool := txpool.New()
	s = New(pool, Options{})
	key, _ := crypto.GenerateKey()
	_, err := pool.Add(tx.MustSign(new(tx.Builder).Nonce(0).SetKV("a", "1").Build(), key))
	require.NoError(t, err)
	s.pack()

	wrongID := kvchain.Blake2b([]byte("bogus"))
	assert.Error(t, s.SetComputeRes(context.Background(), wrongID, root, 1))
}

func TestResumeNumbering(t *testing.T) {
	pool := txpool.New()
	s := New(pool, Options{NextBlockNum: 11})

	key, _ := crypto.GenerateKey()
	_, err := pool.Add(tx.MustSign(new(tx.Builder).Nonce(0).SetKV("a", "1").Build(), key))
	require.NoError(t, err)
	s.pack()

	blocks, err := s.GetOrderedBlocks(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, uint64(11), blocks[0].Number)

	root := kvchain.Blake2b([]byte("root"))
	require.NoError(t, s.SetComputeRes(context.Background(), blocks[0].ID, root, 11))
	assert.Equal(t, uint64(11), s.Finalized())

	fins, err := s.GetCommittedBlocks(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, fins, 1)
	assert.Equal(t, uint64(11), fins[0].Num)
}

func TestRunPacksOnInterval(t *testing.T) {
	pool := txpool.New()
	s := New(pool, Options{OnDemand: true})

	key, _ := crypto.GenerateKey()
	_, err := pool.Add(tx.MustSign(new(tx.Builder).Nonce(0).SetKV("a", "1").Build(), key))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		assert.NoError(t, s.Run(ctx))
	}()

	blocks, err := s.GetOrderedBlocks(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	cancel()
	<-runDone
}
