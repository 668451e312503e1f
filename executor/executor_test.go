// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package executor

import (
	"context"
	"crypto/ecdsa"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvchain/kvchain/block"
	"github.com/kvchain/kvchain/chaindb"
	"github.com/kvchain/kvchain/co"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/lvldb"
	"github.com/kvchain/kvchain/ordering"
	"github.com/kvchain/kvchain/state"
	"github.com/kvchain/kvchain/tx"
	"github.com/kvchain/kvchain/txpool"
)

// fakeOrdering is an in-memory ordering service fed by tests.
type fakeOrdering struct {
	lock      sync.Mutex
	ordered   []ordering.OrderedBlock
	committed []ordering.BlockNumHash
	results   map[kvchain.Bytes32]kvchain.Bytes32
	sig       co.Signal
}

func newFakeOrdering() *fakeOrdering {
	return &fakeOrdering{results: make(map[kvchain.Bytes32]kvchain.Bytes32)}
}

func (f *fakeOrdering) feedOrdered(ob ordering.OrderedBlock) {
	f.lock.Lock()
	f.ordered = append(f.ordered, ob)
	f.lock.Unlock()
	f.sig.Broadcast()
}

func (f *fakeOrdering) feedCommitted(fin ordering.BlockNumHash) {
	f.lock.Lock()
	f.committed = append(f.committed, fin)
	f.lock.Unlock()
	f.sig.Broadcast()
}

func (f *fakeOrdering) GetOrderedBlocks(ctx context.Context, from uint64, max int) ([]ordering.OrderedBlock, error) {
	for {
		w := f.sig.NewWaiter()
		f.lock.Lock()
		var out []ordering.OrderedBlock
		for _, ob := range f.ordered {
			if ob.Number >= from && len(out) < max {
				out = append(out, ob)
			}
		}
		f.lock.Unlock()
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

func (f *fakeOrdering) GetCommittedBlocks(ctx context.Context, from uint64, max int) ([]ordering.BlockNumHash, error) {
	for {
		w := f.sig.NewWaiter()
		f.lock.Lock()
		var out []ordering.BlockNumHash
		for _, fin := range f.committed {
			if fin.Num >= from && len(out) < max {
				out = append(out, fin)
			}
		}
		f.lock.Unlock()
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

func (f *fakeOrdering) SetComputeRes(_ context.Context, blockID kvchain.Bytes32, root kvchain.Bytes32, _ uint64) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.results[blockID] = root
	return nil
}

func newTestExecutor(t *testing.T) (*Executor, *fakeOrdering, *chaindb.ChainDB, *state.State) {
	t.Helper()
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ord := newFakeOrdering()
	db := chaindb.New(store)
	st := state.New(nil)
	return New(ord, db, st, nil, 1), ord, db, st
}

func orderedBlock(num uint64, txs ...*tx.Transaction) ordering.OrderedBlock {
	return ordering.OrderedBlock{
		ID:        kvchain.Blake2b([]byte{byte(num)}),
		Number:    num,
		Timestamp: num * 1_000_000,
		Txs:       txs,
	}
}

func signedTx(key *ecdsa.PrivateKey, b *tx.Builder) *tx.Transaction {
	return tx.MustSign(b.Build(), key)
}

func TestExecuteSetKV(t *testing.T) {
	exec, ord, _, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	origin := kvchain.PubkeyToAddress(&key.PublicKey)
	trx := signedTx(key, new(tx.Builder).Nonce(0).SetKV("greeting", "hello"))

	ob := orderedBlock(1, trx)
	require.NoError(t, exec.executeBlock(context.Background(), &ob))

	acc, ok := st.GetAccount(origin)
	require.True(t, ok)
	assert.Equal(t, uint64(1), acc.Nonce)
	assert.Equal(t, kvchain.FaucetBalance, acc.Balance)
	assert.Equal(t, "hello", acc.Storage["greeting"])

	staged, ok := exec.staged.remove(1)
	require.True(t, ok)
	require.Len(t, staged.Receipts, 1)
	receipt := staged.Receipts[0]
	assert.True(t, receipt.Status)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
	assert.Equal(t, trx.Hash(), receipt.TxHash)
	require.Len(t, receipt.Outputs, 1)
	assert.Equal(t, origin, receipt.Outputs[0].Address)
	assert.Equal(t, "hello", receipt.Outputs[0].Account.Storage["greeting"])

	assert.Equal(t, staged.Root, st.Root())
	assert.Equal(t, staged.Root, ord.results[ob.ID])
	assert.Equal(t, uint64(1), st.BlockNumber())
}

func TestExecuteTransferToNewAccount(t *testing.T) {
	exec, _, _, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	sender := kvchain.PubkeyToAddress(&key.PublicKey)
	receiver := kvchain.MustParseAddress("0x0123456789012345678901234567890123456789")
	trx := signedTx(key, new(tx.Builder).Nonce(0).Transfer(receiver, 100))

	ob := orderedBlock(1, trx)
	require.NoError(t, exec.executeBlock(context.Background(), &ob))

	senderAcc, ok := st.GetAccount(sender)
	require.True(t, ok)
	assert.Equal(t, uint64(1), senderAcc.Nonce)
	assert.Equal(t, kvchain.FaucetBalance-100, senderAcc.Balance)

	receiverAcc, ok := st.GetAccount(receiver)
	require.True(t, ok)
	assert.Equal(t, uint64(0), receiverAcc.Nonce)
	assert.Equal(t, uint64(100), receiverAcc.Balance)

	staged, _ := exec.staged.remove(1)
	require.Len(t, staged.Receipts, 1)
	outputs := staged.Receipts[0].Outputs
	require.Len(t, outputs, 2)
	assert.Equal(t, receiver, outputs[0].Address)
	assert.Equal(t, sender, outputs[1].Address)
}

func TestExecuteSelfTransfer(t *testing.T) {
	exec, _, _, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	origin := kvchain.PubkeyToAddress(&key.PublicKey)
	trx := signedTx(key, new(tx.Builder).Nonce(0).Transfer(origin, 500))

	ob := orderedBlock(1, trx)
	require.NoError(t, exec.executeBlock(context.Background(), &ob))

	acc, ok := st.GetAccount(origin)
	require.True(t, ok)
	assert.Equal(t, uint64(1), acc.Nonce)
	assert.Equal(t, kvchain.FaucetBalance, acc.Balance)

	staged, _ := exec.staged.remove(1)
	require.Len(t, staged.Receipts, 1)
	assert.Len(t, staged.Receipts[0].Outputs, 1)
}

func TestExecuteStaleNonceSkipped(t *testing.T) {
	exec, _, _, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	origin := kvchain.PubkeyToAddress(&key.PublicKey)
	trx := signedTx(key, new(tx.Builder).Nonce(0).SetKV("k", "v"))

	ob1 := orderedBlock(1, trx)
	require.NoError(t, exec.executeBlock(context.Background(), &ob1))
	rootAfterFirst := st.Root()

	// replay of the same tx in a later block leaves the state untouched
	ob2 := orderedBlock(2, trx)
	require.NoError(t, exec.executeBlock(context.Background(), &ob2))

	assert.Equal(t, rootAfterFirst, st.Root())
	acc, _ := st.GetAccount(origin)
	assert.Equal(t, uint64(1), acc.Nonce)

	staged, _ := exec.staged.remove(2)
	assert.Len(t, staged.Receipts, 0)
	assert.Equal(t, uint64(2), st.BlockNumber())
}

func TestExecuteNonceGapFatal(t *testing.T) {
	exec, _, _, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	trx := signedTx(key, new(tx.Builder).Nonce(5).SetKV("k", "v"))

	ob := orderedBlock(1, trx)
	err := exec.executeBlock(context.Background(), &ob)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce gap")
	_, ok := exec.staged.remove(1)
	assert.False(t, ok)
	_ = st
}

func TestExecuteInsufficientBalanceDropped(t *testing.T) {
	exec, _, _, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	origin := kvchain.PubkeyToAddress(&key.PublicKey)
	receiver := kvchain.MustParseAddress("0x0123456789012345678901234567890123456789")

	overdraft := signedTx(key, new(tx.Builder).Nonce(0).Transfer(receiver, kvchain.FaucetBalance+1))
	// the drop does not advance the nonce, so nonce 0 is still usable
	followup := signedTx(key, new(tx.Builder).Nonce(0).SetKV("k", "v"))

	ob := orderedBlock(1, overdraft, followup)
	require.NoError(t, exec.executeBlock(context.Background(), &ob))

	acc, ok := st.GetAccount(origin)
	require.True(t, ok)
	assert.Equal(t, uint64(1), acc.Nonce)
	assert.Equal(t, kvchain.FaucetBalance, acc.Balance)
	assert.Equal(t, "v", acc.Storage["k"])

	_, ok = st.GetAccount(receiver)
	assert.False(t, ok)

	staged, _ := exec.staged.remove(1)
	require.Len(t, staged.Receipts, 1)
	assert.Equal(t, followup.Hash(), staged.Receipts[0].TxHash)
}

func TestExecuteBalanceConservation(t *testing.T) {
	exec, _, _, st := newTestExecutor(t)

	keyA, _ := crypto.GenerateKey()
	keyB, _ := crypto.GenerateKey()
	addrA := kvchain.PubkeyToAddress(&keyA.PublicKey)
	addrB := kvchain.PubkeyToAddress(&keyB.PublicKey)

	ob := orderedBlock(1,
		signedTx(keyA, new(tx.Builder).Nonce(0).Transfer(addrB, 300)),
		signedTx(keyB, new(tx.Builder).Nonce(0).Transfer(addrA, 120)),
		signedTx(keyA, new(tx.Builder).Nonce(1).Transfer(addrB, 80)),
	)
	require.NoError(t, exec.executeBlock(context.Background(), &ob))

	accA, _ := st.GetAccount(addrA)
	accB, _ := st.GetAccount(addrB)
	assert.Equal(t, 2*kvchain.FaucetBalance, accA.Balance+accB.Balance)
	assert.Equal(t, uint64(2), accA.Nonce)
	assert.Equal(t, uint64(1), accB.Nonce)
}

func TestExecuteRootDeterminism(t *testing.T) {
	key, _ := crypto.GenerateKey()
	receiver := kvchain.MustParseAddress("0x0123456789012345678901234567890123456789")
	txs := tx.Transactions{
		signedTx(key, new(tx.Builder).Nonce(0).SetKV("a", "1")),
		signedTx(key, new(tx.Builder).Nonce(1).Transfer(receiver, 42)),
		signedTx(key, new(tx.Builder).Nonce(2).SetKV("b", "2")),
	}

	var roots []kvchain.Bytes32
	for range 2 {
		exec, _, _, st := newTestExecutor(t)
		ob := orderedBlock(1, txs...)
		require.NoError(t, exec.executeBlock(context.Background(), &ob))
		roots = append(roots, st.Root())
	}
	assert.Equal(t, roots[0], roots[1])
	assert.NotEqual(t, kvchain.Bytes32{}, roots[0])
}

func TestReplayRebuildsState(t *testing.T) {
	exec, _, _, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	origin := kvchain.PubkeyToAddress(&key.PublicKey)
	receiver := kvchain.MustParseAddress("0x0123456789012345678901234567890123456789")

	ob1 := orderedBlock(1, signedTx(key, new(tx.Builder).Nonce(0).SetKV("k", "v")))
	ob2 := orderedBlock(2, signedTx(key, new(tx.Builder).Nonce(1).Transfer(receiver, 77)))
	require.NoError(t, exec.executeBlock(context.Background(), &ob1))
	require.NoError(t, exec.executeBlock(context.Background(), &ob2))

	staged1, _ := exec.staged.remove(1)
	staged2, _ := exec.staged.remove(2)
	wantRoot := st.Root()

	// a fresh node replays the persisted blocks and lands on the same state
	replayed, _, _, st2 := newTestExecutor(t)
	require.NoError(t, replayed.Replay([]*block.Block{staged1.Block, staged2.Block}))

	assert.Equal(t, wantRoot, st2.Root())
	assert.Equal(t, uint64(2), st2.BlockNumber())
	acc, ok := st2.GetAccount(origin)
	require.True(t, ok)
	assert.Equal(t, uint64(2), acc.Nonce)
	assert.Equal(t, "v", acc.Storage["k"])
}

func TestReplayRejectsCorruptRoot(t *testing.T) {
	exec, _, _, _ := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	trx := signedTx(key, new(tx.Builder).Nonce(0).SetKV("k", "v"))
	bogus := new(block.Builder).
		Number(1).
		StateRoot(kvchain.Blake2b([]byte("wrong"))).
		Transaction(trx).
		Build()

	err := exec.Replay([]*block.Block{bogus})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state root mismatch")
}

func TestCommitBeforeExecuteFatal(t *testing.T) {
	exec, _, _, _ := newTestExecutor(t)

	err := exec.commitBlock(ordering.BlockNumHash{Num: 1, Hash: kvchain.Blake2b([]byte{1})})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never executed")
}

func TestCommitPersistsAndPrunesPool(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ord := newFakeOrdering()
	db := chaindb.New(store)
	st := state.New(nil)
	pool := txpool.New()
	exec := New(ord, db, st, pool, 1)

	key, _ := crypto.GenerateKey()
	trx := signedTx(key, new(tx.Builder).Nonce(0).SetKV("k", "v"))
	_, err = pool.Add(trx)
	require.NoError(t, err)
	require.Equal(t, 1, pool.Len())

	ob := orderedBlock(1, trx)
	require.NoError(t, exec.executeBlock(context.Background(), &ob))
	require.NoError(t, exec.commitBlock(ordering.BlockNumHash{Num: 1, Hash: ob.ID}))

	assert.Equal(t, 0, pool.Len())

	blk, err := db.GetBlock(1)
	require.NoError(t, err)
	require.NotNil(t, blk)
	assert.Equal(t, st.Root(), blk.Header().StateRoot())

	receipt, err := db.GetTransactionReceipt(trx.Hash())
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, kvchain.TxGas, receipt.GasUsed)

	root, ok, err := db.GetStateRoot(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, st.Root(), root)

	// a second finalization of the same number must fail, the entry is gone
	require.Error(t, exec.commitBlock(ordering.BlockNumHash{Num: 1, Hash: ob.ID}))
}

func TestRunPipeline(t *testing.T) {
	exec, ord, db, st := newTestExecutor(t)

	key, _ := crypto.GenerateKey()
	trx1 := signedTx(key, new(tx.Builder).Nonce(0).SetKV("k", "v"))
	trx2 := signedTx(key, new(tx.Builder).Nonce(1).SetKV("k", "v2"))

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- exec.Run(ctx) }()

	ob1 := orderedBlock(1, trx1)
	ob2 := orderedBlock(2, trx2)
	ord.feedOrdered(ob1)
	ord.feedOrdered(ob2)
	ord.feedCommitted(ordering.BlockNumHash{Num: 1, Hash: ob1.ID})
	ord.feedCommitted(ordering.BlockNumHash{Num: 2, Hash: ob2.ID})

	require.Eventually(t, func() bool {
		num, ok, err := db.BestBlockNumber()
		return err == nil && ok && num == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-runErr)

	origin := kvchain.PubkeyToAddress(&key.PublicKey)
	acc, ok := st.GetAccount(origin)
	require.True(t, ok)
	assert.Equal(t, uint64(2), acc.Nonce)
	assert.Equal(t, "v2", acc.Storage["k"])
}

func TestRunFatalOnCommitGap(t *testing.T) {
	exec, ord, _, _ := newTestExecutor(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- exec.Run(ctx) }()

	// finality for a block that never arrived through ordering
	ord.feedCommitted(ordering.BlockNumHash{Num: 1, Hash: kvchain.Blake2b([]byte{1})})

	err := <-runErr
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never executed")
}
