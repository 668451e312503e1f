// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/kvchain"
)

// State is the in-memory world state: a table of accounts plus a rolling root
// digest. The root is a pure function of the ordered sequence of account
// mutations applied through Writer.UpdateAccount:
//
//	root' = blake2b(root ‖ blake2b(address ‖ rlp(account)))
//
// Re-applying the same mutations in the same order reproduces the same root
// bit-for-bit.
//
// Reads take a shared lock. Update gives its callback exclusive access for the
// whole callback duration, which is how the executor serializes block
// application against readers and against itself.
type State struct {
	lock     sync.RWMutex
	accounts map[kvchain.Address]*Account
	blockNum uint64
	root     kvchain.Bytes32
}

// New creates a state prefilled with the given allocation.
// The allocation does not contribute to the root, mirroring how a genesis
// import precedes block zero.
func New(alloc map[kvchain.Address]*Account) *State {
	accounts := make(map[kvchain.Address]*Account, len(alloc))
	for addr, acc := range alloc {
		accounts[addr] = acc.Copy()
	}
	return &State{accounts: accounts}
}

// GetAccount returns a copy of the account, or false if the account has never
// been materialized. Callers apply their own defaulting policy.
func (s *State) GetAccount(addr kvchain.Address) (*Account, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	acc, ok := s.accounts[addr]
	if !ok {
		return nil, false
	}
	return acc.Copy(), true
}

// Root returns the current state root.
func (s *State) Root() kvchain.Bytes32 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.root
}

// BlockNumber returns the number of the last block applied to this state.
func (s *State) BlockNumber() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.blockNum
}

// Update runs fn with exclusive write access to the state. The lock is held
// for the full duration of fn, so one block's transactions apply without any
// interleaved reads or writes.
func (s *State) Update(fn func(w *Writer) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fn(&Writer{s})
}

// Writer is the handle passed to Update callbacks. It is only valid within
// the callback.
type Writer struct {
	s *State
}

// GetAccount returns a copy of the account, or false if absent.
func (w *Writer) GetAccount(addr kvchain.Address) (*Account, bool) {
	acc, ok := w.s.accounts[addr]
	if !ok {
		return nil, false
	}
	return acc.Copy(), true
}

// Root returns the state root as of the last mutation.
func (w *Writer) Root() kvchain.Bytes32 {
	return w.s.root
}

// UpdateAccount replaces the account's full state and folds its digest into
// the rolling root. It is the only mutation entry point; it must be invoked
// once per changed account per transaction, in the order the changes were
// computed, to keep the root deterministic.
func (w *Writer) UpdateAccount(addr kvchain.Address, acc *Account) error {
	if acc == nil {
		return errors.New("update account: nil account")
	}
	metricAccountUpdateCount().Add(1)

	digest := acc.Digest(addr)
	w.s.accounts[addr] = acc.Copy()
	w.s.root = kvchain.Blake2b(w.s.root.Bytes(), digest.Bytes())
	return nil
}

// SetBlockNumber records the number of the block being applied.
func (w *Writer) SetBlockNumber(num uint64) {
	w.s.blockNum = num
}

// AccountCount returns the number of materialized accounts.
func (s *State) AccountCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.accounts)
}
