// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"sort"
	"sync"

	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/log"
	"github.com/kvchain/kvchain/tx"
)

var logger = log.WithContext("pkg", "txpool")

// Filter decides whether a tx takes part in a Dump.
type Filter func(origin kvchain.Address, nonce uint64, hash kvchain.Bytes32) bool

// TxPool maintains unprocessed transactions, buffered per sender and keyed by
// nonce. A per-sender watermark tracks the next contiguous nonce expected;
// transactions are promoted from waiting to pending only once every
// lower-numbered transaction of the same sender is present locally.
type TxPool struct {
	// buffers and watermarks are guarded independently; neither lock is ever
	// held across a call to a collaborator
	lock sync.Mutex
	pool map[kvchain.Address]map[uint64]*txObject

	wmLock    sync.Mutex
	watermark map[kvchain.Address]uint64
}

// New create a new TxPool instance.
func New() *TxPool {
	return &TxPool{
		pool:      make(map[kvchain.Address]map[uint64]*txObject),
		watermark: make(map[kvchain.Address]uint64),
	}
}

// Add buffers a client-submitted transaction and returns its content hash.
// The hash is returned immediately; execution happens later, once the ordering
// service has placed the tx in a block. The signature is verified before the
// tx touches any pool state.
func (p *TxPool) Add(trx *tx.Transaction) (kvchain.Bytes32, error) {
	return p.add(trx, "local")
}

// AddVerified buffers a transaction arriving through the ordering service's
// inbound channel. The path is identical to Add, content hash included, so
// the same payload hashes the same no matter how it entered.
func (p *TxPool) AddVerified(trx *tx.Transaction) (kvchain.Bytes32, error) {
	return p.add(trx, "verified")
}

func (p *TxPool) add(trx *tx.Transaction, source string) (kvchain.Bytes32, error) {
	obj, err := newTxObject(trx)
	if err != nil {
		return kvchain.Bytes32{}, err
	}
	hash := trx.Hash()

	p.lock.Lock()
	buffer, ok := p.pool[obj.Origin()]
	if !ok {
		buffer = make(map[uint64]*txObject)
		p.pool[obj.Origin()] = buffer
	}
	// last-write-wins on duplicate nonce
	buffer[trx.Nonce()] = obj
	p.lock.Unlock()

	p.processAccount(obj.Origin())

	metricTxAddedCount().AddWithLabel(1, map[string]string{"source": source})
	logger.Debug("tx added", "source", source, "origin", obj.Origin(), "nonce", trx.Nonce(), "hash", hash)
	return hash, nil
}

// Remove deletes the sender's entry at the given nonce. Unknown senders are
// expected on follower nodes which never buffered the tx locally, so that
// case only logs.
func (p *TxPool) Remove(origin kvchain.Address, nonce uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()

	buffer, ok := p.pool[origin]
	if !ok {
		logger.Warn("remove tx for unknown sender, might be follower", "origin", origin, "nonce", nonce)
		return
	}
	delete(buffer, nonce)
	if len(buffer) == 0 {
		delete(p.pool, origin)
	}
}

// processAccount promotes the sender's contiguous run of nonces starting at
// the watermark: while a tx exists whose nonce equals the watermark, mark it
// pending and advance the watermark by one. Stops at the first gap.
func (p *TxPool) processAccount(origin kvchain.Address) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.wmLock.Lock()
	defer p.wmLock.Unlock()

	buffer := p.pool[origin]
	next := p.watermark[origin]
	for {
		obj, ok := buffer[next]
		if !ok {
			break
		}
		obj.status = StatusPending
		next++
	}
	p.watermark[origin] = next
}

// Dump produces a snapshot of all currently-held transactions regardless of
// status, optionally excluding entries the filter rejects. Ordering across
// senders is unspecified; within a sender, nonce order is preserved.
func (p *TxPool) Dump(filter Filter) tx.Transactions {
	return p.collect(func(obj *txObject) bool {
		if filter == nil {
			return true
		}
		return filter(obj.Origin(), obj.Nonce(), obj.Hash())
	})
}

// Executables returns the pending transactions, in nonce order per sender.
func (p *TxPool) Executables() tx.Transactions {
	return p.collect(func(obj *txObject) bool {
		return obj.status == StatusPending
	})
}

func (p *TxPool) collect(accept func(*txObject) bool) tx.Transactions {
	p.lock.Lock()
	defer p.lock.Unlock()

	var txs tx.Transactions
	for _, buffer := range p.pool {
		nonces := make([]uint64, 0, len(buffer))
		for nonce := range buffer {
			nonces = append(nonces, nonce)
		}
		sort.Slice(nonces, func(i, j int) bool { return nonces[i] < nonces[j] })

		for _, nonce := range nonces {
			if obj := buffer[nonce]; accept(obj) {
				txs = append(txs, obj.Transaction)
			}
		}
	}
	return txs
}

// Status reports the admission status of the sender's entry at the given nonce.
func (p *TxPool) Status(origin kvchain.Address, nonce uint64) (Status, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()

	buffer, ok := p.pool[origin]
	if !ok {
		return StatusWaiting, false
	}
	obj, ok := buffer[nonce]
	if !ok {
		return StatusWaiting, false
	}
	return obj.status, true
}

// Len returns the number of buffered transactions.
func (p *TxPool) Len() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	n := 0
	for _, buffer := range p.pool {
		n += len(buffer)
	}
	return n
}
