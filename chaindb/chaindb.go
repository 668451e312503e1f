// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chaindb

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/block"
	"github.com/kvchain/kvchain/kv"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"

	"github.com/ethereum/go-ethereum/rlp"
)

const receiptCacheSize = 512

var (
	blockBucket   = kv.Bucket("b") // block number -> block
	receiptBucket = kv.Bucket("r") // tx hash -> receipt
	rootBucket    = kv.Bucket("s") // block number -> state root
	propsBucket   = kv.Bucket("p")
)

var bestBlockKey = []byte("best-block")

// ChainDB durably stores committed blocks, their receipts and state roots.
// Writes are idempotent: re-saving a block number or tx hash simply overwrites
// the identical payload.
type ChainDB struct {
	blocks   kv.GetPutter
	receipts kv.GetPutter
	roots    kv.GetPutter
	props    kv.GetPutter

	receiptCache *lru.Cache
}

// New creates the chain db over the given kv store.
func New(store kv.GetPutter) *ChainDB {
	cache, _ := lru.New(receiptCacheSize)
	return &ChainDB{
		blocks:       blockBucket.NewGetPutter(store),
		receipts:     receiptBucket.NewGetPutter(store),
		roots:        rootBucket.NewGetPutter(store),
		props:        propsBucket.NewGetPutter(store),
		receiptCache: cache,
	}
}

func numKey(num uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], num)
	return key[:]
}

// SaveBlock persists the block keyed by its number and advances the
// best-block pointer.
func (db *ChainDB) SaveBlock(blk *block.Block) error {
	data, err := rlp.EncodeToBytes(blk)
	if err != nil {
		return errors.Wrap(err, "encode block")
	}
	if err := db.blocks.Put(numKey(blk.Header().Number()), data); err != nil {
		return errors.Wrap(err, "save block")
	}
	if err := db.props.Put(bestBlockKey, numKey(blk.Header().Number())); err != nil {
		return errors.Wrap(err, "save best block num")
	}
	return nil
}

// GetBlock loads a block by number. Returns nil if not found.
func (db *ChainDB) GetBlock(num uint64) (*block.Block, error) {
	data, err := db.blocks.Get(numKey(num))
	if err != nil {
		if db.blocks.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get block")
	}
	var blk block.Block
	if err := rlp.DecodeBytes(data, &blk); err != nil {
		return nil, errors.Wrap(err, "decode block")
	}
	return &blk, nil
}

// BestBlockNumber returns the number of the most recently saved block.
// ok is false if no block was ever saved.
func (db *ChainDB) BestBlockNumber() (num uint64, ok bool, err error) {
	data, err := db.props.Get(bestBlockKey)
	if err != nil {
		if db.props.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "get best block num")
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// SaveReceipts persists the receipts keyed by tx hash, in one batch.
func (db *ChainDB) SaveReceipts(receipts tx.Receipts) error {
	batch := db.receipts.NewBatch()
	for _, receipt := range receipts {
		data, err := rlp.EncodeToBytes(receipt)
		if err != nil {
			return errors.Wrap(err, "encode receipt")
		}
		if err := batch.Put(receipt.TxHash.Bytes(), data); err != nil {
			return errors.Wrap(err, "batch receipt")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "save receipts")
	}
	for _, receipt := range receipts {
		db.receiptCache.Add(receipt.TxHash, receipt)
	}
	return nil
}

// GetTransactionReceipt loads a receipt by tx content hash. Returns nil if
// not found.
func (db *ChainDB) GetTransactionReceipt(txHash kvchain.Bytes32) (*tx.Receipt, error) {
	if cached, ok := db.receiptCache.Get(txHash); ok {
		return cached.(*tx.Receipt), nil
	}
	data, err := db.receipts.Get(txHash.Bytes())
	if err != nil {
		if db.receipts.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get receipt")
	}
	var receipt tx.Receipt
	if err := rlp.DecodeBytes(data, &receipt); err != nil {
		return nil, errors.Wrap(err, "decode receipt")
	}
	db.receiptCache.Add(txHash, &receipt)
	return &receipt, nil
}

// SaveStateRoot persists the post-execution state root of a block.
func (db *ChainDB) SaveStateRoot(num uint64, root kvchain.Bytes32) error {
	if err := db.roots.Put(numKey(num), root.Bytes()); err != nil {
		return errors.Wrap(err, "save state root")
	}
	return nil
}

// GetStateRoot loads the state root of a block. ok is false if not found.
func (db *ChainDB) GetStateRoot(num uint64) (root kvchain.Bytes32, ok bool, err error) {
	data, err := db.roots.Get(numKey(num))
	if err != nil {
		if db.roots.IsNotFound(err) {
			return kvchain.Bytes32{}, false, nil
		}
		return kvchain.Bytes32{}, false, errors.Wrap(err, "get state root")
	}
	return kvchain.BytesToBytes32(data), true, nil
}
