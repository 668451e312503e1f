// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Bucket provides a logical bucket over a kv store, by key prefixing.
type Bucket string

// NewGetPutter creates a bucketed store from the source store.
func (b Bucket) NewGetPutter(src GetPutter) GetPutter {
	return &bucketStore{string(b), src}
}

type bucketStore struct {
	prefix string
	src    GetPutter
}

func (s *bucketStore) key(key []byte) []byte {
	return append([]byte(s.prefix), key...)
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	return s.src.Get(s.key(key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	return s.src.Has(s.key(key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) NewIterator(r Range) Iterator {
	if r.From == nil && r.To == nil {
		br := util.BytesPrefix([]byte(s.prefix))
		return &bucketIterator{len(s.prefix), s.src.NewIterator(Range{From: br.Start, To: br.Limit})}
	}
	return &bucketIterator{len(s.prefix), s.src.NewIterator(Range{
		From: s.key(r.From),
		To:   s.key(r.To),
	})}
}

func (s *bucketStore) Put(key, value []byte) error {
	return s.src.Put(s.key(key), value)
}

func (s *bucketStore) Delete(key []byte) error {
	return s.src.Delete(s.key(key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.prefix, s.src.NewBatch()}
}

type bucketIterator struct {
	prefixLen int
	src       Iterator
}

func (i *bucketIterator) Next() bool    { return i.src.Next() }
func (i *bucketIterator) Release()      { i.src.Release() }
func (i *bucketIterator) Error() error  { return i.src.Error() }
func (i *bucketIterator) Key() []byte   { return i.src.Key()[i.prefixLen:] }
func (i *bucketIterator) Value() []byte { return i.src.Value() }

type bucketBatch struct {
	prefix string
	src    Batch
}

func (b *bucketBatch) key(key []byte) []byte {
	return append([]byte(b.prefix), key...)
}

func (b *bucketBatch) Put(key, value []byte) error {
	return b.src.Put(b.key(key), value)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.src.Delete(b.key(key))
}

func (b *bucketBatch) NewBatch() Batch {
	return &bucketBatch{b.prefix, b.src.NewBatch()}
}

func (b *bucketBatch) Len() int     { return b.src.Len() }
func (b *bucketBatch) Write() error { return b.src.Write() }
