// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/kvchain"
)

// Kind tags the payload carried by a transaction.
type Kind uint8

const (
	// KindTransfer moves an amount from sender to receiver.
	KindTransfer Kind = iota + 1
	// KindSetKV upserts one key/value pair into the sender's storage table.
	KindSetKV
)

var errIntrinsicSignature = errors.New("invalid signature")

// Transaction is an immutable tx type.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Value
		origin      atomic.Value
	}
}

// body describes details of a tx.
type body struct {
	Nonce     uint64
	Kind      uint8
	Receiver  *kvchain.Address `rlp:"nil"`
	Amount    uint64
	Key       string
	Value     string
	Signature []byte
}

// Nonce returns the sender sequence number of the tx.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Kind returns the payload kind.
func (t *Transaction) Kind() Kind {
	return Kind(t.body.Kind)
}

// Receiver returns the transfer receiver, or nil for non-transfer txs.
func (t *Transaction) Receiver() *kvchain.Address {
	if t.body.Receiver == nil {
		return nil
	}
	cpy := *t.body.Receiver
	return &cpy
}

// Amount returns the transfer amount.
func (t *Transaction) Amount() uint64 {
	return t.body.Amount
}

// Key returns the storage key of a SetKV tx.
func (t *Transaction) Key() string {
	return t.body.Key
}

// Value returns the storage value of a SetKV tx.
func (t *Transaction) Value() string {
	return t.body.Value
}

// Signature returns a copy of the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// SigningHash returns the hash of the tx excluding its signature.
func (t *Transaction) SigningHash() kvchain.Bytes32 {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return cached.(kvchain.Bytes32)
	}

	hash := kvchain.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []any{
			t.body.Nonce,
			t.body.Kind,
			t.body.Receiver,
			t.body.Amount,
			t.body.Key,
			t.body.Value,
		})
	})
	t.cache.signingHash.Store(hash)
	return hash
}

// Hash returns the content hash of the tx.
// It is derived from the unsigned body, so the same payload from the same
// sender hashes identically no matter which path it entered through.
func (t *Transaction) Hash() kvchain.Bytes32 {
	return t.SigningHash()
}

// Origin extracts the address of the tx sender from its signature.
// It fails if the tx is unsigned or mis-signed, before any state access.
func (t *Transaction) Origin() (kvchain.Address, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return cached.(kvchain.Address), nil
	}

	if len(t.body.Signature) != 65 {
		return kvchain.Address{}, errIntrinsicSignature
	}
	pub, err := crypto.SigToPub(t.SigningHash().Bytes(), t.body.Signature)
	if err != nil {
		return kvchain.Address{}, errors.Wrap(err, "invalid signature")
	}
	origin := kvchain.PubkeyToAddress(pub)
	t.cache.origin.Store(origin)
	return origin, nil
}

// WithSignature create a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{
		body: t.body,
	}
	// copy sig
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

// String implements stringer.
func (t *Transaction) String() string {
	origin := "unsigned"
	if o, err := t.Origin(); err == nil {
		origin = o.String()
	}
	return fmt.Sprintf("tx(%v) origin %v nonce %v kind %v", t.Hash(), origin, t.body.Nonce, t.body.Kind)
}

// Transactions a slice of transactions.
type Transactions []*Transaction
