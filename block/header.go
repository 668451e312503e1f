// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/kvchain/kvchain/kvchain"
)

// Header contains block header data.
type Header struct {
	body headerBody

	cache struct {
		id atomic.Value
	}
}

// headerBody body of header.
type headerBody struct {
	Number          uint64
	ParentStateRoot kvchain.Bytes32
	StateRoot       kvchain.Bytes32
	Timestamp       uint64
}

// Number returns the sequential block number, supplied by the ordering service.
func (h *Header) Number() uint64 {
	return h.body.Number
}

// ParentStateRoot returns the state root before this block was applied.
func (h *Header) ParentStateRoot() kvchain.Bytes32 {
	return h.body.ParentStateRoot
}

// StateRoot returns the state root after applying all of the block's
// transactions in order.
func (h *Header) StateRoot() kvchain.Bytes32 {
	return h.body.StateRoot
}

// Timestamp returns the block timestamp in microseconds.
func (h *Header) Timestamp() uint64 {
	return h.body.Timestamp
}

// ID computes the block id, the hash of the encoded header.
func (h *Header) ID() kvchain.Bytes32 {
	if cached := h.cache.id.Load(); cached != nil {
		return cached.(kvchain.Bytes32)
	}

	id := kvchain.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, h)
	})
	h.cache.id.Store(id)
	return id
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

// String implements stringer.
func (h *Header) String() string {
	return fmt.Sprintf("header{num %v root %v parent %v ts %v}",
		h.body.Number, h.body.StateRoot, h.body.ParentStateRoot, h.body.Timestamp)
}
