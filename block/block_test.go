// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvchain/kvchain/block"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"
)

func TestBlockBuildAndEncoding(t *testing.T) {
	key, _ := crypto.GenerateKey()
	trx := tx.MustSign(new(tx.Builder).Nonce(0).SetKV("foo", "bar").Build(), key)

	parentRoot := kvchain.Blake2b([]byte("parent"))
	root := kvchain.Blake2b([]byte("root"))

	blk := new(block.Builder).
		Number(7).
		ParentStateRoot(parentRoot).
		StateRoot(root).
		Timestamp(1_700_000_000_000_000).
		Transaction(trx).
		Build()

	h := blk.Header()
	assert.Equal(t, uint64(7), h.Number())
	assert.Equal(t, parentRoot, h.ParentStateRoot())
	assert.Equal(t, root, h.StateRoot())
	assert.Equal(t, uint64(1_700_000_000_000_000), h.Timestamp())
	assert.False(t, h.ID().IsZero())

	data, err := rlp.EncodeToBytes(blk)
	require.NoError(t, err)

	var decoded block.Block
	require.NoError(t, rlp.DecodeBytes(data, &decoded))

	assert.Equal(t, h.ID(), decoded.Header().ID())
	require.Len(t, decoded.Transactions(), 1)
	assert.Equal(t, trx.Hash(), decoded.Transactions()[0].Hash())
}

func TestHeaderIDDependsOnContent(t *testing.T) {
	b1 := new(block.Builder).Number(1).Build()
	b2 := new(block.Builder).Number(2).Build()
	assert.NotEqual(t, b1.Header().ID(), b2.Header().ID())
}
