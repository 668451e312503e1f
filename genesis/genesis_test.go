// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvchain/kvchain/genesis"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/state"
)

func TestLoad(t *testing.T) {
	doc := `{
		"0x0123456789012345678901234567890123456789": {"nonce": 3, "balance": 1000, "storage": {"k": "v"}},
		"0xabcdefabcdefabcdefabcdefabcdefabcdefabcd": {"balance": 42}
	}`

	alloc, err := genesis.Load(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, alloc, 2)

	acc := alloc[kvchain.MustParseAddress("0x0123456789012345678901234567890123456789")]
	require.NotNil(t, acc)
	assert.Equal(t, uint64(3), acc.Nonce)
	assert.Equal(t, uint64(1000), acc.Balance)
	assert.Equal(t, "v", acc.Storage["k"])

	acc = alloc[kvchain.MustParseAddress("0xabcdefabcdefabcdefabcdefabcdefabcdefabcd")]
	require.NotNil(t, acc)
	assert.Equal(t, uint64(42), acc.Balance)
	assert.NotNil(t, acc.Storage)
}

func TestLoadRejectsBadAddress(t *testing.T) {
	_, err := genesis.Load(strings.NewReader(`{"nonsense": {"balance": 1}}`))
	assert.Error(t, err)
}

func TestLoadRejectsBadDocument(t *testing.T) {
	_, err := genesis.Load(strings.NewReader(`[1, 2, 3]`))
	assert.Error(t, err)
}

func TestDefaultAllocIsEmpty(t *testing.T) {
	alloc := genesis.Default()
	assert.Empty(t, alloc)

	st := state.New(alloc)
	assert.Equal(t, kvchain.Bytes32{}, st.Root())
	assert.Equal(t, 0, st.AccountCount())
}
