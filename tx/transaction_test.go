// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/state"
	"github.com/kvchain/kvchain/tx"
)

func TestBuilder(t *testing.T) {
	receiver := kvchain.BytesToAddress([]byte("receiver"))

	trx := new(tx.Builder).Nonce(7).Transfer(receiver, 100).Build()
	assert.Equal(t, uint64(7), trx.Nonce())
	assert.Equal(t, tx.KindTransfer, trx.Kind())
	assert.Equal(t, receiver, *trx.Receiver())
	assert.Equal(t, uint64(100), trx.Amount())

	trx = new(tx.Builder).Nonce(0).SetKV("foo", "bar").Build()
	assert.Equal(t, tx.KindSetKV, trx.Kind())
	assert.Nil(t, trx.Receiver())
	assert.Equal(t, "foo", trx.Key())
	assert.Equal(t, "bar", trx.Value())
}

func TestSignAndOrigin(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	trx := new(tx.Builder).Nonce(0).SetKV("foo", "bar").Build()

	_, err = trx.Origin()
	assert.Error(t, err, "unsigned tx must not yield an origin")

	signed := tx.MustSign(trx, key)
	origin, err := signed.Origin()
	require.NoError(t, err)
	assert.Equal(t, kvchain.PubkeyToAddress(&key.PublicKey), origin)

	// tampering with the signature must not recover the same origin
	sig := signed.Signature()
	sig[10]++
	tampered := signed.WithSignature(sig)
	bad, err := tampered.Origin()
	if err == nil {
		assert.NotEqual(t, origin, bad)
	}
}

func TestContentHashIndependentOfSignature(t *testing.T) {
	key1, _ := crypto.GenerateKey()
	key2, _ := crypto.GenerateKey()

	trx := new(tx.Builder).Nonce(3).SetKV("k", "v").Build()
	assert.Equal(t, trx.Hash(), tx.MustSign(trx, key1).Hash())
	assert.Equal(t, tx.MustSign(trx, key1).Hash(), tx.MustSign(trx, key2).Hash())

	other := new(tx.Builder).Nonce(4).SetKV("k", "v").Build()
	assert.NotEqual(t, trx.Hash(), other.Hash())
}

func TestTransactionEncoding(t *testing.T) {
	key, _ := crypto.GenerateKey()
	receiver := kvchain.BytesToAddress([]byte("receiver"))
	signed := tx.MustSign(new(tx.Builder).Nonce(1).Transfer(receiver, 55).Build(), key)

	data, err := rlp.EncodeToBytes(signed)
	require.NoError(t, err)

	var decoded tx.Transaction
	require.NoError(t, rlp.DecodeBytes(data, &decoded))

	assert.Equal(t, signed.Hash(), decoded.Hash())
	assert.Equal(t, signed.Nonce(), decoded.Nonce())
	assert.Equal(t, *signed.Receiver(), *decoded.Receiver())
	assert.Equal(t, signed.Amount(), decoded.Amount())

	origin, err := decoded.Origin()
	require.NoError(t, err)
	assert.Equal(t, kvchain.PubkeyToAddress(&key.PublicKey), origin)
}

func TestReceiptEncoding(t *testing.T) {
	key, _ := crypto.GenerateKey()
	signed := tx.MustSign(new(tx.Builder).Nonce(0).SetKV("foo", "bar").Build(), key)
	origin, _ := signed.Origin()

	acc := state.NewFaucetAccount()
	acc.Nonce = 1
	acc.Storage["foo"] = "bar"

	receipt := &tx.Receipt{
		Tx:      signed,
		TxHash:  signed.Hash(),
		Status:  true,
		Outputs: []*tx.Output{{Address: origin, Account: acc}},
		GasUsed: kvchain.TxGas,
	}

	data, err := rlp.EncodeToBytes(receipt)
	require.NoError(t, err)

	var decoded tx.Receipt
	require.NoError(t, rlp.DecodeBytes(data, &decoded))

	assert.Equal(t, receipt.TxHash, decoded.TxHash)
	assert.True(t, decoded.Status)
	require.Len(t, decoded.Outputs, 1)
	assert.Equal(t, origin, decoded.Outputs[0].Address)
	assert.Equal(t, uint64(1), decoded.Outputs[0].Account.Nonce)
	assert.Equal(t, "bar", decoded.Outputs[0].Account.Storage["foo"])
	assert.Equal(t, kvchain.TxGas, decoded.GasUsed)
}
