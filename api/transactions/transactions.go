// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/api/utils"
	"github.com/kvchain/kvchain/chaindb"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/tx"
	"github.com/kvchain/kvchain/txpool"
)

type Transactions struct {
	db   *chaindb.ChainDB
	pool *txpool.TxPool
}

func New(db *chaindb.ChainDB, pool *txpool.TxPool) *Transactions {
	return &Transactions{db, pool}
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var raw RawTx
	if err := utils.ParseJSON(req.Body, &raw); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	data, err := hexutil.Decode(raw.Raw)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "raw"))
	}
	var trx tx.Transaction
	if err := rlp.DecodeBytes(data, &trx); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "raw"))
	}

	id, err := t.pool.Add(&trx)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "tx"))
	}
	return utils.WriteJSON(w, utils.M{"id": id.String()})
}

func (t *Transactions) handleGetTransactionByID(w http.ResponseWriter, req *http.Request) error {
	id, err := kvchain.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}

	// only committed transactions are queryable by content hash
	receipt, err := t.db.GetTransactionReceipt(id)
	if err != nil {
		return err
	}
	if receipt == nil {
		return utils.WriteJSON(w, nil)
	}
	converted, err := convertTransaction(receipt.Tx)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, converted)
}

func (t *Transactions) handleGetTransactionReceiptByID(w http.ResponseWriter, req *http.Request) error {
	id, err := kvchain.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}

	receipt, err := t.db.GetTransactionReceipt(id)
	if err != nil {
		return err
	}
	if receipt == nil {
		return utils.WriteJSON(w, nil)
	}
	return utils.WriteJSON(w, convertReceipt(receipt))
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(utils.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /transactions/{id}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetTransactionByID))
	sub.Path("/{id}/receipt").
		Methods(http.MethodGet).
		Name("GET /transactions/{id}/receipt").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetTransactionReceiptByID))
}
