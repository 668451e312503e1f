// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package blocks

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/api/utils"
	"github.com/kvchain/kvchain/block"
	"github.com/kvchain/kvchain/chaindb"
)

type Blocks struct {
	db *chaindb.ChainDB
}

func New(db *chaindb.ChainDB) *Blocks {
	return &Blocks{db}
}

// parseRevision resolves a block revision, either a decimal number or "best".
func (b *Blocks) parseRevision(revision string) (uint64, error) {
	if revision == "" || revision == "best" {
		num, ok, err := b.db.BestBlockNumber()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, utils.NotFound(errors.New("no block committed yet"))
		}
		return num, nil
	}
	num, err := strconv.ParseUint(revision, 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "revision"))
	}
	return num, nil
}

func (b *Blocks) handleGetBlock(w http.ResponseWriter, req *http.Request) error {
	num, err := b.parseRevision(mux.Vars(req)["revision"])
	if err != nil {
		return err
	}
	blk, err := b.db.GetBlock(num)
	if err != nil {
		return err
	}
	if blk == nil {
		return utils.WriteJSON(w, nil)
	}
	return b.writeBlock(w, blk)
}

func (b *Blocks) writeBlock(w http.ResponseWriter, blk *block.Block) error {
	txIDs := make([]string, 0, len(blk.Transactions()))
	for _, trx := range blk.Transactions() {
		txIDs = append(txIDs, trx.Hash().String())
	}
	header := blk.Header()
	return utils.WriteJSON(w, &JSONBlock{
		ID:              header.ID(),
		Number:          header.Number(),
		ParentStateRoot: header.ParentStateRoot(),
		StateRoot:       header.StateRoot(),
		Timestamp:       header.Timestamp(),
		Transactions:    txIDs,
	})
}

func (b *Blocks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{revision}").
		Methods(http.MethodGet).
		Name("GET /blocks/{revision}").
		HandlerFunc(utils.WrapHandlerFunc(b.handleGetBlock))
}
