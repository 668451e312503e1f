// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/kvchain/kvchain/api/utils"
	"github.com/kvchain/kvchain/kvchain"
	"github.com/kvchain/kvchain/state"
)

type Accounts struct {
	stater *state.State
}

func New(stater *state.State) *Accounts {
	return &Accounts{stater}
}

func (a *Accounts) getAccount(addr kvchain.Address) *Account {
	acc, ok := a.stater.GetAccount(addr)
	if !ok {
		// an address never touched by a tx reads as an empty account
		acc = state.NewAccount()
	}
	return convertAccount(addr, acc)
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := kvchain.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return utils.WriteJSON(w, a.getAccount(addr))
}

func (a *Accounts) handleGetStorage(w http.ResponseWriter, req *http.Request) error {
	addr, err := kvchain.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	key := mux.Vars(req)["key"]

	acc, ok := a.stater.GetAccount(addr)
	if !ok {
		return utils.WriteJSON(w, &Storage{Value: ""})
	}
	return utils.WriteJSON(w, &Storage{Value: acc.Storage[key]})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/storage/{key}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}/storage/{key}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetStorage))
}
