// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/kvchain/kvchain/api/accounts"
	"github.com/kvchain/kvchain/api/blocks"
	"github.com/kvchain/kvchain/api/transactions"
	"github.com/kvchain/kvchain/chaindb"
	"github.com/kvchain/kvchain/log"
	"github.com/kvchain/kvchain/state"
	"github.com/kvchain/kvchain/txpool"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
}

// New return api router
func New(
	db *chaindb.ChainDB,
	stater *state.State,
	txPool *txpool.TxPool,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(stater).
		Mount(router, "/accounts")
	transactions.New(db, txPool).
		Mount(router, "/transactions")
	blocks.New(db).
		Mount(router, "/blocks")

	handler := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(router)

	if opts.EnableReqLogger {
		handler = RequestLogger(handler)
	}

	return handler.ServeHTTP
}
