// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves read-only queries on the farm ledgers over http.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/marsfarm/farm/api/pools"
	"github.com/marsfarm/farm/api/tokens"
	"github.com/marsfarm/farm/api/utils"
	"github.com/marsfarm/farm/api/vaults"
	"github.com/marsfarm/farm/deploy"
	"github.com/marsfarm/farm/log"
	"github.com/marsfarm/farm/metrics"
	"github.com/marsfarm/farm/runtime"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableMetrics   bool
	EnableReqLogger bool
}

// New return api router
func New(rt *runtime.Runtime, d *deploy.Deployment, opts Options) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.Path("/").
		Methods(http.MethodGet).
		Name("GET /").
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, utils.M{
				"token":       d.Token,
				"vault":       d.Vault,
				"chef":        d.Chef,
				"stakeTokens": d.StakeTokens,
				"blockNumber": rt.BlockNumber(),
				"stateRoot":   rt.Root(),
			})
		}))

	pools.New(rt, d.Chef).
		Mount(router, "/pools")
	tokens.New(rt).
		Mount(router, "/tokens")
	vaults.New(rt, d.Vault).
		Mount(router, "/vault")

	if opts.EnableMetrics {
		router.Path("/metrics").
			Methods(http.MethodGet).
			Handler(metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = requestLoggerHandler(handler)
	}

	return handler.ServeHTTP
}
