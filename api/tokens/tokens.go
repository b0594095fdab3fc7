// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/marsfarm/farm/api/utils"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

type Token struct {
	Address     thor.Address          `json:"address"`
	Name        string                `json:"name"`
	Symbol      string                `json:"symbol"`
	Decimals    uint8                 `json:"decimals"`
	TotalSupply *math.HexOrDecimal256 `json:"totalSupply"`
	Owner       thor.Address          `json:"owner"`
	Minter      thor.Address          `json:"minter"`
}

type Balance struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
	// Allowance is what the queried spender may still move, only set with the spender query.
	Allowance *math.HexOrDecimal256 `json:"allowance,omitempty"`
}

type Tokens struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Tokens {
	return &Tokens{rt}
}

func (t *Tokens) handleGetToken(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	res := &Token{Address: addr}
	err = t.rt.View(func(env *xenv.Environment) error {
		tok := token.New(addr, env)
		meta, err := tok.Metadata()
		if err != nil {
			return err
		}
		if meta.Symbol == "" {
			return utils.NotFound(errors.New("token not found"))
		}
		res.Name, res.Symbol, res.Decimals = meta.Name, meta.Symbol, meta.Decimals

		supply, err := tok.TotalSupply()
		if err != nil {
			return err
		}
		res.TotalSupply = (*math.HexOrDecimal256)(supply)
		if res.Owner, err = tok.Owner(); err != nil {
			return err
		}
		res.Minter, err = tok.Minter()
		return err
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (t *Tokens) handleGetBalance(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	account, err := utils.AddressVar(req, "account")
	if err != nil {
		return err
	}
	var spender *thor.Address
	if s := req.URL.Query().Get("spender"); s != "" {
		parsed, err := thor.ParseAddress(s)
		if err != nil {
			return utils.BadRequest(err)
		}
		spender = &parsed
	}

	var res Balance
	err = t.rt.View(func(env *xenv.Environment) error {
		tok := token.New(addr, env)
		bal, err := tok.BalanceOf(account)
		if err != nil {
			return err
		}
		res.Balance = (*math.HexOrDecimal256)(bal)
		if spender != nil {
			allowance, err := tok.Allowance(account, *spender)
			if err != nil {
				return err
			}
			res.Allowance = (*math.HexOrDecimal256)(allowance)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &res)
}

func (t *Tokens) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /tokens/{address}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetToken))
	sub.Path("/{address}/balances/{account}").
		Methods(http.MethodGet).
		Name("GET /tokens/{address}/balances/{account}").
		HandlerFunc(utils.WrapHandlerFunc(t.handleGetBalance))
}
