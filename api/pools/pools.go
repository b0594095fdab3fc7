// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/marsfarm/farm/api/utils"
	"github.com/marsfarm/farm/builtin/chef"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

type Pools struct {
	rt   *runtime.Runtime
	chef thor.Address
}

func New(rt *runtime.Runtime, chef thor.Address) *Pools {
	return &Pools{rt, chef}
}

func (p *Pools) view(fn func(c *chef.Chef) error) error {
	return p.rt.View(func(env *xenv.Environment) error {
		return fn(chef.New(p.chef, env))
	})
}

func (p *Pools) handleGetPools(w http.ResponseWriter, _ *http.Request) error {
	list := &PoolList{Pools: []*Pool{}}
	err := p.view(func(c *chef.Chef) error {
		n, err := c.PoolLength()
		if err != nil {
			return err
		}
		for pid := range n {
			pl, err := c.PoolInfo(pid)
			if err != nil {
				return err
			}
			list.Pools = append(list.Pools, convertPool(pid, pl))
		}
		total, err := c.TotalWeight()
		if err != nil {
			return err
		}
		list.TotalWeight = hex(total)
		return nil
	})
	if err != nil {
		return errors.WithMessage(err, "pools")
	}
	list.BlockNumber = p.rt.BlockNumber()
	return utils.WriteJSON(w, list)
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	pid, err := utils.Uint64Var(req, "pid")
	if err != nil {
		return err
	}
	var pl *Pool
	err = p.view(func(c *chef.Chef) error {
		info, err := c.PoolInfo(pid)
		if err != nil {
			return err
		}
		pl = convertPool(pid, info)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, pl)
}

func (p *Pools) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	pid, err := utils.Uint64Var(req, "pid")
	if err != nil {
		return err
	}
	addr, err := utils.AddressVar(req, "address")
	if err != nil {
		return err
	}
	var user User
	err = p.view(func(c *chef.Chef) error {
		info, err := c.UserInfo(pid, addr)
		if err != nil {
			return err
		}
		pending, err := c.PendingReward(pid, addr)
		if err != nil {
			return err
		}
		user = User{
			Amount:     hex(info.Amount),
			RewardDebt: hex(info.RewardDebt),
			Pending:    hex(pending),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &user)
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pools").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPools))
	sub.Path("/{pid}").
		Methods(http.MethodGet).
		Name("GET /pools/{pid}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{pid}/users/{address}").
		Methods(http.MethodGet).
		Name("GET /pools/{pid}/users/{address}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetUser))
}
