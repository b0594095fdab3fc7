// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testfarm provides an in-memory deployed farm for tests.
package testfarm

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/marsfarm/farm/builtin/chef"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/deploy"
	"github.com/marsfarm/farm/lvldb"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

// Farm is a deployed farm on top of an in-memory database.
type Farm struct {
	db  *lvldb.LevelDB
	rt  *runtime.Runtime
	cfg *deploy.Config
	d   *deploy.Deployment
}

// New deploys cfg on a fresh in-memory runtime.
func New(cfg *deploy.Config) (*Farm, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	rt, err := runtime.New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	d, err := deploy.Deploy(rt, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Farm{db: db, rt: rt, cfg: cfg, d: d}, nil
}

// NewDefault deploys the default config with a MARS pool (weight 20) and an LP pool (weight 5).
func NewDefault() (*Farm, error) {
	cfg := deploy.DefaultConfig()
	cfg.Pools = []deploy.PoolConfig{
		{Weight: 20, StakeToken: cfg.Token.Symbol},
		{Weight: 5, StakeToken: cfg.StakeTokens[0].Symbol},
	}
	return New(cfg)
}

func (f *Farm) Close() error                    { return f.db.Close() }
func (f *Farm) Runtime() *runtime.Runtime       { return f.rt }
func (f *Farm) Config() *deploy.Config          { return f.cfg }
func (f *Farm) Deployment() *deploy.Deployment  { return f.d }
func (f *Farm) Deployer() thor.Address          { return f.d.Deployer }
func (f *Farm) StakeToken(pid int) thor.Address { return f.stakeTokens()[pid] }

func (f *Farm) stakeTokens() []thor.Address {
	return []thor.Address{f.d.Token, f.d.StakeTokens[f.cfg.StakeTokens[0].Symbol]}
}

func (f *Farm) call(method string, caller thor.Address, fn func(env *xenv.Environment) error) error {
	if out := f.rt.Call(method, caller, fn); out.Err != nil {
		return errors.Wrap(out.Err, method)
	}
	return nil
}

// Fund sends amount of the given token from the deployer to user, and approves the chef to spend it.
func (f *Farm) Fund(user, tokenAddr thor.Address, amount *big.Int) error {
	return f.call("fund", f.Deployer(), func(env *xenv.Environment) error {
		tok := token.New(tokenAddr, env)
		if err := tok.Transfer(f.Deployer(), user, amount); err != nil {
			return err
		}
		return tok.Approve(user, f.d.Chef, amount)
	})
}

// Approve allows the chef to spend amount of the given token on behalf of user.
func (f *Farm) Approve(user, tokenAddr thor.Address, amount *big.Int) error {
	return f.call("approve", user, func(env *xenv.Environment) error {
		return token.New(tokenAddr, env).Approve(user, f.d.Chef, amount)
	})
}

func (f *Farm) Deposit(user thor.Address, pid uint64, amount *big.Int) error {
	return f.call("deposit", user, func(env *xenv.Environment) error {
		return chef.New(f.d.Chef, env).Deposit(user, pid, amount)
	})
}

func (f *Farm) Harvest(user thor.Address, pid uint64) error {
	return f.call("harvest", user, func(env *xenv.Environment) error {
		_, err := chef.New(f.d.Chef, env).Harvest(user, pid)
		return err
	})
}

// MineTo advances the chain so the next call executes at block n.
func (f *Farm) MineTo(n uint32) {
	if cur := f.rt.BlockNumber(); n > cur {
		f.rt.Mine(n - cur)
	}
}
