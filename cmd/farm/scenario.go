// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/marsfarm/farm/builtin/chef"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/deploy"
	"github.com/marsfarm/farm/lvldb"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

func scenarioAction(ctx *cli.Context) error {
	initLogger(ctx)
	return runScenario(os.Stdout)
}

// runScenario deploys the reference migration in memory, then as the deployer approves the chef,
// adds a MARS pool and an LP pool and deposits 10000 MARS, printing the observed values.
func runScenario(w io.Writer) error {
	db, err := lvldb.NewMem()
	if err != nil {
		return err
	}
	defer db.Close()
	rt, err := runtime.New(db)
	if err != nil {
		return err
	}

	cfg := deploy.DefaultConfig()
	d, err := deploy.Deploy(rt, cfg)
	if err != nil {
		return err
	}
	user := d.Deployer
	lp := d.StakeTokens[cfg.StakeTokens[0].Symbol]

	call := func(method string, fn func(tok *token.Token, c *chef.Chef) error) error {
		out := rt.Call(method, user, func(env *xenv.Environment) error {
			return fn(token.New(d.Token, env), chef.New(d.Chef, env))
		})
		return errors.Wrap(out.Err, method)
	}
	printBalanceAndAllowance := func() error {
		return call("print", func(tok *token.Token, _ *chef.Chef) error {
			balance, err := tok.BalanceOf(user)
			if err != nil {
				return err
			}
			allowance, err := tok.Allowance(user, d.Chef)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, balance)
			fmt.Fprintln(w, allowance)
			return nil
		})
	}

	if err := call("approve", func(tok *token.Token, _ *chef.Chef) error {
		return tok.Approve(user, d.Chef, thor.Tokens(100_000))
	}); err != nil {
		return err
	}
	if err := printBalanceAndAllowance(); err != nil {
		return err
	}

	for _, p := range []struct {
		weight int64
		token  thor.Address
	}{{20, d.Token}, {5, lp}} {
		if err := call("addPool", func(_ *token.Token, c *chef.Chef) error {
			_, err := c.AddPool(user, big.NewInt(p.weight), p.token, true)
			return err
		}); err != nil {
			return err
		}
	}

	if err := call("deposit", func(_ *token.Token, c *chef.Chef) error {
		return c.Deposit(user, 0, thor.Tokens(10_000))
	}); err != nil {
		return err
	}
	if err := call("userInfo", func(_ *token.Token, c *chef.Chef) error {
		info, err := c.UserInfo(0, user)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%v/%v\n", info.Amount, info.RewardDebt)
		return nil
	}); err != nil {
		return err
	}
	return printBalanceAndAllowance()
}
