// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/marsfarm/farm/builtin/chef"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/builtin/vault"
	"github.com/marsfarm/farm/deploy"
	"github.com/marsfarm/farm/lvldb"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

// funding is what every simulated user receives of each deployed token.
var funding = thor.Tokens(10_000)

type simulation struct {
	rt    *runtime.Runtime
	d     *deploy.Deployment
	rng   *rand.Rand
	users []thor.Address
	pools uint64
	// funded is the reward token amount handed to each user.
	funded *big.Int
}

// simReport sums up a simulation run.
type simReport struct {
	Blocks   uint32
	Ops      int
	Reverted int
	// Emission is what the schedule emitted for the stakers over the run.
	Emission *big.Int
	// Accounted is the emission found in pools, vault, chef and user wallets.
	Accounted *big.Int
	// Owed is the pending reward of all users, Held the reward tokens the chef holds for them.
	Owed *big.Int
	Held *big.Int
}

// Check verifies no reward was created out of thin air, and the chef can pay what it owes.
// Accounted may fall short of Emission by the per-pool rounding of the emission split.
func (r *simReport) Check() error {
	if r.Accounted.Cmp(r.Emission) > 0 {
		return fmt.Errorf("accounted %v exceeds emission %v", r.Accounted, r.Emission)
	}
	if r.Owed.Cmp(r.Held) > 0 {
		return fmt.Errorf("owed %v exceeds held %v", r.Owed, r.Held)
	}
	return nil
}

func simulateAction(ctx *cli.Context) error {
	initLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	blocks := uint32(ctx.Uint64(blocksFlag.Name))

	bar := pb.New64(int64(blocks)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	report, err := runSimulation(cfg, blocks, ctx.Int64(seedFlag.Name), ctx.Int(usersFlag.Name), func() { bar.Add64(1) })
	if err != nil {
		return err
	}
	bar.Finish()

	fmt.Printf(`Blocks:    %d
Ops:       %d (%d reverted)
Emission:  %v
Accounted: %v
Owed:      %v
Held:      %v
`, report.Blocks, report.Ops, report.Reverted, report.Emission, report.Accounted, report.Owed, report.Held)
	return report.Check()
}

// runSimulation deploys cfg in memory and replays a random workload over the given number of blocks.
// With no pool configured, a MARS pool and a pool per extra stake token are created.
func runSimulation(cfg *deploy.Config, blocks uint32, seed int64, users int, progress func()) (*simReport, error) {
	if users <= 0 {
		return nil, errors.New("at least one user")
	}
	if len(cfg.Pools) == 0 {
		cfg.Pools = append(cfg.Pools, deploy.PoolConfig{Weight: 20, StakeToken: cfg.Token.Symbol})
		for _, tc := range cfg.StakeTokens {
			cfg.Pools = append(cfg.Pools, deploy.PoolConfig{Weight: 5, StakeToken: tc.Symbol})
		}
	}

	db, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rt, err := runtime.New(db)
	if err != nil {
		return nil, err
	}
	d, err := deploy.Deploy(rt, cfg)
	if err != nil {
		return nil, err
	}

	s := &simulation{
		rt:     rt,
		d:      d,
		rng:    rand.New(rand.NewPCG(uint64(seed), 0)), //#nosec G404
		pools:  uint64(len(d.Pools)),
		funded: new(big.Int),
	}
	for i := range users {
		s.users = append(s.users, deploy.ContractAddress(d.Deployer, fmt.Sprintf("user:%d", i)))
	}
	if err := s.fund(); err != nil {
		return nil, err
	}

	report := &simReport{Blocks: blocks}
	for range blocks {
		rt.Mine(1)
		report.Ops++
		if out := s.step(); out.Err != nil {
			report.Reverted++
		}
		if progress != nil {
			progress()
		}
	}
	if err := s.settle(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *simulation) fund() error {
	tokens := []thor.Address{s.d.Token}
	for _, addr := range s.d.StakeTokens {
		tokens = append(tokens, addr)
	}
	out := s.rt.Call("fund", s.d.Deployer, func(env *xenv.Environment) error {
		for _, user := range s.users {
			for _, addr := range tokens {
				tok := token.New(addr, env)
				if err := tok.Transfer(s.d.Deployer, user, funding); err != nil {
					return err
				}
				if err := tok.Approve(user, s.d.Chef, new(big.Int).Lsh(big.NewInt(1), 255)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if out.Err != nil {
		return errors.Wrap(out.Err, "fund users")
	}
	s.funded.Mul(funding, big.NewInt(int64(len(s.users))))
	return nil
}

// step runs one random operation of a random user.
func (s *simulation) step() *runtime.Output {
	user := s.users[s.rng.IntN(len(s.users))]
	pid := s.rng.Uint64N(s.pools)
	amount := thor.Tokens(s.rng.Int64N(1000) + 1)

	switch op := s.rng.IntN(20); {
	case op < 8:
		return s.rt.Call("deposit", user, func(env *xenv.Environment) error {
			return chef.New(s.d.Chef, env).Deposit(user, pid, amount)
		})
	case op < 13:
		return s.rt.Call("withdraw", user, func(env *xenv.Environment) error {
			return chef.New(s.d.Chef, env).Withdraw(user, pid, amount)
		})
	case op < 17:
		return s.rt.Call("harvest", user, func(env *xenv.Environment) error {
			_, err := chef.New(s.d.Chef, env).Harvest(user, pid)
			return err
		})
	case op < 19:
		return s.rt.Call("release", user, func(env *xenv.Environment) error {
			_, err := vault.New(s.d.Vault, env).Release(user)
			return err
		})
	default:
		return s.rt.Call("emergencyWithdraw", user, func(env *xenv.Environment) error {
			_, err := chef.New(s.d.Chef, env).EmergencyWithdraw(user, pid)
			return err
		})
	}
}

// settle updates every pool, then sums where the emitted reward went.
func (s *simulation) settle(report *simReport) error {
	if out := s.rt.Call("massUpdatePools", s.d.Deployer, func(env *xenv.Environment) error {
		return chef.New(s.d.Chef, env).MassUpdatePools()
	}); out.Err != nil {
		return out.Err
	}

	return s.rt.View(func(env *xenv.Environment) error {
		c := chef.New(s.d.Chef, env)
		tok := token.New(s.d.Token, env)

		cfg, err := c.Config()
		if err != nil {
			return err
		}
		emission := cfg.Multiplier(0, env.BlockContext().Number)
		report.Emission = emission.Mul(emission, cfg.RewardPerBlock)

		chefBalance, err := tok.BalanceOf(s.d.Chef)
		if err != nil {
			return err
		}
		locked, err := vault.New(s.d.Vault, env).TotalLocked()
		if err != nil {
			return err
		}
		accounted := new(big.Int).Add(chefBalance, locked)
		accounted.Sub(accounted, s.funded)

		held := new(big.Int).Set(chefBalance)
		for pid := range s.pools {
			p, err := c.PoolInfo(pid)
			if err != nil {
				return err
			}
			accounted.Add(accounted, p.Unallocated)
			if p.StakeToken == s.d.Token {
				held.Sub(held, p.TotalStaked)
			}
		}

		owed := new(big.Int)
		for _, user := range s.users {
			bal, err := tok.BalanceOf(user)
			if err != nil {
				return err
			}
			accounted.Add(accounted, bal)
			for pid := range s.pools {
				pending, err := c.PendingReward(pid, user)
				if err != nil {
					return err
				}
				owed.Add(owed, pending)
			}
		}
		report.Accounted, report.Owed, report.Held = accounted, owed, held
		return nil
	})
}
