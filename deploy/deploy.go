// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package deploy sets up the token, vault and chef ledgers on a runtime.
package deploy

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/marsfarm/farm/builtin/chef"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/builtin/vault"
	"github.com/marsfarm/farm/log"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

var logger = log.WithContext("pkg", "deploy")

// Deployment holds the addresses of the deployed ledgers.
type Deployment struct {
	Deployer thor.Address
	Token    thor.Address
	Vault    thor.Address
	Chef     thor.Address
	// StakeTokens maps symbols of the extra tokens to their addresses.
	StakeTokens map[string]thor.Address
	Pools       []uint64
}

// ContractAddress derives the address of a named contract created by deployer.
func ContractAddress(deployer thor.Address, name string) thor.Address {
	return thor.BytesToAddress(thor.Keccak256(deployer.Bytes(), []byte(name)).Bytes()[12:])
}

func (c *TokenConfig) address(deployer thor.Address) thor.Address {
	if c.Address != nil {
		return *c.Address
	}
	return ContractAddress(deployer, "token:"+c.Symbol)
}

// resolve finds the address of a stake token by symbol, falling back to a hex address.
func (d *Deployment) resolve(cfg *Config, stakeToken string) (thor.Address, error) {
	if stakeToken == cfg.Token.Symbol {
		return d.Token, nil
	}
	if addr, ok := d.StakeTokens[stakeToken]; ok {
		return addr, nil
	}
	addr, err := thor.ParseAddress(stakeToken)
	if err != nil {
		return thor.Address{}, fmt.Errorf("unknown stake token %q", stakeToken)
	}
	return addr, nil
}

// Plan returns the addresses cfg deploys to, without deploying anything.
func Plan(cfg *Config) *Deployment {
	deployer := cfg.Deployer
	d := &Deployment{
		Deployer:    deployer,
		Token:       cfg.Token.address(deployer),
		Vault:       ContractAddress(deployer, "vault"),
		Chef:        ContractAddress(deployer, "chef"),
		StakeTokens: make(map[string]thor.Address, len(cfg.StakeTokens)),
	}
	for _, tc := range cfg.StakeTokens {
		d.StakeTokens[tc.Symbol] = tc.address(deployer)
	}
	return d
}

type step struct {
	name string
	fn   func(env *xenv.Environment) error
}

// Deploy runs the migration: token, vault, chef, then binds the chef to the vault and as the
// token minter, and finally creates the configured pools. Each step is a separate call.
func Deploy(rt *runtime.Runtime, cfg *Config) (*Deployment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deployer := cfg.Deployer
	d := Plan(cfg)

	deployToken := func(tc TokenConfig, addr thor.Address) step {
		return step{"token " + tc.Symbol, func(env *xenv.Environment) error {
			return token.New(addr, env).Initialize(deployer, &token.Metadata{
				Name:     tc.Name,
				Symbol:   tc.Symbol,
				Decimals: tc.Decimals,
			}, (*big.Int)(tc.InitialSupply))
		}}
	}

	steps := []step{deployToken(cfg.Token, d.Token)}
	for _, tc := range cfg.StakeTokens {
		steps = append(steps, deployToken(tc, d.StakeTokens[tc.Symbol]))
	}

	steps = append(steps,
		step{"vault", func(env *xenv.Environment) error {
			return vault.New(d.Vault, env).Initialize(deployer, &vault.Config{
				Token:          d.Token,
				ReleasePart:    cfg.Vault.ReleasePart,
				ReleaseBase:    cfg.Vault.ReleaseBase,
				CliffBlocks:    cfg.Vault.CliffBlocks,
				DurationBlocks: cfg.Vault.DurationBlocks,
			})
		}},
		step{"chef", func(env *xenv.Environment) error {
			return chef.New(d.Chef, env).Initialize(deployer, cfg.Chef.DevAddr, &chef.Config{
				RewardToken:     d.Token,
				Vault:           d.Vault,
				FeeAddr:         cfg.Chef.FeeAddr,
				RewardPerBlock:  new(big.Int).Set((*big.Int)(cfg.Chef.RewardPerBlock)),
				StartBlock:      cfg.Chef.StartBlock,
				BonusEndBlock:   cfg.Chef.BonusEndBlock,
				BonusMultiplier: cfg.Chef.BonusMultiplier,
			})
		}},
		step{"setMasterChef", func(env *xenv.Environment) error {
			return vault.New(d.Vault, env).SetMasterChef(deployer, d.Chef)
		}},
		step{"setMinter", func(env *xenv.Environment) error {
			return token.New(d.Token, env).SetMinter(deployer, d.Chef)
		}},
	)

	for _, s := range steps {
		if out := rt.Call("deploy."+s.name, deployer, s.fn); out.Err != nil {
			return nil, errors.Wrapf(out.Err, "deploy %s", s.name)
		}
		logger.Debug("deployed", "step", s.name)
	}

	for _, pc := range cfg.Pools {
		stakeToken, err := d.resolve(cfg, pc.StakeToken)
		if err != nil {
			return nil, err
		}
		var pid uint64
		out := rt.Call("deploy.addPool", deployer, func(env *xenv.Environment) (err error) {
			pid, err = chef.New(d.Chef, env).AddPool(deployer, new(big.Int).SetUint64(pc.Weight), stakeToken, true)
			return
		})
		if out.Err != nil {
			return nil, errors.Wrapf(out.Err, "add pool %s", pc.StakeToken)
		}
		d.Pools = append(d.Pools, pid)
	}

	logger.Info("farm deployed", "token", d.Token, "vault", d.Vault, "chef", d.Chef, "pools", len(d.Pools))
	return d, nil
}
