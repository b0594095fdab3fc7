// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package deploy

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/marsfarm/farm/thor"
)

// Config is the deployment config of the farm.
type Config struct {
	Deployer    thor.Address  `yaml:"deployer"`
	Token       TokenConfig   `yaml:"token"`
	Vault       VaultConfig   `yaml:"vault"`
	Chef        ChefConfig    `yaml:"chef"`
	StakeTokens []TokenConfig `yaml:"stakeTokens,omitempty"`
	Pools       []PoolConfig  `yaml:"pools,omitempty"`
}

// TokenConfig describes a token ledger to deploy.
type TokenConfig struct {
	// Address is derived from the deployer and the symbol when absent.
	Address       *thor.Address         `yaml:"address,omitempty"`
	Name          string                `yaml:"name"`
	Symbol        string                `yaml:"symbol"`
	Decimals      uint8                 `yaml:"decimals"`
	InitialSupply *math.HexOrDecimal256 `yaml:"initialSupply"`
}

type VaultConfig struct {
	ReleasePart    uint64 `yaml:"releasePart"`
	ReleaseBase    uint64 `yaml:"releaseBase"`
	CliffBlocks    uint32 `yaml:"cliffBlocks"`
	DurationBlocks uint32 `yaml:"durationBlocks"`
}

type ChefConfig struct {
	DevAddr         thor.Address          `yaml:"devAddr"`
	FeeAddr         thor.Address          `yaml:"feeAddr"`
	RewardPerBlock  *math.HexOrDecimal256 `yaml:"rewardPerBlock"`
	StartBlock      uint32                `yaml:"startBlock"`
	BonusEndBlock   uint32                `yaml:"bonusEndBlock"`
	BonusMultiplier uint64                `yaml:"bonusMultiplier"`
}

// PoolConfig is a pool created right after the deployment.
type PoolConfig struct {
	Weight uint64 `yaml:"weight"`
	// StakeToken is the symbol of a configured token, or a hex address.
	StakeToken string `yaml:"stakeToken"`
}

var (
	defaultDeployer = thor.MustParseAddress("0x226dAe0B18204C50CA4D959fE25fc2d47Bd5206d")
	defaultLPToken  = thor.MustParseAddress("0x43A3be7B27F05644EbDB6F5433DF73e9dCe3C668")
)

func tokens(n int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(thor.Tokens(n))
}

// DefaultConfig returns the config of the reference migration.
func DefaultConfig() *Config {
	lp := defaultLPToken
	return &Config{
		Deployer: defaultDeployer,
		Token: TokenConfig{
			Name:          "MarsToken",
			Symbol:        "MARS",
			Decimals:      18,
			InitialSupply: tokens(1_000_000),
		},
		Vault: VaultConfig{
			ReleasePart:    80,
			ReleaseBase:    100,
			DurationBlocks: 100,
		},
		Chef: ChefConfig{
			DevAddr:         defaultDeployer,
			FeeAddr:         defaultDeployer,
			RewardPerBlock:  tokens(1),
			StartBlock:      30,
			BonusEndBlock:   50,
			BonusMultiplier: 10,
		},
		StakeTokens: []TokenConfig{{
			Address:       &lp,
			Name:          "LP Token",
			Symbol:        "LP",
			Decimals:      18,
			InitialSupply: tokens(1_000_000),
		}},
	}
}

// LoadConfig reads a yaml config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal encodes the config as yaml.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func nonNegative(v *math.HexOrDecimal256) bool {
	return v != nil && (*big.Int)(v).Sign() >= 0
}

// Validate checks the config before anything is deployed.
func (c *Config) Validate() error {
	if c.Deployer.IsZero() {
		return errors.New("deployer must be set")
	}
	all := append([]TokenConfig{c.Token}, c.StakeTokens...)
	seen := make(map[string]bool, len(all))
	for _, t := range all {
		if t.Symbol == "" {
			return errors.New("token symbol must be set")
		}
		if seen[t.Symbol] {
			return fmt.Errorf("%s: duplicated token symbol", t.Symbol)
		}
		seen[t.Symbol] = true
		if !nonNegative(t.InitialSupply) {
			return fmt.Errorf("%s: initialSupply must be a non-negative integer", t.Symbol)
		}
	}
	if c.Vault.ReleaseBase == 0 || c.Vault.ReleasePart > c.Vault.ReleaseBase {
		return errors.New("vault: releasePart must not exceed a non-zero releaseBase")
	}
	if c.Vault.CliffBlocks > 0 && c.Vault.CliffBlocks >= c.Vault.DurationBlocks {
		return errors.New("vault: cliffBlocks must be below durationBlocks")
	}
	if !nonNegative(c.Chef.RewardPerBlock) {
		return errors.New("chef: rewardPerBlock must be a non-negative integer")
	}
	if c.Chef.BonusEndBlock < c.Chef.StartBlock {
		return errors.New("chef: bonusEndBlock must not be before startBlock")
	}
	if c.Chef.BonusMultiplier == 0 {
		return errors.New("chef: bonusMultiplier must be a non-zero integer")
	}
	for i, p := range c.Pools {
		if p.StakeToken == "" {
			return fmt.Errorf("pool %d: stakeToken must be set", i)
		}
	}
	return nil
}
