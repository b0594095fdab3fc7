// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chef implements the multi-pool reward ledger.
//
// Every pool owns a weighted share of a per-block emission. Each settlement first
// advances the pool accumulator to the current block, then pays the pending reward
// of the position through the vault split. Token movements always happen after the
// bookkeeping of the step is written.
package chef

import (
	"math/big"
	"strconv"

	"github.com/pkg/errors"

	"github.com/marsfarm/farm/builtin/chef/pool"
	"github.com/marsfarm/farm/builtin/chef/position"
	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/builtin/solidity"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/builtin/vault"
	"github.com/marsfarm/farm/log"
	"github.com/marsfarm/farm/metrics"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

var (
	logger = log.WithContext("pkg", "chef")

	metricOps        = metrics.LazyLoadCounterVec("chef_operations_count", []string{"op"})
	metricPoolCount  = metrics.LazyLoadGauge("chef_pool_count")
	metricPoolStaked = metrics.LazyLoadGaugeVec("chef_pool_staked_tokens", []string{"pid"})

	slotOwner   = thor.BytesToBytes32([]byte("owner"))
	slotDevAddr = thor.BytesToBytes32([]byte("dev-addr"))
	slotConfig  = thor.BytesToBytes32([]byte("config"))
)

// Chef implements the reward ledger bound to an address.
type Chef struct {
	addr thor.Address
	env  *xenv.Environment

	owner   *solidity.Address
	devAddr *solidity.Address
	config  *solidity.Raw[*Config]

	pools     *pool.Service
	positions *position.Service
}

// New binds the ledger at addr to the given environment.
func New(addr thor.Address, env *xenv.Environment) *Chef {
	sctx := solidity.NewContext(addr, env.State())
	return &Chef{
		addr:      addr,
		env:       env,
		owner:     solidity.NewAddress(sctx, slotOwner),
		devAddr:   solidity.NewAddress(sctx, slotDevAddr),
		config:    solidity.NewRaw[*Config](sctx, slotConfig),
		pools:     pool.New(sctx),
		positions: position.New(sctx),
	}
}

func (c *Chef) Address() thor.Address {
	return c.addr
}

// Initialize sets the owner, the dev address and the fixed configuration.
func (c *Chef) Initialize(owner, devAddr thor.Address, cfg *Config) error {
	current, err := c.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return reverts.New(reverts.ErrAlreadyBound, "chef %v already initialized", c.addr)
	}
	if cfg.RewardPerBlock == nil || cfg.RewardPerBlock.Sign() < 0 {
		return errors.Errorf("invalid reward per block %v", cfg.RewardPerBlock)
	}
	if cfg.BonusMultiplier == 0 {
		return errors.New("bonus multiplier must be positive")
	}
	c.owner.Set(owner)
	c.devAddr.Set(devAddr)
	if err := c.config.Set(cfg); err != nil {
		return err
	}
	logger.Info("chef initialized",
		"address", c.addr,
		"token", cfg.RewardToken,
		"vault", cfg.Vault,
		"rewardPerBlock", cfg.RewardPerBlock,
		"start", cfg.StartBlock,
		"bonusEnd", cfg.BonusEndBlock,
	)
	return nil
}

//
// Getters - no state change
//

func (c *Chef) Config() (*Config, error) {
	return c.config.Get()
}

func (c *Chef) Owner() (thor.Address, error) {
	return c.owner.Get()
}

func (c *Chef) DevAddr() (thor.Address, error) {
	return c.devAddr.Get()
}

// PoolLength returns the number of pools.
func (c *Chef) PoolLength() (uint64, error) {
	return c.pools.Len()
}

// PoolInfo returns the persisted pool.
func (c *Chef) PoolInfo(pid uint64) (*pool.Pool, error) {
	return c.pools.Get(pid)
}

func (c *Chef) TotalWeight() (*big.Int, error) {
	return c.pools.TotalWeight()
}

// UserInfo returns the last persisted position. It does not settle,
// PendingReward gives the live figure.
func (c *Chef) UserInfo(pid uint64, account thor.Address) (*UserInfo, error) {
	if _, err := c.pools.Get(pid); err != nil {
		return nil, err
	}
	pos, err := c.positions.Get(pid, account)
	if err != nil {
		return nil, err
	}
	return &UserInfo{Amount: pos.Amount, RewardDebt: pos.RewardDebt}, nil
}

// PendingReward returns the reward a settlement would pay now.
func (c *Chef) PendingReward(pid uint64, account thor.Address) (*big.Int, error) {
	cfg, err := c.config.Get()
	if err != nil {
		return nil, err
	}
	p, err := c.pools.Get(pid)
	if err != nil {
		return nil, err
	}
	totalWeight, err := c.pools.TotalWeight()
	if err != nil {
		return nil, err
	}
	if block := c.env.BlockContext().Number; block > p.LastRewardBlock {
		p.Accrue(poolReward(cfg, p, totalWeight, block))
	}
	pos, err := c.positions.Get(pid, account)
	if err != nil {
		return nil, err
	}
	return pending(p, pos), nil
}

//
// Setters - state change
//

func (c *Chef) onlyOwner(caller thor.Address) error {
	owner, err := c.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.ErrUnauthorized, "%v is not the chef owner", caller)
	}
	return nil
}

// AddPool appends a pool. Zero weight is allowed and emits nothing.
func (c *Chef) AddPool(caller thor.Address, weight *big.Int, stakeToken thor.Address, withUpdate bool) (uint64, error) {
	logger.Debug("adding pool", "caller", caller, "weight", weight, "stakeToken", stakeToken, "withUpdate", withUpdate)

	if err := c.onlyOwner(caller); err != nil {
		return 0, err
	}
	if weight == nil || weight.Sign() < 0 {
		return 0, reverts.New(reverts.ErrInvalidWeight, "weight %v", weight)
	}
	cfg, err := c.config.Get()
	if err != nil {
		return 0, err
	}
	if withUpdate {
		if err := c.massUpdatePools(cfg); err != nil {
			return 0, err
		}
	}
	lastRewardBlock := max(c.env.BlockContext().Number, cfg.StartBlock)
	pid, err := c.pools.Add(stakeToken, weight, lastRewardBlock)
	if err != nil {
		return 0, err
	}

	c.env.Emit(c.addr, "PoolAdded", "pid", pid, "stakeToken", stakeToken, "weight", weight)
	metricPoolCount().Set(int64(pid) + 1)
	metricOps().AddWithLabel(1, map[string]string{"op": "add_pool"})
	logger.Info("pool added", "pid", pid, "stakeToken", stakeToken, "weight", weight)
	return pid, nil
}

// SetPool changes the weight of a pool.
func (c *Chef) SetPool(caller thor.Address, pid uint64, weight *big.Int, withUpdate bool) error {
	logger.Debug("setting pool", "caller", caller, "pid", pid, "weight", weight, "withUpdate", withUpdate)

	if err := c.onlyOwner(caller); err != nil {
		return err
	}
	if weight == nil || weight.Sign() < 0 {
		return reverts.New(reverts.ErrInvalidWeight, "weight %v", weight)
	}
	cfg, err := c.config.Get()
	if err != nil {
		return err
	}
	if withUpdate {
		if err := c.massUpdatePools(cfg); err != nil {
			return err
		}
	}
	if _, err := c.pools.SetWeight(pid, weight); err != nil {
		return err
	}

	c.env.Emit(c.addr, "PoolSet", "pid", pid, "weight", weight)
	metricOps().AddWithLabel(1, map[string]string{"op": "set_pool"})
	logger.Info("pool set", "pid", pid, "weight", weight)
	return nil
}

// MassUpdatePools settles every pool up to the current block.
func (c *Chef) MassUpdatePools() error {
	cfg, err := c.config.Get()
	if err != nil {
		return err
	}
	return c.massUpdatePools(cfg)
}

// UpdatePool settles one pool up to the current block.
func (c *Chef) UpdatePool(pid uint64) error {
	cfg, err := c.config.Get()
	if err != nil {
		return err
	}
	_, err = c.updatePool(cfg, pid)
	return err
}

// Deposit stakes amount of the pool's token, paying the pending reward first.
func (c *Chef) Deposit(caller thor.Address, pid uint64, amount *big.Int) error {
	logger.Debug("deposit", "caller", caller, "pid", pid, "amount", amount)

	if err := checkAmount(amount); err != nil {
		return err
	}
	cfg, err := c.config.Get()
	if err != nil {
		return err
	}
	p, err := c.updatePool(cfg, pid)
	if err != nil {
		return err
	}
	pos, err := c.positions.Get(pid, caller)
	if err != nil {
		return err
	}

	reward := pending(p, pos)
	pos.Amount.Add(pos.Amount, amount)
	p.TotalStaked.Add(p.TotalStaked, amount)
	pos.RewardDebt = p.Accumulated(pos.Amount)
	if err := c.save(pid, p, caller, pos); err != nil {
		return err
	}

	if err := c.payout(cfg, pid, caller, reward); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		if err := token.New(p.StakeToken, c.env).TransferFrom(c.addr, caller, c.addr, amount); err != nil {
			return err
		}
	}

	c.env.Emit(c.addr, "Deposit", "user", caller, "pid", pid, "amount", amount)
	metricOps().AddWithLabel(1, map[string]string{"op": "deposit"})
	logger.Info("deposited", "user", caller, "pid", pid, "amount", amount, "reward", reward)
	return nil
}

// Withdraw unstakes amount, paying the pending reward first.
func (c *Chef) Withdraw(caller thor.Address, pid uint64, amount *big.Int) error {
	logger.Debug("withdraw", "caller", caller, "pid", pid, "amount", amount)

	if err := checkAmount(amount); err != nil {
		return err
	}
	cfg, err := c.config.Get()
	if err != nil {
		return err
	}
	p, err := c.updatePool(cfg, pid)
	if err != nil {
		return err
	}
	pos, err := c.positions.Get(pid, caller)
	if err != nil {
		return err
	}
	if pos.Amount.Cmp(amount) < 0 {
		return reverts.New(reverts.ErrInsufficientStake, "staked %v, requested %v", pos.Amount, amount)
	}

	reward := pending(p, pos)
	pos.Amount.Sub(pos.Amount, amount)
	p.TotalStaked.Sub(p.TotalStaked, amount)
	pos.RewardDebt = p.Accumulated(pos.Amount)
	if err := c.save(pid, p, caller, pos); err != nil {
		return err
	}

	if err := c.payout(cfg, pid, caller, reward); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		if err := token.New(p.StakeToken, c.env).Transfer(c.addr, caller, amount); err != nil {
			return err
		}
	}

	c.env.Emit(c.addr, "Withdraw", "user", caller, "pid", pid, "amount", amount)
	metricOps().AddWithLabel(1, map[string]string{"op": "withdraw"})
	logger.Info("withdrew", "user", caller, "pid", pid, "amount", amount, "reward", reward)
	return nil
}

// Harvest pays the pending reward and leaves the stake unchanged.
func (c *Chef) Harvest(caller thor.Address, pid uint64) (*big.Int, error) {
	logger.Debug("harvest", "caller", caller, "pid", pid)

	cfg, err := c.config.Get()
	if err != nil {
		return nil, err
	}
	p, err := c.updatePool(cfg, pid)
	if err != nil {
		return nil, err
	}
	pos, err := c.positions.Get(pid, caller)
	if err != nil {
		return nil, err
	}

	reward := pending(p, pos)
	pos.RewardDebt = p.Accumulated(pos.Amount)
	if err := c.positions.Set(pid, caller, pos); err != nil {
		return nil, err
	}
	if err := c.payout(cfg, pid, caller, reward); err != nil {
		return nil, err
	}

	metricOps().AddWithLabel(1, map[string]string{"op": "harvest"})
	logger.Info("harvested", "user", caller, "pid", pid, "reward", reward)
	return reward, nil
}

// EmergencyWithdraw returns the whole stake without paying out, the pending reward is forfeited
// to the pool's unallocated pot.
func (c *Chef) EmergencyWithdraw(caller thor.Address, pid uint64) (*big.Int, error) {
	logger.Debug("emergency withdraw", "caller", caller, "pid", pid)

	cfg, err := c.config.Get()
	if err != nil {
		return nil, err
	}
	p, err := c.updatePool(cfg, pid)
	if err != nil {
		return nil, err
	}
	pos, err := c.positions.Get(pid, caller)
	if err != nil {
		return nil, err
	}
	amount := pos.Amount
	forfeited := pending(p, pos)
	p.Unallocated.Add(p.Unallocated, forfeited)
	p.TotalStaked.Sub(p.TotalStaked, amount)
	if err := c.save(pid, p, caller, &position.Position{Amount: new(big.Int), RewardDebt: new(big.Int)}); err != nil {
		return nil, err
	}
	if forfeited.Sign() > 0 {
		if err := token.New(cfg.RewardToken, c.env).Burn(c.addr, forfeited); err != nil {
			return nil, err
		}
	}
	if amount.Sign() > 0 {
		if err := token.New(p.StakeToken, c.env).Transfer(c.addr, caller, amount); err != nil {
			return nil, err
		}
	}

	c.env.Emit(c.addr, "EmergencyWithdraw", "user", caller, "pid", pid, "amount", amount)
	metricOps().AddWithLabel(1, map[string]string{"op": "emergency_withdraw"})
	logger.Info("emergency withdrew", "user", caller, "pid", pid, "amount", amount, "forfeited", forfeited)
	return amount, nil
}

// SweepUnallocated mints the emission a pool accrued while nothing was staked to the fee address.
func (c *Chef) SweepUnallocated(caller thor.Address, pid uint64) (*big.Int, error) {
	if err := c.onlyOwner(caller); err != nil {
		return nil, err
	}
	cfg, err := c.config.Get()
	if err != nil {
		return nil, err
	}
	p, err := c.updatePool(cfg, pid)
	if err != nil {
		return nil, err
	}
	amount := p.Unallocated
	if amount.Sign() == 0 {
		return amount, nil
	}
	p.Unallocated = new(big.Int)
	if err := c.pools.Set(pid, p); err != nil {
		return nil, err
	}
	if err := token.New(cfg.RewardToken, c.env).Mint(c.addr, cfg.FeeAddr, amount); err != nil {
		return nil, err
	}

	c.env.Emit(c.addr, "Swept", "pid", pid, "to", cfg.FeeAddr, "amount", amount)
	logger.Info("unallocated swept", "pid", pid, "to", cfg.FeeAddr, "amount", amount)
	return amount, nil
}

// SetDevAddr moves the dev share to another address, only the current dev address may do it.
func (c *Chef) SetDevAddr(caller, devAddr thor.Address) error {
	current, err := c.devAddr.Get()
	if err != nil {
		return err
	}
	if caller != current {
		return reverts.New(reverts.ErrUnauthorized, "%v is not the dev address", caller)
	}
	c.devAddr.Set(devAddr)
	logger.Info("dev address set", "dev", devAddr)
	return nil
}

//
// internals
//

func (c *Chef) save(pid uint64, p *pool.Pool, account thor.Address, pos *position.Position) error {
	if err := c.positions.Set(pid, account, pos); err != nil {
		return err
	}
	if err := c.pools.Set(pid, p); err != nil {
		return err
	}
	metricPoolStaked().SetWithLabel(thor.WholeTokens(p.TotalStaked), map[string]string{"pid": strconv.FormatUint(pid, 10)})
	return nil
}

func (c *Chef) massUpdatePools(cfg *Config) error {
	count, err := c.pools.Len()
	if err != nil {
		return err
	}
	for pid := uint64(0); pid < count; pid++ {
		if _, err := c.updatePool(cfg, pid); err != nil {
			return err
		}
	}
	return nil
}

// updatePool advances the pool accumulator to the current block and mints the
// emission shared by the stakers, plus the dev share.
func (c *Chef) updatePool(cfg *Config, pid uint64) (*pool.Pool, error) {
	p, err := c.pools.Get(pid)
	if err != nil {
		return nil, err
	}
	block := c.env.BlockContext().Number
	if block <= p.LastRewardBlock {
		return p, nil
	}
	totalWeight, err := c.pools.TotalWeight()
	if err != nil {
		return nil, err
	}

	reward := poolReward(cfg, p, totalWeight, block)
	staked := p.TotalStaked.Sign() > 0
	p.Accrue(reward)
	p.LastRewardBlock = block
	if err := c.pools.Set(pid, p); err != nil {
		return nil, err
	}
	if !staked || reward.Sign() == 0 {
		return p, nil
	}

	tok := token.New(cfg.RewardToken, c.env)
	if devShare := new(big.Int).Div(reward, big.NewInt(DevShareDivisor)); devShare.Sign() > 0 {
		dev, err := c.devAddr.Get()
		if err != nil {
			return nil, err
		}
		if err := tok.Mint(c.addr, dev, devShare); err != nil {
			return nil, err
		}
	}
	if err := tok.Mint(c.addr, c.addr, reward); err != nil {
		return nil, err
	}
	logger.Debug("pool updated", "pid", pid, "block", block, "reward", reward, "acc", p.AccRewardPerShare)
	return p, nil
}

// payout pays reward to account, the liquid part directly and the rest locked in the vault.
func (c *Chef) payout(cfg *Config, pid uint64, account thor.Address, reward *big.Int) error {
	if reward.Sign() == 0 {
		return nil
	}
	v := vault.New(cfg.Vault, c.env)
	liquid, locked, err := v.Split(reward)
	if err != nil {
		return err
	}
	if liquid.Sign() > 0 {
		if err := token.New(cfg.RewardToken, c.env).Transfer(c.addr, account, liquid); err != nil {
			return err
		}
	}
	if locked.Sign() > 0 {
		if err := v.Lock(c.addr, account, locked); err != nil {
			return err
		}
	}
	c.env.Emit(c.addr, "Harvest", "user", account, "pid", pid, "amount", reward, "locked", locked)
	metricOps().AddWithLabel(1, map[string]string{"op": "payout"})
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.New(reverts.ErrTransferFailed, "invalid amount %v", amount)
	}
	return nil
}

func poolReward(cfg *Config, p *pool.Pool, totalWeight *big.Int, block uint32) *big.Int {
	if totalWeight.Sign() == 0 || p.Weight.Sign() == 0 {
		return new(big.Int)
	}
	reward := cfg.Multiplier(p.LastRewardBlock, block)
	reward.Mul(reward, cfg.RewardPerBlock)
	reward.Mul(reward, p.Weight)
	return reward.Div(reward, totalWeight)
}

func pending(p *pool.Pool, pos *position.Position) *big.Int {
	reward := p.Accumulated(pos.Amount)
	reward.Sub(reward, pos.RewardDebt)
	if reward.Sign() < 0 {
		return new(big.Int)
	}
	return reward
}
