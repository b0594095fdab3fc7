// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vault implements the locked token vault.
// Only the bound master chef may lock tokens, anyone may trigger a release.
package vault

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/builtin/solidity"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/log"
	"github.com/marsfarm/farm/metrics"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

var (
	logger = log.WithContext("pkg", "vault")

	metricLocks       = metrics.LazyLoadCounter("vault_locks_count")
	metricTotalLocked = metrics.LazyLoadGauge("vault_total_locked_tokens")

	slotOwner       = thor.BytesToBytes32([]byte("owner"))
	slotMasterChef  = thor.BytesToBytes32([]byte("master-chef"))
	slotConfig      = thor.BytesToBytes32([]byte("config"))
	slotTotalLocked = thor.BytesToBytes32([]byte("total-locked"))
	slotAccounts    = thor.BytesToBytes32([]byte("accounts"))
	slotEntries     = thor.BytesToBytes32([]byte("entries"))
)

// Vault implements the vault bound to an address.
type Vault struct {
	addr thor.Address
	env  *xenv.Environment

	owner       *solidity.Address
	masterChef  *solidity.Address
	config      *solidity.Raw[*Config]
	totalLocked *solidity.Uint256
	accounts    *solidity.Mapping[thor.Address, *account]
	entries     *solidity.Mapping[thor.Bytes32, *Entry]
}

// New binds the vault at addr to the given environment.
func New(addr thor.Address, env *xenv.Environment) *Vault {
	sctx := solidity.NewContext(addr, env.State())
	return &Vault{
		addr:        addr,
		env:         env,
		owner:       solidity.NewAddress(sctx, slotOwner),
		masterChef:  solidity.NewAddress(sctx, slotMasterChef),
		config:      solidity.NewRaw[*Config](sctx, slotConfig),
		totalLocked: solidity.NewUint256(sctx, slotTotalLocked),
		accounts:    solidity.NewMapping[thor.Address, *account](sctx, slotAccounts),
		entries:     solidity.NewMapping[thor.Bytes32, *Entry](sctx, slotEntries),
	}
}

func entryKey(beneficiary thor.Address, index uint64) thor.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], index)
	return thor.Blake2b(beneficiary.Bytes(), b[:])
}

func (v *Vault) Address() thor.Address {
	return v.addr
}

// Initialize sets the owner and the fixed configuration.
func (v *Vault) Initialize(owner thor.Address, cfg *Config) error {
	current, err := v.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return reverts.New(reverts.ErrAlreadyBound, "vault %v already initialized", v.addr)
	}
	if cfg.ReleaseBase == 0 || cfg.ReleasePart > cfg.ReleaseBase {
		return errors.Errorf("invalid release ratio %d/%d", cfg.ReleasePart, cfg.ReleaseBase)
	}
	if cfg.CliffBlocks > 0 && cfg.CliffBlocks >= cfg.DurationBlocks {
		return errors.Errorf("cliff %d must be below duration %d", cfg.CliffBlocks, cfg.DurationBlocks)
	}
	v.owner.Set(owner)
	if err := v.config.Set(cfg); err != nil {
		return err
	}
	logger.Info("vault initialized",
		"address", v.addr,
		"token", cfg.Token,
		"release", cfg.ReleasePart,
		"base", cfg.ReleaseBase,
		"cliff", cfg.CliffBlocks,
		"duration", cfg.DurationBlocks,
	)
	return nil
}

func (v *Vault) Config() (*Config, error) {
	return v.config.Get()
}

func (v *Vault) Owner() (thor.Address, error) {
	return v.owner.Get()
}

func (v *Vault) MasterChef() (thor.Address, error) {
	return v.masterChef.Get()
}

func (v *Vault) TotalLocked() (*big.Int, error) {
	return v.totalLocked.Get()
}

// SetMasterChef binds the only ledger allowed to lock tokens.
// Binding the same ledger again is a no-op.
func (v *Vault) SetMasterChef(caller, chef thor.Address) error {
	logger.Debug("binding master chef", "caller", caller, "chef", chef)

	owner, err := v.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.ErrUnauthorized, "%v is not the vault owner", caller)
	}
	bound, err := v.masterChef.Get()
	if err != nil {
		return err
	}
	if bound == chef {
		return nil
	}
	if !bound.IsZero() {
		return reverts.New(reverts.ErrAlreadyBound, "vault already bound to %v", bound)
	}
	v.masterChef.Set(chef)
	logger.Info("master chef bound", "vault", v.addr, "chef", chef)
	return nil
}

// Split divides a payout into its liquid and locked parts.
func (v *Vault) Split(amount *big.Int) (liquid, locked *big.Int, err error) {
	cfg, err := v.config.Get()
	if err != nil {
		return nil, nil, err
	}
	if cfg.ReleaseBase == 0 {
		return new(big.Int).Set(amount), new(big.Int), nil
	}
	liquid = new(big.Int).Mul(amount, new(big.Int).SetUint64(cfg.ReleasePart))
	liquid.Div(liquid, new(big.Int).SetUint64(cfg.ReleaseBase))
	return liquid, new(big.Int).Sub(amount, liquid), nil
}

// Lock records a vesting entry for beneficiary and pulls amount from the caller.
func (v *Vault) Lock(caller, beneficiary thor.Address, amount *big.Int) error {
	chef, err := v.masterChef.Get()
	if err != nil {
		return err
	}
	if chef.IsZero() || caller != chef {
		return reverts.New(reverts.ErrUnauthorized, "%v is not the master chef", caller)
	}
	if amount.Sign() < 0 {
		return reverts.New(reverts.ErrTransferFailed, "invalid amount %v", amount)
	}
	if amount.Sign() == 0 {
		return nil
	}
	cfg, err := v.config.Get()
	if err != nil {
		return err
	}

	acc, err := v.accounts.Get(beneficiary)
	if err != nil {
		return err
	}
	entry := &Entry{
		Beneficiary: beneficiary,
		Amount:      new(big.Int).Set(amount),
		Released:    new(big.Int),
		Start:       v.env.BlockContext().Number,
		Cliff:       cfg.CliffBlocks,
		Duration:    cfg.DurationBlocks,
	}
	if err := v.entries.Set(entryKey(beneficiary, acc.Count), entry); err != nil {
		return err
	}
	acc.Count++
	if err := v.accounts.Set(beneficiary, acc); err != nil {
		return err
	}
	if err := v.totalLocked.Add(amount); err != nil {
		return err
	}
	if err := v.reportLocked(); err != nil {
		return err
	}

	if err := token.New(cfg.Token, v.env).Transfer(caller, v.addr, amount); err != nil {
		return err
	}
	v.env.Emit(v.addr, "Locked", "beneficiary", beneficiary, "amount", amount, "index", acc.Count-1)
	metricLocks().Add(1)
	return nil
}

func (v *Vault) reportLocked() error {
	locked, err := v.totalLocked.Get()
	if err != nil {
		return err
	}
	metricTotalLocked().Set(thor.WholeTokens(locked))
	return nil
}

// Entries returns all vesting entries of beneficiary.
func (v *Vault) Entries(beneficiary thor.Address) ([]*Entry, error) {
	acc, err := v.accounts.Get(beneficiary)
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, acc.Count)
	for i := uint64(0); i < acc.Count; i++ {
		entry, err := v.entries.Get(entryKey(beneficiary, i))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Releasable returns the amount release would pay to beneficiary now.
func (v *Vault) Releasable(beneficiary thor.Address) (*big.Int, error) {
	acc, err := v.accounts.Get(beneficiary)
	if err != nil {
		return nil, err
	}
	block := v.env.BlockContext().Number
	total := new(big.Int)
	for i := acc.Head; i < acc.Count; i++ {
		entry, err := v.entries.Get(entryKey(beneficiary, i))
		if err != nil {
			return nil, err
		}
		total.Add(total, entry.Releasable(block))
	}
	return total, nil
}

// Release pays out everything vested to beneficiary so far.
// Nothing releasable is not an error, zero is returned.
func (v *Vault) Release(beneficiary thor.Address) (*big.Int, error) {
	acc, err := v.accounts.Get(beneficiary)
	if err != nil {
		return nil, err
	}
	block := v.env.BlockContext().Number
	total := new(big.Int)
	head := acc.Head
	for i := acc.Head; i < acc.Count; i++ {
		key := entryKey(beneficiary, i)
		entry, err := v.entries.Get(key)
		if err != nil {
			return nil, err
		}
		releasable := entry.Releasable(block)
		if releasable.Sign() > 0 {
			entry.Released.Add(entry.Released, releasable)
			if err := v.entries.Set(key, entry); err != nil {
				return nil, err
			}
			total.Add(total, releasable)
		}
		if entry.Finished() && head == i {
			head = i + 1
		}
	}
	if total.Sign() == 0 {
		return total, nil
	}

	if head != acc.Head {
		acc.Head = head
		if err := v.accounts.Set(beneficiary, acc); err != nil {
			return nil, err
		}
	}
	if err := v.totalLocked.Sub(total); err != nil {
		return nil, err
	}
	if err := v.reportLocked(); err != nil {
		return nil, err
	}

	cfg, err := v.config.Get()
	if err != nil {
		return nil, err
	}
	if err := token.New(cfg.Token, v.env).Transfer(v.addr, beneficiary, total); err != nil {
		return nil, err
	}
	v.env.Emit(v.addr, "Released", "beneficiary", beneficiary, "amount", total)
	logger.Debug("released", "beneficiary", beneficiary, "amount", total, "block", block)
	return total, nil
}
