// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token implements the fungible reward token ledger.
package token

import (
	"math/big"

	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/builtin/solidity"
	"github.com/marsfarm/farm/log"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

var (
	logger = log.WithContext("pkg", "token")

	slotTotalSupply = thor.BytesToBytes32([]byte("total-supply"))
	slotOwner       = thor.BytesToBytes32([]byte("owner"))
	slotMinter      = thor.BytesToBytes32([]byte("minter"))
	slotMetadata    = thor.BytesToBytes32([]byte("metadata"))
	slotBalances    = thor.BytesToBytes32([]byte("balances"))
	slotAllowances  = thor.BytesToBytes32([]byte("allowances"))
)

// Metadata describes the token.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// Token implements the token ledger bound to an address.
type Token struct {
	addr thor.Address
	env  *xenv.Environment

	totalSupply *solidity.Uint256
	owner       *solidity.Address
	minter      *solidity.Address
	metadata    *solidity.Raw[*Metadata]
	balances    *solidity.Mapping[thor.Address, *big.Int]
	allowances  *solidity.Mapping[thor.Bytes32, *big.Int]
}

// New binds the token ledger at addr to the given environment.
func New(addr thor.Address, env *xenv.Environment) *Token {
	sctx := solidity.NewContext(addr, env.State())
	return &Token{
		addr:        addr,
		env:         env,
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
		owner:       solidity.NewAddress(sctx, slotOwner),
		minter:      solidity.NewAddress(sctx, slotMinter),
		metadata:    solidity.NewRaw[*Metadata](sctx, slotMetadata),
		balances:    solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		allowances:  solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotAllowances),
	}
}

func allowanceKey(owner, spender thor.Address) thor.Bytes32 {
	return thor.Blake2b(owner.Bytes(), spender.Bytes())
}

func (t *Token) Address() thor.Address {
	return t.addr
}

// Initialize sets up the token, minting the initial supply to owner.
func (t *Token) Initialize(owner thor.Address, meta *Metadata, initialSupply *big.Int) error {
	current, err := t.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return reverts.New(reverts.ErrAlreadyBound, "token %v already initialized", t.addr)
	}
	t.owner.Set(owner)
	if err := t.metadata.Set(meta); err != nil {
		return err
	}
	if initialSupply != nil && initialSupply.Sign() > 0 {
		if err := t.mint(owner, initialSupply); err != nil {
			return err
		}
	}
	logger.Info("token initialized", "address", t.addr, "symbol", meta.Symbol, "supply", initialSupply)
	return nil
}

func (t *Token) Metadata() (*Metadata, error) {
	return t.metadata.Get()
}

func (t *Token) Owner() (thor.Address, error) {
	return t.owner.Get()
}

func (t *Token) Minter() (thor.Address, error) {
	return t.minter.Get()
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

// BalanceOf returns the balance of addr.
func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(bal), nil
}

func (t *Token) addBalance(addr thor.Address, amount *big.Int) error {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return err
	}
	return t.balances.Set(addr, bal.Add(bal, amount))
}

func (t *Token) subBalance(addr thor.Address, amount *big.Int) error {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return err
	}
	if bal.Cmp(amount) < 0 {
		return reverts.New(reverts.ErrTransferFailed, "insufficient balance of %v", addr)
	}
	return t.balances.Set(addr, bal.Sub(bal, amount))
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.New(reverts.ErrTransferFailed, "invalid amount %v", amount)
	}
	return nil
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := t.subBalance(from, amount); err != nil {
		return err
	}
	if err := t.addBalance(to, amount); err != nil {
		return err
	}
	t.env.Emit(t.addr, "Transfer", "from", from, "to", to, "value", amount)
	return nil
}

// Approve sets the amount spender may move on behalf of owner.
func (t *Token) Approve(owner, spender thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := t.allowances.Set(allowanceKey(owner, spender), amount); err != nil {
		return err
	}
	t.env.Emit(t.addr, "Approval", "owner", owner, "spender", spender, "value", amount)
	return nil
}

// Allowance returns the amount spender may still move on behalf of owner.
func (t *Token) Allowance(owner, spender thor.Address) (*big.Int, error) {
	allowance, err := t.allowances.Get(allowanceKey(owner, spender))
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(allowance), nil
}

// TransferFrom moves amount from an account by a spender, consuming its allowance.
func (t *Token) TransferFrom(spender, from, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	key := allowanceKey(from, spender)
	allowance, err := t.allowances.Get(key)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return reverts.New(reverts.ErrTransferFailed, "allowance of %v exceeded", spender)
	}
	if err := t.allowances.Set(key, allowance.Sub(allowance, amount)); err != nil {
		return err
	}
	return t.Transfer(from, to, amount)
}

// SetMinter binds the only account allowed to mint.
func (t *Token) SetMinter(caller, minter thor.Address) error {
	owner, err := t.owner.Get()
	if err != nil {
		return err
	}
	if caller != owner {
		return reverts.New(reverts.ErrUnauthorized, "%v is not the token owner", caller)
	}
	t.minter.Set(minter)
	logger.Info("minter set", "token", t.addr, "minter", minter)
	return nil
}

// Mint creates amount new tokens for to.
func (t *Token) Mint(caller, to thor.Address, amount *big.Int) error {
	minter, err := t.minter.Get()
	if err != nil {
		return err
	}
	if minter.IsZero() || caller != minter {
		return reverts.New(reverts.ErrUnauthorized, "%v is not the minter", caller)
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	return t.mint(to, amount)
}

func (t *Token) mint(to thor.Address, amount *big.Int) error {
	if err := t.totalSupply.Add(amount); err != nil {
		return err
	}
	if err := t.addBalance(to, amount); err != nil {
		return err
	}
	t.env.Emit(t.addr, "Transfer", "from", thor.Address{}, "to", to, "value", amount)
	return nil
}

// Burn destroys amount tokens held by from.
func (t *Token) Burn(from thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if err := t.subBalance(from, amount); err != nil {
		return err
	}
	if err := t.totalSupply.Sub(amount); err != nil {
		return err
	}
	t.env.Emit(t.addr, "Transfer", "from", from, "to", thor.Address{}, "value", amount)
	return nil
}
