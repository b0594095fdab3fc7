// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/lvldb"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

var (
	tokenAddr = thor.BytesToAddress([]byte("mars"))
	owner     = thor.BytesToAddress([]byte("owner"))
	alice     = thor.BytesToAddress([]byte("alice"))
	bob       = thor.BytesToAddress([]byte("bob"))
	chef      = thor.BytesToAddress([]byte("chef"))
)

func newTestToken(t *testing.T, supply *big.Int) *runtime.Runtime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rt, err := runtime.New(db)
	require.NoError(t, err)

	out := rt.Call("initialize", owner, func(env *xenv.Environment) error {
		return New(tokenAddr, env).Initialize(owner, &Metadata{Name: "MARS", Symbol: "MARS", Decimals: 18}, supply)
	})
	require.NoError(t, out.Err)
	return rt
}

func call(rt *runtime.Runtime, caller thor.Address, fn func(tok *Token) error) *runtime.Output {
	return rt.Call("test", caller, func(env *xenv.Environment) error {
		return fn(New(tokenAddr, env))
	})
}

func balanceOf(t *testing.T, rt *runtime.Runtime, addr thor.Address) *big.Int {
	var bal *big.Int
	require.NoError(t, rt.View(func(env *xenv.Environment) (err error) {
		bal, err = New(tokenAddr, env).BalanceOf(addr)
		return
	}))
	return bal
}

func TestInitialize(t *testing.T) {
	rt := newTestToken(t, thor.Tokens(100))

	require.NoError(t, rt.View(func(env *xenv.Environment) error {
		tok := New(tokenAddr, env)
		meta, err := tok.Metadata()
		require.NoError(t, err)
		assert.Equal(t, "MARS", meta.Symbol)
		assert.Equal(t, uint8(18), meta.Decimals)

		supply, err := tok.TotalSupply()
		require.NoError(t, err)
		assert.Equal(t, thor.Tokens(100), supply)

		o, err := tok.Owner()
		require.NoError(t, err)
		assert.Equal(t, owner, o)
		return nil
	}))
	assert.Equal(t, thor.Tokens(100), balanceOf(t, rt, owner))

	out := call(rt, owner, func(tok *Token) error {
		return tok.Initialize(alice, &Metadata{}, thor.Tokens(1))
	})
	assert.ErrorIs(t, out.Err, reverts.ErrAlreadyBound)
}

func TestTransfer(t *testing.T) {
	rt := newTestToken(t, big.NewInt(1000))

	out := call(rt, owner, func(tok *Token) error { return tok.Transfer(owner, alice, big.NewInt(300)) })
	require.NoError(t, out.Err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "Transfer", out.Events[0].Name)

	assert.Equal(t, big.NewInt(700), balanceOf(t, rt, owner))
	assert.Equal(t, big.NewInt(300), balanceOf(t, rt, alice))

	out = call(rt, alice, func(tok *Token) error { return tok.Transfer(alice, bob, big.NewInt(301)) })
	assert.ErrorIs(t, out.Err, reverts.ErrTransferFailed)
	out = call(rt, alice, func(tok *Token) error { return tok.Transfer(alice, bob, big.NewInt(-1)) })
	assert.ErrorIs(t, out.Err, reverts.ErrTransferFailed)

	// self transfer keeps the balance
	require.NoError(t, call(rt, alice, func(tok *Token) error { return tok.Transfer(alice, alice, big.NewInt(300)) }).Err)
	assert.Equal(t, big.NewInt(300), balanceOf(t, rt, alice))
	assert.Equal(t, 0, balanceOf(t, rt, bob).Sign())
}

func TestApproveAllowance(t *testing.T) {
	rt := newTestToken(t, big.NewInt(1000))
	allowance := func(o, s thor.Address) *big.Int {
		var a *big.Int
		require.NoError(t, rt.View(func(env *xenv.Environment) (err error) {
			a, err = New(tokenAddr, env).Allowance(o, s)
			return
		}))
		return a
	}

	require.NoError(t, call(rt, owner, func(tok *Token) error { return tok.Approve(owner, chef, big.NewInt(500)) }).Err)
	assert.Equal(t, big.NewInt(500), allowance(owner, chef))
	assert.Equal(t, 0, allowance(chef, owner).Sign())

	require.NoError(t, call(rt, chef, func(tok *Token) error {
		return tok.TransferFrom(chef, owner, chef, big.NewInt(200))
	}).Err)
	assert.Equal(t, big.NewInt(300), allowance(owner, chef))
	assert.Equal(t, big.NewInt(200), balanceOf(t, rt, chef))

	// exceeding the allowance fails and leaves it untouched
	out := call(rt, chef, func(tok *Token) error { return tok.TransferFrom(chef, owner, chef, big.NewInt(301)) })
	assert.ErrorIs(t, out.Err, reverts.ErrTransferFailed)
	assert.Equal(t, big.NewInt(300), allowance(owner, chef))

	// allowance is consumed before the balance check, a failing balance reverts both
	require.NoError(t, call(rt, alice, func(tok *Token) error { return tok.Approve(alice, chef, big.NewInt(10)) }).Err)
	out = call(rt, chef, func(tok *Token) error { return tok.TransferFrom(chef, alice, chef, big.NewInt(10)) })
	assert.ErrorIs(t, out.Err, reverts.ErrTransferFailed)
	assert.Equal(t, big.NewInt(10), allowance(alice, chef))

	require.NoError(t, call(rt, chef, func(tok *Token) error {
		return tok.TransferFrom(chef, owner, bob, big.NewInt(300))
	}).Err)
	assert.Equal(t, 0, allowance(owner, chef).Sign())
}

func TestMint(t *testing.T) {
	rt := newTestToken(t, nil)

	out := call(rt, chef, func(tok *Token) error { return tok.Mint(chef, alice, big.NewInt(1)) })
	assert.ErrorIs(t, out.Err, reverts.ErrUnauthorized)

	out = call(rt, alice, func(tok *Token) error { return tok.SetMinter(alice, alice) })
	assert.ErrorIs(t, out.Err, reverts.ErrUnauthorized)

	require.NoError(t, call(rt, owner, func(tok *Token) error { return tok.SetMinter(owner, chef) }).Err)

	out = call(rt, owner, func(tok *Token) error { return tok.Mint(owner, alice, big.NewInt(1)) })
	assert.ErrorIs(t, out.Err, reverts.ErrUnauthorized)

	out = call(rt, chef, func(tok *Token) error { return tok.Mint(chef, alice, big.NewInt(50)) })
	require.NoError(t, out.Err)
	require.Len(t, out.Events, 1)
	from, _ := out.Events[0].Get("from")
	assert.Equal(t, thor.Address{}, from)

	assert.Equal(t, big.NewInt(50), balanceOf(t, rt, alice))
	require.NoError(t, rt.View(func(env *xenv.Environment) error {
		supply, err := New(tokenAddr, env).TotalSupply()
		assert.Equal(t, big.NewInt(50), supply)
		return err
	}))
}

func TestBurn(t *testing.T) {
	rt := newTestToken(t, big.NewInt(100))

	require.NoError(t, call(rt, owner, func(tok *Token) error { return tok.Burn(owner, big.NewInt(40)) }).Err)
	assert.Equal(t, big.NewInt(60), balanceOf(t, rt, owner))

	out := call(rt, owner, func(tok *Token) error { return tok.Burn(owner, big.NewInt(61)) })
	assert.ErrorIs(t, out.Err, reverts.ErrTransferFailed)

	require.NoError(t, rt.View(func(env *xenv.Environment) error {
		supply, err := New(tokenAddr, env).TotalSupply()
		assert.Equal(t, big.NewInt(60), supply)
		return err
	}))
}
