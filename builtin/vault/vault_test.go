// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/builtin/token"
	"github.com/marsfarm/farm/lvldb"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

var (
	tokenAddr = thor.BytesToAddress([]byte("mars"))
	vaultAddr = thor.BytesToAddress([]byte("vault"))
	owner     = thor.BytesToAddress([]byte("owner"))
	chef      = thor.BytesToAddress([]byte("chef"))
	alice     = thor.BytesToAddress([]byte("alice"))
	bob       = thor.BytesToAddress([]byte("bob"))
)

func newTestVault(t *testing.T, cliff, duration uint32) *runtime.Runtime {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rt, err := runtime.New(db)
	require.NoError(t, err)

	out := rt.Call("setup", owner, func(env *xenv.Environment) error {
		tok := token.New(tokenAddr, env)
		if err := tok.Initialize(owner, &token.Metadata{Symbol: "MARS"}, thor.Tokens(1000)); err != nil {
			return err
		}
		if err := tok.Transfer(owner, chef, thor.Tokens(1000)); err != nil {
			return err
		}
		return New(vaultAddr, env).Initialize(owner, &Config{
			Token:          tokenAddr,
			ReleasePart:    80,
			ReleaseBase:    100,
			CliffBlocks:    cliff,
			DurationBlocks: duration,
		})
	})
	require.NoError(t, out.Err)
	return rt
}

func call(rt *runtime.Runtime, caller thor.Address, fn func(v *Vault) error) *runtime.Output {
	return rt.Call("test", caller, func(env *xenv.Environment) error {
		return fn(New(vaultAddr, env))
	})
}

func view[T any](t *testing.T, rt *runtime.Runtime, fn func(v *Vault) (T, error)) T {
	var res T
	require.NoError(t, rt.View(func(env *xenv.Environment) (err error) {
		res, err = fn(New(vaultAddr, env))
		return
	}))
	return res
}

func balanceOf(t *testing.T, rt *runtime.Runtime, addr thor.Address) *big.Int {
	var bal *big.Int
	require.NoError(t, rt.View(func(env *xenv.Environment) (err error) {
		bal, err = token.New(tokenAddr, env).BalanceOf(addr)
		return
	}))
	return bal
}

func bind(t *testing.T, rt *runtime.Runtime) {
	require.NoError(t, call(rt, owner, func(v *Vault) error { return v.SetMasterChef(owner, chef) }).Err)
}

func lock(rt *runtime.Runtime, caller, beneficiary thor.Address, amount *big.Int) *runtime.Output {
	return call(rt, caller, func(v *Vault) error { return v.Lock(caller, beneficiary, amount) })
}

func TestSetMasterChef(t *testing.T) {
	rt := newTestVault(t, 0, 100)

	out := call(rt, alice, func(v *Vault) error { return v.SetMasterChef(alice, chef) })
	assert.ErrorIs(t, out.Err, reverts.ErrUnauthorized)

	bind(t, rt)
	assert.Equal(t, chef, view(t, rt, (*Vault).MasterChef))

	// same binding is idempotent
	bind(t, rt)

	out = call(rt, owner, func(v *Vault) error { return v.SetMasterChef(owner, alice) })
	assert.ErrorIs(t, out.Err, reverts.ErrAlreadyBound)
	assert.Equal(t, chef, view(t, rt, (*Vault).MasterChef))
}

func TestSplit(t *testing.T) {
	rt := newTestVault(t, 0, 100)
	require.NoError(t, rt.View(func(env *xenv.Environment) error {
		liquid, locked, err := New(vaultAddr, env).Split(big.NewInt(1001))
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(800), liquid)
		assert.Equal(t, big.NewInt(201), locked)
		return nil
	}))
}

func TestLockUnauthorized(t *testing.T) {
	rt := newTestVault(t, 0, 100)

	// unbound vault accepts nobody
	out := lock(rt, chef, alice, big.NewInt(10))
	assert.ErrorIs(t, out.Err, reverts.ErrUnauthorized)

	bind(t, rt)
	require.NoError(t, lock(rt, chef, alice, big.NewInt(10)).Err)

	before := view(t, rt, (*Vault).TotalLocked)
	out = lock(rt, alice, alice, big.NewInt(10))
	assert.ErrorIs(t, out.Err, reverts.ErrUnauthorized)

	// vault state unchanged
	assert.Equal(t, before, view(t, rt, (*Vault).TotalLocked))
	entries := view(t, rt, func(v *Vault) ([]*Entry, error) { return v.Entries(alice) })
	assert.Len(t, entries, 1)
	assert.Equal(t, big.NewInt(10), balanceOf(t, rt, vaultAddr))
}

func TestLockAndRelease(t *testing.T) {
	rt := newTestVault(t, 10, 110)
	bind(t, rt)

	rt.Mine(5)
	out := lock(rt, chef, alice, big.NewInt(1000))
	require.NoError(t, out.Err)
	assert.Equal(t, big.NewInt(1000), balanceOf(t, rt, vaultAddr))
	assert.Equal(t, big.NewInt(1000), view(t, rt, (*Vault).TotalLocked))

	entries := view(t, rt, func(v *Vault) ([]*Entry, error) { return v.Entries(alice) })
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(5), entries[0].Start)
	assert.Equal(t, alice, entries[0].Beneficiary)

	release := func() *big.Int {
		var amount *big.Int
		out := call(rt, bob, func(v *Vault) (err error) {
			amount, err = v.Release(alice)
			return
		})
		require.NoError(t, out.Err)
		return amount
	}

	// before the cliff nothing is releasable and release is a no-op
	rt.Mine(10)
	assert.Equal(t, 0, release().Sign())

	// 50 of 100 linear blocks
	rt.Mine(50)
	assert.Equal(t, big.NewInt(500), view(t, rt, func(v *Vault) (*big.Int, error) { return v.Releasable(alice) }))
	assert.Equal(t, big.NewInt(500), release())
	assert.Equal(t, 0, release().Sign())
	assert.Equal(t, big.NewInt(500), balanceOf(t, rt, alice))

	// clamped at the total
	rt.Mine(1000)
	assert.Equal(t, big.NewInt(500), release())
	assert.Equal(t, big.NewInt(1000), balanceOf(t, rt, alice))
	assert.Equal(t, 0, view(t, rt, (*Vault).TotalLocked).Sign())
	assert.Equal(t, 0, balanceOf(t, rt, vaultAddr).Sign())
	assert.Equal(t, 0, release().Sign())
}

func TestReleaseSkipsFinishedEntries(t *testing.T) {
	rt := newTestVault(t, 0, 10)
	bind(t, rt)

	require.NoError(t, lock(rt, chef, alice, big.NewInt(100)).Err)
	rt.Mine(20)
	require.NoError(t, lock(rt, chef, alice, big.NewInt(100)).Err)
	rt.Mine(5)

	out := call(rt, alice, func(v *Vault) error {
		amount, err := v.Release(alice)
		assert.Equal(t, big.NewInt(150), amount)
		return err
	})
	require.NoError(t, out.Err)
	require.Len(t, out.Events, 2) // token transfer and release

	require.NoError(t, rt.View(func(env *xenv.Environment) error {
		acc, err := New(vaultAddr, env).accounts.Get(alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), acc.Count)
		assert.Equal(t, uint64(1), acc.Head)
		return nil
	}))
}

func TestVested(t *testing.T) {
	entry := func(cliff, duration uint32) *Entry {
		return &Entry{Amount: big.NewInt(1000), Released: new(big.Int), Start: 100, Cliff: cliff, Duration: duration}
	}
	tests := []struct {
		name  string
		entry *Entry
		block uint32
		want  int64
	}{
		{"before start", entry(10, 110), 50, 0},
		{"at cliff", entry(10, 110), 110, 0},
		{"after cliff", entry(10, 110), 111, 10},
		{"half", entry(10, 110), 160, 500},
		{"end", entry(10, 110), 210, 1000},
		{"past end", entry(10, 110), 5000, 1000},
		{"no cliff", entry(0, 100), 125, 250},
		{"zero duration", entry(0, 0), 101, 1000},
		{"zero duration at start", entry(0, 0), 100, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, big.NewInt(tt.want), tt.entry.Vested(tt.block))
		})
	}

	e := entry(0, 100)
	e.Released = big.NewInt(200)
	assert.Equal(t, big.NewInt(50), e.Releasable(125))
	assert.False(t, e.Finished())
	e.Released = big.NewInt(1000)
	assert.True(t, e.Finished())
}

func TestInitializeRejectsCliffPastDuration(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	rt, err := runtime.New(db)
	require.NoError(t, err)

	for _, tt := range []struct{ cliff, duration uint32 }{{80, 40}, {50, 50}, {1, 0}} {
		out := rt.Call("init", owner, func(env *xenv.Environment) error {
			return New(vaultAddr, env).Initialize(owner, &Config{
				Token:          tokenAddr,
				ReleasePart:    80,
				ReleaseBase:    100,
				CliffBlocks:    tt.cliff,
				DurationBlocks: tt.duration,
			})
		})
		assert.ErrorContains(t, out.Err, "must be below duration", "cliff %d duration %d", tt.cliff, tt.duration)
	}
}

func TestReleaseWithoutDuration(t *testing.T) {
	rt := newTestVault(t, 0, 0)
	bind(t, rt)
	require.NoError(t, lock(rt, chef, alice, big.NewInt(100)).Err)

	// released in the block it was locked
	out := call(rt, bob, func(v *Vault) error {
		released, err := v.Release(alice)
		assert.Equal(t, big.NewInt(100), released)
		return err
	})
	require.NoError(t, out.Err)
	assert.Equal(t, big.NewInt(100), balanceOf(t, rt, alice))
	assert.Equal(t, 0, view(t, rt, (*Vault).TotalLocked).Sign())
}
