// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsfarm/farm/lvldb"
	"github.com/marsfarm/farm/state"
	"github.com/marsfarm/farm/thor"
)

type testStruct struct {
	Field1 uint64
	Amount *big.Int
	Addr   thor.Address
}

func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.New(db)
	require.NoError(t, err)
	return NewContext(thor.Address{1}, st)
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, thor.Bytes32{1})

	value, err := u.Get()
	require.NoError(t, err)
	assert.Equal(t, 0, value.Sign())

	require.NoError(t, u.Set(big.NewInt(1000)))
	require.NoError(t, u.Add(big.NewInt(500)))
	require.NoError(t, u.Sub(big.NewInt(200)))

	value, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1300), value)

	assert.ErrorIs(t, u.Sub(big.NewInt(1301)), ErrNegative)
	assert.ErrorIs(t, u.Set(new(big.Int).Add(math.MaxBig256, big.NewInt(1))), ErrOverflow)

	// failed writes leave the slot untouched
	value, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1300), value)

	require.NoError(t, u.Set(math.MaxBig256))
	value, err = u.Get()
	require.NoError(t, err)
	assert.Equal(t, math.MaxBig256, value)
}

func TestAddress(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, thor.Bytes32{2})

	got, err := a.Get()
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	want := thor.BytesToAddress([]byte("owner"))
	a.Set(want)
	got, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRaw(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRaw[*testStruct](ctx, thor.Bytes32{3})

	empty, err := r.Get()
	require.NoError(t, err)
	require.NotNil(t, empty)
	assert.Equal(t, uint64(0), empty.Field1)

	in := &testStruct{Field1: 7, Amount: big.NewInt(42), Addr: thor.Address{9}}
	require.NoError(t, r.Set(in))
	out, err := r.Get()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, *testStruct](ctx, thor.Bytes32{4})
	other := NewMapping[thor.Address, *testStruct](ctx, thor.Bytes32{5})

	k1 := thor.BytesToAddress([]byte("k1"))
	k2 := thor.BytesToAddress([]byte("k2"))

	v, err := m.Get(k1)
	require.NoError(t, err)
	require.NotNil(t, v)

	require.NoError(t, m.Set(k1, &testStruct{Field1: 1, Amount: big.NewInt(1)}))
	require.NoError(t, m.Set(k2, &testStruct{Field1: 2, Amount: big.NewInt(2)}))

	v, err = m.Get(k1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Field1)
	v, err = m.Get(k2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v.Field1)

	// different base positions never collide
	v, err = other.Get(k1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v.Field1)

	// value types
	scalar := NewMapping[thor.Bytes32, uint64](ctx, thor.Bytes32{6})
	require.NoError(t, scalar.Set(thor.Bytes32{1}, 99))
	n, err := scalar.Get(thor.Bytes32{1})
	require.NoError(t, err)
	assert.Equal(t, uint64(99), n)
}

func TestMappingRevert(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, *testStruct](ctx, thor.Bytes32{7})
	key := thor.Address{1}

	require.NoError(t, m.Set(key, &testStruct{Field1: 1, Amount: big.NewInt(0)}))
	rev := ctx.State().NewCheckpoint()
	require.NoError(t, m.Set(key, &testStruct{Field1: 2, Amount: big.NewInt(0)}))
	ctx.State().RevertTo(rev)

	v, err := m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Field1)
}
