// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marsfarm/farm/thor"
)

func TestEnvironment(t *testing.T) {
	origin := thor.BytesToAddress([]byte("origin"))
	env := New(nil, &BlockContext{Number: 3, Time: 30}, &TransactionContext{Origin: origin})

	assert.Equal(t, uint32(3), env.BlockContext().Number)
	assert.Equal(t, origin, env.TransactionContext().Origin)
	assert.Empty(t, env.Events())

	contract := thor.BytesToAddress([]byte("contract"))
	env.Emit(contract, "Deposit", "user", origin, "pid", uint64(1))

	events := env.Events()
	assert.Len(t, events, 1)
	assert.Equal(t, "Deposit", events[0].Name)

	v, ok := events[0].Get("pid")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), v)
	_, ok = events[0].Get("amount")
	assert.False(t, ok)

	assert.Equal(t, "Deposit@"+contract.String()+" user="+origin.String()+" pid=1", events[0].String())
}
