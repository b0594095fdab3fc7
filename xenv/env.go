// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xenv

import (
	"fmt"
	"strings"

	"github.com/marsfarm/farm/state"
	"github.com/marsfarm/farm/thor"
)

// BlockContext block context.
type BlockContext struct {
	Number uint32
	Time   uint64
}

// TransactionContext transaction context.
type TransactionContext struct {
	Origin thor.Address
}

// Event is a record emitted by a native contract during a call.
type Event struct {
	Address thor.Address
	Name    string
	Args    []any // key/value pairs
}

func (e *Event) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s@%s", e.Name, e.Address.String())
	for i := 0; i+1 < len(e.Args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.Args[i], e.Args[i+1])
	}
	return b.String()
}

// Get returns the value of the named argument.
func (e *Event) Get(name string) (any, bool) {
	for i := 0; i+1 < len(e.Args); i += 2 {
		if e.Args[i] == name {
			return e.Args[i+1], true
		}
	}
	return nil, false
}

// Environment an env to execute native method.
type Environment struct {
	state    *state.State
	blockCtx *BlockContext
	txCtx    *TransactionContext
	events   []*Event
}

// New create a new env.
func New(
	state *state.State,
	blockCtx *BlockContext,
	txCtx *TransactionContext,
) *Environment {
	return &Environment{
		state:    state,
		blockCtx: blockCtx,
		txCtx:    txCtx,
	}
}

func (env *Environment) State() *state.State                     { return env.state }
func (env *Environment) TransactionContext() *TransactionContext { return env.txCtx }
func (env *Environment) BlockContext() *BlockContext             { return env.blockCtx }
func (env *Environment) Events() []*Event                        { return env.events }

// Emit records an event of the contract at address.
func (env *Environment) Emit(address thor.Address, name string, args ...any) {
	env.events = append(env.events, &Event{
		Address: address,
		Name:    name,
		Args:    args,
	})
}
