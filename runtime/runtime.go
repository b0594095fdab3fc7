// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime executes calls of native contracts against the journaled state.
package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/kv"
	"github.com/marsfarm/farm/log"
	"github.com/marsfarm/farm/state"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

var (
	logger = log.WithContext("pkg", "runtime")

	headBucket = kv.Bucket("r")
	headKey    = []byte("head")
)

// Output is the result of a call.
type Output struct {
	Events []*xenv.Event
	// Err is not nil if the call was reverted, every state change of the call is discarded then.
	Err error
}

type head struct {
	Number uint32
	Time   uint64
}

// Runtime is to support native contract execution.
// Calls, views and commits are serialized.
type Runtime struct {
	mu    sync.Mutex
	db    kv.GetPutter
	state *state.State

	// block env
	blockNumber uint32
	blockTime   uint64
}

// New create a Runtime object on top of db, resuming from the last committed head.
func New(db kv.GetPutter) (*Runtime, error) {
	st, err := state.New(db)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{db: db, state: st}

	data, err := headBucket.Get(db, headKey)
	if err != nil {
		if db.IsNotFound(err) {
			return rt, nil
		}
		return nil, errors.Wrap(err, "load head")
	}
	var h head
	if err := rlp.DecodeBytes(data, &h); err != nil {
		return nil, errors.Wrap(err, "decode head")
	}
	rt.blockNumber, rt.blockTime = h.Number, h.Time
	return rt, nil
}

func (rt *Runtime) State() *state.State { return rt.state }
func (rt *Runtime) BlockNumber() uint32 { return rt.blockNumber }
func (rt *Runtime) BlockTime() uint64   { return rt.blockTime }

// Root returns the state root of the last commit.
func (rt *Runtime) Root() thor.Bytes32 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state.Root()
}

func (rt *Runtime) BlockContext() *xenv.BlockContext {
	return &xenv.BlockContext{Number: rt.blockNumber, Time: rt.blockTime}
}

// Mine advances the chain by n blocks.
func (rt *Runtime) Mine(n uint32) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.blockNumber += n
	rt.blockTime += uint64(n) * thor.BlockInterval
}

// Call executes fn as one atomic call made by origin.
// Any error or panic inside fn reverts all state changes made by the call.
func (rt *Runtime) Call(method string, origin thor.Address, fn func(env *xenv.Environment) error) *Output {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	start := time.Now()
	env := xenv.New(rt.state, rt.BlockContext(), &xenv.TransactionContext{Origin: origin})

	checkpoint := rt.state.NewCheckpoint()
	err := invoke(env, fn)
	if err != nil {
		rt.state.RevertTo(checkpoint)
	}

	status := "ok"
	var revert *reverts.ErrRevert
	switch {
	case err == nil:
	case errors.As(err, &revert):
		status = "reverted"
		logger.Debug("call reverted", "method", method, "origin", origin, "kind", revert.Kind(), "err", err)
	default:
		status = "failed"
		logger.Warn("call failed", "method", method, "origin", origin, "err", err)
	}
	metricCallCount().AddWithLabel(1, map[string]string{"method": method, "status": status})
	metricCallDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"method": method})

	if err != nil {
		return &Output{Err: err}
	}
	return &Output{Events: env.Events()}
}

// View executes fn without keeping any state change.
func (rt *Runtime) View(fn func(env *xenv.Environment) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	env := xenv.New(rt.state, rt.BlockContext(), &xenv.TransactionContext{})
	checkpoint := rt.state.NewCheckpoint()
	defer rt.state.RevertTo(checkpoint)
	return invoke(env, fn)
}

// Commit writes the state changes and the current head into db.
func (rt *Runtime) Commit() (thor.Bytes32, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	stage := rt.state.Stage()
	root, err := stage.Commit()
	if err != nil {
		return thor.Bytes32{}, err
	}
	data, err := rlp.EncodeToBytes(&head{Number: rt.blockNumber, Time: rt.blockTime})
	if err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "encode head")
	}
	if err := headBucket.Put(rt.db, headKey, data); err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "save head")
	}
	metricCommitSize().Observe(int64(stage.Len()))
	logger.Debug("committed", "number", rt.blockNumber, "root", root.AbbrevString(), "changes", stage.Len())
	return root, nil
}

func invoke(env *xenv.Environment, fn func(env *xenv.Environment) error) (err error) {
	defer func() {
		if e := recover(); e != nil {
			if perr, ok := e.(error); ok {
				err = errors.WithMessage(perr, "panic")
			} else {
				err = fmt.Errorf("panic: %v", e)
			}
		}
	}()
	return fn(env)
}
