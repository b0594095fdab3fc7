// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/marsfarm/farm/thor"
)

var (
	// ErrNegative is returned when a negative value is written to, or would result in, an uint256 slot.
	ErrNegative = errors.New("uint256: negative value")
	// ErrOverflow is returned when a value does not fit in 256 bits.
	ErrOverflow = errors.New("uint256: overflow")
)

// Uint256 is a wrapper for storage and retrieval of an uint256. Similar to storing an uint256 in a smart contract.
// Unlike a truncating store, values outside [0, 2^256) are rejected.
type Uint256 struct {
	context *Context
	pos     thor.Bytes32
}

func NewUint256(context *Context, pos thor.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) Get() (*big.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(storage.Bytes()), nil
}

func (u *Uint256) Set(value *big.Int) error {
	word, err := toWord(value)
	if err != nil {
		return err
	}
	u.context.state.SetStorage(u.context.address, u.pos, word)
	return nil
}

func (u *Uint256) Add(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Add(storage, value))
}

func (u *Uint256) Sub(value *big.Int) error {
	storage, err := u.Get()
	if err != nil {
		return err
	}
	return u.Set(storage.Sub(storage, value))
}

func toWord(value *big.Int) (thor.Bytes32, error) {
	if value == nil {
		return thor.Bytes32{}, nil
	}
	if value.Sign() < 0 {
		return thor.Bytes32{}, ErrNegative
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return thor.Bytes32{}, ErrOverflow
	}
	return thor.Bytes32(v.Bytes32()), nil
}
