// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/marsfarm/farm/thor"
)

// Config is fixed at construction.
type Config struct {
	Token thor.Address
	// ReleasePart of every ReleaseBase parts of a payout is paid liquid, the rest is locked.
	ReleasePart uint64
	ReleaseBase uint64
	// CliffBlocks and DurationBlocks define the vesting schedule of each entry.
	CliffBlocks    uint32
	DurationBlocks uint32
}

// Entry is a locked amount releasing linearly after an optional cliff.
type Entry struct {
	Beneficiary thor.Address
	Amount      *big.Int
	Released    *big.Int
	Start       uint32
	Cliff       uint32
	Duration    uint32
}

// account indexes the entries of a beneficiary.
type account struct {
	Count uint64
	// Head is the first entry that is not fully released.
	Head uint64
}

// Vested returns the amount of the entry vested at block.
// An entry without duration vests entirely at its start block.
func (e *Entry) Vested(block uint32) *big.Int {
	if e.Duration == 0 {
		return new(big.Int).Set(e.Amount)
	}
	if block <= e.Start {
		return new(big.Int)
	}
	elapsed := uint64(block - e.Start)
	cliff := uint64(e.Cliff)
	duration := uint64(e.Duration)

	var num, den uint64
	if duration > cliff {
		if elapsed <= cliff {
			return new(big.Int)
		}
		num, den = elapsed-cliff, duration-cliff
	} else {
		num, den = elapsed, duration
	}
	if num >= den {
		return new(big.Int).Set(e.Amount)
	}
	vested := new(big.Int).Mul(e.Amount, new(big.Int).SetUint64(num))
	return vested.Div(vested, new(big.Int).SetUint64(den))
}

// Releasable returns the vested amount not yet released at block.
func (e *Entry) Releasable(block uint32) *big.Int {
	r := e.Vested(block)
	return r.Sub(r, e.Released)
}

// Finished reports whether the whole entry has been released.
func (e *Entry) Finished() bool {
	return e.Released.Cmp(e.Amount) >= 0
}
