// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/marsfarm/farm/thor"
)

// Pool is a weighted bucket accepting one stake token.
type Pool struct {
	StakeToken thor.Address
	// Weight is the relative share of the emission.
	Weight          *big.Int
	LastRewardBlock uint32
	// AccRewardPerShare is the accumulated reward per staked unit, scaled by AccPrecision.
	AccRewardPerShare *big.Int
	TotalStaked       *big.Int
	// Unallocated is the emission accrued while nothing was staked, plus forfeited rewards.
	Unallocated *big.Int
}

// AccPrecision scales AccRewardPerShare. Every settlement floors, so a position
// loses less than one base unit per settlement and a pool accumulates at most
// TotalStaked / AccPrecision base units of undistributed dust per update.
var AccPrecision = big.NewInt(1e12)

func newPool(stakeToken thor.Address, weight *big.Int, lastRewardBlock uint32) *Pool {
	return &Pool{
		StakeToken:        stakeToken,
		Weight:            new(big.Int).Set(weight),
		LastRewardBlock:   lastRewardBlock,
		AccRewardPerShare: new(big.Int),
		TotalStaked:       new(big.Int),
		Unallocated:       new(big.Int),
	}
}

// Accrue adds reward to the accumulator, shared by the current stake.
// With nothing staked the reward goes to the unallocated pot.
func (p *Pool) Accrue(reward *big.Int) {
	if p.TotalStaked.Sign() == 0 {
		p.Unallocated.Add(p.Unallocated, reward)
		return
	}
	share := new(big.Int).Mul(reward, AccPrecision)
	share.Div(share, p.TotalStaked)
	p.AccRewardPerShare.Add(p.AccRewardPerShare, share)
}

// Accumulated returns amount × AccRewardPerShare / AccPrecision.
func (p *Pool) Accumulated(amount *big.Int) *big.Int {
	acc := new(big.Int).Mul(amount, p.AccRewardPerShare)
	return acc.Div(acc, AccPrecision)
}

// Clone returns a deep copy.
func (p *Pool) Clone() *Pool {
	return &Pool{
		StakeToken:        p.StakeToken,
		Weight:            new(big.Int).Set(p.Weight),
		LastRewardBlock:   p.LastRewardBlock,
		AccRewardPerShare: new(big.Int).Set(p.AccRewardPerShare),
		TotalStaked:       new(big.Int).Set(p.TotalStaked),
		Unallocated:       new(big.Int).Set(p.Unallocated),
	}
}
