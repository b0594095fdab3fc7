// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/marsfarm/farm/builtin/chef/pool"
	"github.com/marsfarm/farm/thor"
)

type Pool struct {
	ID                uint64                `json:"pid"`
	StakeToken        thor.Address          `json:"stakeToken"`
	Weight            *math.HexOrDecimal256 `json:"weight"`
	LastRewardBlock   uint32                `json:"lastRewardBlock"`
	AccRewardPerShare *math.HexOrDecimal256 `json:"accRewardPerShare"`
	TotalStaked       *math.HexOrDecimal256 `json:"totalStaked"`
	Unallocated       *math.HexOrDecimal256 `json:"unallocated"`
}

type PoolList struct {
	BlockNumber uint32                `json:"blockNumber"`
	TotalWeight *math.HexOrDecimal256 `json:"totalWeight"`
	Pools       []*Pool               `json:"pools"`
}

// User is the position of an account in a pool.
// Amount and RewardDebt are the stored values, Pending is the reward claimable at the current block.
type User struct {
	Amount     *math.HexOrDecimal256 `json:"amount"`
	RewardDebt *math.HexOrDecimal256 `json:"rewardDebt"`
	Pending    *math.HexOrDecimal256 `json:"pending"`
}

func hex(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

func convertPool(pid uint64, p *pool.Pool) *Pool {
	return &Pool{
		ID:                pid,
		StakeToken:        p.StakeToken,
		Weight:            hex(p.Weight),
		LastRewardBlock:   p.LastRewardBlock,
		AccRewardPerShare: hex(p.AccRewardPerShare),
		TotalStaked:       hex(p.TotalStaked),
		Unallocated:       hex(p.Unallocated),
	}
}
