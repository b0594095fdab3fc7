// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chef

import (
	"math/big"

	"github.com/marsfarm/farm/thor"
)

// DevShareDivisor is the divisor of every pool emission minted additionally to the dev address.
const DevShareDivisor = 10

// Config is fixed at construction.
type Config struct {
	RewardToken thor.Address
	Vault       thor.Address
	FeeAddr     thor.Address
	// RewardPerBlock is the emission of all pools per block, outside the bonus window.
	RewardPerBlock *big.Int
	StartBlock     uint32
	// BonusEndBlock ends the window in which every block counts BonusMultiplier times.
	BonusEndBlock   uint32
	BonusMultiplier uint64
}

// Multiplier returns the number of reward blocks over [from, to).
func (c *Config) Multiplier(from, to uint32) *big.Int {
	if to <= from {
		return new(big.Int)
	}
	if from < c.StartBlock {
		from = c.StartBlock
	}
	if to <= from {
		return new(big.Int)
	}
	bonus := new(big.Int).SetUint64(c.BonusMultiplier)
	switch {
	case to <= c.BonusEndBlock:
		return bonus.Mul(bonus, big.NewInt(int64(to-from)))
	case from >= c.BonusEndBlock:
		return big.NewInt(int64(to - from))
	default:
		m := bonus.Mul(bonus, big.NewInt(int64(c.BonusEndBlock-from)))
		return m.Add(m, big.NewInt(int64(to-c.BonusEndBlock)))
	}
}

// UserInfo is the persisted position, without live settlement.
type UserInfo struct {
	Amount     *big.Int
	RewardDebt *big.Int
}
