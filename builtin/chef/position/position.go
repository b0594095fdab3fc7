// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package position

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/marsfarm/farm/builtin/solidity"
	"github.com/marsfarm/farm/thor"
)

var slotPositions = thor.BytesToBytes32([]byte("positions"))

// Position is the stake of one account in one pool.
type Position struct {
	Amount *big.Int
	// RewardDebt is the accumulated reward already credited, scaled like the pool accumulator.
	RewardDebt *big.Int
}

func (p *Position) normalize() *Position {
	if p.Amount == nil {
		p.Amount = new(big.Int)
	}
	if p.RewardDebt == nil {
		p.RewardDebt = new(big.Int)
	}
	return p
}

// Service stores positions keyed by (pool id, account).
type Service struct {
	positions *solidity.Mapping[thor.Bytes32, *Position]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		positions: solidity.NewMapping[thor.Bytes32, *Position](sctx, slotPositions),
	}
}

func key(pid uint64, account thor.Address) thor.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], pid)
	return thor.Blake2b(b[:], account.Bytes())
}

// Get returns the position, a zero position if the account never deposited.
func (s *Service) Get(pid uint64, account thor.Address) (*Position, error) {
	p, err := s.positions.Get(key(pid, account))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	return p.normalize(), nil
}

func (s *Service) Set(pid uint64, account thor.Address, p *Position) error {
	if err := s.positions.Set(key(pid, account), p); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	return nil
}
