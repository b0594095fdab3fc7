// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/builtin/solidity"
	"github.com/marsfarm/farm/thor"
)

var (
	slotPools       = thor.BytesToBytes32([]byte("pools"))
	slotPoolCount   = thor.BytesToBytes32([]byte("pool-count"))
	slotTotalWeight = thor.BytesToBytes32([]byte("total-weight"))
)

// Service manages the append-only pool list and the total weight.
type Service struct {
	pools       *solidity.Mapping[*big.Int, *Pool]
	count       *solidity.Uint256
	totalWeight *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		pools:       solidity.NewMapping[*big.Int, *Pool](sctx, slotPools),
		count:       solidity.NewUint256(sctx, slotPoolCount),
		totalWeight: solidity.NewUint256(sctx, slotTotalWeight),
	}
}

// Len returns the number of pools.
func (s *Service) Len() (uint64, error) {
	count, err := s.count.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pool count")
	}
	return count.Uint64(), nil
}

// Get returns the pool, failing with PoolNotFound for unknown ids.
func (s *Service) Get(pid uint64) (*Pool, error) {
	count, err := s.Len()
	if err != nil {
		return nil, err
	}
	if pid >= count {
		return nil, reverts.New(reverts.ErrPoolNotFound, "pool %d of %d", pid, count)
	}
	p, err := s.pools.Get(new(big.Int).SetUint64(pid))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

// Set stores an existing pool.
func (s *Service) Set(pid uint64, p *Pool) error {
	if err := s.pools.Set(new(big.Int).SetUint64(pid), p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

// Add appends a new pool and returns its id.
func (s *Service) Add(stakeToken thor.Address, weight *big.Int, lastRewardBlock uint32) (uint64, error) {
	pid, err := s.Len()
	if err != nil {
		return 0, err
	}
	if err := s.Set(pid, newPool(stakeToken, weight, lastRewardBlock)); err != nil {
		return 0, err
	}
	if err := s.count.Set(new(big.Int).SetUint64(pid + 1)); err != nil {
		return 0, err
	}
	if err := s.totalWeight.Add(weight); err != nil {
		return 0, err
	}
	return pid, nil
}

// SetWeight changes the weight of a pool and the total weight accordingly.
func (s *Service) SetWeight(pid uint64, weight *big.Int) (*Pool, error) {
	p, err := s.Get(pid)
	if err != nil {
		return nil, err
	}
	if err := s.totalWeight.Sub(p.Weight); err != nil {
		return nil, err
	}
	if err := s.totalWeight.Add(weight); err != nil {
		return nil, err
	}
	p.Weight = new(big.Int).Set(weight)
	if err := s.Set(pid, p); err != nil {
		return nil, err
	}
	return p, nil
}

// TotalWeight returns the sum of all pool weights.
func (s *Service) TotalWeight() (*big.Int, error) {
	return s.totalWeight.Get()
}
