// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chef

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsfarm/farm/builtin/chef/pool"
	"github.com/marsfarm/farm/builtin/reverts"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

type workloadOp struct {
	Kind   uint8
	User   uint8
	Amount uint32
	Blocks uint8
}

// TestRandomWorkload replays random deposit/withdraw/harvest sequences on a single pool and
// checks that stake bookkeeping is exact and that the emission is conserved up to rounding dust.
func TestRandomWorkload(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		var ops []workloadOp
		fuzz.NewWithSeed(seed).NilChance(0).NumElements(40, 80).Fuzz(&ops)

		tc := newTestChef(t)
		pid := tc.addPool(1, lpAddr)
		users := []thor.Address{alice, bob}
		staked := map[thor.Address]*big.Int{alice: new(big.Int), bob: new(big.Int)}
		maxStaked := new(big.Int)

		for _, op := range ops {
			tc.rt.Mine(uint32(op.Blocks % 8))
			user := users[int(op.User)%len(users)]
			amount := new(big.Int).Mul(big.NewInt(int64(op.Amount%1000)+1), big.NewInt(1e15))

			switch op.Kind % 3 {
			case 0:
				require.NoError(t, tc.deposit(user, pid, amount).Err)
				staked[user].Add(staked[user], amount)
			case 1:
				out := tc.withdraw(user, pid, amount)
				if staked[user].Cmp(amount) < 0 {
					assert.ErrorIs(t, out.Err, reverts.ErrInsufficientStake)
				} else {
					require.NoError(t, out.Err)
					staked[user].Sub(staked[user], amount)
				}
			case 2:
				tc.harvest(user, pid)
			}

			if total := new(big.Int).Add(staked[alice], staked[bob]); total.Cmp(maxStaked) > 0 {
				maxStaked = total
			}
			info := tc.userInfo(pid, user)
			assert.Equal(t, 0, info.Amount.Cmp(staked[user]), "seed %d", seed)
			assert.GreaterOrEqual(t, info.Amount.Sign(), 0)
		}

		tc.must(owner, func(c *Chef) error { return c.MassUpdatePools() })
		end := tc.rt.BlockNumber()

		var cfg *Config
		require.NoError(t, tc.rt.View(func(env *xenv.Environment) (err error) {
			cfg, err = New(chefAddr, env).Config()
			return
		}))
		emission := cfg.Multiplier(startBlock, end)
		emission.Mul(emission, cfg.RewardPerBlock)

		// every unit of emission is either unallocated, paid (liquid or locked) or held for pending rewards
		p := tc.poolInfo(pid)
		accounted := new(big.Int).Set(p.Unallocated)
		accounted.Add(accounted, tc.totalLocked())
		accounted.Add(accounted, tc.balanceOf(tokenAddr, chefAddr))
		for _, user := range users {
			gained := new(big.Int).Sub(tc.balanceOf(tokenAddr, user), thor.Tokens(100_000))
			accounted.Add(accounted, gained)
		}
		assert.Equal(t, 0, emission.Cmp(accounted), "seed %d: emission %v accounted %v", seed, emission, accounted)

		// the ledger never owes more than it holds, and the held surplus is the accumulator
		// rounding dust, below TotalStaked / AccPrecision per pool update
		owed := new(big.Int)
		for _, user := range users {
			owed.Add(owed, tc.pendingReward(pid, user))
		}
		held := tc.balanceOf(tokenAddr, chefAddr)
		assert.LessOrEqual(t, owed.Cmp(held), 0, "seed %d: owed %v held %v", seed, owed, held)

		dust := new(big.Int).Sub(held, owed)
		bound := new(big.Int).Div(maxStaked, pool.AccPrecision)
		bound.Add(bound, big.NewInt(1))
		bound.Mul(bound, big.NewInt(int64(len(ops)+1)))
		assert.LessOrEqual(t, dust.Cmp(bound), 0, "seed %d: dust %v", seed, dust)

		assert.Equal(t, 0, p.TotalStaked.Cmp(new(big.Int).Add(staked[alice], staked[bob])))
	}
}
