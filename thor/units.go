// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import "math/big"

// Ether is the number of base units in one whole token.
var Ether = big.NewInt(1e18)

// Tokens returns n whole tokens expressed in base units.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), Ether)
}

// WholeTokens returns amount in whole tokens, rounded down.
func WholeTokens(amount *big.Int) int64 {
	return new(big.Int).Quo(amount, Ether).Int64()
}

// BlockInterval is the number of seconds between two blocks.
const BlockInterval uint64 = 10
