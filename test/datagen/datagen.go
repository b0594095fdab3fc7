// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	"github.com/marsfarm/farm/thor"
)

func RandAddress() (addr thor.Address) {
	rand.Read(addr[:])
	return
}

func RandBytes32() (b thor.Bytes32) {
	rand.Read(b[:])
	return
}

// RandTokens returns a random amount of whole tokens in [1, n].
func RandTokens(n int64) *big.Int {
	return thor.Tokens(mathrand.Int64N(n) + 1) //#nosec G404
}
