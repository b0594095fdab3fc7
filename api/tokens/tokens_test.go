// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marsfarm/farm/test/datagen"
	"github.com/marsfarm/farm/test/testfarm"
	"github.com/marsfarm/farm/thor"
)

func newRouter(t *testing.T) (*mux.Router, *testfarm.Farm) {
	farm, err := testfarm.NewDefault()
	require.NoError(t, err)
	t.Cleanup(func() { farm.Close() })

	router := mux.NewRouter()
	New(farm.Runtime()).Mount(router, "/tokens")
	return router, farm
}

func get(router *mux.Router, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGetToken(t *testing.T) {
	router, farm := newRouter(t)
	d := farm.Deployment()

	rec := get(router, "/tokens/"+d.Token.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.Equal(t, "MARS", tok.Symbol)
	assert.Equal(t, uint8(18), tok.Decimals)
	assert.Equal(t, thor.Tokens(1_000_000), (*big.Int)(tok.TotalSupply))
	assert.Equal(t, farm.Deployer(), tok.Owner)
	assert.Equal(t, d.Chef, tok.Minter)

	rec = get(router, "/tokens/"+datagen.RandAddress().String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(router, "/tokens/0xzz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBalance(t *testing.T) {
	router, farm := newRouter(t)
	d := farm.Deployment()
	user := datagen.RandAddress()
	lp := farm.StakeToken(1)
	require.NoError(t, farm.Fund(user, lp, thor.Tokens(42)))

	rec := get(router, "/tokens/"+lp.String()+"/balances/"+user.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var bal Balance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, thor.Tokens(42), (*big.Int)(bal.Balance))
	assert.Nil(t, bal.Allowance)

	rec = get(router, "/tokens/"+lp.String()+"/balances/"+user.String()+"?spender="+d.Chef.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bal = Balance{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, thor.Tokens(42), (*big.Int)(bal.Allowance))

	rec = get(router, "/tokens/"+lp.String()+"/balances/"+user.String()+"?spender=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(router, "/tokens/"+lp.String()+"/balances/0x01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
