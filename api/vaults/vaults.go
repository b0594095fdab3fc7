// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vaults

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/marsfarm/farm/api/utils"
	"github.com/marsfarm/farm/builtin/vault"
	"github.com/marsfarm/farm/runtime"
	"github.com/marsfarm/farm/thor"
	"github.com/marsfarm/farm/xenv"
)

type Entry struct {
	Amount     *math.HexOrDecimal256 `json:"amount"`
	Released   *math.HexOrDecimal256 `json:"released"`
	Releasable *math.HexOrDecimal256 `json:"releasable"`
	Start      uint32                `json:"start"`
	Cliff      uint32                `json:"cliff"`
	Duration   uint32                `json:"duration"`
}

type Account struct {
	Beneficiary thor.Address          `json:"beneficiary"`
	BlockNumber uint32                `json:"blockNumber"`
	Releasable  *math.HexOrDecimal256 `json:"releasable"`
	TotalLocked *math.HexOrDecimal256 `json:"totalLocked"`
	Entries     []*Entry              `json:"entries"`
}

type Vaults struct {
	rt    *runtime.Runtime
	vault thor.Address
}

func New(rt *runtime.Runtime, vault thor.Address) *Vaults {
	return &Vaults{rt, vault}
}

func (v *Vaults) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	beneficiary, err := utils.AddressVar(req, "beneficiary")
	if err != nil {
		return err
	}
	res := &Account{Beneficiary: beneficiary, Entries: []*Entry{}}
	err = v.rt.View(func(env *xenv.Environment) error {
		vlt := vault.New(v.vault, env)
		entries, err := vlt.Entries(beneficiary)
		if err != nil {
			return err
		}
		block := env.BlockContext().Number
		for _, e := range entries {
			res.Entries = append(res.Entries, &Entry{
				Amount:     (*math.HexOrDecimal256)(e.Amount),
				Released:   (*math.HexOrDecimal256)(e.Released),
				Releasable: (*math.HexOrDecimal256)(e.Releasable(block)),
				Start:      e.Start,
				Cliff:      e.Cliff,
				Duration:   e.Duration,
			})
		}
		releasable, err := vlt.Releasable(beneficiary)
		if err != nil {
			return err
		}
		locked, err := vlt.TotalLocked()
		if err != nil {
			return err
		}
		res.BlockNumber = block
		res.Releasable = (*math.HexOrDecimal256)(releasable)
		res.TotalLocked = (*math.HexOrDecimal256)(locked)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, res)
}

func (v *Vaults) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{beneficiary}").
		Methods(http.MethodGet).
		Name("GET /vault/{beneficiary}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetAccount))
}
