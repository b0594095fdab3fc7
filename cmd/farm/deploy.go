// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/marsfarm/farm/deploy"
	"github.com/marsfarm/farm/runtime"
)

func deployAction(ctx *cli.Context) error {
	initLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); db.Close() }()

	rt, err := runtime.New(db)
	if err != nil {
		return err
	}
	d, err := deploy.Deploy(rt, cfg)
	if err != nil {
		return err
	}
	root, err := rt.Commit()
	if err != nil {
		return err
	}
	printDeployment(os.Stdout, d)
	logger.Info("state committed", "root", root, "dir", ctx.String(dataDirFlag.Name))
	return nil
}

func printDeployment(w io.Writer, d *deploy.Deployment) {
	fmt.Fprintf(w, `Deployer:  %v
Token:     %v
Vault:     %v
MasterChef %v
`, d.Deployer, d.Token, d.Vault, d.Chef)
	for symbol, addr := range d.StakeTokens {
		fmt.Fprintf(w, "Stake token %s: %v\n", symbol, addr)
	}
	for _, pid := range d.Pools {
		fmt.Fprintf(w, "Pool %d\n", pid)
	}
}
