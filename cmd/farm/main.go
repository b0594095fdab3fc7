// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/marsfarm/farm/log"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "farm")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "farm"
	app.Usage = "Staking farm with a vesting reward vault"
	app.Commands = []cli.Command{
		{
			Name:   "deploy",
			Usage:  "deploy the token, vault and chef ledgers into the data dir",
			Flags:  append([]cli.Flag{configFlag, dataDirFlag}, logFlags...),
			Action: deployAction,
		},
		{
			Name:   "scenario",
			Usage:  "replay the reference integration scenario in memory",
			Flags:  logFlags,
			Action: scenarioAction,
		},
		{
			Name:  "simulate",
			Usage: "run a random deposit/withdraw/harvest workload in memory and check reward conservation",
			Flags: append([]cli.Flag{
				configFlag,
				blocksFlag,
				seedFlag,
				usersFlag,
			}, logFlags...),
			Action: simulateAction,
		},
		{
			Name:  "serve",
			Usage: "serve the query API over a deployed data dir",
			Flags: append([]cli.Flag{
				configFlag,
				dataDirFlag,
				apiAddrFlag,
				apiCorsFlag,
				enableAPILogsFlag,
				enableMetricsFlag,
			}, logFlags...),
			Action: serveAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
