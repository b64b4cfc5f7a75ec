// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// capstake replays staking scenarios into a persistent ledger and serves it over http.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/computemarket/capstake/log"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "capstake")
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
	app.Name = "capstake"
	app.Usage = "compute commitment staking ledger"
	app.Flags = []cli.Flag{
		dataDirFlag,
		paramsFlag,
		cacheFlag,
		verbosityFlag,
		jsonLogsFlag,
	}
	app.Before = func(ctx *cli.Context) error {
		return initLogger(ctx)
	}
	app.Commands = []cli.Command{
		{
			Name:      "apply",
			Usage:     "apply a scenario file to the ledger in the data dir",
			ArgsUsage: "<scenario.yaml>",
			Action:    applyAction,
			Description: "Supported ops: " + strings.Join(opNames(), ", ") + ".\n" +
				"   A step with 'expect' must revert with that kind.",
		},
		{
			Name:   "serve",
			Usage:  "serve the ledger in the data dir over http",
			Action: serveAction,
			Flags: []cli.Flag{
				apiAddrFlag,
				apiCorsFlag,
				apiEventsLimitFlag,
				apiSlowQueriesThresholdFlag,
				enableAPILogsFlag,
				pprofFlag,
				enableMetricsFlag,
				metricsAddrFlag,
				enableAdminFlag,
				adminAddrFlag,
			},
		},
		{
			Name:   "inspect",
			Usage:  "dump the ledger in the data dir",
			Action: inspectAction,
			Flags:  []cli.Flag{accountFlag},
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

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".capstake")
	}
	return ".capstake"
}

func requireArg(ctx *cli.Context, name string) (string, error) {
	if ctx.NArg() != 1 {
		return "", errors.Errorf("expected exactly one argument, %s", name)
	}
	return ctx.Args().First(), nil
}
