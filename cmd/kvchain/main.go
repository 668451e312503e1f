// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/kvchain/kvchain/api"
	"github.com/kvchain/kvchain/chaindb"
	"github.com/kvchain/kvchain/cmd/kvchain/httpserver"
	"github.com/kvchain/kvchain/co"
	"github.com/kvchain/kvchain/executor"
	"github.com/kvchain/kvchain/log"
	"github.com/kvchain/kvchain/metrics"
	"github.com/kvchain/kvchain/solo"
	"github.com/kvchain/kvchain/state"
	"github.com/kvchain/kvchain/txpool"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "KVChain",
		Usage:     "Node of the KVChain execution layer",
		Copyright: "2026 KVChain developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			genesisFlag,
			persistFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			onDemandFlag,
			blockIntervalFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	initLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		fatal(err)
	}

	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
		metricsURL, stopMetrics, err := httpserver.StartMetricsServer(cfg.Metrics.Addr)
		if err != nil {
			fatal("start metrics server:", err)
		}
		log.Info("metrics server started", "url", metricsURL)
		defer func() { log.Info("stopping metrics server..."); stopMetrics() }()
	}

	alloc, err := selectGenesis(&cfg)
	if err != nil {
		fatal("load genesis:", err)
	}
	stater := state.New(alloc)

	mainDB, err := openMainDB(&cfg)
	if err != nil {
		fatal(err)
	}
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	db := chaindb.New(mainDB)
	pool := txpool.New()

	// pick up where a persisted chain left off
	chain, err := loadChain(db)
	if err != nil {
		fatal("load chain:", err)
	}
	startNum := uint64(len(chain)) + 1

	orderer := solo.New(pool, solo.Options{
		BlockInterval: cfg.blockInterval(),
		OnDemand:      cfg.Packer.OnDemand,
		MaxBlockTxs:   cfg.Packer.MaxBlockTxs,
		NextBlockNum:  startNum,
	})
	exec := executor.New(orderer, db, stater, pool, startNum)

	if len(chain) > 0 {
		log.Info("replaying persisted chain...", "blocks", len(chain))
		if err := exec.Replay(chain); err != nil {
			fatal("replay chain:", err)
		}
	}

	apiHandler := api.New(db, stater, pool, api.Options{
		AllowedOrigins:  cfg.API.Cors,
		EnableReqLogger: cfg.API.EnableReqLogger,
	})
	apiURL, stopAPI, err := httpserver.StartAPIServer(cfg.API.Addr, apiHandler)
	if err != nil {
		fatal("start API server:", err)
	}
	defer func() { log.Info("stopping API server..."); stopAPI() }()

	printStartupMessage(&cfg, startNum, apiURL)

	runCtx, cancel := context.WithCancel(handleExitSignal())
	defer cancel()

	var goes co.Goes
	goes.Go(func() {
		orderer.Run(runCtx)
	})
	err = exec.Run(runCtx)
	cancel()
	goes.Wait()
	return err
}

func printStartupMessage(cfg *Config, startNum uint64, apiURL string) {
	dataDir := "Memory"
	if cfg.Persist {
		dataDir = cfg.DataDir
	}
	fmt.Printf(`Starting %v
    Version     %v
    Data dir    %v
    Next block  %v
    API portal  %v
`,
		"KVChain",
		fullVersion(),
		dataDir,
		startNum,
		apiURL)
}
