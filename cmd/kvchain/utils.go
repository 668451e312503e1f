// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/kvchain/kvchain/block"
	"github.com/kvchain/kvchain/chaindb"
	"github.com/kvchain/kvchain/genesis"
	"github.com/kvchain/kvchain/log"
	"github.com/kvchain/kvchain/lvldb"
)

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) {
	level := log.LevelFromVerbosity(int(ctx.Uint64(verbosityFlag.Name)))

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
		terminal := log.NewTerminalHandler(os.Stderr, useColor)
		terminal.SetLevel(level)
		handler = terminal
	}
	log.SetDefault(log.NewLogger(handler))
}

func defaultDataDir() string {
	// try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.kvchain")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.kvchain")
		default:
			return filepath.Join(home, ".org.kvchain")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func openMainDB(cfg *Config) (*lvldb.LevelDB, error) {
	if !cfg.Persist {
		return lvldb.NewMem()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	path := filepath.Join(cfg.DataDir, "main.db")
	db, err := lvldb.New(path, lvldb.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", path)
	}
	return db, nil
}

func selectGenesis(cfg *Config) (genesis.Alloc, error) {
	if cfg.GenesisFile == "" {
		return genesis.Default(), nil
	}
	return genesis.LoadFile(cfg.GenesisFile)
}

// loadChain reads back the persisted chain for replay, in block order.
func loadChain(db *chaindb.ChainDB) ([]*block.Block, error) {
	best, ok, err := db.BestBlockNumber()
	if err != nil || !ok {
		return nil, err
	}
	blocks := make([]*block.Block, 0, best)
	for num := uint64(1); num <= best; num++ {
		blk, err := db.GetBlock(num)
		if err != nil {
			return nil, err
		}
		if blk == nil {
			return nil, errors.Errorf("missing block %d below best %d", num, best)
		}
		blocks = append(blocks, blk)
	}
	return blocks, nil
}

// handleExitSignal returns a context canceled on interrupt or termination.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
