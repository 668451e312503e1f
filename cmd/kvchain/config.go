// Copyright (c) 2026 The KVChain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	yaml "gopkg.in/yaml.v3"
)

// Config collects the node settings. The YAML file sets the base values and
// command line flags override them.
type Config struct {
	DataDir     string `yaml:"dataDir"`
	GenesisFile string `yaml:"genesisFile"`
	Persist     bool   `yaml:"persist"`

	API struct {
		Addr            string `yaml:"addr"`
		Cors            string `yaml:"cors"`
		EnableReqLogger bool   `yaml:"enableReqLogger"`
	} `yaml:"api"`

	Packer struct {
		OnDemand     bool   `yaml:"onDemand"`
		IntervalSecs uint64 `yaml:"intervalSecs"`
		MaxBlockTxs  int    `yaml:"maxBlockTxs"`
	} `yaml:"packer"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

func defaultNodeConfig() Config {
	var cfg Config
	cfg.DataDir = defaultDataDir()
	cfg.API.Addr = "localhost:8669"
	cfg.Packer.IntervalSecs = 1
	cfg.Metrics.Addr = "localhost:2112"
	return cfg
}

// loadConfig builds the effective config from defaults, an optional YAML file
// and flag overrides, in that order.
func loadConfig(ctx *cli.Context) (Config, error) {
	cfg := defaultNodeConfig()

	if path := ctx.String(configFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrap(err, "parse config file")
		}
	}

	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(genesisFlag.Name) {
		cfg.GenesisFile = ctx.String(genesisFlag.Name)
	}
	if ctx.Bool(persistFlag.Name) {
		cfg.Persist = true
	}
	if ctx.IsSet(apiAddrFlag.Name) {
		cfg.API.Addr = ctx.String(apiAddrFlag.Name)
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.API.Cors = ctx.String(apiCorsFlag.Name)
	}
	if ctx.Bool(enableAPILogsFlag.Name) {
		cfg.API.EnableReqLogger = true
	}
	if ctx.Bool(onDemandFlag.Name) {
		cfg.Packer.OnDemand = true
	}
	if ctx.IsSet(blockIntervalFlag.Name) {
		cfg.Packer.IntervalSecs = ctx.Uint64(blockIntervalFlag.Name)
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		cfg.Metrics.Enabled = true
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.Metrics.Addr = ctx.String(metricsAddrFlag.Name)
	}

	if cfg.Packer.IntervalSecs == 0 {
		return Config{}, errors.New("block interval must be positive")
	}
	return cfg, nil
}

func (c *Config) blockInterval() time.Duration {
	return time.Duration(c.Packer.IntervalSecs) * time.Second
}
