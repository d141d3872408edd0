package config

import (
	"flag"
	"fmt"
)

// Load parses command-line flags over the defaults and returns the
// resulting node configuration.
func Load() (*Config, error) {
	cfg := Default()

	network := flag.String("network", string(cfg.Network), "Network: mainnet or testnet")
	flag.StringVar(&cfg.DataDir, "datadir", cfg.DataDir, "Data directory")

	flag.BoolVar(&cfg.RPC.Enabled, "rpc", cfg.RPC.Enabled, "Enable the RPC server")
	flag.StringVar(&cfg.RPC.Addr, "rpcaddr", cfg.RPC.Addr, "RPC listen address")
	flag.IntVar(&cfg.RPC.Port, "rpcport", cfg.RPC.Port, "RPC listen port")

	flag.BoolVar(&cfg.Names.History, "namehistory", cfg.Names.History, "Track full name history")
	flag.IntVar(&cfg.Names.CheckNameDB, "checknamedb", cfg.Names.CheckNameDB,
		"Name DB check cadence: -1 off, 0 every block, N every N-th block")

	flag.StringVar(&cfg.Log.Level, "loglevel", cfg.Log.Level, "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.Log.File, "logfile", cfg.Log.File, "Log file (empty = console only)")
	flag.BoolVar(&cfg.Log.JSON, "logjson", cfg.Log.JSON, "Log JSON to the console")

	flag.Parse()

	switch NetworkType(*network) {
	case Mainnet, Testnet:
		cfg.Network = NetworkType(*network)
	default:
		return nil, fmt.Errorf("unknown network %q", *network)
	}
	if cfg.Names.CheckNameDB < -1 {
		return nil, fmt.Errorf("checknamedb must be >= -1, got %d", cfg.Names.CheckNameDB)
	}

	return cfg, nil
}
