// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: consensus parameters, immutable, must match across all nodes
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration.
// These settings can vary between nodes without breaking consensus.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// RPC server
	RPC RPCConfig

	// Name registry
	Names NameConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds RPC server settings.
type RPCConfig struct {
	Enabled bool   `conf:"rpc.enabled"`
	Addr    string `conf:"rpc.addr"`
	Port    int    `conf:"rpc.port"`
}

// NameConfig holds name-registry node settings.
type NameConfig struct {
	// History enables recording of every past NameData for each name.
	// Off by default; name_history requires it.
	History bool `conf:"names.history"`

	// CheckNameDB controls the periodic name-db consistency check:
	// -1 disables it, 0 runs it every block, N runs it every N-th block.
	CheckNameDB int `conf:"names.checknamedb"`

	// UpdateAmount is the amount locked into outputs built by the raw-tx
	// name_update helper. Defaults to NameNewCoinAmount.
	UpdateAmount uint64 `conf:"names.updateamount"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// Default returns a Config populated with sane defaults.
func Default() *Config {
	return &Config{
		Network: Mainnet,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Enabled: true,
			Addr:    "127.0.0.1",
			Port:    18399,
		},
		Names: NameConfig{
			History:      false,
			CheckNameDB:  MainnetParams().DefaultCheckNameDB,
			UpdateAmount: NameNewCoinAmount,
		},
		Log: LogConfig{Level: "info"},
	}
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.huntnet
//	macOS:   ~/Library/Application Support/Huntnet
//	Windows: %APPDATA%\Huntnet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".huntnet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Huntnet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Huntnet")
		}
		return filepath.Join(home, "AppData", "Roaming", "Huntnet")
	default:
		return filepath.Join(home, ".huntnet")
	}
}

// ChainDataDir returns the chain-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// ChainStateDir returns the chainstate (coins + names) database directory.
func (c *Config) ChainStateDir() string {
	return filepath.Join(c.ChainDataDir(), "chainstate")
}

// GameStateDir returns the game-state database directory.
func (c *Config) GameStateDir() string {
	return filepath.Join(c.ChainDataDir(), "gamestates")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}
