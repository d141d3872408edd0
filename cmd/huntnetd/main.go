// Huntnet name-registry daemon.
//
// Opens the chain-state databases and serves the name RPC surface.
//
// Usage:
//
//	huntnetd [--datadir=... --rpcport=...] Run daemon
//	huntnetd --help                        Show help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huntnet-tech/huntnet-chain/config"
	"github.com/huntnet-tech/huntnet-chain/internal/chain"
	"github.com/huntnet-tech/huntnet-chain/internal/game"
	"github.com/huntnet-tech/huntnet-chain/internal/log"
	"github.com/huntnet-tech/huntnet-chain/internal/mempool"
	"github.com/huntnet-tech/huntnet-chain/internal/names"
	"github.com/huntnet-tech/huntnet-chain/internal/rpc"
	"github.com/huntnet-tech/huntnet-chain/internal/storage"
	"github.com/huntnet-tech/huntnet-chain/internal/utxo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.NewBadger(cfg.ChainStateDir())
	if err != nil {
		log.Fatal().Err(err).Msg("open chainstate database")
	}
	defer db.Close()

	gameDB, err := storage.NewBadger(cfg.GameStateDir())
	if err != nil {
		log.Fatal().Err(err).Msg("open gamestate database")
	}
	defer gameDB.Close()

	coins := utxo.NewStore(db)
	nameStore := names.NewStore(db, cfg.Names.History)
	view := names.NewCache(nameStore)
	players := game.NewStore(gameDB)

	var params *config.Params
	switch cfg.Network {
	case config.Testnet:
		params = config.TestParams()
	default:
		params = config.MainnetParams()
	}

	ch := chain.New(coins, view, params, cfg.Names)
	ch.SetGame(players)

	pool := mempool.New(coins, view, params, 0)
	pool.SetHeightFn(ch.Height)
	ch.SetPool(pool)

	var server *rpc.Server
	if cfg.RPC.Enabled {
		addr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		server = rpc.New(addr, ch, view, pool, cfg.Names)
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("start RPC server")
		}
	}

	log.Info().
		Str("network", string(cfg.Network)).
		Str("datadir", cfg.DataDir).
		Msg("huntnetd running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			log.Error().Err(err).Msg("stop RPC server")
		}
	}
	if err := view.Flush(); err != nil {
		log.Error().Err(err).Msg("flush name view")
	}
}
