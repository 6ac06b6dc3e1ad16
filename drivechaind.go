// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net"
	"os"

	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/internal/log"
	"github.com/drivechaind/drivechaind/internal/version"
	"github.com/drivechaind/drivechaind/mempool"
	"github.com/drivechaind/drivechaind/mining"
	flags "github.com/jessevdk/go-flags"
)

var (
	cfg *config
)

// drivechaindMain is the real main function for drivechaind.  It is necessary
// to work around the fact that deferred functions do not run when os.Exit()
// is called.
func drivechaindMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg

	if err := log.InitLogRotator(cfg.logFile()); err != nil {
		return err
	}
	defer func() {
		if log.LogRotator != nil {
			log.LogRotator.Close()
		}
	}()

	// Get a channel that will be closed when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the RPC server.
	interrupt := interruptListener()
	defer drvdLog.Info("Shutdown complete")

	// Show version at startup.
	drvdLog.Infof("Version %s", version.String())
	drvdLog.Infof("Network %s, drivechain activation height %d",
		cfg.params.Name, cfg.params.DrivechainActivationHeight)

	// Load the drivechain state database.
	drvdLog.Infof("Loading %s database from '%s'", cfg.DbType, cfg.DataDir)
	store, err := database.Open(cfg.DbType, cfg.DataDir)
	if err != nil {
		drvdLog.Errorf("%v", err)
		return err
	}
	defer func() {
		// Ensure the database is sync'd and closed on shutdown.
		drvdLog.Infof("Gracefully shutting down the database...")
		store.Close()
	}()

	// Return now if an interrupt signal was triggered.
	if interruptRequested(interrupt) {
		return nil
	}

	var listeners []net.Listener
	if !cfg.DisableRPC {
		listeners, err = setupRPCListeners(cfg.RPCListeners)
		if err != nil {
			drvdLog.Errorf("%v", err)
			return err
		}
	}

	// Create server and start it.
	server, err := newServer(&serverConfig{
		Params:        cfg.params,
		Store:         store,
		MaxReorgDepth: cfg.MaxReorgDepth,
		TxPolicy: mempool.Policy{
			MaxTxVersion:    defaultMaxTxVersion,
			AcceptNonStd:    cfg.AcceptNonStd,
			MinRelayTxFee:   mempool.DefaultMinRelayTxFee,
			RejectCacheSize: cfg.RejectCacheSize,
		},
		MiningPolicy: mining.Policy{
			BlockMaxWeight: cfg.BlockMaxWeight,
		},
		MiningAddr:       cfg.miningAddr,
		DisableRPC:       cfg.DisableRPC,
		RPCListeners:     listeners,
		RPCUser:          cfg.RPCUser,
		RPCPass:          cfg.RPCPass,
		RPCMaxClients:    cfg.RPCMaxClients,
		RPCMaxWebsockets: cfg.RPCMaxWebsockets,
	})
	if err != nil {
		for _, listener := range listeners {
			listener.Close()
		}
		drvdLog.Errorf("Unable to start server: %v", err)
		return err
	}
	defer func() {
		drvdLog.Infof("Gracefully shutting down the server...")
		server.Stop()
	}()
	server.Start()

	// Wait until the interrupt signal is received from an OS signal or
	// shutdown is requested through one of the subsystems such as the RPC
	// server.
	<-interrupt
	return nil
}

func main() {
	// Work around defer not working after os.Exit()
	if err := drivechaindMain(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
