// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/drivechaind/drivechaind/blockchain"
	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/mempool"
	"github.com/drivechaind/drivechaind/mining"
	"github.com/drivechaind/drivechaind/netparams"
)

// serverConfig holds the settings a server is created with.
type serverConfig struct {
	Params        *netparams.Params
	Store         *database.Store
	MaxReorgDepth int32

	TxPolicy     mempool.Policy
	MiningPolicy mining.Policy
	MiningAddr   btcutil.Address

	// DisableRPC skips the creation of the RPC server.  Otherwise
	// RPCListeners are served, possibly none when the handler is served
	// elsewhere.
	DisableRPC       bool
	RPCListeners     []net.Listener
	RPCUser          string
	RPCPass          string
	RPCMaxClients    int
	RPCMaxWebsockets int
}

// server provides a drivechain server wiring the chain, the transaction pool
// and the block generator to the RPC server.
type server struct {
	started  int32
	shutdown int32

	chainParams *netparams.Params
	store       *database.Store
	chain       *blockchain.BlockChain
	txMemPool   *mempool.TxPool
	generator   *mining.BlkTmplGenerator
	rpcServer   *rpcServer
}

// handleBlockchainNotification handles notifications from blockchain.  It
// keeps the transaction pool in line with the main chain and forwards the
// registry changes to websocket clients.
func (s *server) handleBlockchainNotification(notification *blockchain.Notification) {
	switch notification.Type {
	case blockchain.NTBlockConnected:
		data, ok := notification.Data.(*blockchain.BlockNtfnsData)
		if !ok {
			drvdLog.Warnf("Chain connected notification is not " +
				"block data.")
			break
		}
		s.txMemPool.HandleConnectedBlock(data.Block)
		if s.rpcServer != nil {
			s.rpcServer.ntfnMgr.NotifyBlockConnected(data)
		}

	case blockchain.NTBlockDisconnected:
		data, ok := notification.Data.(*blockchain.BlockNtfnsData)
		if !ok {
			drvdLog.Warnf("Chain disconnected notification is not " +
				"block data.")
			break
		}
		s.txMemPool.HandleDisconnectedBlock(data.Block)
		if s.rpcServer != nil {
			s.rpcServer.ntfnMgr.NotifyBlockDisconnected(data)
		}

	case blockchain.NTReorganization:
		data, ok := notification.Data.(*blockchain.ReorganizationNtfnsData)
		if !ok {
			break
		}
		drvdLog.Infof("Chain reorganized from %v (height %d) to %v "+
			"(height %d)", data.OldHash, data.OldHeight, data.NewHash,
			data.NewHeight)
	}
}

// Start begins accepting RPC connections.
func (s *server) Start() {
	// Already started?
	if atomic.AddInt32(&s.started, 1) != 1 {
		return
	}

	drvdLog.Trace("Starting server")
	if s.rpcServer != nil {
		s.rpcServer.Start()
	}
}

// Stop gracefully shuts down the server by stopping and disconnecting all
// clients.  The store is owned by the caller and left open.
func (s *server) Stop() error {
	// Make sure this only happens once.
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		drvdLog.Infof("Server is already in the process of shutting down")
		return nil
	}

	drvdLog.Warnf("Server shutting down")

	// Shutdown the RPC server if it's not disabled.
	if s.rpcServer != nil {
		if err := s.rpcServer.Stop(); err != nil {
			return err
		}
	}
	return nil
}

// setupRPCListeners returns a slice of listeners that are configured for use
// with the RPC server depending on the configuration settings for listen
// addresses.
func setupRPCListeners(addrs []string) ([]net.Listener, error) {
	listeners := make([]net.Listener, 0, len(addrs))
	for _, addr := range addrs {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			drvdLog.Warnf("Can't listen on %s: %v", addr, err)
			continue
		}
		listeners = append(listeners, listener)
	}
	if len(addrs) != 0 && len(listeners) == 0 {
		return nil, errors.New("RPCS: No valid listen address")
	}

	return listeners, nil
}

// newServer returns a new drivechaind server configured to serve the chain
// state held in config.Store.
func newServer(config *serverConfig) (*server, error) {
	s := server{
		chainParams: config.Params,
		store:       config.Store,
	}

	var err error
	s.chain, err = blockchain.New(&blockchain.Config{
		Params:        config.Params,
		Store:         config.Store,
		MaxReorgDepth: config.MaxReorgDepth,
	})
	if err != nil {
		return nil, err
	}

	s.txMemPool = mempool.New(&mempool.Config{
		Policy:      config.TxPolicy,
		ChainParams: config.Params.Params,
		BestHeight: func() int32 {
			return s.chain.BestSnapshot().Height
		},
		CheckTransaction: s.chain.CheckTransaction,
	})

	miningPolicy := config.MiningPolicy
	s.generator = mining.NewBlkTmplGenerator(&miningPolicy,
		config.Params.Params, s.txMemPool, s.chain)

	if !config.DisableRPC {
		s.rpcServer, err = newRPCServer(&rpcserverConfig{
			Listeners:        config.RPCListeners,
			StartupTime:      time.Now().Unix(),
			ChainParams:      config.Params,
			Chain:            s.chain,
			TxMemPool:        s.txMemPool,
			Generator:        s.generator,
			MiningAddr:       config.MiningAddr,
			RPCUser:          config.RPCUser,
			RPCPass:          config.RPCPass,
			RPCMaxClients:    config.RPCMaxClients,
			RPCMaxWebsockets: config.RPCMaxWebsockets,
			RequestShutdown:  requestShutdown,
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create RPC server: %w", err)
		}
	}

	s.chain.Subscribe(s.handleBlockchainNotification)
	return &s, nil
}
