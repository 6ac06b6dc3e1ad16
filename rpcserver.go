// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/blockchain"
	"github.com/drivechaind/drivechaind/dcjson"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/drivechaind/drivechaind/internal/version"
	"github.com/drivechaind/drivechaind/mempool"
	"github.com/drivechaind/drivechaind/mining"
	"github.com/drivechaind/drivechaind/netparams"
	"github.com/gorilla/websocket"
)

const (
	// rpcAuthTimeoutSeconds is the number of seconds a connection to the
	// RPC server is allowed to stay open without authenticating before it
	// is closed.
	rpcAuthTimeoutSeconds = 10

	// maxRequestSize is the largest request body accepted.  It fits a
	// block of the maximum weight encoded as hex.
	maxRequestSize = 2*wire.MaxBlockPayload + 1024
)

type commandHandler func(*rpcServer, interface{}, <-chan struct{}) (interface{}, error)

// rpcHandlers maps RPC command strings to appropriate handler functions.
var rpcHandlers = map[string]commandHandler{
	"generatewithvotes":  handleGenerateWithVotes,
	"getbestblockhash":   handleGetBestBlockHash,
	"getblockcount":      handleGetBlockCount,
	"getbundlehash":      handleGetBundleHash,
	"getdrivechaininfo":  handleGetDrivechainInfo,
	"getrawmempool":      handleGetRawMempool,
	"sendrawtransaction": handleSendRawTransaction,
	"stop":               handleStop,
	"submitblock":        handleSubmitBlock,
	"uptime":             handleUptime,
	"version":            handleVersion,
}

// internalRPCError is a convenience function to convert an internal error to
// an RPC error with the appropriate code set.  It also logs the error to the
// RPC server subsystem since internal errors really should not occur.  The
// context parameter is only used in the log message and may be empty if it's
// not needed.
func internalRPCError(errStr, context string) *btcjson.RPCError {
	logStr := errStr
	if context != "" {
		logStr = context + ": " + errStr
	}
	rpcsLog.Error(logStr)
	return btcjson.NewRPCError(btcjson.ErrRPCInternal.Code, errStr)
}

// rpcDecodeHexError is a convenience function for returning a nicely formatted
// RPC error which indicates the provided hex string failed to decode.
func rpcDecodeHexError(gotHex string) *btcjson.RPCError {
	return btcjson.NewRPCError(btcjson.ErrRPCDecodeHexString,
		fmt.Sprintf("Argument must be hexadecimal string (not %q)",
			gotHex))
}

// decodeHexStr decodes the hex encoding of a string, possibly prepending a
// leading '0' character if there is an odd number of bytes in the hex string.
func decodeHexStr(hexStr string) ([]byte, error) {
	if len(hexStr)%2 != 0 {
		hexStr = "0" + hexStr
	}
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, rpcDecodeHexError(hexStr)
	}
	return decoded, nil
}

// drivechainInfo converts a registry snapshot, as of the block hash at
// height, into its JSON-RPC form.
func drivechainInfo(snap *drivechain.Snapshot, hash *chainhash.Hash, height int32) dcjson.GetDrivechainInfoResult {
	result := dcjson.GetDrivechainInfoResult{
		BestBlockHash: hash.String(),
		Height:        height,
		Sidechains:    make([]dcjson.SidechainResult, 0, len(snap.Sidechains)),
	}
	for _, sc := range snap.Sidechains {
		scResult := dcjson.SidechainResult{
			ID:            sc.ID,
			IsActive:      sc.IsActive,
			EscrowBalance: sc.EscrowBalance,
			CreatedHeight: sc.CreatedHeight,
			Bundles:       make([]dcjson.BundleResult, 0, len(sc.Bundles)),
		}
		for _, b := range sc.Bundles {
			scResult.Bundles = append(scResult.Bundles, dcjson.BundleResult{
				Hash:          b.Hash.String(),
				YesVotes:      b.YesVotes,
				Approved:      b.Approved,
				Executed:      b.Executed,
				CreatedHeight: b.CreatedHeight,
			})
		}
		result.Sidechains = append(result.Sidechains, scResult)
	}
	return result
}

// fatalChainError reports an inconsistency of the chain state and requests
// the shutdown of the daemon since no further block can be trusted.
func (s *rpcServer) fatalChainError(err error) *btcjson.RPCError {
	rpcsLog.Criticalf("Chain state inconsistency: %v", err)
	if s.cfg.RequestShutdown != nil {
		s.cfg.RequestShutdown()
	}
	return internalRPCError(err.Error(), "Chain state inconsistency")
}

// handleGenerateWithVotes handles generatewithvotes commands.
func handleGenerateWithVotes(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*dcjson.GenerateWithVotesCmd)

	// Generating blocks is only possible on networks where the minimum
	// difficulty is met by the CPU in no time.
	if !s.cfg.ChainParams.GenerateSupported {
		return nil, &btcjson.RPCError{
			Code: btcjson.ErrRPCDifficulty,
			Message: fmt.Sprintf("No support for `generatewithvotes` on "+
				"the current network, %s, as it's unlikely to "+
				"be possible to mine a block with the CPU.",
				s.cfg.ChainParams.Net),
		}
	}

	if c.NumBlocks == 0 {
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCInvalidParameter,
			Message: "Please request a nonzero number of blocks to generate.",
		}
	}

	var votes []mining.Vote
	if c.Votes != nil {
		votes = make([]mining.Vote, 0, len(*c.Votes))
		for _, v := range *c.Votes {
			hash, err := chainhash.NewHashFromStr(v.Hash)
			if err != nil {
				return nil, rpcDecodeHexError(v.Hash)
			}
			votes = append(votes, mining.Vote{Sidechain: v.Sidechain,
				Hash: *hash})
		}
	}

	blockHashes, err := s.cfg.Generator.GenerateNBlocks(c.NumBlocks,
		s.cfg.MiningAddr, votes, closeChan)
	if err != nil {
		if blockchain.IsAssertError(err) {
			return nil, s.fatalChainError(err)
		}
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCInternal.Code,
			Message: err.Error(),
		}
	}

	reply := make([]string, len(blockHashes))
	for i, hash := range blockHashes {
		reply[i] = hash.String()
	}
	return reply, nil
}

// handleGetBestBlockHash implements the getbestblockhash command.
func handleGetBestBlockHash(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	best := s.cfg.Chain.BestSnapshot()
	return best.Hash.String(), nil
}

// handleGetBlockCount implements the getblockcount command.
func handleGetBlockCount(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	best := s.cfg.Chain.BestSnapshot()
	return int64(best.Height), nil
}

// handleGetBundleHash implements the getbundlehash command.
func handleGetBundleHash(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*dcjson.GetBundleHashCmd)

	if len(c.Withdrawals) == 0 {
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCInvalidParameter,
			Message: "At least one withdrawal is required",
		}
	}

	params := s.cfg.ChainParams.Params
	withdrawals := make([]*wire.TxOut, 0, len(c.Withdrawals))
	for _, w := range c.Withdrawals {
		addr, err := btcutil.DecodeAddress(w.Address, params)
		if err != nil {
			return nil, &btcjson.RPCError{
				Code:    btcjson.ErrRPCInvalidAddressOrKey,
				Message: "Invalid address or key: " + err.Error(),
			}
		}
		if !addr.IsForNet(params) {
			return nil, &btcjson.RPCError{
				Code: btcjson.ErrRPCInvalidAddressOrKey,
				Message: "Invalid address: " + w.Address +
					" is for the wrong network",
			}
		}

		amount, err := btcutil.NewAmount(w.Amount)
		if err != nil || amount <= 0 || amount > btcutil.MaxSatoshi {
			return nil, &btcjson.RPCError{
				Code:    btcjson.ErrRPCType,
				Message: fmt.Sprintf("Invalid amount %v", w.Amount),
			}
		}

		pkScript, err := txscript.PayToAddrScript(addr)
		if err != nil {
			context := "Failed to generate pay-to-address script"
			return nil, internalRPCError(err.Error(), context)
		}
		withdrawals = append(withdrawals, wire.NewTxOut(int64(amount), pkScript))
	}

	hash := drivechain.CalcBundleHash(withdrawals)
	return hash.String(), nil
}

// handleGetDrivechainInfo implements the getdrivechaininfo command.
func handleGetDrivechainInfo(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	state, best := s.cfg.Chain.TipState()
	return drivechainInfo(state.Snapshot(), &best.Hash, best.Height), nil
}

// handleGetRawMempool implements the getrawmempool command.
func handleGetRawMempool(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*btcjson.GetRawMempoolCmd)
	descs := s.cfg.TxMemPool.TxDescs()

	if c.Verbose == nil || !*c.Verbose {
		hashStrings := make([]string, len(descs))
		for i, desc := range descs {
			hashStrings[i] = desc.Tx.Hash().String()
		}
		return hashStrings, nil
	}

	result := make(map[string]*btcjson.GetRawMempoolVerboseResult, len(descs))
	for _, desc := range descs {
		tx := desc.Tx
		result[tx.Hash().String()] = &btcjson.GetRawMempoolVerboseResult{
			Size:    int32(tx.MsgTx().SerializeSize()),
			Time:    desc.Added.Unix(),
			Height:  int64(desc.Height),
			Depends: []string{},
		}
	}
	return result, nil
}

// handleSendRawTransaction implements the sendrawtransaction command.
func handleSendRawTransaction(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*btcjson.SendRawTransactionCmd)

	// Deserialize and send off to tx relay
	serializedTx, err := decodeHexStr(c.HexTx)
	if err != nil {
		return nil, err
	}
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(serializedTx)); err != nil {
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCDeserialization,
			Message: "TX decode failed: " + err.Error(),
		}
	}

	tx := btcutil.NewTx(&msgTx)
	if _, err := s.cfg.TxMemPool.ProcessTransaction(tx); err != nil {
		// When the error is a rule error, it means the transaction was
		// simply rejected as opposed to something actually going wrong,
		// so log it as such.  Otherwise, something really did go wrong,
		// so log it as an actual error.
		var txErr mempool.TxRuleError
		if !errors.As(err, &txErr) {
			return nil, internalRPCError(err.Error(),
				"Failed to process transaction "+tx.Hash().String())
		}
		rpcsLog.Debugf("Rejected transaction %v: %v", tx.Hash(), err)
		_, reason := mempool.ErrToRejectErr(err)
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCVerifyRejected,
			Message: reason,
		}
	}

	return tx.Hash().String(), nil
}

// handleStop implements the stop command.
func handleStop(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	if s.cfg.RequestShutdown != nil {
		s.cfg.RequestShutdown()
	}
	return "drivechaind stopping.", nil
}

// handleSubmitBlock implements the submitblock command.  It returns null when
// the block was accepted and the rejection reason otherwise.
func handleSubmitBlock(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*btcjson.SubmitBlockCmd)

	// Deserialize the submitted block.
	serializedBlock, err := decodeHexStr(c.HexBlock)
	if err != nil {
		return nil, err
	}
	block, err := btcutil.NewBlockFromBytes(serializedBlock)
	if err != nil {
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCDeserialization,
			Message: "Block decode failed: " + err.Error(),
		}
	}

	_, err = s.cfg.Chain.ProcessBlock(block)
	if err != nil {
		if blockchain.IsAssertError(err) {
			return nil, s.fatalChainError(err)
		}
		reason := blockchain.RejectReason(err)
		if reason == "" {
			return nil, internalRPCError(err.Error(),
				"Failed to process block "+block.Hash().String())
		}
		rpcsLog.Infof("Rejected block %v via submitblock: %v", block.Hash(),
			err)
		return reason, nil
	}

	rpcsLog.Infof("Accepted block %s via submitblock", block.Hash())
	return nil, nil
}

// handleUptime implements the uptime command.
func handleUptime(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	return time.Now().Unix() - s.cfg.StartupTime, nil
}

// handleVersion implements the version command.
func handleVersion(s *rpcServer, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	result := map[string]btcjson.VersionResult{
		"drivechaindjsonrpcapi": {
			VersionString: version.String(),
			Major:         uint32(version.Major),
			Minor:         uint32(version.Minor),
			Patch:         uint32(version.Patch),
			Prerelease:    version.PreRelease,
			BuildMetadata: version.BuildMetadata,
		},
	}
	return result, nil
}

// rpcserverConfig is a descriptor containing the RPC server configuration.
type rpcserverConfig struct {
	// Listeners defines a slice of listeners for which the RPC server will
	// take ownership of and accept connections.
	Listeners []net.Listener

	// StartupTime is the unix timestamp for when the server that is hosting
	// the RPC server started.
	StartupTime int64

	// ChainParams are the parameters of the network the server is on.
	ChainParams *netparams.Params

	// Chain is the chain whose registry is queried and to which submitted
	// blocks are passed.
	Chain *blockchain.BlockChain

	// TxMemPool defines the transaction memory pool to interact with.
	TxMemPool *mempool.TxPool

	// Generator defines the block template generator used by
	// generatewithvotes.
	Generator *mining.BlkTmplGenerator

	// MiningAddr is the address generated blocks pay their subsidy to.  A
	// nil address pays to an anyone can spend script.
	MiningAddr btcutil.Address

	// RPCUser and RPCPass are the credentials of the basic access
	// authentication.
	RPCUser string
	RPCPass string

	// RPCMaxClients is the maximum number of concurrent HTTP clients
	// and RPCMaxWebsockets the maximum number of websocket clients.
	RPCMaxClients    int
	RPCMaxWebsockets int

	// RequestShutdown is invoked by the stop command and on fatal chain
	// errors.
	RequestShutdown func()
}

// rpcServer provides a concurrent safe RPC server to a chain server.
type rpcServer struct {
	started    int32
	shutdown   int32
	cfg        rpcserverConfig
	authsha    [sha256.Size]byte
	ntfnMgr    *wsNotificationManager
	numClients int32
	wg         sync.WaitGroup
	quit       chan int
}

// httpStatusLine returns a response Status-Line (RFC 2616 Section 6.1) for
// the given request and response status code.
func httpStatusLine(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

// Start is used by server.go to start the rpc listener.
func (s *rpcServer) Start() {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return
	}

	rpcsLog.Trace("Starting RPC server")
	httpServer := &http.Server{
		Handler: s.handler(),

		// Timeout connections which don't complete the initial
		// handshake within the allowed timeframe.
		ReadTimeout: time.Second * rpcAuthTimeoutSeconds,
	}
	for _, listener := range s.cfg.Listeners {
		s.wg.Add(1)
		go func(listener net.Listener) {
			rpcsLog.Infof("RPC server listening on %s", listener.Addr())
			httpServer.Serve(listener)
			rpcsLog.Tracef("RPC listener done for %s", listener.Addr())
			s.wg.Done()
		}(listener)
	}

	s.ntfnMgr.Start()
}

// handler returns the HTTP handler serving JSON-RPC requests on / and
// websocket clients on /ws.
func (s *rpcServer) handler() http.Handler {
	rpcServeMux := http.NewServeMux()
	rpcServeMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		w.Header().Set("Content-Type", "application/json")
		r.Close = true

		// Limit the number of connections to max allowed.
		if s.limitConnections(w, r.RemoteAddr) {
			return
		}

		// Keep track of the number of connected clients.
		s.incrementClients()
		defer s.decrementClients()
		if _, err := s.checkAuth(r, true); err != nil {
			jsonAuthFail(w)
			return
		}

		// Read and respond to the request.
		s.jsonRPCRead(w, r)
	})

	// Websocket endpoint.
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	rpcServeMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		authenticated, err := s.checkAuth(r, false)
		if err != nil {
			jsonAuthFail(w)
			return
		}

		// Attempt to upgrade the connection to a websocket connection.
		// The upgrader replies to the client on failure.
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			var hsErr websocket.HandshakeError
			if !errors.As(err, &hsErr) {
				rpcsLog.Errorf("Unexpected websocket error: %v", err)
			}
			return
		}
		s.WebsocketHandler(ws, r.RemoteAddr, authenticated)
	})
	return rpcServeMux
}

// Stop is used by server.go to stop the rpc listener.
func (s *rpcServer) Stop() error {
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		rpcsLog.Infof("RPC server is already in the process of shutting down")
		return nil
	}
	rpcsLog.Warnf("RPC server shutting down")
	for _, listener := range s.cfg.Listeners {
		err := listener.Close()
		if err != nil {
			rpcsLog.Errorf("Problem shutting down rpc: %v", err)
			return err
		}
	}
	s.ntfnMgr.Shutdown()
	s.ntfnMgr.WaitForShutdown()
	close(s.quit)
	s.wg.Wait()
	rpcsLog.Infof("RPC server shutdown complete")
	return nil
}

// limitConnections responds with a 503 service unavailable and returns true if
// adding another client would exceed the maximum allow RPC clients.
//
// This function is safe for concurrent access.
func (s *rpcServer) limitConnections(w http.ResponseWriter, remoteAddr string) bool {
	if int(atomic.LoadInt32(&s.numClients)+1) > s.cfg.RPCMaxClients {
		rpcsLog.Infof("Max RPC clients exceeded [%d] - "+
			"disconnecting client %s", s.cfg.RPCMaxClients,
			remoteAddr)
		http.Error(w, "503 Too busy.  Try again later.",
			http.StatusServiceUnavailable)
		return true
	}
	return false
}

// incrementClients adds one to the number of connected RPC clients.  Note
// this only applies to standard clients.  Websocket clients have their own
// limits and are tracked separately.
//
// This function is safe for concurrent access.
func (s *rpcServer) incrementClients() {
	atomic.AddInt32(&s.numClients, 1)
}

// decrementClients subtracts one from the number of connected RPC clients.
// Note this only applies to standard clients.  Websocket clients have their own
// limits and are tracked separately.
//
// This function is safe for concurrent access.
func (s *rpcServer) decrementClients() {
	atomic.AddInt32(&s.numClients, -1)
}

// checkAuth checks the HTTP Basic authentication supplied by a wallet
// or RPC client in the HTTP request r.  If the supplied authentication
// does not match the username and password expected, a non-nil error is
// returned.
//
// This check is time-constant.
//
// The first bool return value signifies auth success (true if successful).
func (s *rpcServer) checkAuth(r *http.Request, require bool) (bool, error) {
	authhdr := r.Header["Authorization"]
	if len(authhdr) <= 0 {
		if require {
			rpcsLog.Warnf("RPC authentication failure from %s",
				r.RemoteAddr)
			return false, errors.New("auth failure")
		}

		return false, nil
	}

	authsha := sha256.Sum256([]byte(authhdr[0]))
	cmp := subtle.ConstantTimeCompare(authsha[:], s.authsha[:])
	if cmp == 1 {
		return true, nil
	}

	// Request's auth doesn't match user.
	rpcsLog.Warnf("RPC authentication failure from %s", r.RemoteAddr)
	return false, errors.New("auth failure")
}

// parsedRPCCmd represents a JSON-RPC request object that has been parsed into
// a known concrete command along with any error that might have happened while
// parsing it.
type parsedRPCCmd struct {
	jsonrpc btcjson.RPCVersion
	id      interface{}
	method  string
	cmd     interface{}
	err     *btcjson.RPCError
}

// standardCmdResult checks that a parsed command is a standard chain server
// command and runs the appropriate handler to reply to the command.
func (s *rpcServer) standardCmdResult(cmd *parsedRPCCmd, closeChan <-chan struct{}) (interface{}, error) {
	handler, ok := rpcHandlers[cmd.method]
	if !ok {
		return nil, btcjson.ErrRPCMethodNotFound
	}
	return handler(s, cmd.cmd, closeChan)
}

// parseCmd parses a JSON-RPC request object into known concrete command.  The
// err field of the returned parsedRPCCmd struct will contain an RPC error that
// is suitable for use in replies if the command is invalid in some way such as
// an unregistered command or invalid parameters.
func parseCmd(request *btcjson.Request) *parsedRPCCmd {
	parsedCmd := parsedRPCCmd{
		jsonrpc: request.Jsonrpc,
		id:      request.ID,
		method:  request.Method,
	}

	cmd, err := btcjson.UnmarshalCmd(request)
	if err != nil {
		// When the error is because the method is not registered,
		// produce a method not found RPC error.
		var jerr btcjson.Error
		if errors.As(err, &jerr) &&
			jerr.ErrorCode == btcjson.ErrUnregisteredMethod {

			parsedCmd.err = btcjson.ErrRPCMethodNotFound
			return &parsedCmd
		}

		// Otherwise, some type of invalid parameters is the
		// cause, so produce the equivalent RPC error.
		parsedCmd.err = btcjson.NewRPCError(
			btcjson.ErrRPCInvalidParams.Code, err.Error())
		return &parsedCmd
	}

	parsedCmd.cmd = cmd
	return &parsedCmd
}

// replyVersion returns the JSON-RPC version a reply to a request of version
// v uses.  Requests without a valid version are answered as 1.0.
func replyVersion(v btcjson.RPCVersion) btcjson.RPCVersion {
	if v.IsValid() {
		return v
	}
	return btcjson.RpcVersion1
}

// createMarshalledReply returns a new marshalled JSON-RPC response given the
// passed parameters.  It will automatically convert errors that are not of
// the type *btcjson.RPCError to the appropriate type as needed.
func createMarshalledReply(rpcVersion btcjson.RPCVersion, id interface{}, result interface{}, replyErr error) ([]byte, error) {
	var jsonErr *btcjson.RPCError
	if replyErr != nil {
		var rpcErr *btcjson.RPCError
		if errors.As(replyErr, &rpcErr) {
			jsonErr = rpcErr
		} else {
			jsonErr = internalRPCError(replyErr.Error(), "")
		}
	}

	return btcjson.MarshalResponse(replyVersion(rpcVersion), id, result, jsonErr)
}

// processRequest determines the incoming request type and processes it
// accordingly.
func (s *rpcServer) processRequest(request *btcjson.Request, closeChan <-chan struct{}) (interface{}, error) {
	if !request.Jsonrpc.IsValid() && request.Jsonrpc != "" {
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCInvalidRequest.Code,
			Message: "Invalid request: unsupported jsonrpc version",
		}
	}
	if request.Method == "" {
		return nil, &btcjson.RPCError{
			Code:    btcjson.ErrRPCInvalidRequest.Code,
			Message: "Invalid request: malformed",
		}
	}

	parsedCmd := parseCmd(request)
	if parsedCmd.err != nil {
		return nil, parsedCmd.err
	}
	return s.standardCmdResult(parsedCmd, closeChan)
}

// jsonRPCRead handles reading and responding to RPC messages.
func (s *rpcServer) jsonRPCRead(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&s.shutdown) != 0 {
		return
	}

	// Read and close the JSON-RPC request body from the caller.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	r.Body.Close()
	if err != nil {
		errCode := http.StatusBadRequest
		http.Error(w, fmt.Sprintf("%d error reading JSON message: %v",
			errCode, err), errCode)
		return
	}

	var request btcjson.Request
	var result interface{}
	var replyErr error
	if err := json.Unmarshal(body, &request); err != nil {
		replyErr = &btcjson.RPCError{
			Code:    btcjson.ErrRPCParse.Code,
			Message: "Failed to parse request: " + err.Error(),
		}
	} else {
		// Requests with no ID (notifications) must not have a
		// response.
		if request.ID == nil {
			return
		}
		result, replyErr = s.processRequest(&request, r.Context().Done())
	}

	msg, err := createMarshalledReply(request.Jsonrpc, request.ID, result,
		replyErr)
	if err != nil {
		rpcsLog.Errorf("Failed to marshal reply: %v", err)
		http.Error(w, httpStatusLine(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(msg); err != nil {
		rpcsLog.Errorf("Failed to write marshalled reply: %v", err)
	}
}

// jsonAuthFail sends a message back to the client if the http auth is rejected.
func jsonAuthFail(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Basic realm="drivechaind RPC"`)
	http.Error(w, "401 Unauthorized.", http.StatusUnauthorized)
}

// newRPCServer returns a new instance of the rpcServer struct.
func newRPCServer(config *rpcserverConfig) (*rpcServer, error) {
	if config.RPCUser == "" || config.RPCPass == "" {
		return nil, errors.New("rpc: user and password are required")
	}
	rpc := rpcServer{
		cfg:  *config,
		quit: make(chan int),
	}
	login := config.RPCUser + ":" + config.RPCPass
	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(login))
	rpc.authsha = sha256.Sum256([]byte(auth))
	rpc.ntfnMgr = newWsNotificationManager(&rpc)
	return &rpc, nil
}
