// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/drivechaind/drivechaind/blockchain"
	"github.com/drivechaind/drivechaind/dcjson"
	"github.com/gorilla/websocket"
)

const (
	// websocketSendBufferSize is the number of elements the send channel
	// can queue before blocking.  Note that this only applies to requests
	// handled directly in the websocket client input handler or the async
	// handler since notifications have their own queuing mechanism
	// independent of the send channel buffer.
	websocketSendBufferSize = 50
)

// timeZeroVal is simply the zero value for a time.Time and is used to avoid
// creating multiple instances.
var timeZeroVal time.Time

// ErrClientQuit describes the error where a client send is not processed due
// to the client having already been disconnected or dropped.
var ErrClientQuit = errors.New("client quit")

// wsCommandHandler describes a callback function used to handle a specific
// command.
type wsCommandHandler func(*wsClient, interface{}) (interface{}, error)

// wsHandlers maps RPC command strings to appropriate websocket handler
// functions.
var wsHandlers = map[string]wsCommandHandler{
	"notifydrivechain":     handleNotifyDrivechain,
	"stopnotifydrivechain": handleStopNotifyDrivechain,
}

// WebsocketHandler handles a new websocket client by creating a new wsClient,
// starting it, and blocking until the connection closes.  Since it blocks, it
// must be run in a separate goroutine.  It should be invoked from the websocket
// server handler which runs each new connection in a new goroutine thereby
// satisfying the requirement.
func (s *rpcServer) WebsocketHandler(conn *websocket.Conn, remoteAddr string, authenticated bool) {
	// Clear the read deadline that was set before the websocket hijacked
	// the connection.
	conn.SetReadDeadline(timeZeroVal)

	// Limit max number of websocket clients.
	rpcsLog.Infof("New websocket client %s", remoteAddr)
	if s.ntfnMgr.NumClients()+1 > s.cfg.RPCMaxWebsockets {
		rpcsLog.Infof("Max websocket clients exceeded [%d] - "+
			"disconnecting client %s", s.cfg.RPCMaxWebsockets,
			remoteAddr)
		conn.Close()
		return
	}

	// Create a new websocket client to handle the new websocket connection
	// and wait for it to shutdown.  Once it has shutdown (and hence
	// disconnected), remove it and any notifications it registered for.
	client := newWebsocketClient(s, conn, remoteAddr, authenticated)
	s.ntfnMgr.AddClient(client)
	client.Start()
	client.WaitForShutdown()
	s.ntfnMgr.RemoveClient(client)
	rpcsLog.Infof("Disconnected websocket client %s", remoteAddr)
}

// wsNotificationManager is a connection and notification manager used for
// websockets.  It allows websocket clients to register for notifications they
// are interested in.  When an event happens elsewhere in the code such as
// a block being connected, the notification manager is provided with the
// relevant details needed to figure out which websocket clients need to be
// notified as well as what notification to send to them.
type wsNotificationManager struct {
	// server is the RPC server the notification manager is associated with.
	server *rpcServer

	// queueNotification queues a notification for handling.
	queueNotification chan interface{}

	// notificationMsgs feeds notificationHandler with notifications
	// and client (un)registration requests from a queue as well as
	// registration and unregistration requests from clients.
	notificationMsgs chan interface{}

	// Access channel for current number of connected clients.
	numClients chan int

	// Shutdown handling
	wg   sync.WaitGroup
	quit chan struct{}
}

// queueHandler manages a queue of values, reading from in and
// sending the oldest unsent to out.  This handler stops when either of the
// in or quit channels are closed, and closes out before returning, without
// waiting to send any variables still remaining in the queue.
func queueHandler[T any](in <-chan T, out chan<- T, quit <-chan struct{}) {
	var q []T
	var dequeue chan<- T
	skipQueue := out
	var next, zero T
out:
	for {
		select {
		case n, ok := <-in:
			if !ok {
				// Sender closed input channel.
				break out
			}

			// Either send to out immediately if skipQueue is
			// non-nil (queue is empty) and reader is ready,
			// or append to the queue and send later.
			select {
			case skipQueue <- n:
			default:
				q = append(q, n)
				dequeue = out
				skipQueue = nil
				next = q[0]
			}

		case dequeue <- next:
			copy(q, q[1:])
			q[len(q)-1] = zero // avoid leak
			q = q[:len(q)-1]
			if len(q) == 0 {
				dequeue = nil
				skipQueue = out
			} else {
				next = q[0]
			}

		case <-quit:
			break out
		}
	}
	close(out)
}

// queueHandler maintains a queue of notifications and notification handler
// control messages.
func (m *wsNotificationManager) queueHandler() {
	queueHandler[interface{}](m.queueNotification, m.notificationMsgs, m.quit)
	m.wg.Done()
}

// NotifyBlockConnected passes a block newly-connected to the best chain
// to the notification manager for block and transaction notification
// processing.
func (m *wsNotificationManager) NotifyBlockConnected(data *blockchain.BlockNtfnsData) {
	// As NotifyBlockConnected will be called by the block manager
	// and the RPC server may no longer be running, use a select
	// statement to unblock enqueuing the notification once the RPC
	// server has begun shutting down.
	select {
	case m.queueNotification <- (*notificationBlockConnected)(data):
	case <-m.quit:
	}
}

// NotifyBlockDisconnected passes a block disconnected from the best chain
// to the notification manager for block notification processing.
func (m *wsNotificationManager) NotifyBlockDisconnected(data *blockchain.BlockNtfnsData) {
	select {
	case m.queueNotification <- (*notificationBlockDisconnected)(data):
	case <-m.quit:
	}
}

// Notification types
type notificationBlockConnected blockchain.BlockNtfnsData
type notificationBlockDisconnected blockchain.BlockNtfnsData

// Notification control requests
type notificationRegisterClient wsClient
type notificationUnregisterClient wsClient
type notificationRegisterDrivechain wsClient
type notificationUnregisterDrivechain wsClient

// notificationHandler reads notifications and control messages from the queue
// handler and processes one at a time.
func (m *wsNotificationManager) notificationHandler() {
	// clients is a map of all currently connected websocket clients.
	clients := make(map[chan struct{}]*wsClient)

	// Maps used to hold lists of websocket clients to be notified on
	// certain events.  Each websocket client also keeps maps for the events
	// which have multiple triggers to make removal from these lists on
	// connection close less horrendously expensive.
	//
	// Where possible, the quit channel is used as the unique id for a client
	// since it is quite a bit more efficient than using the entire struct.
	drivechainNotifications := make(map[chan struct{}]*wsClient)

out:
	for {
		select {
		case n, ok := <-m.notificationMsgs:
			if !ok {
				// queueHandler quit.
				break out
			}
			switch n := n.(type) {
			case *notificationBlockConnected:
				if len(drivechainNotifications) != 0 {
					m.notifyDrivechainConnected(drivechainNotifications,
						(*blockchain.BlockNtfnsData)(n))
				}

			case *notificationBlockDisconnected:
				if len(drivechainNotifications) != 0 {
					m.notifyDrivechainDisconnected(drivechainNotifications,
						(*blockchain.BlockNtfnsData)(n))
				}

			case *notificationRegisterDrivechain:
				wsc := (*wsClient)(n)
				drivechainNotifications[wsc.quit] = wsc

			case *notificationUnregisterDrivechain:
				wsc := (*wsClient)(n)
				delete(drivechainNotifications, wsc.quit)

			case *notificationRegisterClient:
				wsc := (*wsClient)(n)
				clients[wsc.quit] = wsc

			case *notificationUnregisterClient:
				wsc := (*wsClient)(n)
				// Remove any requests made by the client as well as
				// the client itself.
				delete(drivechainNotifications, wsc.quit)
				delete(clients, wsc.quit)

			default:
				rpcsLog.Warn("Unhandled notification type")
			}

		case m.numClients <- len(clients):

		case <-m.quit:
			// RPC server shutting down.
			break out
		}
	}

	for _, c := range clients {
		c.Disconnect()
	}
	m.wg.Done()
}

// NumClients returns the number of clients actively being served.
func (m *wsNotificationManager) NumClients() (n int) {
	select {
	case n = <-m.numClients:
	case <-m.quit: // Use default n (0) if server has shut down.
	}
	return
}

// RegisterDrivechainUpdates requests registry update notifications to the
// passed websocket client.
func (m *wsNotificationManager) RegisterDrivechainUpdates(wsc *wsClient) {
	select {
	case m.queueNotification <- (*notificationRegisterDrivechain)(wsc):
	case <-m.quit:
	}
}

// UnregisterDrivechainUpdates removes registry update notifications for the
// passed websocket client.
func (m *wsNotificationManager) UnregisterDrivechainUpdates(wsc *wsClient) {
	select {
	case m.queueNotification <- (*notificationUnregisterDrivechain)(wsc):
	case <-m.quit:
	}
}

// notifyDrivechain marshals a notification and queues it to every passed
// client.
func notifyDrivechain(clients map[chan struct{}]*wsClient, ntfn interface{}) {
	marshalled, err := btcjson.MarshalCmd(btcjson.RpcVersion1, nil, ntfn)
	if err != nil {
		rpcsLog.Errorf("Failed to marshal drivechain notification: %v", err)
		return
	}
	for _, wsc := range clients {
		wsc.QueueNotification(marshalled)
	}
}

// notifyDrivechainConnected notifies websocket clients that have registered
// for registry updates when a block is connected to the main chain.
func (m *wsNotificationManager) notifyDrivechainConnected(clients map[chan struct{}]*wsClient, data *blockchain.BlockNtfnsData) {
	hash := data.Block.Hash()
	registry := drivechainInfo(data.Snapshot, hash, data.Height)
	ntfn := dcjson.NewDrivechainConnectedNtfn(hash.String(), data.Height,
		registry)
	notifyDrivechain(clients, ntfn)
}

// notifyDrivechainDisconnected notifies websocket clients that have
// registered for registry updates when a block is disconnected from the
// main chain.  The registry reported is the one of the new tip.
func (m *wsNotificationManager) notifyDrivechainDisconnected(clients map[chan struct{}]*wsClient, data *blockchain.BlockNtfnsData) {
	hash := data.Block.Hash()
	prevHash := data.Block.MsgBlock().Header.PrevBlock
	registry := drivechainInfo(data.Snapshot, &prevHash, data.Height-1)
	ntfn := dcjson.NewDrivechainDisconnectedNtfn(hash.String(), data.Height,
		registry)
	notifyDrivechain(clients, ntfn)
}

// AddClient adds the passed websocket client to the notification manager.
func (m *wsNotificationManager) AddClient(wsc *wsClient) {
	select {
	case m.queueNotification <- (*notificationRegisterClient)(wsc):
	case <-m.quit:
	}
}

// RemoveClient removes the passed websocket client and all notifications
// registered for it.
func (m *wsNotificationManager) RemoveClient(wsc *wsClient) {
	select {
	case m.queueNotification <- (*notificationUnregisterClient)(wsc):
	case <-m.quit:
	}
}

// Start starts the goroutines required for the manager to queue and process
// websocket client notifications.
func (m *wsNotificationManager) Start() {
	m.wg.Add(2)
	go m.queueHandler()
	go m.notificationHandler()
}

// WaitForShutdown blocks until all notification manager goroutines have
// finished.
func (m *wsNotificationManager) WaitForShutdown() {
	m.wg.Wait()
}

// Shutdown shuts down the manager, stopping the notification queue and
// notification handler goroutines.
func (m *wsNotificationManager) Shutdown() {
	close(m.quit)
}

// newWsNotificationManager returns a new notification manager ready for use.
// See wsNotificationManager for more details.
func newWsNotificationManager(server *rpcServer) *wsNotificationManager {
	return &wsNotificationManager{
		server:            server,
		queueNotification: make(chan interface{}),
		notificationMsgs:  make(chan interface{}),
		numClients:        make(chan int),
		quit:              make(chan struct{}),
	}
}

// wsClient provides an abstraction for handling a websocket client.  The
// overall data flow is split into 3 main goroutines.  The inHandler reads
// requests and sends replies on sendChan.  Notifications are queued by
// QueueNotification and forwarded to ntfnOut by a queue handler which never
// blocks the notification manager.  The outHandler writes both to the
// connection.
type wsClient struct {
	sync.Mutex

	// server is the RPC server that is servicing the client.
	server *rpcServer

	// conn is the underlying websocket connection.
	conn *websocket.Conn

	// disconnected indicated whether or not the websocket client is
	// disconnected.
	disconnected bool

	// addr is the remote address of the client.
	addr string

	// authenticated specifies whether a client has been authenticated
	// and therefore is allowed to communicated over the websocket.
	authenticated bool

	// Networking infrastructure.
	ntfnChan chan []byte
	ntfnOut  chan []byte
	sendChan chan []byte
	quit     chan struct{}
	wg       sync.WaitGroup
}

// inHandler handles all incoming messages for the websocket connection.  It
// must be run as a goroutine.
func (c *wsClient) inHandler() {
out:
	for {
		// Break out of the loop once the quit channel has been closed.
		// Use a non-blocking select here so we fall through otherwise.
		select {
		case <-c.quit:
			break out
		default:
		}

		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			// Log the error if it's not due to disconnecting.
			if !errors.Is(err, io.EOF) &&
				!websocket.IsCloseError(err, websocket.CloseNormalClosure) {

				rpcsLog.Errorf("Websocket receive error from "+
					"%s: %v", c.addr, err)
			}
			break out
		}

		var request btcjson.Request
		err = json.Unmarshal(msg, &request)
		if err != nil {
			if !c.authenticated {
				break out
			}

			jsonErr := &btcjson.RPCError{
				Code:    btcjson.ErrRPCParse.Code,
				Message: "Failed to parse request: " + err.Error(),
			}
			reply, err := createMarshalledReply(btcjson.RpcVersion1,
				nil, nil, jsonErr)
			if err != nil {
				rpcsLog.Errorf("Failed to marshal parse failure "+
					"reply: %v", err)
				continue
			}
			c.SendMessage(reply)
			continue
		}

		// Requests with no ID (notifications) must not have a response
		// per JSON-RPC.
		if request.ID == nil {
			if !c.authenticated {
				break out
			}
			continue
		}

		cmd := parseCmd(&request)
		if cmd.err != nil {
			if !c.authenticated {
				break out
			}

			reply, err := createMarshalledReply(cmd.jsonrpc, cmd.id,
				nil, cmd.err)
			if err != nil {
				rpcsLog.Errorf("Failed to marshal parse failure "+
					"reply: %v", err)
				continue
			}
			c.SendMessage(reply)
			continue
		}
		rpcsLog.Debugf("Received command <%s> from %s", cmd.method, c.addr)

		// Check auth.  The client is immediately disconnected if the
		// first request of an unauthentiated websocket client is not
		// the authenticate request, an authenticate request is received
		// when the client is already authenticated, or incorrect
		// authentication credentials are provided in the request.
		authCmd, isAuthCmd := cmd.cmd.(*btcjson.AuthenticateCmd)
		switch {
		case c.authenticated && isAuthCmd:
			rpcsLog.Warnf("Websocket client %s is already "+
				"authenticated", c.addr)
			break out

		case !c.authenticated && !isAuthCmd:
			rpcsLog.Warnf("Unauthenticated websocket message " +
				"received")
			break out

		case isAuthCmd:
			login := authCmd.Username + ":" + authCmd.Passphrase
			auth := "Basic " +
				base64.StdEncoding.EncodeToString([]byte(login))
			authSha := sha256.Sum256([]byte(auth))
			cmp := subtle.ConstantTimeCompare(authSha[:],
				c.server.authsha[:])
			if cmp != 1 {
				rpcsLog.Warnf("Auth failure.")
				break out
			}
			c.authenticated = true

			// Marshal and send response.
			reply, err := createMarshalledReply(cmd.jsonrpc, cmd.id,
				nil, nil)
			if err != nil {
				rpcsLog.Errorf("Failed to marshal authenticate "+
					"reply: %v", err)
				continue
			}
			c.SendMessage(reply)
			continue
		}

		result, err := c.handleCommand(cmd)
		reply, err := createMarshalledReply(cmd.jsonrpc, cmd.id, result,
			err)
		if err != nil {
			rpcsLog.Errorf("Failed to marshal reply for <%s> "+
				"command: %v", cmd.method, err)
			continue
		}
		c.SendMessage(reply)
	}

	// Ensure the connection is closed.
	c.Disconnect()
	c.wg.Done()
	rpcsLog.Tracef("Websocket client input handler done for %s", c.addr)
}

// handleCommand runs the websocket specific handler of cmd, falling back to
// the standard handlers.
func (c *wsClient) handleCommand(cmd *parsedRPCCmd) (interface{}, error) {
	if wsHandler, ok := wsHandlers[cmd.method]; ok {
		return wsHandler(c, cmd.cmd)
	}
	return c.server.standardCmdResult(cmd, c.quit)
}

// ntfnQueueHandler forwards queued notifications to the output handler.
func (c *wsClient) ntfnQueueHandler() {
	queueHandler[[]byte](c.ntfnChan, c.ntfnOut, c.quit)
	c.wg.Done()
}

// outHandler handles all outgoing messages for the websocket connection.  It
// uses a buffered channel to serialize output messages while allowing the
// sender to continue running asynchronously.  It must be run as a goroutine.
func (c *wsClient) outHandler() {
out:
	for {
		var msg []byte
		select {
		case msg = <-c.sendChan:
		case ntfn, ok := <-c.ntfnOut:
			if !ok {
				break out
			}
			msg = ntfn
		case <-c.quit:
			break out
		}

		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			c.Disconnect()
			break out
		}
	}

	c.wg.Done()
	rpcsLog.Tracef("Websocket client output handler done for %s", c.addr)
}

// SendMessage sends the passed json to the websocket client.  It is backed
// by a buffered channel, so it will not block until the send channel is full.
func (c *wsClient) SendMessage(marshalledJSON []byte) {
	select {
	case c.sendChan <- marshalledJSON:
	case <-c.quit:
	}
}

// QueueNotification queues the passed notification to be sent to the
// websocket client.  This function, as the name implies, is only intended for
// notifications since it has additional logic to prevent other subsystems, such
// as the memory pool and block manager, from blocking even when the send
// channel is full.
//
// If the client is in the process of shutting down, this function returns
// ErrClientQuit.  This is intended to be checked by long-running notification
// handlers to stop processing if there is no more work needed to be done.
func (c *wsClient) QueueNotification(marshalledJSON []byte) error {
	// Don't queue the message if disconnected.
	if c.Disconnected() {
		return ErrClientQuit
	}

	select {
	case c.ntfnChan <- marshalledJSON:
		return nil
	case <-c.quit:
		return ErrClientQuit
	}
}

// Disconnected returns whether or not the websocket client is disconnected.
func (c *wsClient) Disconnected() bool {
	c.Lock()
	isDisconnected := c.disconnected
	c.Unlock()

	return isDisconnected
}

// Disconnect disconnects the websocket client.
func (c *wsClient) Disconnect() {
	c.Lock()
	defer c.Unlock()

	// Nothing to do if already disconnected.
	if c.disconnected {
		return
	}

	rpcsLog.Tracef("Disconnecting websocket client %s", c.addr)
	close(c.quit)
	c.conn.Close()
	c.disconnected = true
}

// Start begins processing input and output messages.
func (c *wsClient) Start() {
	rpcsLog.Tracef("Starting websocket client %s", c.addr)

	// Start processing input and output.
	c.wg.Add(3)
	go c.inHandler()
	go c.ntfnQueueHandler()
	go c.outHandler()
}

// WaitForShutdown blocks until the websocket client goroutines are stopped
// and the connection is closed.
func (c *wsClient) WaitForShutdown() {
	c.wg.Wait()
}

// newWebsocketClient returns a new websocket client given the notification
// manager, websocket connection, remote address, and whether or not the client
// has already been authenticated (via HTTP Basic access authentication).  The
// returned client is ready to start.  Once started, the client will process
// incoming and outgoing messages in separate goroutines complete with queuing
// and asynchrous handling for long-running operations.
func newWebsocketClient(server *rpcServer, conn *websocket.Conn,
	remoteAddr string, authenticated bool) *wsClient {

	return &wsClient{
		conn:          conn,
		addr:          remoteAddr,
		authenticated: authenticated,
		server:        server,
		ntfnChan:      make(chan []byte),
		ntfnOut:       make(chan []byte),
		sendChan:      make(chan []byte, websocketSendBufferSize),
		quit:          make(chan struct{}),
	}
}

// handleNotifyDrivechain implements the notifydrivechain command extension
// for websocket connections.
func handleNotifyDrivechain(wsc *wsClient, icmd interface{}) (interface{}, error) {
	wsc.server.ntfnMgr.RegisterDrivechainUpdates(wsc)
	return nil, nil
}

// handleStopNotifyDrivechain implements the stopnotifydrivechain command
// extension for websocket connections.
func handleStopNotifyDrivechain(wsc *wsClient, icmd interface{}) (interface{}, error) {
	wsc.server.ntfnMgr.UnregisterDrivechainUpdates(wsc)
	return nil, nil
}
