// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/drivechaind/drivechaind/drivechain"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various chain events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTBlockConnected indicates the associated block was connected to the
	// main chain.
	NTBlockConnected NotificationType = iota

	// NTBlockDisconnected indicates the associated block was disconnected
	// from the main chain.
	NTBlockDisconnected

	// NTReorganization indicates that a blockchain reorganization has
	// completed.
	NTReorganization
)

// notificationTypeStrings is a map of notification types back to their constant
// names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTBlockConnected:    "NTBlockConnected",
	NTBlockDisconnected: "NTBlockDisconnected",
	NTReorganization:    "NTReorganization",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// BlockNtfnsData is the data of the connected and disconnected
// notifications.  Height is the height of Block and Snapshot is the registry
// after the change.
type BlockNtfnsData struct {
	Block    *btcutil.Block
	Height   int32
	Snapshot *drivechain.Snapshot
}

// ReorganizationNtfnsData is the structure for data indicating information
// about a reorganization.
type ReorganizationNtfnsData struct {
	OldHash   chainhash.Hash
	OldHeight int32
	NewHash   chainhash.Hash
	NewHeight int32
}

// Notification defines notification that is sent to the caller via the callback
// function provided during the call to Subscribe and consists of a
// notification type as well as associated data that depends on the type as
// follows:
//   - NTBlockConnected:     *BlockNtfnsData
//   - NTBlockDisconnected:  *BlockNtfnsData
//   - NTReorganization:     *ReorganizationNtfnsData
type Notification struct {
	Type NotificationType
	Data interface{}
}

// Subscribe to block chain notifications.  Callbacks are invoked
// synchronously once the chain lock is released, in the order the changes
// happened.  They may query the chain but must not process blocks.
func (b *BlockChain) Subscribe(callback NotificationCallback) {
	b.notificationsLock.Lock()
	b.notifications = append(b.notifications, callback)
	b.notificationsLock.Unlock()
}

// queueNotification queues a notification with the passed type and data
// until the block being processed is done.
//
// This function MUST be called with the process lock held.
func (b *BlockChain) queueNotification(typ NotificationType, data interface{}) {
	b.pendingNtfns = append(b.pendingNtfns, &Notification{Type: typ, Data: data})
}

// flushNotifications sends the queued notifications to every subscriber.
//
// This function MUST be called with the process lock held and the chain lock
// released.
func (b *BlockChain) flushNotifications() {
	pending := b.pendingNtfns
	b.pendingNtfns = nil

	b.notificationsLock.RLock()
	callbacks := b.notifications
	b.notificationsLock.RUnlock()

	for _, n := range pending {
		for _, callback := range callbacks {
			callback(n)
		}
	}
}
