// Copyright (c) 2014-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// NOTE: This file is intended to house the RPC websocket notifications that
// are supported by a drivechain server.

package dcjson

import (
	"github.com/btcsuite/btcd/btcjson"
)

const (
	// DrivechainConnectedNtfnMethod is the method used for notifications
	// from the drivechain server that a block has been connected and the
	// registry changed accordingly.
	DrivechainConnectedNtfnMethod = "drivechainconnected"

	// DrivechainDisconnectedNtfnMethod is the method used for notifications
	// from the drivechain server that a block has been disconnected and the
	// registry rolled back.
	DrivechainDisconnectedNtfnMethod = "drivechaindisconnected"
)

// DrivechainConnectedNtfn defines the drivechainconnected JSON-RPC
// notification.  Registry is the state after the block was connected.
type DrivechainConnectedNtfn struct {
	Hash     string
	Height   int32
	Registry GetDrivechainInfoResult
}

// NewDrivechainConnectedNtfn returns a new instance which can be used to
// issue a drivechainconnected JSON-RPC notification.
func NewDrivechainConnectedNtfn(hash string, height int32, registry GetDrivechainInfoResult) *DrivechainConnectedNtfn {
	return &DrivechainConnectedNtfn{
		Hash:     hash,
		Height:   height,
		Registry: registry,
	}
}

// DrivechainDisconnectedNtfn defines the drivechaindisconnected JSON-RPC
// notification.  Registry is the state after the block was disconnected.
type DrivechainDisconnectedNtfn struct {
	Hash     string
	Height   int32
	Registry GetDrivechainInfoResult
}

// NewDrivechainDisconnectedNtfn returns a new instance which can be used to
// issue a drivechaindisconnected JSON-RPC notification.
func NewDrivechainDisconnectedNtfn(hash string, height int32, registry GetDrivechainInfoResult) *DrivechainDisconnectedNtfn {
	return &DrivechainDisconnectedNtfn{
		Hash:     hash,
		Height:   height,
		Registry: registry,
	}
}

func init() {
	// The commands in this file are only usable by websockets and are
	// notifications.
	flags := btcjson.UFWebsocketOnly | btcjson.UFNotification

	btcjson.MustRegisterCmd(DrivechainConnectedNtfnMethod,
		(*DrivechainConnectedNtfn)(nil), flags)
	btcjson.MustRegisterCmd(DrivechainDisconnectedNtfnMethod,
		(*DrivechainDisconnectedNtfn)(nil), flags)
}
