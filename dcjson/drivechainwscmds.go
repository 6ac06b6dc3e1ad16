// Copyright (c) 2014-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// NOTE: This file is intended to house the RPC commands that are supported by
// a drivechain server, but are only available via websockets.

package dcjson

import (
	"github.com/btcsuite/btcd/btcjson"
)

// NotifyDrivechainCmd defines the notifydrivechain JSON-RPC command.
type NotifyDrivechainCmd struct{}

// NewNotifyDrivechainCmd returns a new instance which can be used to issue a
// notifydrivechain JSON-RPC command.
func NewNotifyDrivechainCmd() *NotifyDrivechainCmd {
	return &NotifyDrivechainCmd{}
}

// StopNotifyDrivechainCmd defines the stopnotifydrivechain JSON-RPC command.
type StopNotifyDrivechainCmd struct{}

// NewStopNotifyDrivechainCmd returns a new instance which can be used to
// issue a stopnotifydrivechain JSON-RPC command.
func NewStopNotifyDrivechainCmd() *StopNotifyDrivechainCmd {
	return &StopNotifyDrivechainCmd{}
}

func init() {
	// The commands in this file are only usable by websockets.
	flags := btcjson.UFWebsocketOnly

	btcjson.MustRegisterCmd("notifydrivechain", (*NotifyDrivechainCmd)(nil), flags)
	btcjson.MustRegisterCmd("stopnotifydrivechain",
		(*StopNotifyDrivechainCmd)(nil), flags)
}
