// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package dcjson provides the drivechain extension commands of the JSON-RPC API.

The commands, results and notifications defined here are registered with the
btcjson command registry when the package is imported, so they can be
marshalled and unmarshalled with btcjson.MarshalCmd, btcjson.UnmarshalCmd and
btcjson.NewCmd like the standard chain server commands.

	cmd := dcjson.NewGenerateWithVotesCmd(10, []dcjson.VoteInput{{
		Sidechain: 3,
		Hash:      bundleHash,
	}})
	marshalled, err := btcjson.MarshalCmd(btcjson.RpcVersion1, 1, cmd)

Amounts in requests are in bitcoin, balances in results are in satoshi.
*/
package dcjson
