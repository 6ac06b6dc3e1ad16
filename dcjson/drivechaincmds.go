// Copyright (c) 2014-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// NOTE: This file is intended to house the RPC commands that are supported by
// a drivechain server.

package dcjson

import (
	"github.com/btcsuite/btcd/btcjson"
)

// GetDrivechainInfoCmd defines the getdrivechaininfo JSON-RPC command.
type GetDrivechainInfoCmd struct{}

// NewGetDrivechainInfoCmd returns a new instance which can be used to issue a
// getdrivechaininfo JSON-RPC command.
func NewGetDrivechainInfoCmd() *GetDrivechainInfoCmd {
	return &GetDrivechainInfoCmd{}
}

// WithdrawalInput is a withdrawal of a bundle: an address and the amount in
// bitcoin paid to it.
type WithdrawalInput struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
}

// GetBundleHashCmd defines the getbundlehash JSON-RPC command.  It computes
// the commitment hash of a withdrawal set in the order given.
type GetBundleHashCmd struct {
	Withdrawals []WithdrawalInput `jsonrpcusage:"[{\"address\":\"address\",\"amount\":n.nnn},...]"`
}

// NewGetBundleHashCmd returns a new instance which can be used to issue a
// getbundlehash JSON-RPC command.
func NewGetBundleHashCmd(withdrawals []WithdrawalInput) *GetBundleHashCmd {
	return &GetBundleHashCmd{
		Withdrawals: withdrawals,
	}
}

// VoteInput selects a bundle a generated coinbase votes for.
type VoteInput struct {
	Sidechain uint8  `json:"scid"`
	Hash      string `json:"hash"`
}

// GenerateWithVotesCmd defines the generatewithvotes JSON-RPC command.
type GenerateWithVotesCmd struct {
	NumBlocks uint32
	Votes     *[]VoteInput `jsonrpcusage:"[{\"scid\":n,\"hash\":\"hash\"},...]"`
}

// NewGenerateWithVotesCmd returns a new instance which can be used to issue a
// generatewithvotes JSON-RPC command.
//
// The parameters which are pointers indicate they are optional.  Passing nil
// for optional parameters will use the default value.
func NewGenerateWithVotesCmd(numBlocks uint32, votes []VoteInput) *GenerateWithVotesCmd {
	cmd := &GenerateWithVotesCmd{NumBlocks: numBlocks}
	if votes != nil {
		cmd.Votes = &votes
	}
	return cmd
}

func init() {
	// No special flags for commands in this file.
	flags := btcjson.UsageFlag(0)

	btcjson.MustRegisterCmd("getdrivechaininfo", (*GetDrivechainInfoCmd)(nil), flags)
	btcjson.MustRegisterCmd("getbundlehash", (*GetBundleHashCmd)(nil), flags)
	btcjson.MustRegisterCmd("generatewithvotes", (*GenerateWithVotesCmd)(nil), flags)
}
