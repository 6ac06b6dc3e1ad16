// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netparams defines the drivechain consensus parameters of every
// supported network on top of the bitcoin chain parameters.
package netparams

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/drivechaind/drivechaind/drivechain"
)

// Params houses the parameters of one network: the bitcoin chain
// parameters plus the drivechain rules and the daemon RPC port.
type Params struct {
	*chaincfg.Params

	// RPCPort is the default JSON-RPC listening port.
	RPCPort string

	// DrivechainActivationHeight is the first height at which control
	// messages are valid.
	DrivechainActivationHeight int32

	// BundleVoteThreshold is the number of coinbase votes that approves a
	// bundle.
	BundleVoteThreshold uint32

	// BundleVoteWindow is the number of blocks after its commit during
	// which a bundle collects votes.  Zero disables the window.
	BundleVoteWindow int32

	// MaxReorgDepth is the number of blocks whose undo records are kept.
	// It bounds the depth of a reorganization.
	MaxReorgDepth int32

	// GenerateSupported reports whether blocks may be generated on
	// demand over RPC.
	GenerateSupported bool
}

// IsActive returns whether the drivechain rules apply at height.  It
// implements drivechain.ActivationOracle.
func (p *Params) IsActive(height int32) bool {
	return height >= p.DrivechainActivationHeight
}

// DrivechainParams returns the rule parameters for the drivechain package.
func (p *Params) DrivechainParams() *drivechain.Params {
	return &drivechain.Params{
		VoteThreshold: p.BundleVoteThreshold,
		VoteWindow:    p.BundleVoteWindow,
		Activation:    p,
	}
}

// WithActivationHeight returns a copy of the parameters activating the
// drivechain rules at height.
func (p *Params) WithActivationHeight(height int32) *Params {
	c := *p
	c.DrivechainActivationHeight = height
	return &c
}

// MainNetParams contains parameters specific to the main network
// (wire.MainNet).  The drivechain rules are not scheduled.
var MainNetParams = Params{
	Params:                     &chaincfg.MainNetParams,
	RPCPort:                    "8434",
	DrivechainActivationHeight: math.MaxInt32,
	BundleVoteThreshold:        13150,
	BundleVoteWindow:           26300,
	MaxReorgDepth:              288,
}

// TestNet3Params contains parameters specific to the test network (version
// 3) (wire.TestNet3).
var TestNet3Params = Params{
	Params:                     &chaincfg.TestNet3Params,
	RPCPort:                    "18434",
	DrivechainActivationHeight: 1,
	BundleVoteThreshold:        131,
	BundleVoteWindow:           263,
	MaxReorgDepth:              288,
}

// RegressionNetParams contains parameters specific to the regression test
// network (wire.TestNet).  Rules are active from genesis and bundles are
// approved after ten votes.
var RegressionNetParams = Params{
	Params:                     &chaincfg.RegressionNetParams,
	RPCPort:                    "18534",
	DrivechainActivationHeight: 0,
	BundleVoteThreshold:        10,
	BundleVoteWindow:           1000,
	MaxReorgDepth:              288,
	GenerateSupported:          true,
}

// SimNetParams contains parameters specific to the simulation test network
// (wire.SimNet).
var SimNetParams = Params{
	Params:                     &chaincfg.SimNetParams,
	RPCPort:                    "18636",
	DrivechainActivationHeight: 0,
	BundleVoteThreshold:        10,
	BundleVoteWindow:           1000,
	MaxReorgDepth:              288,
	GenerateSupported:          true,
}
