// Copyright (c) 2014-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dcjson

// BundleResult models a bundle of the registry.
type BundleResult struct {
	Hash          string `json:"hash"`
	YesVotes      uint32 `json:"yes_votes"`
	Approved      bool   `json:"approved"`
	Executed      bool   `json:"executed"`
	CreatedHeight int32  `json:"created_height"`
}

// SidechainResult models a sidechain of the registry.  EscrowBalance is in
// satoshi.
type SidechainResult struct {
	ID            uint8          `json:"id"`
	IsActive      bool           `json:"is_active"`
	EscrowBalance int64          `json:"escrow_balance"`
	CreatedHeight int32          `json:"created_height"`
	Bundles       []BundleResult `json:"bundles"`
}

// GetDrivechainInfoResult models the data returned from the
// getdrivechaininfo command and carried by the drivechain notifications.
type GetDrivechainInfoResult struct {
	BestBlockHash string            `json:"bestblockhash"`
	Height        int32             `json:"height"`
	Sidechains    []SidechainResult `json:"sidechains"`
}
