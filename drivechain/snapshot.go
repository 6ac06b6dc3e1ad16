// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import "github.com/btcsuite/btcd/chaincfg/chainhash"

// BundleSnapshot is the read-only view of a bundle.
type BundleSnapshot struct {
	Hash          chainhash.Hash
	YesVotes      uint32
	Approved      bool
	Executed      bool
	CreatedHeight int32
}

// SidechainSnapshot is the read-only view of a sidechain and its bundles,
// ordered by hash bytes.
type SidechainSnapshot struct {
	ID            uint8
	IsActive      bool
	EscrowBalance int64
	CreatedHeight int32
	Bundles       []BundleSnapshot
}

// Snapshot is a read-only projection of the whole registry.  It shares no
// memory with the State it was taken from.
type Snapshot struct {
	Sidechains []SidechainSnapshot
}

// Snapshot returns the registry ordered by sidechain id.
func (s *State) Snapshot() *Snapshot {
	snap := &Snapshot{
		Sidechains: make([]SidechainSnapshot, 0, len(s.sidechains)),
	}
	for _, id := range s.sortedIDs() {
		sc := s.sidechains[id]
		scSnap := SidechainSnapshot{
			ID:            sc.ID,
			IsActive:      sc.IsActive,
			EscrowBalance: sc.EscrowBalance,
			CreatedHeight: sc.CreatedHeight,
			Bundles:       make([]BundleSnapshot, 0, len(sc.Bundles)),
		}
		for _, b := range sc.sortedBundles() {
			scSnap.Bundles = append(scSnap.Bundles, BundleSnapshot{
				Hash:          b.Hash,
				YesVotes:      b.YesVotes,
				Approved:      b.Approved,
				Executed:      b.Executed,
				CreatedHeight: b.CreatedHeight,
			})
		}
		snap.Sidechains = append(snap.Sidechains, scSnap)
	}
	return snap
}

// Sidechain returns the snapshot of sidechain id, or nil.
func (s *Snapshot) Sidechain(id uint8) *SidechainSnapshot {
	for i := range s.Sidechains {
		if s.Sidechains[i].ID == id {
			return &s.Sidechains[i]
		}
	}
	return nil
}

// Bundle returns the snapshot of the bundle hash, or nil.
func (s *SidechainSnapshot) Bundle(hash *chainhash.Hash) *BundleSnapshot {
	for i := range s.Bundles {
		if s.Bundles[i].Hash == *hash {
			return &s.Bundles[i]
		}
	}
	return nil
}
