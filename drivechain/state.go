// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Bundle is a committed withdrawal bundle of one sidechain.
type Bundle struct {
	Hash          chainhash.Hash
	Sidechain     uint8
	YesVotes      uint32
	Approved      bool
	Executed      bool
	CreatedHeight int32
}

// Sidechain is the registry record of one sidechain.
type Sidechain struct {
	ID            uint8
	IsActive      bool
	EscrowBalance int64
	CreatedHeight int32
	Bundles       map[chainhash.Hash]*Bundle
}

// State is the sidechain registry together with the bundle ledgers of every
// sidechain.
//
// State is not safe for concurrent use.  The owner, normally the chain, must
// serialize block connection and disconnection and hand out clones or
// snapshots to concurrent readers.
type State struct {
	sidechains map[uint8]*Sidechain
}

// NewState returns an empty registry.
func NewState() *State {
	return &State{sidechains: make(map[uint8]*Sidechain)}
}

// NumSidechains returns the number of registry records.
func (s *State) NumSidechains() int {
	return len(s.sidechains)
}

// LookupSidechain returns a copy of the record of sidechain id.
func (s *State) LookupSidechain(id uint8) (Sidechain, bool) {
	sc, ok := s.sidechains[id]
	if !ok {
		return Sidechain{}, false
	}
	return *sc.clone(), true
}

// LookupBundle returns a copy of the bundle hash of sidechain id.
func (s *State) LookupBundle(id uint8, hash *chainhash.Hash) (Bundle, bool) {
	sc, ok := s.sidechains[id]
	if !ok {
		return Bundle{}, false
	}
	b, ok := sc.Bundles[*hash]
	if !ok {
		return Bundle{}, false
	}
	return *b, true
}

func (sc *Sidechain) clone() *Sidechain {
	c := *sc
	c.Bundles = make(map[chainhash.Hash]*Bundle, len(sc.Bundles))
	for hash, b := range sc.Bundles {
		bc := *b
		c.Bundles[hash] = &bc
	}
	return &c
}

// Clone returns a deep copy of the registry.
func (s *State) Clone() *State {
	c := &State{sidechains: make(map[uint8]*Sidechain, len(s.sidechains))}
	for id, sc := range s.sidechains {
		c.sidechains[id] = sc.clone()
	}
	return c
}

// Equal reports whether both registries hold the same records.
func (s *State) Equal(other *State) bool {
	return bytes.Equal(s.Serialize(), other.Serialize())
}

// sortedIDs returns the sidechain ids in ascending order.
func (s *State) sortedIDs() []uint8 {
	ids := make([]uint8, 0, len(s.sidechains))
	for id := range s.sidechains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sortedBundles returns the bundles of the sidechain ordered by the bytes of
// their hash.
func (sc *Sidechain) sortedBundles() []*Bundle {
	bundles := make([]*Bundle, 0, len(sc.Bundles))
	for _, b := range sc.Bundles {
		bundles = append(bundles, b)
	}
	sort.Slice(bundles, func(i, j int) bool {
		return bytes.Compare(bundles[i].Hash[:], bundles[j].Hash[:]) < 0
	})
	return bundles
}
