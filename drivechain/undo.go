// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// undoKind identifies the mutation an undo entry reverses.
type undoKind uint8

const (
	undoCreateSidechain undoKind = iota
	undoActivateSidechain
	undoEscrowCredit
	undoEscrowDebit
	undoCreateBundle
	undoVote
	undoApprove
	undoExecute

	numUndoKinds
)

var undoKindStrings = map[undoKind]string{
	undoCreateSidechain:   "create sidechain",
	undoActivateSidechain: "activate sidechain",
	undoEscrowCredit:      "escrow credit",
	undoEscrowDebit:       "escrow debit",
	undoCreateBundle:      "create bundle",
	undoVote:              "vote",
	undoApprove:           "approve",
	undoExecute:           "execute",
}

func (k undoKind) String() string {
	if s, ok := undoKindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown undo kind (%d)", uint8(k))
}

// undoEntry records one applied mutation.  Hash is only meaningful for the
// bundle kinds and Amount only for the escrow kinds.
type undoEntry struct {
	kind      undoKind
	sidechain uint8
	hash      chainhash.Hash
	amount    int64
}

// UndoRecord is the ordered log of every mutation a connected block made to
// the registry.  Reverting it in reverse order restores the registry to the
// state before the block.
type UndoRecord struct {
	entries []undoEntry
}

// Len returns the number of recorded mutations.
func (u *UndoRecord) Len() int {
	return len(u.entries)
}

// mutator applies registry mutations and records their inverse.
type mutator struct {
	state *State
	undo  *UndoRecord
}

func (m *mutator) record(e undoEntry) {
	m.undo.entries = append(m.undo.entries, e)
}

// sidechain returns the record of id, creating an inactive one at height
// when it does not exist.
func (m *mutator) sidechain(id uint8, height int32) *Sidechain {
	sc, ok := m.state.sidechains[id]
	if ok {
		return sc
	}
	sc = &Sidechain{
		ID:            id,
		CreatedHeight: height,
		Bundles:       make(map[chainhash.Hash]*Bundle),
	}
	m.state.sidechains[id] = sc
	m.record(undoEntry{kind: undoCreateSidechain, sidechain: id})
	return sc
}

func (m *mutator) activate(sc *Sidechain) {
	if sc.IsActive {
		return
	}
	sc.IsActive = true
	m.record(undoEntry{kind: undoActivateSidechain, sidechain: sc.ID})
}

func (m *mutator) credit(sc *Sidechain, amount int64) {
	if amount == 0 {
		return
	}
	sc.EscrowBalance += amount
	m.record(undoEntry{kind: undoEscrowCredit, sidechain: sc.ID, amount: amount})
}

func (m *mutator) debit(sc *Sidechain, amount int64) {
	if amount == 0 {
		return
	}
	sc.EscrowBalance -= amount
	m.record(undoEntry{kind: undoEscrowDebit, sidechain: sc.ID, amount: amount})
}

func (m *mutator) createBundle(sc *Sidechain, hash *chainhash.Hash, height int32) {
	if _, ok := sc.Bundles[*hash]; ok {
		return
	}
	sc.Bundles[*hash] = &Bundle{
		Hash:          *hash,
		Sidechain:     sc.ID,
		CreatedHeight: height,
	}
	m.record(undoEntry{kind: undoCreateBundle, sidechain: sc.ID, hash: *hash})
}

func (m *mutator) vote(b *Bundle) {
	b.YesVotes++
	m.record(undoEntry{kind: undoVote, sidechain: b.Sidechain, hash: b.Hash})
}

func (m *mutator) approve(b *Bundle) {
	b.Approved = true
	m.record(undoEntry{kind: undoApprove, sidechain: b.Sidechain, hash: b.Hash})
}

func (m *mutator) execute(b *Bundle) {
	b.Executed = true
	m.record(undoEntry{kind: undoExecute, sidechain: b.Sidechain, hash: b.Hash})
}

// rollback reverts and drops every entry recorded after mark.
func (m *mutator) rollback(mark int) error {
	for i := len(m.undo.entries) - 1; i >= mark; i-- {
		if err := m.state.revertEntry(&m.undo.entries[i]); err != nil {
			return err
		}
	}
	m.undo.entries = m.undo.entries[:mark]
	return nil
}

// Revert applies the inverse of every entry of undo in reverse order.  Any
// entry that does not match the registry yields an AssertError and leaves
// the registry partially reverted; the caller must treat that as fatal.
func (s *State) Revert(undo *UndoRecord) error {
	for i := len(undo.entries) - 1; i >= 0; i-- {
		if err := s.revertEntry(&undo.entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) revertEntry(e *undoEntry) error {
	sc, ok := s.sidechains[e.sidechain]
	if !ok {
		return AssertError(fmt.Sprintf("undo %v: sidechain %d does not exist",
			e.kind, e.sidechain))
	}

	switch e.kind {
	case undoCreateSidechain:
		if sc.IsActive || sc.EscrowBalance != 0 || len(sc.Bundles) != 0 {
			return AssertError(fmt.Sprintf("undo %v: sidechain %d is "+
				"still in use", e.kind, e.sidechain))
		}
		delete(s.sidechains, e.sidechain)
		return nil

	case undoActivateSidechain:
		if !sc.IsActive {
			return AssertError(fmt.Sprintf("undo %v: sidechain %d is "+
				"not active", e.kind, e.sidechain))
		}
		sc.IsActive = false
		return nil

	case undoEscrowCredit:
		if sc.EscrowBalance < e.amount {
			return AssertError(fmt.Sprintf("undo %v: escrow of sidechain "+
				"%d is %d, below %d", e.kind, e.sidechain,
				sc.EscrowBalance, e.amount))
		}
		sc.EscrowBalance -= e.amount
		return nil

	case undoEscrowDebit:
		sc.EscrowBalance += e.amount
		return nil
	}

	b, ok := sc.Bundles[e.hash]
	if !ok {
		return AssertError(fmt.Sprintf("undo %v: bundle %v of sidechain "+
			"%d does not exist", e.kind, e.hash, e.sidechain))
	}

	switch e.kind {
	case undoCreateBundle:
		if b.YesVotes != 0 || b.Approved || b.Executed {
			return AssertError(fmt.Sprintf("undo %v: bundle %v still "+
				"has votes", e.kind, e.hash))
		}
		delete(sc.Bundles, e.hash)

	case undoVote:
		if b.YesVotes == 0 || b.Approved {
			return AssertError(fmt.Sprintf("undo %v: bundle %v has no "+
				"revertible vote", e.kind, e.hash))
		}
		b.YesVotes--

	case undoApprove:
		if !b.Approved || b.Executed {
			return AssertError(fmt.Sprintf("undo %v: bundle %v is not "+
				"in the approved state", e.kind, e.hash))
		}
		b.Approved = false

	case undoExecute:
		if !b.Executed {
			return AssertError(fmt.Sprintf("undo %v: bundle %v is not "+
				"executed", e.kind, e.hash))
		}
		b.Executed = false

	default:
		return AssertError(fmt.Sprintf("undo: unknown entry kind %v", e.kind))
	}
	return nil
}
