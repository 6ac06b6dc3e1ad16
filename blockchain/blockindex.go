// Copyright (c) 2015-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/drivechain"
)

// blockNode represents a block within the block chain.  Every accepted block,
// main chain or side chain, has one node in the block index.
type blockNode struct {
	// parent is the parent block for this node.
	parent *blockNode

	// hash is the double sha 256 of the block.
	hash chainhash.Hash

	// height is the position in the block chain.
	height int32

	// status is the validation status of the block.
	status database.BlockStatus

	// undo is the undo record of a main chain block connected within the
	// retained reorganization depth.  It is nil for side chain blocks and
	// for main chain blocks whose record was pruned.
	undo *drivechain.UndoRecord
}

// newBlockNode returns a new block node for the block with the given hash
// on top of parent.  The parent is nil only for the genesis block.
func newBlockNode(hash *chainhash.Hash, parent *blockNode) *blockNode {
	node := blockNode{hash: *hash, parent: parent}
	if parent != nil {
		node.height = parent.height + 1
	}
	return &node
}

// ancestor returns the ancestor block node at the provided height by
// following the chain backwards from this node.  The returned block will be
// nil when a height is requested that is after the height of the passed node
// or is less than zero.
func (node *blockNode) ancestor(height int32) *blockNode {
	if height < 0 || height > node.height {
		return nil
	}

	n := node
	for ; n != nil && n.height != height; n = n.parent {
		// Intentionally left blank
	}
	return n
}

// knownInvalid returns whether the node or any of its ancestors failed
// validation.  Descendants of a failed block are marked when they are added
// to the index, so only the node itself needs checking.
func (node *blockNode) knownInvalid() bool {
	return node.status == database.StatusInvalid
}

// indexEntry returns the stored form of the node.
func (node *blockNode) indexEntry() *database.IndexEntry {
	entry := &database.IndexEntry{
		Hash:   node.hash,
		Height: node.height,
		Status: node.status,
	}
	if node.parent != nil {
		entry.Parent = node.parent.hash
	}
	return entry
}

// tip returns the chain tip reached once node is connected.
func (node *blockNode) tip() *database.ChainTip {
	return &database.ChainTip{Hash: node.hash, Height: node.height}
}
