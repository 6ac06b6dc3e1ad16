// Copyright (c) 2013-2018 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"
	"sync"

	btcdchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/drivechaind/drivechaind/blockchain/internal/progresslog"
	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/drivechaind/drivechaind/netparams"
)

// BestState houses information about the current best block.
type BestState struct {
	Hash   chainhash.Hash // The hash of the block.
	Height int32          // The height of the block.
}

// Config is a descriptor which specifies the blockchain instance configuration.
type Config struct {
	// Params identifies which chain parameters the chain is associated
	// with.
	//
	// This field is required.
	Params *netparams.Params

	// Store is the open drivechain store the chain state is loaded from
	// and written to.
	//
	// This field is required.
	Store *database.Store

	// MaxReorgDepth overrides the reorganization bound of Params when it
	// is not zero.
	MaxReorgDepth int32

	// TimeSource defines the median time source to use for things such as
	// block processing.  It defaults to btcd's median time source.
	TimeSource btcdchain.MedianTimeSource
}

// BlockChain provides functions for working with the drivechain sidechain
// registry of the bitcoin block chain.  It includes functionality such as
// rejecting blocks that violate the drivechain rules, choosing the best
// chain, reorganizing with the per-block undo records and answering
// registry queries.
type BlockChain struct {
	params        *netparams.Params
	dcParams      *drivechain.Params
	store         *database.Store
	maxReorgDepth int32
	timeSource    btcdchain.MedianTimeSource

	progressLogger *progresslog.BlockProgressLogger

	// processLock serializes block processing.  Notifications queued in
	// pendingNtfns while a block is processed are sent once chainLock is
	// released, still under processLock.
	processLock  sync.Mutex
	pendingNtfns []*Notification

	// chainLock protects the fields below.  Connecting and disconnecting
	// blocks takes it for writes, queries for reads.
	chainLock sync.RWMutex

	// index holds a node for every accepted block.  bestChain tracks the
	// current main chain.
	index     map[chainhash.Hash]*blockNode
	bestChain *chainView

	// state is the registry as of the tip of bestChain.
	state *drivechain.State

	notificationsLock sync.RWMutex
	notifications     []NotificationCallback
}

// New returns a BlockChain instance using the provided configuration details.
// The chain state is loaded from the store, which is initialized with the
// genesis block of the network when empty.
func New(config *Config) (*BlockChain, error) {
	if config.Params == nil {
		return nil, AssertError("blockchain.New chain parameters nil")
	}
	if config.Store == nil {
		return nil, AssertError("blockchain.New store is nil")
	}
	dcParams := config.Params.DrivechainParams()
	if err := dcParams.Validate(); err != nil {
		return nil, err
	}

	maxReorgDepth := config.Params.MaxReorgDepth
	if config.MaxReorgDepth != 0 {
		maxReorgDepth = config.MaxReorgDepth
	}
	if maxReorgDepth < 1 {
		return nil, fmt.Errorf("max reorg depth %d must be positive",
			maxReorgDepth)
	}
	timeSource := config.TimeSource
	if timeSource == nil {
		timeSource = btcdchain.NewMedianTime()
	}

	b := BlockChain{
		params:         config.Params,
		dcParams:       dcParams,
		store:          config.Store,
		maxReorgDepth:  maxReorgDepth,
		timeSource:     timeSource,
		progressLogger: progresslog.NewBlockProgressLogger("Processed", log),
		index:          make(map[chainhash.Hash]*blockNode),
		bestChain:      newChainView(nil),
	}
	if err := b.initChainState(); err != nil {
		return nil, err
	}

	tip := b.bestChain.tip()
	log.Infof("Chain state (height %d, hash %v, sidechains %d)",
		tip.height, tip.hash, b.state.NumSidechains())
	return &b, nil
}

// initChainState loads the block index, the tip, the registry and the
// retained undo records from the store, initializing an empty store with
// the genesis block.
func (b *BlockChain) initChainState() error {
	tip, err := b.store.FetchTip()
	if err != nil {
		return err
	}
	if tip == nil {
		genesis := btcutil.NewBlock(b.params.GenesisBlock)
		node := newBlockNode(genesis.Hash(), nil)
		b.index[node.hash] = node
		b.bestChain.setTip(node)
		b.state = drivechain.NewState()
		log.Infof("Initializing drivechain store with genesis block %v",
			node.hash)
		return b.store.InitTip(genesis, b.state)
	}

	entries, err := b.store.FetchIndex()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		b.index[entry.Hash] = &blockNode{
			hash:   entry.Hash,
			height: entry.Height,
			status: entry.Status,
		}
	}
	for _, entry := range entries {
		if entry.Height == 0 {
			continue
		}
		node := b.index[entry.Hash]
		parent, ok := b.index[entry.Parent]
		if !ok || parent.height != node.height-1 {
			return AssertError(fmt.Sprintf("block %v at height %d has "+
				"no parent %v in the index", entry.Hash, entry.Height,
				entry.Parent))
		}
		node.parent = parent
	}

	tipNode, ok := b.index[tip.Hash]
	if !ok || tipNode.height != tip.Height {
		return AssertError(fmt.Sprintf("tip %v at height %d is not in "+
			"the index", tip.Hash, tip.Height))
	}
	b.bestChain.setTip(tipNode)
	if genesis := b.bestChain.genesis(); genesis.hash != *b.params.GenesisHash {
		return fmt.Errorf("store belongs to the chain with genesis %v, "+
			"not %s", genesis.hash, b.params.Name)
	}

	b.state, err = b.store.FetchState()
	if err != nil {
		return err
	}

	// The retained undo records are the contiguous run below the tip.
	retained := 0
	for n := tipNode; n.parent != nil && int32(retained) < b.maxReorgDepth; n = n.parent {
		undo, err := b.store.FetchUndo(&n.hash)
		if errors.Is(err, database.ErrUndoNotFound) {
			break
		}
		if err != nil {
			return err
		}
		n.undo = undo
		retained++
	}
	log.Debugf("Loaded %d block index entries and %d undo records",
		len(entries), retained)
	return nil
}

// ProcessBlock is the main workhorse for handling insertion of new blocks
// into the block chain.  It performs the base chain sanity checks, adds the
// block to the index, and connects it to the main chain when it extends it,
// reorganizing when it makes a side chain the longest.  The returned bool
// reports whether the block ended up on the main chain.
//
// A block that violates the drivechain rules is marked invalid along with
// its descendants and the error is the drivechain.RuleError unchanged.
//
// This function is safe for concurrent access.
func (b *BlockChain) ProcessBlock(block *btcutil.Block) (bool, error) {
	b.processLock.Lock()
	defer b.processLock.Unlock()

	isMainChain, err := b.processBlock(block)
	b.flushNotifications()
	return isMainChain, err
}

// processBlock implements ProcessBlock with the chain lock held.
//
// This function MUST be called with the process lock held.
func (b *BlockChain) processBlock(block *btcutil.Block) (bool, error) {
	b.chainLock.Lock()
	defer b.chainLock.Unlock()

	hash := block.Hash()
	if _, ok := b.index[*hash]; ok {
		str := fmt.Sprintf("already have block %v", hash)
		return false, ruleError(ErrDuplicateBlock, str)
	}

	err := btcdchain.CheckBlockSanity(block, b.params.PowLimit, b.timeSource)
	if err != nil {
		str := fmt.Sprintf("block %v: %v", hash, err)
		return false, ruleError(ErrBlockSanity, str)
	}

	prevHash := &block.MsgBlock().Header.PrevBlock
	parent, ok := b.index[*prevHash]
	if !ok {
		str := fmt.Sprintf("previous block %v is unknown", prevHash)
		return false, ruleError(ErrMissingParent, str)
	}

	node := newBlockNode(hash, parent)
	if parent.knownInvalid() {
		node.status = database.StatusInvalid
	}
	if err := b.store.StoreBlock(block, node.indexEntry()); err != nil {
		return false, err
	}
	b.index[*hash] = node
	if node.knownInvalid() {
		str := fmt.Sprintf("previous block %v is known to be invalid",
			prevHash)
		return false, ruleError(ErrInvalidAncestorBlock, str)
	}

	tip := b.bestChain.tip()
	switch {
	case parent == tip:
		if err := b.connectBestChain(node, block); err != nil {
			return false, err
		}
		return true, nil

	// Ties keep the first seen chain.
	case node.height <= tip.height:
		fork := b.bestChain.findFork(node)
		log.Infof("Adding block %v to a side chain at height %d "+
			"(fork point %v at height %d)", hash, node.height,
			fork.hash, fork.height)
		return false, nil
	}

	if err := b.reorganizeChain(node, block); err != nil {
		return false, err
	}
	return true, nil
}

// markInvalid records that node failed validation.
func (b *BlockChain) markInvalid(node *blockNode) {
	node.status = database.StatusInvalid
	if err := b.store.StoreIndexEntry(node.indexEntry()); err != nil {
		log.Errorf("Unable to mark block %v invalid: %v", node.hash, err)
	}
}

// connectBestChain connects block, the child of the current tip, to the
// main chain.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) connectBestChain(node *blockNode, block *btcutil.Block) error {
	undo, err := b.state.ConnectBlock(block, node.height, b.dcParams)
	if err != nil {
		if IsAssertError(err) {
			return err
		}
		log.Infof("Rejected block %v at height %d: %v", node.hash,
			node.height, err)
		b.markInvalid(node)
		return err
	}
	return b.commitConnect(node, block, undo)
}

// commitConnect persists block, whose mutations are already applied to the
// registry, as the new tip and prunes the undo record that falls out of the
// retained depth.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) commitConnect(node *blockNode, block *btcutil.Block, undo *drivechain.UndoRecord) error {
	var prune *blockNode
	var pruneHash *chainhash.Hash
	if n := b.bestChain.nodeByHeight(node.height - b.maxReorgDepth); n != nil && n.undo != nil {
		prune = n
		pruneHash = &n.hash
	}

	err := b.store.ConnectBlock(block, node.indexEntry(), undo, b.state, pruneHash)
	if err != nil {
		if rerr := b.state.DisconnectBlock(undo); rerr != nil {
			return rerr
		}
		return err
	}
	node.undo = undo
	if prune != nil {
		prune.undo = nil
	}
	b.bestChain.setTip(node)

	b.progressLogger.LogBlockHeight(block, node.height, undo.Len())
	b.queueNotification(NTBlockConnected, &BlockNtfnsData{
		Block:    block,
		Height:   node.height,
		Snapshot: b.state.Snapshot(),
	})
	return nil
}

// disconnectTip disconnects the current tip from the main chain using its
// undo record.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) disconnectTip() error {
	node := b.bestChain.tip()
	if node.parent == nil {
		return AssertError("disconnectTip called on the genesis block")
	}
	if node.undo == nil {
		return AssertError(fmt.Sprintf("no undo record for block %v at "+
			"height %d", node.hash, node.height))
	}
	block, err := b.store.FetchBlock(&node.hash)
	if err != nil {
		return err
	}

	if err := b.state.DisconnectBlock(node.undo); err != nil {
		return err
	}
	err = b.store.DisconnectBlock(&node.hash, node.parent.tip(), b.state)
	if err != nil {
		if _, rerr := b.state.ConnectBlock(block, node.height, b.dcParams); rerr != nil {
			return AssertError(fmt.Sprintf("unable to reconnect block "+
				"%v: %v", node.hash, rerr))
		}
		return err
	}
	node.undo = nil
	b.bestChain.setTip(node.parent)

	log.Debugf("Disconnected block %v at height %d", node.hash, node.height)
	b.queueNotification(NTBlockDisconnected, &BlockNtfnsData{
		Block:    block,
		Height:   node.height,
		Snapshot: b.state.Snapshot(),
	})
	return nil
}

// reorganizeChain makes node, the tip of a side chain longer than the main
// chain, the new tip.  The whole switch is first validated against a copy
// of the registry, so a failing block leaves the main chain untouched and
// marks the failing block and its descendants on the branch invalid.
//
// This function MUST be called with the chain lock held (for writes).
func (b *BlockChain) reorganizeChain(node *blockNode, block *btcutil.Block) error {
	oldTip := b.bestChain.tip()
	fork := b.bestChain.findFork(node)
	if fork == nil {
		return AssertError(fmt.Sprintf("block %v shares no ancestor with "+
			"the main chain", node.hash))
	}

	var detach []*blockNode
	for n := oldTip; n != fork; n = n.parent {
		detach = append(detach, n)
	}
	attach := make([]*blockNode, node.height-fork.height)
	for n := node; n != fork; n = n.parent {
		attach[n.height-fork.height-1] = n
	}

	if int32(len(detach)) > b.maxReorgDepth {
		return AssertError(fmt.Sprintf("reorganization to %v disconnects "+
			"%d blocks, more than the %d retained", node.hash,
			len(detach), b.maxReorgDepth))
	}
	for _, n := range detach {
		if n.undo == nil {
			return AssertError(fmt.Sprintf("no undo record for block "+
				"%v at height %d", n.hash, n.height))
		}
	}
	for _, n := range attach {
		if n.knownInvalid() {
			str := fmt.Sprintf("block %v on the new branch is known "+
				"to be invalid", n.hash)
			return ruleError(ErrInvalidAncestorBlock, str)
		}
	}

	view := b.state.Clone()
	for _, n := range detach {
		if err := view.DisconnectBlock(n.undo); err != nil {
			return err
		}
	}
	blocks := make([]*btcutil.Block, len(attach))
	for i, n := range attach {
		blk := block
		if n != node {
			var err error
			blk, err = b.store.FetchBlock(&n.hash)
			if err != nil {
				return err
			}
		}
		if _, err := view.ConnectBlock(blk, n.height, b.dcParams); err != nil {
			if IsAssertError(err) {
				return err
			}
			log.Infof("Rejected block %v at height %d while "+
				"reorganizing: %v", n.hash, n.height, err)
			for _, m := range attach[i:] {
				b.markInvalid(m)
			}
			return err
		}
		blocks[i] = blk
	}

	for range detach {
		if err := b.disconnectTip(); err != nil {
			return err
		}
	}
	for i, n := range attach {
		undo, err := b.state.ConnectBlock(blocks[i], n.height, b.dcParams)
		if err != nil {
			return AssertError(fmt.Sprintf("validated block %v failed "+
				"to connect: %v", n.hash, err))
		}
		if err := b.commitConnect(n, blocks[i], undo); err != nil {
			return err
		}
	}

	log.Infof("REORGANIZE: Chain forks at %v (height %v)", fork.hash,
		fork.height)
	log.Infof("REORGANIZE: Old best chain head was %v (height %v)",
		oldTip.hash, oldTip.height)
	log.Infof("REORGANIZE: New best chain head is %v (height %v)",
		node.hash, node.height)

	b.queueNotification(NTReorganization, &ReorganizationNtfnsData{
		OldHash:   oldTip.hash,
		OldHeight: oldTip.height,
		NewHash:   node.hash,
		NewHeight: node.height,
	})
	return nil
}

// BestSnapshot returns information about the current best chain block.
//
// This function is safe for concurrent access.
func (b *BlockChain) BestSnapshot() *BestState {
	b.chainLock.RLock()
	tip := b.bestChain.tip()
	b.chainLock.RUnlock()
	return &BestState{Hash: tip.hash, Height: tip.height}
}

// HaveBlock returns whether or not the chain instance has the block
// represented by the passed hash, on the main chain or a side chain.
//
// This function is safe for concurrent access.
func (b *BlockChain) HaveBlock(hash *chainhash.Hash) bool {
	b.chainLock.RLock()
	_, ok := b.index[*hash]
	b.chainLock.RUnlock()
	return ok
}

// BlockHashByHeight returns the hash of the main chain block at height.
//
// This function is safe for concurrent access.
func (b *BlockChain) BlockHashByHeight(height int32) (*chainhash.Hash, error) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()

	node := b.bestChain.nodeByHeight(height)
	if node == nil {
		return nil, fmt.Errorf("no block at height %d exists", height)
	}
	hash := node.hash
	return &hash, nil
}

// DrivechainSnapshot returns the registry as of the current tip.
//
// This function is safe for concurrent access.
func (b *BlockChain) DrivechainSnapshot() *drivechain.Snapshot {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	return b.state.Snapshot()
}

// DrivechainParams returns the drivechain rule parameters in force.
func (b *BlockChain) DrivechainParams() *drivechain.Params {
	return b.dcParams
}

// TipState returns a private copy of the registry as of the current tip
// along with the tip itself.  Block templates are built on top of it.
//
// This function is safe for concurrent access.
func (b *BlockChain) TipState() (*drivechain.State, *BestState) {
	b.chainLock.RLock()
	defer b.chainLock.RUnlock()
	tip := b.bestChain.tip()
	return b.state.Clone(), &BestState{Hash: tip.hash, Height: tip.height}
}

// CheckTransaction checks a standalone, non-coinbase transaction against
// the base chain sanity rules and the drivechain rules as if it were
// included in the next block.  The registry is not changed.
//
// This function is safe for concurrent access.
func (b *BlockChain) CheckTransaction(tx *btcutil.Tx) error {
	if err := btcdchain.CheckTransactionSanity(tx); err != nil {
		str := fmt.Sprintf("transaction %v: %v", tx.Hash(), err)
		return ruleError(ErrTxSanity, str)
	}

	b.chainLock.RLock()
	state := b.state.Clone()
	height := b.bestChain.height() + 1
	b.chainLock.RUnlock()

	return state.CheckTransaction(tx.MsgTx(), height, false, b.dcParams)
}
