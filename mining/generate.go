// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"errors"
	"fmt"
	"sync"

	btcdchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// maxNonce is the maximum value a nonce can be in a block header.
	maxNonce = ^uint32(0) // 2^32 - 1

	// maxExtraNonce is the maximum value an extra nonce used in a coinbase
	// transaction can be.
	maxExtraNonce = ^uint64(0) // 2^64 - 1
)

// ErrStaleTemplate is returned by GenerateNBlocks when the tip changed
// while a template was being solved.
var ErrStaleTemplate = errors.New("block template went stale")

// SolveBlock attempts to find some combination of a nonce and extra nonce
// which satisfies the target difficulty of the header.  It returns false when
// quit is closed before a solution is found.
func (g *BlkTmplGenerator) SolveBlock(msgBlock *wire.MsgBlock, blockHeight int32, quit <-chan struct{}) bool {
	// Choose a random extra nonce offset for this block template.
	enOffset, err := wire.RandomUint64()
	if err != nil {
		log.Errorf("Unexpected error while generating random "+
			"extra nonce offset: %v", err)
		enOffset = 0
	}

	header := &msgBlock.Header
	targetDifficulty := btcdchain.CompactToBig(header.Bits)

	// Note that the entire extra nonce range is iterated and the offset is
	// added relying on the fact that overflow will wrap around 0.
	for extraNonce := uint64(0); extraNonce < maxExtraNonce; extraNonce++ {
		err := g.UpdateExtraNonce(msgBlock, blockHeight, extraNonce+enOffset)
		if err != nil {
			log.Errorf("Unable to update extra nonce: %v", err)
			return false
		}

		for i := uint32(0); i <= maxNonce; i++ {
			select {
			case <-quit:
				return false
			default:
			}

			header.Nonce = i
			hash := header.BlockHash()
			if btcdchain.HashToBig(&hash).Cmp(targetDifficulty) <= 0 {
				return true
			}
			if i == maxNonce {
				break
			}
		}
	}

	return false
}

// generateLock serializes GenerateNBlocks so two callers never build
// templates on the same tip.
var generateLock sync.Mutex

// GenerateNBlocks builds, solves and processes n blocks in a row, each
// voting for votes, and returns their hashes.  Processing a block removes
// its transactions from the source through the chain notifications.
func (g *BlkTmplGenerator) GenerateNBlocks(n uint32, payToAddress btcutil.Address, votes []Vote, quit <-chan struct{}) ([]*chainhash.Hash, error) {
	generateLock.Lock()
	defer generateLock.Unlock()

	log.Tracef("Generating %d blocks", n)

	blockHashes := make([]*chainhash.Hash, 0, n)
	for uint32(len(blockHashes)) < n {
		template, err := g.NewBlockTemplate(payToAddress, votes)
		if err != nil {
			return blockHashes, fmt.Errorf("failed to create new "+
				"block template: %w", err)
		}
		if !g.SolveBlock(template.Block, template.Height, quit) {
			return blockHashes, errors.New("block generation interrupted")
		}

		block := btcutil.NewBlock(template.Block)
		isMainChain, err := g.chain.ProcessBlock(block)
		if err != nil {
			return blockHashes, fmt.Errorf("generated block %v rejected: "+
				"%w", block.Hash(), err)
		}
		if !isMainChain {
			return blockHashes, ErrStaleTemplate
		}

		log.Infof("Generated block %v at height %d (%d transactions)",
			block.Hash(), template.Height, len(template.Block.Transactions))
		blockHashes = append(blockHashes, block.Hash())
	}

	log.Tracef("Generated %d blocks", n)
	return blockHashes, nil
}
