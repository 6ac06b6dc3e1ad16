// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"fmt"
	"time"

	btcdchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/blockchain"
	"github.com/drivechaind/drivechaind/drivechain"
)

const (
	// generatedBlockVersion is the version of the block being generated.
	generatedBlockVersion = 0x20000000
)

// TxDesc is a descriptor about a transaction in a transaction source along with
// additional metadata.
type TxDesc struct {
	// Tx is the transaction associated with the entry.
	Tx *btcutil.Tx

	// Added is the time when the entry was added to the source pool.
	Added time.Time

	// Height is the block height when the entry was added to the the source
	// pool.
	Height int32
}

// TxSource represents a source of transactions to consider for inclusion in
// new blocks.
//
// The interface contract requires that all of these methods are safe for
// concurrent access with respect to the source.
type TxSource interface {
	// MiningDescs returns a slice of mining descriptors for all the
	// transactions in the source pool, oldest first.
	MiningDescs() []*TxDesc

	// HaveTransaction returns whether or not the passed transaction hash
	// exists in the source pool.
	HaveTransaction(hash *chainhash.Hash) bool
}

// Vote selects a bundle the coinbase of a template votes for.
type Vote struct {
	Sidechain uint8
	Hash      chainhash.Hash
}

// BlockTemplate houses a block that has yet to be solved along with
// additional details about the registry changes it makes.
type BlockTemplate struct {
	// Block is a block that is ready to be solved by miners.  Thus, it is
	// completely valid with the exception of satisfying the proof-of-work
	// requirement.
	Block *wire.MsgBlock

	// Height is the height at which the block template connects to the main
	// chain.
	Height int32

	// Mutations is the number of registry changes connecting the block
	// makes.
	Mutations int
}

// standardCoinbaseScript returns a standard script suitable for use as the
// signature script of the coinbase transaction of a new block.  In particular,
// it starts with the block height that is required by version 2 blocks and adds
// the extra nonce as well as additional coinbase flags.
func standardCoinbaseScript(nextBlockHeight int32, extraNonce uint64) ([]byte, error) {
	return txscript.NewScriptBuilder().AddInt64(int64(nextBlockHeight)).
		AddInt64(int64(extraNonce)).AddData([]byte(coinbaseFlags)).
		Script()
}

// createCoinbaseTx returns a coinbase transaction paying an appropriate subsidy
// based on the passed block height to the provided address, followed by one
// output per vote.  When the address is nil, the coinbase can be redeemed by
// anyone.
func createCoinbaseTx(params *chaincfg.Params, coinbaseScript []byte, nextBlockHeight int32, addr btcutil.Address, votes []Vote) (*btcutil.Tx, error) {
	var pkScript []byte
	if addr != nil {
		var err error
		pkScript, err = txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		scriptBuilder := txscript.NewScriptBuilder()
		pkScript, err = scriptBuilder.AddOp(txscript.OP_TRUE).Script()
		if err != nil {
			return nil, err
		}
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		// Coinbase transactions have no inputs, so previous outpoint is
		// zero hash and max index.
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: coinbaseScript,
		Sequence:        wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{
		Value:    btcdchain.CalcBlockSubsidy(nextBlockHeight, params),
		PkScript: pkScript,
	})
	for i := range votes {
		script := drivechain.VoteScript(votes[i].Sidechain, &votes[i].Hash)
		tx.AddTxOut(wire.NewTxOut(0, script))
	}
	return btcutil.NewTx(tx), nil
}

// BlkTmplGenerator provides a type that can be used to generate block templates
// based on a given mining policy and source of transactions to choose from.
// It also houses additional state required in order to ensure the templates
// are built on top of the current best chain and adhere to the consensus rules.
type BlkTmplGenerator struct {
	policy      *Policy
	chainParams *chaincfg.Params
	txSource    TxSource
	chain       *blockchain.BlockChain
}

// NewBlkTmplGenerator returns a new block template generator for the given
// policy using transactions from the provided transaction source.
func NewBlkTmplGenerator(policy *Policy, params *chaincfg.Params,
	txSource TxSource, chain *blockchain.BlockChain) *BlkTmplGenerator {

	return &BlkTmplGenerator{
		policy:      policy,
		chainParams: params,
		txSource:    txSource,
		chain:       chain,
	}
}

// NewBlockTemplate returns a new block template on top of the current tip
// paying to the passed address, or to an anyone-can-spend script when it is
// nil, with a coinbase carrying the passed votes.
//
// Votes for unknown or approved bundles are carried but have no effect.
// Transactions are taken from the source oldest first and skipped when they
// conflict with an earlier transaction of the template, would exceed the
// maximum block weight, or no longer pass the drivechain rules.
func (g *BlkTmplGenerator) NewBlockTemplate(payToAddress btcutil.Address, votes []Vote) (*BlockTemplate, error) {
	state, best := g.chain.TipState()
	nextBlockHeight := best.Height + 1
	dcParams := g.chain.DrivechainParams()

	coinbaseScript, err := standardCoinbaseScript(nextBlockHeight, 0)
	if err != nil {
		return nil, err
	}
	coinbaseTx, err := createCoinbaseTx(g.chainParams, coinbaseScript,
		nextBlockHeight, payToAddress, votes)
	if err != nil {
		return nil, err
	}

	var undo drivechain.UndoRecord
	err = state.ConnectTransaction(coinbaseTx.MsgTx(), nextBlockHeight, true,
		dcParams, &undo)
	if err != nil {
		return nil, fmt.Errorf("votes are not valid at height %d: %w",
			nextBlockHeight, err)
	}

	blockTxns := []*btcutil.Tx{coinbaseTx}
	blockWeight := int64(blockHeaderOverhead) + btcdchain.GetTransactionWeight(coinbaseTx)
	spent := make(map[wire.OutPoint]struct{})
	maxWeight := g.policy.maxWeight()

mempoolLoop:
	for _, desc := range g.txSource.MiningDescs() {
		tx := desc.Tx
		if btcdchain.IsCoinBase(tx) {
			continue
		}

		txWeight := btcdchain.GetTransactionWeight(tx)
		if blockWeight+txWeight > maxWeight {
			log.Tracef("Skipping tx %s because it would exceed the "+
				"max block weight", tx.Hash())
			continue
		}
		for _, txIn := range tx.MsgTx().TxIn {
			if _, ok := spent[txIn.PreviousOutPoint]; ok {
				log.Tracef("Skipping tx %s because it double spends "+
					"%v", tx.Hash(), txIn.PreviousOutPoint)
				continue mempoolLoop
			}
		}

		err := state.ConnectTransaction(tx.MsgTx(), nextBlockHeight, false,
			dcParams, &undo)
		if err != nil {
			log.Debugf("Skipping tx %s: %v", tx.Hash(), err)
			continue
		}

		for _, txIn := range tx.MsgTx().TxIn {
			spent[txIn.PreviousOutPoint] = struct{}{}
		}
		blockWeight += txWeight
		blockTxns = append(blockTxns, tx)
	}

	// Never produce a timestamp at or before the genesis block's, and
	// only with the one second precision the header encodes.
	ts := time.Unix(time.Now().Unix(), 0)
	if genesisTime := g.chainParams.GenesisBlock.Header.Timestamp; !ts.After(genesisTime) {
		ts = genesisTime.Add(time.Second)
	}

	merkles := btcdchain.BuildMerkleTreeStore(blockTxns, false)
	var msgBlock wire.MsgBlock
	msgBlock.Header = wire.BlockHeader{
		Version:    generatedBlockVersion,
		PrevBlock:  best.Hash,
		MerkleRoot: *merkles[len(merkles)-1],
		Timestamp:  ts,
		Bits:       g.chainParams.PowLimitBits,
	}
	for _, tx := range blockTxns {
		if err := msgBlock.AddTransaction(tx.MsgTx()); err != nil {
			return nil, err
		}
	}

	log.Debugf("Created new block template (%d transactions, %d registry "+
		"changes, weight %d) at height %d", len(blockTxns), undo.Len(),
		blockWeight, nextBlockHeight)

	return &BlockTemplate{
		Block:     &msgBlock,
		Height:    nextBlockHeight,
		Mutations: undo.Len(),
	}, nil
}

// blockHeaderOverhead is the max number of bytes it takes to serialize a
// block header and max possible transaction count, scaled to weight.
const blockHeaderOverhead = (wire.MaxBlockHeaderPayload + wire.MaxVarIntPayload) *
	btcdchain.WitnessScaleFactor

// UpdateExtraNonce updates the extra nonce in the coinbase script of the passed
// block by regenerating the coinbase script with the passed value and block
// height.  It also recalculates and updates the new merkle root that results
// from changing the coinbase script.
func (g *BlkTmplGenerator) UpdateExtraNonce(msgBlock *wire.MsgBlock, blockHeight int32, extraNonce uint64) error {
	coinbaseScript, err := standardCoinbaseScript(blockHeight, extraNonce)
	if err != nil {
		return err
	}
	msgBlock.Transactions[0].TxIn[0].SignatureScript = coinbaseScript

	// Recalculate the merkle root with the updated extra nonce.
	block := btcutil.NewBlock(msgBlock)
	merkles := btcdchain.BuildMerkleTreeStore(block.Transactions(), false)
	msgBlock.Header.MerkleRoot = *merkles[len(merkles)-1]
	return nil
}

// BestSnapshot returns information about the current best chain block.
func (g *BlkTmplGenerator) BestSnapshot() *blockchain.BestState {
	return g.chain.BestSnapshot()
}

// TxSource returns the associated transaction source.
func (g *BlkTmplGenerator) TxSource() TxSource {
	return g.txSource
}
