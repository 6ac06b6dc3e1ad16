// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	btcdchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/drivechaind/drivechaind/netparams"
	"github.com/stretchr/testify/require"
)

// testBlockTime is the timestamp of the genesis child in generated chains.
var testBlockTime = time.Unix(1700000000, 0)

// fundingCounter makes the outpoints spent by test transactions unique so
// every transaction gets its own hash.
var fundingCounter uint32

// chainHarness drives a BlockChain backed by a store in a temporary
// directory and records every notification it sends.
type chainHarness struct {
	t      *testing.T
	dir    string
	params *netparams.Params
	depth  int32
	store  *database.Store
	chain  *BlockChain
	ntfns  []*Notification
}

func newChainHarness(t *testing.T, maxReorgDepth int32) *chainHarness {
	t.Helper()

	params := netparams.RegressionNetParams
	h := &chainHarness{
		t:      t,
		dir:    t.TempDir(),
		params: &params,
		depth:  maxReorgDepth,
	}
	h.open()
	t.Cleanup(func() {
		if h.store != nil {
			h.store.Close()
		}
	})
	return h
}

// open opens the store and loads a chain from it.
func (h *chainHarness) open() {
	h.t.Helper()

	store, err := database.Open(database.TypeBolt, h.dir)
	require.NoError(h.t, err)
	chain, err := New(&Config{
		Params:        h.params,
		Store:         store,
		MaxReorgDepth: h.depth,
	})
	require.NoError(h.t, err)
	chain.Subscribe(func(n *Notification) {
		h.ntfns = append(h.ntfns, n)
	})
	h.store, h.chain, h.ntfns = store, chain, nil
}

// restart closes the store and loads the chain again.
func (h *chainHarness) restart() {
	h.t.Helper()

	require.NoError(h.t, h.store.Close())
	h.store = nil
	h.open()
}

// ntfnTypes returns the types of the recorded notifications and resets the
// record.
func (h *chainHarness) ntfnTypes() []NotificationType {
	types := make([]NotificationType, 0, len(h.ntfns))
	for _, n := range h.ntfns {
		types = append(types, n.Type)
	}
	h.ntfns = nil
	return types
}

func newCoinbase(height int32, extraNonce byte, extra ...*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	sigScript := binary.LittleEndian.AppendUint32([]byte{txscript.OP_DATA_4},
		uint32(height))
	sigScript = append(sigScript, txscript.OP_DATA_1, extraNonce)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: sigScript,
		Sequence:        wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(wire.NewTxOut(50*btcutil.SatoshiPerBitcoin,
		[]byte{txscript.OP_TRUE}))
	for _, out := range extra {
		tx.AddTxOut(out)
	}
	return tx
}

func newSpend(outs ...*wire.TxOut) *wire.MsgTx {
	fundingCounter++
	var prev chainhash.Hash
	binary.LittleEndian.PutUint32(prev[:], fundingCounter)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev, 0), nil, nil))
	for _, out := range outs {
		tx.AddTxOut(out)
	}
	return tx
}

// solveHeader grinds the nonce until the header hash meets its target.
// The regression test target is met by about every other hash.
func solveHeader(header *wire.BlockHeader) {
	target := btcdchain.CompactToBig(header.Bits)
	for nonce := uint32(0); ; nonce++ {
		header.Nonce = nonce
		hash := header.BlockHash()
		if btcdchain.HashToBig(&hash).Cmp(target) <= 0 {
			return
		}
	}
}

// blockParts describes a generated block.  extraNonce separates otherwise
// identical blocks on competing branches.
type blockParts struct {
	extraNonce byte
	coinbase   []*wire.TxOut
	txs        []*wire.MsgTx
}

// makeBlock returns a solved block on top of parent.
func (h *chainHarness) makeBlock(parent *chainhash.Hash, height int32, parts blockParts) *btcutil.Block {
	txns := []*btcutil.Tx{btcutil.NewTx(newCoinbase(height, parts.extraNonce,
		parts.coinbase...))}
	for _, tx := range parts.txs {
		txns = append(txns, btcutil.NewTx(tx))
	}
	merkles := btcdchain.BuildMerkleTreeStore(txns, false)

	msg := &wire.MsgBlock{Header: wire.BlockHeader{
		Version:    4,
		PrevBlock:  *parent,
		MerkleRoot: *merkles[len(merkles)-1],
		Timestamp:  testBlockTime.Add(time.Duration(height) * time.Minute),
		Bits:       h.params.PowLimitBits,
	}}
	for _, tx := range txns {
		msg.AddTransaction(tx.MsgTx())
	}
	solveHeader(&msg.Header)
	return btcutil.NewBlock(msg)
}

// extend builds a block on the current tip and processes it, which must
// succeed and connect it.
func (h *chainHarness) extend(parts blockParts) *btcutil.Block {
	h.t.Helper()

	best := h.chain.BestSnapshot()
	block := h.makeBlock(&best.Hash, best.Height+1, parts)
	isMainChain, err := h.chain.ProcessBlock(block)
	require.NoError(h.t, err)
	require.True(h.t, isMainChain)
	return block
}

// branch builds n empty blocks on top of parent at height parentHeight and
// processes them in order, returning the blocks.
func (h *chainHarness) branch(parent *chainhash.Hash, parentHeight int32, n int, extraNonce byte) []*btcutil.Block {
	h.t.Helper()

	blocks := make([]*btcutil.Block, 0, n)
	for i := 1; i <= n; i++ {
		block := h.makeBlock(parent, parentHeight+int32(i),
			blockParts{extraNonce: extraNonce})
		_, err := h.chain.ProcessBlock(block)
		require.NoError(h.t, err)
		blocks = append(blocks, block)
		parent = block.Hash()
	}
	return blocks
}

func payToNewKey(t *testing.T, amount btcutil.Amount) *wire.TxOut {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(key.PubKey().SerializeCompressed()),
		netparams.RegressionNetParams.Params)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return wire.NewTxOut(int64(amount), pkScript)
}

func depositOut(scid uint8, amount btcutil.Amount) *wire.TxOut {
	return wire.NewTxOut(int64(amount), drivechain.DepositScript(scid))
}

func commitOut(scid uint8, hash *chainhash.Hash) *wire.TxOut {
	return wire.NewTxOut(0, drivechain.BundleCommitScript(scid, hash))
}

func voteOut(scid uint8, hash *chainhash.Hash) *wire.TxOut {
	return wire.NewTxOut(0, drivechain.VoteScript(scid, hash))
}

// executeTx returns a transaction paying withdrawals out of the escrow of
// scid under the bundle they commit to.
func executeTx(scid uint8, withdrawals ...*wire.TxOut) *wire.MsgTx {
	hash := drivechain.CalcBundleHash(withdrawals)
	tx := newSpend(wire.NewTxOut(0, drivechain.ExecuteScript(scid, &hash,
		uint32(len(withdrawals)))))
	for _, out := range withdrawals {
		tx.AddTxOut(out)
	}
	return tx
}

// approveBundle mines enough vote blocks for the bundle to be approved.
func (h *chainHarness) approveBundle(scid uint8, hash *chainhash.Hash) {
	h.t.Helper()

	for i := uint32(0); i < h.params.BundleVoteThreshold; i++ {
		h.extend(blockParts{coinbase: []*wire.TxOut{voteOut(scid, hash)}})
	}
}
