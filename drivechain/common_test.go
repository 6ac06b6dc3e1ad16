// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// regtestParams mirrors the regression test network rules.
var regtestParams = Params{
	VoteThreshold: 10,
	VoteWindow:    1000,
	Activation:    ActiveFrom(0),
}

// fundingCounter makes the outpoints spent by test transactions unique so
// every transaction gets its own hash.
var fundingCounter uint32

func newCoinbase(height int32, extra ...*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	sigScript := binary.LittleEndian.AppendUint32([]byte{txscript.OP_DATA_4},
		uint32(height))
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

func newBlock(txs ...*wire.MsgTx) *btcutil.Block {
	msg := &wire.MsgBlock{Header: wire.BlockHeader{Version: 1}}
	for _, tx := range txs {
		msg.AddTransaction(tx)
	}
	return btcutil.NewBlock(msg)
}

func payToNewKey(t *testing.T, amount btcutil.Amount) *wire.TxOut {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(key.PubKey().SerializeCompressed()),
		&chaincfg.RegressionNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return wire.NewTxOut(int64(amount), pkScript)
}

func depositOut(scid uint8, amount btcutil.Amount) *wire.TxOut {
	return wire.NewTxOut(int64(amount), DepositScript(scid))
}

func commitOut(scid uint8, hash chainhash.Hash) *wire.TxOut {
	return wire.NewTxOut(0, BundleCommitScript(scid, &hash))
}

func voteOut(scid uint8, hash chainhash.Hash) *wire.TxOut {
	return wire.NewTxOut(0, VoteScript(scid, &hash))
}

// executeTx builds the execute of a bundle with the given withdrawals,
// committing to hash, which may deliberately differ from theirs.
func executeTx(scid uint8, hash chainhash.Hash, withdrawals ...*wire.TxOut) *wire.MsgTx {
	outs := []*wire.TxOut{wire.NewTxOut(0,
		ExecuteScript(scid, &hash, uint32(len(withdrawals))))}
	return newSpend(append(outs, withdrawals...)...)
}

// testChain drives a State the way the chain does: one undo record per
// connected block and strict LIFO disconnection.
type testChain struct {
	t      *testing.T
	state  *State
	params Params
	undos  []*UndoRecord
}

func newTestChain(t *testing.T) *testChain {
	return &testChain{t: t, state: NewState(), params: regtestParams}
}

// height returns the height the next block connects at.
func (c *testChain) height() int32 {
	return int32(len(c.undos)) + 1
}

func (c *testChain) connect(txs ...*wire.MsgTx) error {
	return c.connectWithCoinbase(nil, txs...)
}

func (c *testChain) connectWithCoinbase(coinbaseExtra []*wire.TxOut, txs ...*wire.MsgTx) error {
	height := c.height()
	all := append([]*wire.MsgTx{newCoinbase(height, coinbaseExtra...)}, txs...)

	before := c.state.Serialize()
	undo, err := c.state.ConnectBlock(newBlock(all...), height, &c.params)
	if err != nil {
		require.Equalf(c.t, before, c.state.Serialize(), "failed block "+
			"changed the registry: %v", spew.Sdump(c.state.Snapshot()))
		return err
	}
	c.undos = append(c.undos, undo)
	return nil
}

func (c *testChain) mustConnect(txs ...*wire.MsgTx) {
	c.t.Helper()
	require.NoError(c.t, c.connect(txs...))
}

func (c *testChain) mineVotes(scid uint8, hash chainhash.Hash, n int) {
	c.t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(c.t, c.connectWithCoinbase(
			[]*wire.TxOut{voteOut(scid, hash)}))
	}
}

func (c *testChain) disconnect() {
	c.t.Helper()
	last := len(c.undos) - 1
	require.NoError(c.t, c.state.DisconnectBlock(c.undos[last]))
	c.undos = c.undos[:last]
}

func (c *testChain) bundle(scid uint8, hash chainhash.Hash) Bundle {
	c.t.Helper()
	b, ok := c.state.LookupBundle(scid, &hash)
	require.Truef(c.t, ok, "bundle %v of sidechain %d missing", hash, scid)
	return b
}

func (c *testChain) escrow(scid uint8) int64 {
	c.t.Helper()
	sc, ok := c.state.LookupSidechain(scid)
	require.Truef(c.t, ok, "sidechain %d missing", scid)
	return sc.EscrowBalance
}
