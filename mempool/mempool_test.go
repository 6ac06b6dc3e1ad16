// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/blockchain"
	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/drivechaind/drivechaind/mining"
	"github.com/drivechaind/drivechaind/netparams"
	"github.com/stretchr/testify/require"
)

// poolHarness wires a pool to a chain the way the server does and mines
// blocks out of the pool.
type poolHarness struct {
	t     *testing.T
	chain *blockchain.BlockChain
	pool  *TxPool
	gen   *mining.BlkTmplGenerator
}

func newPoolHarness(t *testing.T, policy Policy) *poolHarness {
	t.Helper()

	store, err := database.Open(database.TypeBolt, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	params := &netparams.RegressionNetParams
	chain, err := blockchain.New(&blockchain.Config{
		Params: params,
		Store:  store,
	})
	require.NoError(t, err)

	pool := New(&Config{
		Policy:      policy,
		ChainParams: params.Params,
		BestHeight: func() int32 {
			return chain.BestSnapshot().Height
		},
		CheckTransaction: chain.CheckTransaction,
	})
	chain.Subscribe(func(n *blockchain.Notification) {
		switch n.Type {
		case blockchain.NTBlockConnected:
			data := n.Data.(*blockchain.BlockNtfnsData)
			pool.HandleConnectedBlock(data.Block)
		case blockchain.NTBlockDisconnected:
			data := n.Data.(*blockchain.BlockNtfnsData)
			pool.HandleDisconnectedBlock(data.Block)
		}
	})

	return &poolHarness{
		t:     t,
		chain: chain,
		pool:  pool,
		gen:   mining.NewBlkTmplGenerator(&mining.Policy{}, params.Params, pool, chain),
	}
}

func defaultPolicy() Policy {
	return Policy{
		MaxTxVersion:  2,
		MinRelayTxFee: DefaultMinRelayTxFee,
	}
}

// mine generates n blocks from the pool, each carrying votes.
func (h *poolHarness) mine(n uint32, votes ...mining.Vote) {
	h.t.Helper()

	_, err := h.gen.GenerateNBlocks(n, nil, votes, nil)
	require.NoError(h.t, err)
}

func (h *poolHarness) accept(tx *wire.MsgTx) {
	h.t.Helper()

	_, err := h.pool.ProcessTransaction(btcutil.NewTx(tx))
	require.NoError(h.t, err)
}

// requireReject processes tx and checks it is rejected with reason.
func (h *poolHarness) requireReject(tx *wire.MsgTx, reason string) {
	h.t.Helper()

	_, err := h.pool.ProcessTransaction(btcutil.NewTx(tx))
	require.Error(h.t, err)
	var txErr TxRuleError
	require.True(h.t, errors.As(err, &txErr), "unexpected error %v", err)
	require.Equal(h.t, reason, txErr.Reason)
}

var prevCounter uint32

func spendOutpoint(prev *wire.OutPoint, outs ...*wire.TxOut) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(prev, nil, nil))
	for _, out := range outs {
		tx.AddTxOut(out)
	}
	return tx
}

func spendTx(outs ...*wire.TxOut) *wire.MsgTx {
	prevCounter++
	var prev chainhash.Hash
	binary.LittleEndian.PutUint32(prev[:], prevCounter)
	return spendOutpoint(wire.NewOutPoint(&prev, 0), outs...)
}

func txHash(tx *wire.MsgTx) *chainhash.Hash {
	hash := tx.TxHash()
	return &hash
}

func payTo(t *testing.T, seed byte, amount int64) *wire.TxOut {
	t.Helper()

	var pkHash [20]byte
	pkHash[0] = seed
	addr, err := btcutil.NewAddressPubKeyHash(pkHash[:],
		netparams.RegressionNetParams.Params)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return wire.NewTxOut(amount, pkScript)
}

func executeTx(scid uint8, withdrawals ...*wire.TxOut) *wire.MsgTx {
	hash := drivechain.CalcBundleHash(withdrawals)
	tx := spendTx(wire.NewTxOut(0, drivechain.ExecuteScript(scid, &hash,
		uint32(len(withdrawals)))))
	for _, out := range withdrawals {
		tx.AddTxOut(out)
	}
	return tx
}

// approvedBundle funds sidechain scid, commits to withdrawals and mines the
// votes approving them.
func (h *poolHarness) approvedBundle(scid uint8, withdrawals []*wire.TxOut) chainhash.Hash {
	h.t.Helper()

	hash := drivechain.CalcBundleHash(withdrawals)
	h.accept(spendTx(wire.NewTxOut(5e8, drivechain.DepositScript(scid))))
	h.accept(spendTx(wire.NewTxOut(0, drivechain.BundleCommitScript(scid, &hash))))
	h.mine(1)
	require.Zero(h.t, h.pool.Count())

	threshold := netparams.RegressionNetParams.BundleVoteThreshold
	h.mine(threshold, mining.Vote{Sidechain: scid, Hash: hash})
	bundle := h.chain.DrivechainSnapshot().Sidechain(scid).Bundle(&hash)
	require.NotNil(h.t, bundle)
	require.True(h.t, bundle.Approved)
	return hash
}

// TestPoolLifecycle moves a bundle execution through the pool into a block.
func TestPoolLifecycle(t *testing.T) {
	h := newPoolHarness(t, defaultPolicy())

	withdrawals := []*wire.TxOut{payTo(t, 1, 2e8), payTo(t, 2, 1e8)}
	hash := h.approvedBundle(4, withdrawals)

	exec := executeTx(4, withdrawals...)
	h.accept(exec)
	require.True(t, h.pool.HaveTransaction(txHash(exec)))
	descs := h.pool.TxDescs()
	require.Len(t, descs, 1)
	require.NotNil(t, descs[0].Execute)
	require.Equal(t, hash, descs[0].Execute.Hash)

	// A second execution of the same bundle waits for the first.
	h.requireReject(executeTx(4, withdrawals...), "dc-exec-pending")

	h.mine(1)
	require.Zero(t, h.pool.Count())
	snap := h.chain.DrivechainSnapshot().Sidechain(4)
	require.True(t, snap.Bundle(&hash).Executed)
	require.Equal(t, int64(2e8), snap.EscrowBalance)

	h.requireReject(executeTx(4, withdrawals...), "dc-exec-already-executed")
}

func TestPoolRejects(t *testing.T) {
	h := newPoolHarness(t, defaultPolicy())

	deposit := spendTx(wire.NewTxOut(1e8, drivechain.DepositScript(2)))
	h.accept(deposit)
	h.requireReject(deposit, "txn-already-in-mempool")

	conflict := spendOutpoint(&deposit.TxIn[0].PreviousOutPoint,
		wire.NewTxOut(2e8, drivechain.DepositScript(2)))
	h.requireReject(conflict, "txn-mempool-conflict")

	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: []byte{txscript.OP_1, txscript.OP_1},
	})
	coinbase.AddTxOut(payTo(t, 1, 1e8))
	h.requireReject(coinbase, "coinbase")

	vote := spendTx(wire.NewTxOut(0, drivechain.VoteScript(2, &chainhash.Hash{})))
	h.requireReject(vote, "dc-vote-not-coinbase")
	h.requireReject(spendTx(wire.NewTxOut(0, []byte{drivechain.OP_DRIVECHAIN, 0x01})),
		"dc-malformed-script")

	withdrawals := []*wire.TxOut{payTo(t, 3, 5e7)}
	exec := executeTx(2, withdrawals...)
	h.requireReject(exec, "dc-exec-not-approved")
	require.True(t, h.pool.WasRecentlyRejected(txHash(exec)))
	h.requireReject(exec, "txn-recently-rejected")

	// Connecting a block forgets the rejections.
	h.mine(1)
	require.False(t, h.pool.WasRecentlyRejected(txHash(exec)))
	h.requireReject(exec, "dc-exec-not-approved")

	// Duplicates are not remembered.
	require.False(t, h.pool.WasRecentlyRejected(txHash(deposit)))
}

func TestPoolStandardness(t *testing.T) {
	dust := spendTx(wire.NewTxOut(1e8, drivechain.DepositScript(1)),
		wire.NewTxOut(1, []byte{txscript.OP_DUP, txscript.OP_HASH160,
			txscript.OP_DATA_20, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13,
			14, 15, 16, 17, 18, 19, 20, txscript.OP_EQUALVERIFY,
			txscript.OP_CHECKSIG}))

	h := newPoolHarness(t, defaultPolicy())
	h.requireReject(dust, "dust")

	nonStd := defaultPolicy()
	nonStd.AcceptNonStd = true
	h = newPoolHarness(t, nonStd)
	h.accept(dust)
}

// TestPoolEviction checks pending transactions the new tip invalidates are
// evicted.
func TestPoolEviction(t *testing.T) {
	h := newPoolHarness(t, defaultPolicy())

	withdrawals := []*wire.TxOut{payTo(t, 1, 2e8)}
	hash := h.approvedBundle(6, withdrawals)

	pending := executeTx(6, withdrawals...)
	h.accept(pending)

	// Another execution of the bundle is mined without the pool.
	source := &staticSource{txs: []*btcutil.Tx{btcutil.NewTx(executeTx(6, withdrawals...))}}
	params := &netparams.RegressionNetParams
	gen := mining.NewBlkTmplGenerator(&mining.Policy{}, params.Params, source,
		h.chain)
	_, err := gen.GenerateNBlocks(1, nil, nil, nil)
	require.NoError(t, err)

	require.True(t, h.chain.DrivechainSnapshot().Sidechain(6).Bundle(&hash).Executed)
	require.Zero(t, h.pool.Count())
}

func TestHandleDisconnectedBlock(t *testing.T) {
	h := newPoolHarness(t, defaultPolicy())

	deposit := spendTx(wire.NewTxOut(1e8, drivechain.DepositScript(2)))
	vote := spendTx(wire.NewTxOut(0, drivechain.VoteScript(2, &chainhash.Hash{})))
	block := btcutil.NewBlock(&wire.MsgBlock{
		Transactions: []*wire.MsgTx{wire.NewMsgTx(1), deposit, vote},
	})

	h.pool.HandleDisconnectedBlock(block)
	require.Equal(t, 1, h.pool.Count())
	require.True(t, h.pool.IsTransactionInPool(txHash(deposit)))

	tx, err := h.pool.FetchTransaction(txHash(deposit))
	require.NoError(t, err)
	require.Equal(t, deposit.TxHash(), *tx.Hash())
	_, err = h.pool.FetchTransaction(txHash(vote))
	require.Error(t, err)

	h.pool.RemoveTransaction(tx, true)
	require.Zero(t, h.pool.Count())
	require.Empty(t, h.pool.TxHashes())
}

func TestErrToRejectErr(t *testing.T) {
	code, reason := ErrToRejectErr(txRuleError(wire.RejectDuplicate,
		"dc-exec-pending", "pending"))
	require.Equal(t, wire.RejectDuplicate, code)
	require.Equal(t, "dc-exec-pending", reason)

	rerr := wrapRuleError(drivechain.RuleError{
		ErrorCode:   drivechain.ErrExecHashMismatch,
		Description: "mismatch",
	})
	code, reason = ErrToRejectErr(rerr)
	require.Equal(t, wire.RejectInvalid, code)
	require.Equal(t, "dc-exec-withdrawals-hash-mismatch", reason)
	require.True(t, drivechain.IsErrorCode(rerr, drivechain.ErrExecHashMismatch))

	_, reason = ErrToRejectErr(wrapRuleError(blockchain.RuleError{
		ErrorCode:   blockchain.ErrTxSanity,
		Description: "bad",
	}))
	require.Equal(t, "bad-txns", reason)

	_, reason = ErrToRejectErr(errors.New("boom"))
	require.Equal(t, "rejected: boom", reason)
}

// staticSource is a mining.TxSource with a fixed content.
type staticSource struct {
	txs []*btcutil.Tx
}

func (s *staticSource) MiningDescs() []*mining.TxDesc {
	descs := make([]*mining.TxDesc, 0, len(s.txs))
	for _, tx := range s.txs {
		descs = append(descs, &mining.TxDesc{Tx: tx})
	}
	return descs
}

func (s *staticSource) HaveTransaction(hash *chainhash.Hash) bool {
	for _, tx := range s.txs {
		if tx.Hash().IsEqual(hash) {
			return true
		}
	}
	return false
}
