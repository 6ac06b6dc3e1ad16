// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/stretchr/testify/require"
)

// TestCheckTransactionStandard tests the CheckTransactionStandard API.
func TestCheckTransactionStandard(t *testing.T) {
	p2pkh := payTo(t, 9, 1e6)
	nullData, err := txscript.NullDataScript([]byte("drivechain"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		tx     func() *wire.MsgTx
		reason string // empty when standard
	}{{
		name: "pay to pubkey hash",
		tx:   func() *wire.MsgTx { return spendTx(p2pkh) },
	}, {
		name: "drivechain outputs are exempt",
		tx: func() *wire.MsgTx {
			return spendTx(wire.NewTxOut(0, drivechain.BundleCommitScript(1,
				&chainhash.Hash{})), wire.NewTxOut(0, []byte{drivechain.OP_DRIVECHAIN}))
		},
	}, {
		name: "version too new",
		tx: func() *wire.MsgTx {
			tx := spendTx(p2pkh)
			tx.Version = 3
			return tx
		},
		reason: "version",
	}, {
		name: "version zero",
		tx: func() *wire.MsgTx {
			tx := spendTx(p2pkh)
			tx.Version = 0
			return tx
		},
		reason: "version",
	}, {
		name: "signature script too big",
		tx: func() *wire.MsgTx {
			tx := spendTx(p2pkh)
			tx.TxIn[0].SignatureScript = bytes.Repeat([]byte{txscript.OP_0},
				maxStandardSigScriptSize+1)
			return tx
		},
		reason: "scriptsig-size",
	}, {
		name: "signature script not push only",
		tx: func() *wire.MsgTx {
			tx := spendTx(p2pkh)
			tx.TxIn[0].SignatureScript = []byte{txscript.OP_CHECKSIGVERIFY}
			return tx
		},
		reason: "scriptsig-not-pushonly",
	}, {
		name: "non-standard output",
		tx: func() *wire.MsgTx {
			return spendTx(wire.NewTxOut(1e6, []byte{txscript.OP_TRUE}))
		},
		reason: "scriptpubkey",
	}, {
		name: "dust output",
		tx: func() *wire.MsgTx {
			return spendTx(payTo(t, 9, 500))
		},
		reason: "dust",
	}, {
		name: "one null data output",
		tx: func() *wire.MsgTx {
			return spendTx(p2pkh, wire.NewTxOut(0, nullData))
		},
	}, {
		name: "two null data outputs",
		tx: func() *wire.MsgTx {
			return spendTx(wire.NewTxOut(0, nullData), wire.NewTxOut(0, nullData))
		},
		reason: "multi-op-return",
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := CheckTransactionStandard(btcutil.NewTx(test.tx()),
				DefaultMinRelayTxFee, 2)
			if test.reason == "" {
				require.NoError(t, err)
				return
			}
			var txErr TxRuleError
			require.True(t, errors.As(err, &txErr))
			require.Equal(t, test.reason, txErr.Reason)
		})
	}
}

func TestIsDust(t *testing.T) {
	out := payTo(t, 1, 0)
	threshold := GetDustThreshold(out)
	require.Equal(t, int64(3*(out.SerializeSize()+148)), threshold)

	out.Value = threshold - 1
	require.True(t, IsDust(out, DefaultMinRelayTxFee))
	out.Value = threshold
	require.False(t, IsDust(out, DefaultMinRelayTxFee))

	unspendable := wire.NewTxOut(1e8, []byte{txscript.OP_RETURN})
	require.True(t, IsDust(unspendable, DefaultMinRelayTxFee))
}
