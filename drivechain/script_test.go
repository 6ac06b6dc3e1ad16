// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

// hexToBytes converts the passed hex string into bytes and will panic if
// there is an error.  This is only provided for the hard-coded constants so
// errors in the source code can be detected.  It will only (and must only)
// be called with hard-coded values.
func hexToBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("invalid hex in source file: " + s)
	}
	return b
}

func repeatHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], bytes.Repeat([]byte{b}, chainhash.HashSize))
	return h
}

// TestScriptLayout ensures the builders produce the exact byte layout used
// by other implementations: b4 01 <id> 20 <payload> 01 <tag>.
func TestScriptLayout(t *testing.T) {
	hash := repeatHash(0x11)
	payload := hex.EncodeToString(hash[:])

	tests := []struct {
		name   string
		script []byte
		want   string
	}{
		{"deposit", DepositScript(1),
			"b4010120" + hex.EncodeToString(make([]byte, 32)) + "0100"},
		{"commit", BundleCommitScript(1, &hash), "b4010120" + payload + "0101"},
		{"vote", VoteScript(7, &hash), "b4010720" + payload + "0102"},
		{"execute", ExecuteScript(255, &hash, 2),
			"b401ff20" + payload + "010304" + "02000000"},
	}
	for _, test := range tests {
		require.Equal(t, test.want, hex.EncodeToString(test.script), test.name)
	}
}

// TestDecodeScript tests decoding of well formed, ordinary and malformed
// scripts.
func TestDecodeScript(t *testing.T) {
	hash := repeatHash(0x11)
	p2pkh := hexToBytes("76a914" + "0102030405060708090a0b0c0d0e0f1011121314" +
		"88ac")
	validMsg := BundleCommitScript(3, &hash)

	tests := []struct {
		name      string
		script    []byte
		want      Message
		malformed bool
		reserved  bool
	}{
		{name: "empty", script: nil},
		{name: "p2pkh", script: p2pkh},
		{name: "op_true", script: []byte{txscript.OP_TRUE}},
		{name: "deposit", script: DepositScript(1), want: &Deposit{Sidechain: 1}},
		{name: "commit", script: validMsg,
			want: &BundleCommit{Sidechain: 3, Hash: hash}},
		{name: "vote", script: VoteScript(0, &hash),
			want: &Vote{Sidechain: 0, Hash: hash}},
		{name: "execute", script: ExecuteScript(9, &hash, 1000),
			want: &Execute{Sidechain: 9, Hash: hash, NumWithdrawals: 1000}},
		{name: "marker only", script: []byte{OP_DRIVECHAIN}, malformed: true},
		{name: "truncated payload", script: validMsg[:20], malformed: true},
		{name: "missing tag", script: validMsg[:36], malformed: true},
		{name: "trailing byte",
			script: append(append([]byte{}, validMsg...), txscript.OP_TRUE),
			malformed: true},
		{name: "small int id",
			script: append([]byte{OP_DRIVECHAIN, txscript.OP_1}, validMsg[3:]...),
			malformed: true},
		{name: "pushdata1 id",
			script: append([]byte{OP_DRIVECHAIN, txscript.OP_PUSHDATA1, 0x01, 0x03},
				validMsg[3:]...),
			malformed: true},
		{name: "short payload",
			script: append(append([]byte{OP_DRIVECHAIN, 0x01, 0x03, 0x1f},
				hash[:31]...), 0x01, 0x01),
			malformed: true},
		{name: "unknown tag",
			script: append(append([]byte{}, validMsg[:37]...), 0x04),
			reserved: true},
		{name: "unknown tag zero payload",
			script: messageScript(1, &chainhash.Hash{}, 0x07, messageScriptLen),
			reserved: true},
		{name: "unknown tag with trailing byte",
			script: append(messageScript(1, &hash, 0x07, 0), txscript.OP_TRUE),
			malformed: true},
		{name: "execute without count",
			script: messageScript(1, &hash, TagExecute, messageScriptLen),
			malformed: true},
		{name: "execute with short count",
			script: append(messageScript(1, &hash, TagExecute, 0),
				txscript.OP_DATA_2, 0x01, 0x00),
			malformed: true},
	}

	for _, test := range tests {
		msg, err := DecodeScript(test.script)
		if test.malformed {
			require.Truef(t, IsErrorCode(err, ErrMalformedScript),
				"%s: got %v", test.name, err)
			require.Nil(t, msg, test.name)
			continue
		}
		require.NoError(t, err, test.name)
		require.Equal(t, test.want, msg, test.name)
		require.Equal(t, test.want != nil || test.reserved,
			IsDrivechainScript(test.script), test.name)
	}
}

// TestMessageTag tests the tag accessors of every message type.
func TestMessageTag(t *testing.T) {
	hash := repeatHash(0x22)
	for _, script := range [][]byte{
		DepositScript(4), BundleCommitScript(4, &hash), VoteScript(4, &hash),
		ExecuteScript(4, &hash, 1),
	} {
		msg, err := DecodeScript(script)
		require.NoError(t, err)
		require.Equal(t, uint8(4), msg.SidechainID())
		require.Equal(t, MessageTag(script[37]), msg.Tag())
	}
	require.Equal(t, "vote", TagVote.String())
	require.Equal(t, "Unknown MessageTag (9)", MessageTag(9).String())
}
