// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

// OP_DRIVECHAIN is the opcode that marks an output script as a drivechain
// control message.  It reuses OP_NOP5 so that nodes unaware of the feature
// see a NOP.
const OP_DRIVECHAIN = txscript.OP_NOP5

// MessageTag identifies the kind of a control message.
type MessageTag uint8

// Control message tags as encoded in the last push of a script.
const (
	TagDeposit      MessageTag = 0x00
	TagBundleCommit MessageTag = 0x01
	TagVote         MessageTag = 0x02
	TagExecute      MessageTag = 0x03
)

var tagStrings = map[MessageTag]string{
	TagDeposit:      "deposit",
	TagBundleCommit: "bundle commit",
	TagVote:         "vote",
	TagExecute:      "execute",
}

// String returns the MessageTag in human-readable form.
func (t MessageTag) String() string {
	if s, ok := tagStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Unknown MessageTag (%d)", uint8(t))
}

const (
	// messageScriptLen is the length of a deposit, commit or vote script:
	// marker, push(1), push(32), push(1).
	messageScriptLen = 1 + 2 + 33 + 2

	// executeScriptLen is the length of an execute marker script, which
	// appends push(4) carrying the withdrawal count.
	executeScriptLen = messageScriptLen + 5
)

// Message is a decoded control message.  The concrete type is one of
// *Deposit, *BundleCommit, *Vote or *Execute.
type Message interface {
	// SidechainID returns the sidechain the message is addressed to.
	SidechainID() uint8

	// Tag returns the message tag.
	Tag() MessageTag
}

// Deposit credits the output amount to the escrow of a sidechain.
type Deposit struct {
	Sidechain uint8
}

// BundleCommit proposes a withdrawal bundle identified by its commitment.
type BundleCommit struct {
	Sidechain uint8
	Hash      chainhash.Hash
}

// Vote is a coinbase signal in favour of a committed bundle.
type Vote struct {
	Sidechain uint8
	Hash      chainhash.Hash
}

// Execute pays out an approved bundle.  The NumWithdrawals outputs that
// directly follow the marker output are the withdrawal set.
type Execute struct {
	Sidechain      uint8
	Hash           chainhash.Hash
	NumWithdrawals uint32
}

func (m *Deposit) SidechainID() uint8      { return m.Sidechain }
func (m *Deposit) Tag() MessageTag         { return TagDeposit }
func (m *BundleCommit) SidechainID() uint8 { return m.Sidechain }
func (m *BundleCommit) Tag() MessageTag    { return TagBundleCommit }
func (m *Vote) SidechainID() uint8         { return m.Sidechain }
func (m *Vote) Tag() MessageTag            { return TagVote }
func (m *Execute) SidechainID() uint8      { return m.Sidechain }
func (m *Execute) Tag() MessageTag         { return TagExecute }

// IsDrivechainScript returns whether the script invokes the drivechain
// opcode, whether or not it is well formed.
func IsDrivechainScript(script []byte) bool {
	return len(script) > 0 && script[0] == OP_DRIVECHAIN
}

// malformed returns the rule error used for every layout violation.
func malformed(format string, args ...interface{}) error {
	return ruleError(ErrMalformedScript, "malformed drivechain script: "+
		fmt.Sprintf(format, args...))
}

// expectPush consumes the next opcode and requires it to be a direct push of
// exactly size bytes.
func expectPush(tokenizer *txscript.ScriptTokenizer, size int, what string) ([]byte, error) {
	if !tokenizer.Next() {
		if err := tokenizer.Err(); err != nil {
			return nil, malformed("%s: %v", what, err)
		}
		return nil, malformed("missing %s", what)
	}
	if tokenizer.Opcode() != byte(size) {
		return nil, malformed("%s is not a %d byte push (opcode 0x%02x)",
			what, size, tokenizer.Opcode())
	}
	return tokenizer.Data(), nil
}

// DecodeScript decodes a control message from an output script.
//
// A script that does not start with OP_DRIVECHAIN is an ordinary output and
// decodes to a nil Message and a nil error, as does a script with the exact
// message layout but an unknown tag.  A script that starts with OP_DRIVECHAIN
// but has the wrong pushes, lengths or trailing bytes returns a RuleError
// with ErrMalformedScript.
func DecodeScript(script []byte) (Message, error) {
	if !IsDrivechainScript(script) {
		return nil, nil
	}

	tokenizer := txscript.MakeScriptTokenizer(0, script)
	tokenizer.Next() // OP_DRIVECHAIN

	scid, err := expectPush(&tokenizer, 1, "sidechain id")
	if err != nil {
		return nil, err
	}
	payload, err := expectPush(&tokenizer, chainhash.HashSize, "payload")
	if err != nil {
		return nil, err
	}
	tagData, err := expectPush(&tokenizer, 1, "tag")
	if err != nil {
		return nil, err
	}

	var hash chainhash.Hash
	copy(hash[:], payload)

	var msg Message
	switch tag := MessageTag(tagData[0]); tag {
	case TagDeposit:
		msg = &Deposit{Sidechain: scid[0]}
	case TagBundleCommit:
		msg = &BundleCommit{Sidechain: scid[0], Hash: hash}
	case TagVote:
		msg = &Vote{Sidechain: scid[0], Hash: hash}
	case TagExecute:
		count, err := expectPush(&tokenizer, 4, "withdrawal count")
		if err != nil {
			return nil, err
		}
		msg = &Execute{
			Sidechain:      scid[0],
			Hash:           hash,
			NumWithdrawals: binary.LittleEndian.Uint32(count),
		}
	default:
		// Unknown tags are reserved and leave the output ordinary.
	}

	if !tokenizer.Done() {
		return nil, malformed("%d trailing bytes",
			len(script)-int(tokenizer.ByteIndex()))
	}
	return msg, nil
}

// messageScript assembles the common prefix of every control message.  The
// builders write raw bytes because txscript.ScriptBuilder would turn the one
// byte pushes into small integer opcodes.
func messageScript(scid uint8, payload *chainhash.Hash, tag MessageTag, size int) []byte {
	script := make([]byte, 0, size)
	script = append(script, OP_DRIVECHAIN, txscript.OP_DATA_1, scid,
		txscript.OP_DATA_32)
	script = append(script, payload[:]...)
	return append(script, txscript.OP_DATA_1, byte(tag))
}

// DepositScript returns the output script of a deposit to sidechain scid.
func DepositScript(scid uint8) []byte {
	return messageScript(scid, &chainhash.Hash{}, TagDeposit, messageScriptLen)
}

// BundleCommitScript returns the output script committing bundle hash on
// sidechain scid.
func BundleCommitScript(scid uint8, hash *chainhash.Hash) []byte {
	return messageScript(scid, hash, TagBundleCommit, messageScriptLen)
}

// VoteScript returns the coinbase output script voting for bundle hash on
// sidechain scid.
func VoteScript(scid uint8, hash *chainhash.Hash) []byte {
	return messageScript(scid, hash, TagVote, messageScriptLen)
}

// ExecuteScript returns the execute marker script for bundle hash on
// sidechain scid announcing n withdrawal outputs.
func ExecuteScript(scid uint8, hash *chainhash.Hash, n uint32) []byte {
	script := messageScript(scid, hash, TagExecute, executeScriptLen)
	script = append(script, txscript.OP_DATA_4)
	return binary.LittleEndian.AppendUint32(script, n)
}
