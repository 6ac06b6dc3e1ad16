// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	btcdchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/drivechain"
)

const (
	// maxStandardTxWeight is the max weight permitted by any transaction
	// according to the current default policy.
	maxStandardTxWeight = 400000

	// maxStandardSigScriptSize is the maximum size allowed for a
	// transaction input signature script to be considered standard.  This
	// value allows for a 15-of-15 CHECKMULTISIG pay-to-script-hash with
	// compressed keys.
	maxStandardSigScriptSize = 1650

	// maxStandardMultiSigKeys is the maximum number of public keys allowed
	// in a multi-signature transaction output script for it to be
	// considered standard.
	maxStandardMultiSigKeys = 3

	// DefaultMinRelayTxFee is the minimum fee in satoshi that is used to
	// derive the dust threshold.
	DefaultMinRelayTxFee = btcutil.Amount(1000)

	// DefaultRejectCacheSize is the default number of recently rejected
	// transaction hashes remembered.
	DefaultRejectCacheSize = 1000
)

// checkPkScriptStandard performs a series of checks on a transaction output
// script (public key script) to ensure it is a "standard" public key script.
// A standard public key script is one that is a recognized form, and for
// multi-signature scripts, only contains from 1 to maxStandardMultiSigKeys
// public keys.
func checkPkScriptStandard(pkScript []byte, scriptClass txscript.ScriptClass) error {
	switch scriptClass {
	case txscript.MultiSigTy:
		numPubKeys, numSigs, err := txscript.CalcMultiSigStats(pkScript)
		if err != nil {
			return fmt.Errorf("multi-signature script parse failure: %v",
				err)
		}
		if numPubKeys < 1 || numPubKeys > maxStandardMultiSigKeys {
			return fmt.Errorf("multi-signature script with %d public "+
				"keys, want 1 to %d", numPubKeys,
				maxStandardMultiSigKeys)
		}
		if numSigs < 1 || numSigs > numPubKeys {
			return fmt.Errorf("multi-signature script with %d "+
				"signatures for %d public keys", numSigs, numPubKeys)
		}

	case txscript.NonStandardTy:
		return fmt.Errorf("non-standard script form")
	}

	return nil
}

// GetDustThreshold calculates the dust limit for a *wire.TxOut by taking the
// size of a typical spending transaction and multiplying it by 3 to account
// for the minimum dust relay fee of 3000sat/kvb.
func GetDustThreshold(txOut *wire.TxOut) int64 {
	// The spending input is assumed to be a 148 byte pay-to-pubkey-hash
	// input, 41 bytes of outpoint and sequence plus 107 bytes of script,
	// with the witness discount applied to the script of witness programs.
	totalSize := txOut.SerializeSize() + 41
	if txscript.IsWitnessProgram(txOut.PkScript) {
		totalSize += 107 / btcdchain.WitnessScaleFactor
	} else {
		totalSize += 107
	}

	return 3 * int64(totalSize)
}

// IsDust returns whether or not the passed transaction output amount is
// considered dust or not based on the passed minimum transaction relay fee.
// Dust is defined in terms of the minimum transaction relay fee.  In
// particular, if the cost to the network to spend coins is more than 1/3 of the
// minimum transaction relay fee, it is considered dust.
func IsDust(txOut *wire.TxOut, minRelayTxFee btcutil.Amount) bool {
	// Unspendable outputs are considered dust.
	if txscript.IsUnspendable(txOut.PkScript) {
		return true
	}

	// The following is equivalent to (value/totalSize) * (1/3) * 1000
	// without needing to do floating point math.
	return txOut.Value*1000/GetDustThreshold(txOut) < int64(minRelayTxFee)
}

// CheckTransactionStandard performs a series of checks on a transaction to
// ensure it is a "standard" transaction.  A standard transaction is one that
// conforms to several additional limiting cases over what is considered a
// "sane" transaction such as having a version in the supported range,
// conforming to more stringent size constraints, having scripts of
// recognized forms, and not containing "dust" outputs (those that are so
// small it costs more to process them than they are worth).
//
// Drivechain control outputs are exempt from the script form and dust
// checks since their value moves into, or is accounted by, the sidechain
// escrow.
func CheckTransactionStandard(tx *btcutil.Tx, minRelayTxFee btcutil.Amount, maxTxVersion int32) error {
	// The transaction must be a currently supported version.
	msgTx := tx.MsgTx()
	if msgTx.Version > maxTxVersion || msgTx.Version < 1 {
		str := fmt.Sprintf("transaction version %d is not in the "+
			"valid range of %d-%d", msgTx.Version, 1,
			maxTxVersion)
		return txRuleError(wire.RejectNonstandard, "version", str)
	}

	// Since extremely large transactions with a lot of inputs can cost
	// almost as much to process as the sender fees, limit the maximum
	// size of a transaction.
	txWeight := btcdchain.GetTransactionWeight(tx)
	if txWeight > maxStandardTxWeight {
		str := fmt.Sprintf("weight of transaction is larger than max "+
			"allowed: %v > %v", txWeight, maxStandardTxWeight)
		return txRuleError(wire.RejectNonstandard, "tx-size", str)
	}

	for i, txIn := range msgTx.TxIn {
		sigScriptLen := len(txIn.SignatureScript)
		if sigScriptLen > maxStandardSigScriptSize {
			str := fmt.Sprintf("transaction input %d: signature "+
				"script size is larger than max allowed: "+
				"%d > %d bytes", i, sigScriptLen,
				maxStandardSigScriptSize)
			return txRuleError(wire.RejectNonstandard,
				"scriptsig-size", str)
		}

		// Each transaction input signature script must only contain
		// opcodes which push data onto the stack.
		if !txscript.IsPushOnlyScript(txIn.SignatureScript) {
			str := fmt.Sprintf("transaction input %d: signature "+
				"script is not push only", i)
			return txRuleError(wire.RejectNonstandard,
				"scriptsig-not-pushonly", str)
		}
	}

	numNullDataOutputs := 0
	for i, txOut := range msgTx.TxOut {
		if drivechain.IsDrivechainScript(txOut.PkScript) {
			continue
		}

		scriptClass := txscript.GetScriptClass(txOut.PkScript)
		if err := checkPkScriptStandard(txOut.PkScript, scriptClass); err != nil {
			str := fmt.Sprintf("transaction output %d: %v", i, err)
			return txRuleError(wire.RejectNonstandard, "scriptpubkey", str)
		}

		if scriptClass == txscript.NullDataTy {
			numNullDataOutputs++
		} else if IsDust(txOut, minRelayTxFee) {
			str := fmt.Sprintf("transaction output %d: payment is "+
				"dust: %v", i, txOut.Value)
			return txRuleError(wire.RejectDust, "dust", str)
		}
	}

	// A standard transaction must not have more than one output script that
	// only carries data.
	if numNullDataOutputs > 1 {
		str := "more than one transaction output in a nulldata script"
		return txRuleError(wire.RejectNonstandard, "multi-op-return", str)
	}

	return nil
}
