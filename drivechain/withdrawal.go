// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MaxWithdrawalScriptSize is the longest withdrawal script a bundle can
// commit to.  The commitment encodes the script length in a single byte.
const MaxWithdrawalScriptSize = 255

// CalcBundleHash returns the commitment of an ordered withdrawal set: the
// double SHA-256 of, for every withdrawal, its value as a little-endian
// uint64, the script length as one byte and the script itself.
//
// Scripts longer than MaxWithdrawalScriptSize have no commitment; callers
// reject them before hashing.
func CalcBundleHash(withdrawals []*wire.TxOut) chainhash.Hash {
	size := 0
	for _, w := range withdrawals {
		size += 8 + 1 + len(w.PkScript)
	}

	buf := make([]byte, 0, size)
	for _, w := range withdrawals {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(w.Value))
		buf = append(buf, byte(len(w.PkScript)))
		buf = append(buf, w.PkScript...)
	}
	return chainhash.DoubleHashH(buf)
}

// WithdrawalTotal returns the sum of the withdrawal values.
func WithdrawalTotal(withdrawals []*wire.TxOut) int64 {
	var total int64
	for _, w := range withdrawals {
		total += w.Value
	}
	return total
}
