// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dbnamespace contains constants that define the database namespaces
// for the purpose of the drivechain store, so that the store and its tests
// agree on the key layout.
package dbnamespace

import (
	"encoding/binary"
)

// CurrentVersion is the version of the key layout written by this software.
const CurrentVersion = 1

var (
	// ByteOrder is the preferred byte order used for serializing numeric
	// fields for storage in the database.
	ByteOrder = binary.LittleEndian

	// VersionKeyName is the name of the database key used to house the
	// database version.
	VersionKeyName = []byte("dcversion")

	// TipKeyName is the name of the database key used to store the hash
	// and height of the block the stored registry corresponds to.
	TipKeyName = []byte("dctip")

	// StateKeyName is the name of the database key used to store the
	// serialized sidechain registry as of the tip.
	StateKeyName = []byte("dcstate")

	// UndoPrefix is the key prefix of the per-block undo records of the
	// retained main chain blocks.  The block hash follows the prefix.
	UndoPrefix = []byte("dcundo/")

	// BlockPrefix is the key prefix of the raw blocks, main chain and side
	// chain alike.  The block hash follows the prefix.
	BlockPrefix = []byte("dcblock/")

	// IndexPrefix is the key prefix of the block index entries.  The block
	// hash follows the prefix.
	IndexPrefix = []byte("dcidx/")
)

// Key returns prefix followed by hash.
func Key(prefix []byte, hash []byte) []byte {
	key := make([]byte, 0, len(prefix)+len(hash))
	key = append(key, prefix...)
	return append(key, hash...)
}
