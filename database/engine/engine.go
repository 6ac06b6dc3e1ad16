// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package engine defines the minimal key/value storage contract the
// drivechain store is written against.  Backends live in the leveldb,
// pebbledb and boltdb subpackages.
package engine

import "errors"

// ErrNotFound is returned by Snapshot.Get when the requested key does not
// exist.  Every backend maps its native not-found error to this value.
var ErrNotFound = errors.New("engine: key not found")

// Engine is an open key/value database.
type Engine interface {
	// Transaction opens a write batch.  Writes are not visible to any
	// snapshot until Commit returns successfully.
	Transaction() (Transaction, error)

	// Snapshot returns a consistent read-only view of the committed data.
	Snapshot() (Snapshot, error)

	Close() error
}

// Transaction is an atomic batch of writes.
type Transaction interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error

	// Discard abandons the batch.  It is safe to call more than once and
	// after Commit.
	Discard()
}

// Snapshot is a point-in-time read view.
type Snapshot interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	NewIterator(*Range) Iterator
	Releaser
}

// Releaser releases the resources held by a snapshot or iterator.
type Releaser interface {
	Release()
}
