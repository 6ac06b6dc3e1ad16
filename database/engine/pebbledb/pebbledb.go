// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pebbledb implements engine.Engine on top of cockroachdb/pebble.
package pebbledb

import (
	"runtime"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/pkg/errors"
)

// Errors returned for use of a closed database or a finished transaction
// or snapshot.
var (
	ErrDbClosed         = errors.New("pebbledb: closed")
	ErrTxClosed         = errors.New("pebbledb: transaction already closed")
	ErrSnapshotReleased = errors.New("pebbledb: snapshot released")
)

const (
	// DefaultCache is the block cache size in MiB used when NewDB is
	// given a non-positive cache.
	DefaultCache = 64

	// DefaultHandles is the open file limit used when NewDB is given a
	// non-positive handle count.
	DefaultHandles = 16
)

// NewDB opens the pebble database at dbPath.  When create is set the
// database must not already exist.
func NewDB(dbPath string, create bool, cache, handles int) (engine.Engine, error) {
	if cache <= 0 {
		cache = DefaultCache
	}
	if handles <= 0 {
		handles = DefaultHandles
	}

	// Registry and undo values are small and read by exact key, so every
	// level gets the same bloom filter and files grow geometrically.
	levels := make([]pebble.LevelOptions, 7)
	size := int64(2 * 1024 * 1024)
	for i := range levels {
		levels[i] = pebble.LevelOptions{
			TargetFileSize: size,
			FilterPolicy:   bloom.FilterPolicy(10),
		}
		size *= 2
	}

	opts := &pebble.Options{
		Cache:                    pebble.NewCache(int64(cache * 1024 * 1024)),
		ErrorIfExists:            create,
		MaxOpenFiles:             handles,
		MaxConcurrentCompactions: runtime.NumCPU,
		Levels:                   levels,
	}
	opts.Experimental.ReadSamplingMultiplier = -1
	pdb, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open pebble %s", dbPath)
	}

	return &DB{pdb: pdb}, nil
}

// DB is an open pebble database.  Unlike leveldb, any number of
// transactions may be assembled concurrently; each commits as one batch.
type DB struct {
	pdb    *pebble.DB
	closed atomic.Bool
}

// Transaction returns a new write batch.
func (d *DB) Transaction() (engine.Transaction, error) {
	if d.closed.Load() {
		return nil, ErrDbClosed
	}
	return &Transaction{batch: d.pdb.NewBatch()}, nil
}

// Snapshot returns a view of the committed data.
func (d *DB) Snapshot() (engine.Snapshot, error) {
	if d.closed.Load() {
		return nil, ErrDbClosed
	}
	return &Snapshot{snap: d.pdb.NewSnapshot()}, nil
}

// Close closes the database.  A second Close returns ErrDbClosed.
func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return ErrDbClosed
	}
	return errors.Wrap(d.pdb.Close(), "pebbledb: close")
}
