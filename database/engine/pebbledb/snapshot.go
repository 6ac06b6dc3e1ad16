// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/pkg/errors"
)

// Snapshot is a point-in-time view of a pebble database.
type Snapshot struct {
	snap     *pebble.Snapshot
	released bool
}

// Has reports whether key exists in the snapshot.
func (s *Snapshot) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	switch {
	case err == engine.ErrNotFound:
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Get returns a copy of the value stored under key, or engine.ErrNotFound.
// Pebble only guarantees the returned slice until the closer runs.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.released {
		return nil, ErrSnapshotReleased
	}

	ori, closer, err := s.snap.Get(key)
	switch {
	case err == pebble.ErrNotFound:
		return nil, engine.ErrNotFound
	case err != nil:
		return nil, errors.Wrapf(err, "pebbledb: get %x", key)
	}
	defer closer.Close()

	val := make([]byte, len(ori))
	copy(val, ori)
	return val, nil
}

// Release closes the snapshot.  It is safe to call more than once.
func (s *Snapshot) Release() {
	if !s.released {
		s.released = true
		s.snap.Close()
	}
}

// NewIterator returns an iterator bounded by slice.  Iterating a released
// snapshot yields an iterator that reports ErrSnapshotReleased.
func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	if s.released {
		return &Iterator{err: ErrSnapshotReleased}
	}

	iter, err := s.snap.NewIter(&pebble.IterOptions{
		LowerBound: slice.Start,
		UpperBound: slice.Limit,
	})
	if err != nil {
		return &Iterator{err: errors.Wrap(err, "pebbledb: new iterator")}
	}
	return &Iterator{iter: iter}
}
