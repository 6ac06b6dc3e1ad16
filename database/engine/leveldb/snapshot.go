// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Snapshot is a point-in-time view of a leveldb database.
type Snapshot struct {
	snap *leveldb.Snapshot
}

// Has reports whether key exists in the snapshot.
func (s *Snapshot) Has(key []byte) (bool, error) {
	ok, err := s.snap.Has(key, nil)
	return ok, errors.Wrapf(err, "leveldb: has %x", key)
}

// Get returns the value stored under key, or engine.ErrNotFound.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	val, err := s.snap.Get(key, nil)
	switch {
	case err == leveldb.ErrNotFound:
		return nil, engine.ErrNotFound
	case err != nil:
		return nil, errors.Wrapf(err, "leveldb: get %x", key)
	}
	return val, nil
}

// Release releases the snapshot.  It is safe to call more than once.
func (s *Snapshot) Release() {
	s.snap.Release()
}

// NewIterator returns an iterator over the keys in slice.  A nil Limit
// iterates to the end of the keyspace.
func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	return s.snap.NewIterator(&util.Range{
		Start: slice.Start,
		Limit: slice.Limit,
	}, nil)
}
