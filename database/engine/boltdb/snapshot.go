// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package boltdb

import (
	"bytes"

	"github.com/drivechaind/drivechaind/database/engine"
	bolt "go.etcd.io/bbolt"
)

// Snapshot is a read-only bbolt transaction.
type Snapshot struct {
	tx       *bolt.Tx
	bucket   *bolt.Bucket
	released bool
}

func (s *Snapshot) Has(key []byte) (bool, error) {
	if s.released {
		return false, ErrSnapshotReleased
	}
	return s.bucket.Get(key) != nil, nil
}

// Get returns a copy of the value; bbolt values are only valid for the life
// of the transaction.
func (s *Snapshot) Get(key []byte) ([]byte, error) {
	if s.released {
		return nil, ErrSnapshotReleased
	}
	val := s.bucket.Get(key)
	if val == nil {
		return nil, engine.ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (s *Snapshot) Release() {
	if !s.released {
		s.released = true
		_ = s.tx.Rollback()
	}
}

func (s *Snapshot) NewIterator(slice *engine.Range) engine.Iterator {
	if s.released {
		return nil
	}
	return &Iterator{
		cursor: s.bucket.Cursor(),
		start:  slice.Start,
		limit:  slice.Limit,
	}
}

// Iterator walks a bbolt cursor restricted to [start, limit).
type Iterator struct {
	cursor *bolt.Cursor
	start  []byte
	limit  []byte

	key, value []byte
	positioned bool
	released   bool
}

func (i *Iterator) inRange(key []byte) bool {
	if key == nil {
		return false
	}
	if i.start != nil && bytes.Compare(key, i.start) < 0 {
		return false
	}
	return i.limit == nil || bytes.Compare(key, i.limit) < 0
}

func (i *Iterator) set(key, value []byte) bool {
	i.positioned = true
	if !i.inRange(key) {
		i.key, i.value = nil, nil
		return false
	}
	i.key, i.value = key, value
	return true
}

func (i *Iterator) First() bool {
	if i.released {
		return false
	}
	if i.start == nil {
		return i.set(i.cursor.First())
	}
	return i.set(i.cursor.Seek(i.start))
}

func (i *Iterator) Last() bool {
	if i.released {
		return false
	}
	if i.limit == nil {
		return i.set(i.cursor.Last())
	}
	k, _ := i.cursor.Seek(i.limit)
	if k == nil {
		return i.set(i.cursor.Last())
	}
	return i.set(i.cursor.Prev())
}

func (i *Iterator) Seek(key []byte) bool {
	if i.released {
		return false
	}
	if i.start != nil && bytes.Compare(key, i.start) < 0 {
		key = i.start
	}
	return i.set(i.cursor.Seek(key))
}

func (i *Iterator) Next() bool {
	if i.released {
		return false
	}
	if !i.positioned {
		return i.First()
	}
	if i.key == nil {
		return false
	}
	return i.set(i.cursor.Next())
}

func (i *Iterator) Prev() bool {
	if i.released {
		return false
	}
	if !i.positioned {
		return i.Last()
	}
	if i.key == nil {
		return false
	}
	return i.set(i.cursor.Prev())
}

func (i *Iterator) Valid() bool {
	return !i.released && i.key != nil
}

func (i *Iterator) Error() error {
	if i.released {
		return engine.ErrIterReleased
	}
	return nil
}

func (i *Iterator) Key() []byte {
	if !i.Valid() {
		return nil
	}
	return i.key
}

func (i *Iterator) Value() []byte {
	if !i.Valid() {
		return nil
	}
	return i.value
}

func (i *Iterator) Release() {
	i.released = true
	i.key, i.value = nil, nil
}
