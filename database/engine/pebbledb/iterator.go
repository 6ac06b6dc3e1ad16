// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/drivechaind/drivechaind/database/engine"
)

// Iterator adapts a pebble iterator to the engine contract.  Pebble
// iterators start unpositioned and Next on an unpositioned iterator is not
// defined, so the first Next is turned into First.  An iterator that could
// not be opened has a nil iter and reports err.
type Iterator struct {
	iter       *pebble.Iterator
	err        error
	positioned bool
	released   bool
}

// usable reports whether the underlying pebble iterator may be touched.
func (i *Iterator) usable() bool {
	return !i.released && i.iter != nil
}

func (i *Iterator) First() bool {
	if !i.usable() {
		return false
	}
	i.positioned = true
	return i.iter.First()
}

func (i *Iterator) Last() bool {
	if !i.usable() {
		return false
	}
	i.positioned = true
	return i.iter.Last()
}

func (i *Iterator) Seek(key []byte) bool {
	if !i.usable() {
		return false
	}
	i.positioned = true
	return i.iter.SeekGE(key)
}

func (i *Iterator) Next() bool {
	if !i.usable() {
		return false
	}
	if !i.positioned {
		return i.First()
	}
	return i.iter.Next()
}

func (i *Iterator) Prev() bool {
	if !i.usable() {
		return false
	}
	if !i.positioned {
		return i.Last()
	}
	return i.iter.Prev()
}

func (i *Iterator) Valid() bool {
	return i.usable() && i.positioned && i.iter.Valid()
}

func (i *Iterator) Key() []byte {
	if !i.Valid() {
		return nil
	}
	return i.iter.Key()
}

func (i *Iterator) Value() []byte {
	if !i.Valid() {
		return nil
	}
	return i.iter.Value()
}

// Release closes the pebble iterator.  It is safe to call more than once.
func (i *Iterator) Release() {
	if i.released {
		return
	}
	i.released = true
	if i.iter != nil {
		i.iter.Close()
	}
}

func (i *Iterator) Error() error {
	switch {
	case i.err != nil:
		return i.err
	case i.released:
		return engine.ErrIterReleased
	}
	return i.iter.Error()
}
