// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package engine

import "errors"

// Iterator walks the key/value pairs of a Range in ascending key order.  A
// new iterator is positioned before the first pair, so the usual loop is
//
//	for iter.Next() {
//		...
//	}
type Iterator interface {
	// First moves the iterator to the first key/value pair and reports
	// whether such pair exists.
	First() bool

	// Last moves the iterator to the last key/value pair and reports
	// whether such pair exists.
	Last() bool

	// Seek moves the iterator to the first key/value pair whose key is
	// greater than or equal to the given key.
	Seek(key []byte) bool

	// Next moves the iterator to the next key/value pair.
	// It returns false if the iterator is exhausted.
	Next() bool

	// Prev moves the iterator to the previous key/value pair.
	// It returns false if the iterator is exhausted.
	Prev() bool

	Valid() bool

	// Error returns any accumulated error.  Exhausting all the key/value
	// pairs is not considered to be an error.
	Error() error

	// Key returns the key of the current key/value pair, or nil if done.
	// The caller should not modify the contents of the returned slice, and
	// its contents may change on the next call to any positioning method.
	Key() []byte

	// Value returns the value of the current key/value pair, or nil if
	// done.  The same aliasing rules as Key apply.
	Value() []byte

	Releaser
}

// ErrIterReleased is returned by Iterator.Error once Release was called.
var ErrIterReleased = errors.New("iterator: iterator released")

// Range is a key range.
type Range struct {
	// Start of the key range, included in the range.  Nil means the
	// first key of the database.
	Start []byte

	// Limit of the key range, not included in the range.  Nil means no
	// upper bound.
	Limit []byte
}

// BytesPrefix returns the key range that covers every key starting with the
// given prefix.
func BytesPrefix(prefix []byte) *Range {
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c < 0xff {
			limit = make([]byte, i+1)
			copy(limit, prefix)
			limit[i] = c + 1
			break
		}
	}
	return &Range{prefix, limit}
}
