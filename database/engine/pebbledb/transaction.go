// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pebbledb

import (
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
)

// Transaction accumulates writes in a pebble batch and commits them with a
// single synced write.
type Transaction struct {
	batch    *pebble.Batch
	released bool
}

// Put stages value under key.
func (t *Transaction) Put(key, value []byte) error {
	if t.released {
		return ErrTxClosed
	}
	return errors.Wrapf(t.batch.Set(key, value, pebble.NoSync),
		"pebbledb: put %x", key)
}

// Delete stages the removal of key.
func (t *Transaction) Delete(key []byte) error {
	if t.released {
		return ErrTxClosed
	}
	return errors.Wrapf(t.batch.Delete(key, pebble.NoSync),
		"pebbledb: delete %x", key)
}

// Discard closes the batch without applying it.
func (t *Transaction) Discard() {
	if !t.released {
		t.released = true
		t.batch.Close()
	}
}

// Commit applies the batch with a synced write and closes it, whether or
// not the write succeeded.
func (t *Transaction) Commit() error {
	if t.released {
		return ErrTxClosed
	}
	err := t.batch.Commit(pebble.Sync)
	t.Discard()
	return errors.Wrap(err, "pebbledb: commit")
}
