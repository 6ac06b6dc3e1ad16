// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
)

// Transaction wraps a leveldb transaction.  Leveldb transactions hold the
// write lock of the database until they are committed or discarded.
type Transaction struct {
	tx *leveldb.Transaction
}

// Put stages value under key.
func (t *Transaction) Put(key, value []byte) error {
	return errors.Wrapf(t.tx.Put(key, value, nil), "leveldb: put %x", key)
}

// Delete stages the removal of key.  Deleting a missing key is not an error.
func (t *Transaction) Delete(key []byte) error {
	return errors.Wrapf(t.tx.Delete(key, nil), "leveldb: delete %x", key)
}

// Discard drops the staged writes and releases the write lock.
func (t *Transaction) Discard() {
	t.tx.Discard()
}

// Commit applies the staged writes atomically.  A committed transaction
// must not be reused.
func (t *Transaction) Commit() error {
	return errors.Wrap(t.tx.Commit(), "leveldb: commit")
}
