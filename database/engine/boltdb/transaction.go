// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package boltdb

import bolt "go.etcd.io/bbolt"

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// Transaction records writes in order and replays them inside one bbolt
// read-write transaction.
type Transaction struct {
	db       *DB
	ops      []batchOp
	released bool
}

func (t *Transaction) Put(key, value []byte) error {
	if t.released {
		return ErrTxClosed
	}
	t.ops = append(t.ops, batchOp{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
	return nil
}

func (t *Transaction) Delete(key []byte) error {
	if t.released {
		return ErrTxClosed
	}
	t.ops = append(t.ops, batchOp{key: append([]byte(nil), key...), delete: true})
	return nil
}

func (t *Transaction) Discard() {
	t.released = true
	t.ops = nil
}

func (t *Transaction) Commit() error {
	if t.released {
		return ErrTxClosed
	}
	defer t.Discard()

	if t.db.closed.Load() {
		return ErrDbClosed
	}
	return t.db.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, op := range t.ops {
			var err error
			if op.delete {
				err = bucket.Delete(op.key)
			} else {
				err = bucket.Put(op.key, op.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
