// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package boltdb implements engine.Engine on top of bbolt.  All keys live in
// a single bucket; bbolt's ordered cursor provides the range iteration.
package boltdb

import (
	"errors"
	"os"
	"sync/atomic"
	"time"

	"github.com/drivechaind/drivechaind/database/engine"
	bolt "go.etcd.io/bbolt"
)

var (
	ErrDbClosed         = errors.New("boltdb: closed")
	ErrDbExists         = errors.New("boltdb: database already exists")
	ErrTxClosed         = errors.New("boltdb: transaction already closed")
	ErrSnapshotReleased = errors.New("boltdb: snapshot released")
)

// bucketName is the bucket holding every key of the engine.
var bucketName = []byte("drivechaind")

// NewDB opens the bbolt file at dbPath.  When create is set the file must
// not already exist.
func NewDB(dbPath string, create bool) (engine.Engine, error) {
	if create {
		if _, err := os.Stat(dbPath); err == nil {
			return nil, ErrDbExists
		}
	}

	bdb, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{db: bdb}, nil
}

type DB struct {
	db     *bolt.DB
	closed atomic.Bool
}

// Transaction returns a write batch that is applied in a single bbolt
// update on Commit.  Buffering keeps the bbolt writer lock short and lets
// read snapshots stay open while a batch is being assembled.
func (d *DB) Transaction() (engine.Transaction, error) {
	if d.closed.Load() {
		return nil, ErrDbClosed
	}
	return &Transaction{db: d}, nil
}

func (d *DB) Snapshot() (engine.Snapshot, error) {
	if d.closed.Load() {
		return nil, ErrDbClosed
	}
	tx, err := d.db.Begin(false)
	if err != nil {
		return nil, err
	}
	return &Snapshot{tx: tx, bucket: tx.Bucket(bucketName)}, nil
}

func (d *DB) Close() error {
	if d.closed.Swap(true) {
		return ErrDbClosed
	}
	return d.db.Close()
}
