// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package leveldb implements engine.Engine on top of goleveldb.
package leveldb

import (
	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// NewDB opens the leveldb database at dbPath.  When create is set the
// database must not already exist.
func NewDB(dbPath string, create bool) (engine.Engine, error) {
	opts := opt.Options{
		ErrorIfExist: create,
		Strict:       opt.DefaultStrict,
		Compression:  opt.NoCompression,
		Filter:       filter.NewBloomFilter(10),
	}
	ldb, err := leveldb.OpenFile(dbPath, &opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open leveldb %s", dbPath)
	}
	return &DB{ldb: ldb}, nil
}

// DB is an open goleveldb database.  Writes go through leveldb
// transactions, so at most one Transaction is open at a time and the
// registry store serializes its writers accordingly.
type DB struct {
	ldb *leveldb.DB
}

// Transaction opens a leveldb transaction.  It blocks while another
// transaction holds the write lock.
func (d *DB) Transaction() (engine.Transaction, error) {
	tx, err := d.ldb.OpenTransaction()
	if err != nil {
		return nil, errors.Wrap(err, "leveldb: open transaction")
	}
	return &Transaction{tx: tx}, nil
}

// Snapshot returns a view of the committed data.
func (d *DB) Snapshot() (engine.Snapshot, error) {
	snapshot, err := d.ldb.GetSnapshot()
	if err != nil {
		return nil, errors.Wrap(err, "leveldb: snapshot")
	}
	return &Snapshot{snap: snapshot}, nil
}

// Close closes the database.  Open snapshots must be released first.
func (d *DB) Close() error {
	return errors.Wrap(d.ldb.Close(), "leveldb: close")
}
