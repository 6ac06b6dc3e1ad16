// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package boltdb

import (
	"path/filepath"
	"testing"

	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/stretchr/testify/require"
)

func TestSuiteBoltDB(t *testing.T) {
	engine.TestSuiteEngine(t, func() engine.Engine {
		dbPath := filepath.Join(t.TempDir(), "boltdb-testsuite.db")

		boltdb, err := NewDB(dbPath, true)
		require.NoErrorf(t, err, "failed to create boltdb")
		return boltdb
	})
}

func TestIteratorReverse(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "reverse.db"), true)
	require.NoError(t, err)
	defer db.Close()

	tx, err := db.Transaction()
	require.NoError(t, err)
	for _, k := range []string{"a1", "b1", "b2", "b3", "c1"} {
		require.NoError(t, tx.Put([]byte(k), []byte(k)))
	}
	require.NoError(t, tx.Commit())

	snapshot, err := db.Snapshot()
	require.NoError(t, err)
	defer snapshot.Release()

	iter := snapshot.NewIterator(engine.BytesPrefix([]byte("b")))
	defer iter.Release()

	var keys []string
	for ok := iter.Last(); ok; ok = iter.Prev() {
		keys = append(keys, string(iter.Key()))
	}
	require.Equal(t, []string{"b3", "b2", "b1"}, keys)

	require.True(t, iter.Seek([]byte("b2")))
	require.Equal(t, []byte("b2"), iter.Key())
	require.False(t, iter.Seek([]byte("c")))
}
