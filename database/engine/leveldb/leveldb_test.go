// Copyright (c) 2024-2025 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/stretchr/testify/require"
)

func TestSuiteLevelDB(t *testing.T) {
	engine.TestSuiteEngine(t, func() engine.Engine {
		dbPath := filepath.Join(t.TempDir(), "leveldb-testsuite")

		leveldb, err := NewDB(dbPath, true)
		require.NoErrorf(t, err, "failed to create leveldb")
		return leveldb
	})
}

func TestReopenLevelDB(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "leveldb-reopen")

	db, err := NewDB(dbPath, true)
	require.NoError(t, err)
	tx, err := db.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("dctip"), []byte{0x01}))
	require.NoError(t, tx.Commit())
	require.NoError(t, db.Close())

	_, err = NewDB(dbPath, true)
	require.ErrorContains(t, err, "unable to open leveldb",
		"create must refuse an existing database")

	db, err = NewDB(dbPath, false)
	require.NoError(t, err)
	defer db.Close()

	snapshot, err := db.Snapshot()
	require.NoError(t, err)
	defer snapshot.Release()
	got, err := snapshot.Get([]byte("dctip"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, got)

	// Not found is reported as the engine sentinel, unwrapped.
	_, err = snapshot.Get([]byte("missing"))
	require.Equal(t, engine.ErrNotFound, err)
}
