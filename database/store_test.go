// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/drivechaind/drivechaind/database/internal/dbnamespace"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/stretchr/testify/require"
)

var testParams = drivechain.Params{
	VoteThreshold: 10,
	VoteWindow:    1000,
	Activation:    drivechain.ActiveFrom(0),
}

// childBlock returns a block on top of parent whose coinbase carries the
// extra outputs.
func childBlock(parent *chainhash.Hash, height int32, extra ...*wire.TxOut) *btcutil.Block {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: []byte{txscript.OP_DATA_1, byte(height)},
		Sequence:        wire.MaxTxInSequenceNum,
	})
	coinbase.AddTxOut(wire.NewTxOut(0, []byte{txscript.OP_TRUE}))
	for _, out := range extra {
		coinbase.AddTxOut(out)
	}
	msg := &wire.MsgBlock{Header: wire.BlockHeader{
		Version:   1,
		PrevBlock: *parent,
	}}
	msg.AddTransaction(coinbase)
	return btcutil.NewBlock(msg)
}

func forEachType(t *testing.T, fn func(t *testing.T, dbType string)) {
	for _, dbType := range SupportedTypes() {
		t.Run(dbType, func(t *testing.T) {
			fn(t, dbType)
		})
	}
}

// TestStoreRoundTrip connects and disconnects blocks, reopening the store
// in between to make sure everything needed for a restart is persisted.
func TestStoreRoundTrip(t *testing.T) {
	forEachType(t, func(t *testing.T, dbType string) {
		dir := filepath.Join(t.TempDir(), "db")
		store, err := Open(dbType, dir)
		require.NoError(t, err)

		tip, err := store.FetchTip()
		require.NoError(t, err)
		require.Nil(t, tip)
		state, err := store.FetchState()
		require.NoError(t, err)
		require.Zero(t, state.NumSidechains())

		genesis := btcutil.NewBlock(chaincfg.RegressionNetParams.GenesisBlock)
		require.NoError(t, store.InitTip(genesis, state))

		// Block 1 deposits into sidechain 1 from the coinbase.
		block := childBlock(genesis.Hash(), 1,
			wire.NewTxOut(5000, drivechain.DepositScript(1)))
		undo, err := state.ConnectBlock(block, 1, &testParams)
		require.NoError(t, err)
		entry := &IndexEntry{Hash: *block.Hash(), Parent: *genesis.Hash(), Height: 1}
		require.NoError(t, store.ConnectBlock(block, entry, undo, state, nil))
		require.NoError(t, store.Close())

		store, err = Open(dbType, dir)
		require.NoError(t, err)
		defer store.Close()

		tip, err = store.FetchTip()
		require.NoError(t, err)
		require.Equal(t, &ChainTip{Hash: *block.Hash(), Height: 1}, tip)

		stored, err := store.FetchState()
		require.NoError(t, err)
		require.True(t, state.Equal(stored))

		storedUndo, err := store.FetchUndo(block.Hash())
		require.NoError(t, err)
		require.Equal(t, undo.Serialize(), storedUndo.Serialize())

		storedBlock, err := store.FetchBlock(block.Hash())
		require.NoError(t, err)
		require.Equal(t, block.Hash(), storedBlock.Hash())

		index, err := store.FetchIndex()
		require.NoError(t, err)
		require.Len(t, index, 2)

		// Disconnect block 1 again.
		require.NoError(t, stored.DisconnectBlock(storedUndo))
		genesisTip := &ChainTip{Hash: *genesis.Hash()}
		require.NoError(t, store.DisconnectBlock(block.Hash(), genesisTip, stored))

		tip, err = store.FetchTip()
		require.NoError(t, err)
		require.Equal(t, genesisTip, tip)
		_, err = store.FetchUndo(block.Hash())
		require.ErrorIs(t, err, ErrUndoNotFound)

		// The block itself stays available for a later reorganization.
		_, err = store.FetchBlock(block.Hash())
		require.NoError(t, err)
	})
}

// TestStorePrune ensures the undo record named for pruning is deleted in the
// same commit that connects the new tip.
func TestStorePrune(t *testing.T) {
	forEachType(t, func(t *testing.T, dbType string) {
		store, err := Open(dbType, filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		defer store.Close()

		state := drivechain.NewState()
		parent := chaincfg.RegressionNetParams.GenesisHash
		var hashes []*chainhash.Hash
		for height := int32(1); height <= 3; height++ {
			block := childBlock(parent, height)
			undo, err := state.ConnectBlock(block, height, &testParams)
			require.NoError(t, err)

			var prune *chainhash.Hash
			if height == 3 {
				prune = hashes[0]
			}
			entry := &IndexEntry{Hash: *block.Hash(), Parent: *parent, Height: height}
			require.NoError(t, store.ConnectBlock(block, entry, undo, state, prune))
			hashes = append(hashes, block.Hash())
			parent = block.Hash()
		}

		_, err = store.FetchUndo(hashes[0])
		require.ErrorIs(t, err, ErrUndoNotFound)
		for _, hash := range hashes[1:] {
			_, err := store.FetchUndo(hash)
			require.NoError(t, err)
		}
	})
}

// TestStoreIndexStatus ensures status changes are persisted.
func TestStoreIndexStatus(t *testing.T) {
	forEachType(t, func(t *testing.T, dbType string) {
		store, err := Open(dbType, filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		defer store.Close()

		block := childBlock(chaincfg.RegressionNetParams.GenesisHash, 1)
		entry := &IndexEntry{
			Hash:   *block.Hash(),
			Parent: *chaincfg.RegressionNetParams.GenesisHash,
			Height: 1,
		}
		require.NoError(t, store.StoreBlock(block, entry))

		entry.Status = StatusInvalid
		require.NoError(t, store.StoreIndexEntry(entry))

		index, err := store.FetchIndex()
		require.NoError(t, err)
		require.Equal(t, []*IndexEntry{entry}, index)
	})
}

// TestStoreCorruption ensures damaged records are reported rather than
// silently replaced.
func TestStoreCorruption(t *testing.T) {
	db, err := openEngine(TypeBolt, filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	store := New(db)
	defer store.Close()

	var hash chainhash.Hash
	hash[0] = 0x01
	tx, err := db.Transaction()
	require.NoError(t, err)
	require.NoError(t, tx.Put(dbnamespace.StateKeyName, []byte{0x01, 0x05}))
	require.NoError(t, tx.Put(dbnamespace.Key(dbnamespace.UndoPrefix, hash[:]),
		[]byte{0x01}))
	require.NoError(t, tx.Put(dbnamespace.TipKeyName, []byte{0x00}))
	require.NoError(t, tx.Commit())

	_, err = store.FetchState()
	require.True(t, drivechain.IsDeserializeErr(err), "got %v", err)
	_, err = store.FetchUndo(&hash)
	require.True(t, drivechain.IsDeserializeErr(err), "got %v", err)
	_, err = store.FetchTip()
	require.True(t, drivechain.IsDeserializeErr(err), "got %v", err)
}

// TestOpenVersion ensures a store written with an unknown layout version
// is refused.
func TestOpenVersion(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	store, err := Open(TypeLevelDB, dir)
	require.NoError(t, err)

	err = store.update(func(tx engine.Transaction) error {
		return tx.Put(dbnamespace.VersionKeyName, []byte{0x7f})
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(TypeLevelDB, dir)
	require.ErrorIs(t, err, ErrIncompatibleVersion)

	_, err = Open("sqlite", dir)
	require.ErrorIs(t, err, ErrUnknownType)
}
