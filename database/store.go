// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/drivechaind/drivechaind/database/engine"
	"github.com/drivechaind/drivechaind/database/engine/boltdb"
	"github.com/drivechaind/drivechaind/database/engine/leveldb"
	"github.com/drivechaind/drivechaind/database/engine/pebbledb"
	"github.com/drivechaind/drivechaind/database/internal/dbnamespace"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/pkg/errors"
)

// Supported database types.
const (
	TypeLevelDB = "leveldb"
	TypePebble  = "pebble"
	TypeBolt    = "bbolt"
)

// SupportedTypes returns the database types Open accepts.
func SupportedTypes() []string {
	return []string{TypeLevelDB, TypePebble, TypeBolt}
}

// BlockStatus is the validation status of a block index entry.
type BlockStatus byte

const (
	// StatusValid marks a block that was connected, or that has not been
	// evaluated yet.
	StatusValid BlockStatus = 0

	// StatusInvalid marks a block that failed the rules or descends from
	// one that did.
	StatusInvalid BlockStatus = 1
)

// IndexEntry is the stored form of a block index node.
type IndexEntry struct {
	Hash   chainhash.Hash
	Parent chainhash.Hash
	Height int32
	Status BlockStatus
}

// indexEntrySize is the serialized size of an IndexEntry without its key.
const indexEntrySize = chainhash.HashSize + 4 + 1

func serializeIndexEntry(e *IndexEntry) []byte {
	buf := make([]byte, indexEntrySize)
	copy(buf, e.Parent[:])
	dbnamespace.ByteOrder.PutUint32(buf[chainhash.HashSize:], uint32(e.Height))
	buf[indexEntrySize-1] = byte(e.Status)
	return buf
}

func deserializeIndexEntry(hash []byte, serialized []byte) (*IndexEntry, error) {
	if len(hash) != chainhash.HashSize || len(serialized) != indexEntrySize {
		return nil, drivechain.DeserializeError(fmt.Sprintf("index entry "+
			"is %d bytes, want %d", len(serialized), indexEntrySize))
	}
	e := &IndexEntry{
		Height: int32(dbnamespace.ByteOrder.Uint32(serialized[chainhash.HashSize:])),
		Status: BlockStatus(serialized[indexEntrySize-1]),
	}
	copy(e.Hash[:], hash)
	copy(e.Parent[:], serialized)
	return e, nil
}

// ChainTip identifies the block the stored registry corresponds to.
type ChainTip struct {
	Hash   chainhash.Hash
	Height int32
}

func serializeTip(tip *ChainTip) []byte {
	buf := make([]byte, chainhash.HashSize+4)
	copy(buf, tip.Hash[:])
	dbnamespace.ByteOrder.PutUint32(buf[chainhash.HashSize:], uint32(tip.Height))
	return buf
}

func deserializeTip(serialized []byte) (*ChainTip, error) {
	if len(serialized) != chainhash.HashSize+4 {
		return nil, drivechain.DeserializeError(fmt.Sprintf("chain tip "+
			"is %d bytes", len(serialized)))
	}
	tip := &ChainTip{
		Height: int32(dbnamespace.ByteOrder.Uint32(serialized[chainhash.HashSize:])),
	}
	copy(tip.Hash[:], serialized)
	return tip, nil
}

// Store is the drivechain database.
type Store struct {
	db engine.Engine
}

// openEngine opens the engine of the given type under dir.
func openEngine(dbType, dir string) (engine.Engine, error) {
	switch dbType {
	case TypeLevelDB:
		return leveldb.NewDB(dir, false)
	case TypePebble:
		return pebbledb.NewDB(dir, false, 0, 0)
	case TypeBolt:
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		return boltdb.NewDB(filepath.Join(dir, "drivechain.db"), false)
	}
	return nil, errors.Wrapf(ErrUnknownType, "%q", dbType)
}

// Open opens, creating it when missing, the store of type dbType in the
// directory dir.
func Open(dbType, dir string) (*Store, error) {
	db, err := openEngine(dbType, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database %s", dbType, dir)
	}
	s := New(db)
	if err := s.checkVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Infof("Opened %s database at %s", dbType, dir)
	return s, nil
}

// New returns a store on top of an already open engine.
func New(db engine.Engine) *Store {
	return &Store{db: db}
}

// Close closes the underlying engine.
func (s *Store) Close() error {
	return s.db.Close()
}

// checkVersion writes the layout version into a fresh store and refuses a
// store written with another one.
func (s *Store) checkVersion() error {
	var version []byte
	err := s.view(func(snap engine.Snapshot) error {
		var err error
		version, err = get(snap, dbnamespace.VersionKeyName)
		return err
	})
	if err != nil {
		return err
	}
	want := []byte{dbnamespace.CurrentVersion}
	if version == nil {
		return s.update(func(tx engine.Transaction) error {
			return tx.Put(dbnamespace.VersionKeyName, want)
		})
	}
	if !bytes.Equal(version, want) {
		return errors.Wrapf(ErrIncompatibleVersion, "version %x", version)
	}
	return nil
}

// view runs fn against a fresh snapshot.
func (s *Store) view(fn func(engine.Snapshot) error) error {
	snap, err := s.db.Snapshot()
	if err != nil {
		return errors.Wrap(err, "open snapshot")
	}
	defer snap.Release()
	return fn(snap)
}

// update runs fn against a new transaction and commits it when fn succeeds.
func (s *Store) update(fn func(engine.Transaction) error) error {
	tx, err := s.db.Transaction()
	if err != nil {
		return errors.Wrap(err, "open transaction")
	}
	defer tx.Discard()
	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// get returns the value of key, or nil when it does not exist.
func get(snap engine.Snapshot, key []byte) ([]byte, error) {
	val, err := snap.Get(key)
	if err == engine.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return val, nil
}

// FetchTip returns the stored tip, or nil for an empty store.
func (s *Store) FetchTip() (*ChainTip, error) {
	var tip *ChainTip
	err := s.view(func(snap engine.Snapshot) error {
		serialized, err := get(snap, dbnamespace.TipKeyName)
		if err != nil || serialized == nil {
			return err
		}
		tip, err = deserializeTip(serialized)
		return err
	})
	return tip, err
}

// FetchState returns the registry as of the stored tip.  An empty store
// yields an empty registry.
func (s *Store) FetchState() (*drivechain.State, error) {
	state := drivechain.NewState()
	err := s.view(func(snap engine.Snapshot) error {
		serialized, err := get(snap, dbnamespace.StateKeyName)
		if err != nil || serialized == nil {
			return err
		}
		state, err = drivechain.DeserializeState(serialized)
		return errors.Wrap(err, "decode registry")
	})
	return state, err
}

// FetchUndo returns the undo record of a retained main chain block.
func (s *Store) FetchUndo(hash *chainhash.Hash) (*drivechain.UndoRecord, error) {
	var undo *drivechain.UndoRecord
	err := s.view(func(snap engine.Snapshot) error {
		serialized, err := get(snap, dbnamespace.Key(dbnamespace.UndoPrefix, hash[:]))
		if err != nil {
			return err
		}
		if serialized == nil {
			return errors.Wrapf(ErrUndoNotFound, "block %v", hash)
		}
		undo, err = drivechain.DeserializeUndoRecord(serialized)
		return errors.Wrapf(err, "decode undo of block %v", hash)
	})
	return undo, err
}

// FetchBlock returns a stored block.
func (s *Store) FetchBlock(hash *chainhash.Hash) (*btcutil.Block, error) {
	var block *btcutil.Block
	err := s.view(func(snap engine.Snapshot) error {
		serialized, err := get(snap, dbnamespace.Key(dbnamespace.BlockPrefix, hash[:]))
		if err != nil {
			return err
		}
		if serialized == nil {
			return errors.Wrapf(ErrBlockNotFound, "block %v", hash)
		}
		block, err = btcutil.NewBlockFromBytes(serialized)
		return errors.Wrapf(err, "decode block %v", hash)
	})
	return block, err
}

// FetchIndex returns every stored block index entry, in key order.
func (s *Store) FetchIndex() ([]*IndexEntry, error) {
	var entries []*IndexEntry
	err := s.view(func(snap engine.Snapshot) error {
		iter := snap.NewIterator(engine.BytesPrefix(dbnamespace.IndexPrefix))
		defer iter.Release()

		for iter.Next() {
			hash := iter.Key()[len(dbnamespace.IndexPrefix):]
			entry, err := deserializeIndexEntry(hash, iter.Value())
			if err != nil {
				return errors.Wrapf(err, "index key %x", iter.Key())
			}
			entries = append(entries, entry)
		}
		return errors.Wrap(iter.Error(), "iterate block index")
	})
	return entries, err
}

func putBlock(tx engine.Transaction, block *btcutil.Block, entry *IndexEntry) error {
	serialized, err := block.Bytes()
	if err != nil {
		return errors.Wrapf(err, "serialize block %v", block.Hash())
	}
	if err := tx.Put(dbnamespace.Key(dbnamespace.BlockPrefix, entry.Hash[:]), serialized); err != nil {
		return errors.Wrap(err, "put block")
	}
	return putIndexEntry(tx, entry)
}

func putIndexEntry(tx engine.Transaction, entry *IndexEntry) error {
	key := dbnamespace.Key(dbnamespace.IndexPrefix, entry.Hash[:])
	return errors.Wrap(tx.Put(key, serializeIndexEntry(entry)), "put index entry")
}

func putTipState(tx engine.Transaction, tip *ChainTip, state *drivechain.State) error {
	if err := tx.Put(dbnamespace.StateKeyName, state.Serialize()); err != nil {
		return errors.Wrap(err, "put registry")
	}
	return errors.Wrap(tx.Put(dbnamespace.TipKeyName, serializeTip(tip)), "put tip")
}

// StoreBlock stores a block and its index entry without changing the tip.
// It is used for side chain blocks and for the genesis block.
func (s *Store) StoreBlock(block *btcutil.Block, entry *IndexEntry) error {
	return s.update(func(tx engine.Transaction) error {
		return putBlock(tx, block, entry)
	})
}

// StoreIndexEntry replaces the index entry of a stored block, normally to
// record a status change.
func (s *Store) StoreIndexEntry(entry *IndexEntry) error {
	return s.update(func(tx engine.Transaction) error {
		return putIndexEntry(tx, entry)
	})
}

// InitTip stores the genesis block as the tip of an empty registry.
func (s *Store) InitTip(genesis *btcutil.Block, state *drivechain.State) error {
	tip := &ChainTip{Hash: *genesis.Hash(), Height: 0}
	return s.update(func(tx engine.Transaction) error {
		err := putBlock(tx, genesis, &IndexEntry{Hash: tip.Hash})
		if err != nil {
			return err
		}
		return putTipState(tx, tip, state)
	})
}

// ConnectBlock atomically stores block as the new tip at entry.Height with
// its undo record and the registry after it.  When prune is not nil the
// undo record of that block, which fell out of the reorg window, is
// deleted in the same transaction.
func (s *Store) ConnectBlock(block *btcutil.Block, entry *IndexEntry, undo *drivechain.UndoRecord, state *drivechain.State, prune *chainhash.Hash) error {
	return s.update(func(tx engine.Transaction) error {
		if err := putBlock(tx, block, entry); err != nil {
			return err
		}
		undoKey := dbnamespace.Key(dbnamespace.UndoPrefix, entry.Hash[:])
		if err := tx.Put(undoKey, undo.Serialize()); err != nil {
			return errors.Wrap(err, "put undo")
		}
		if prune != nil {
			err := tx.Delete(dbnamespace.Key(dbnamespace.UndoPrefix, prune[:]))
			if err != nil {
				return errors.Wrap(err, "prune undo")
			}
		}
		tip := &ChainTip{Hash: entry.Hash, Height: entry.Height}
		return putTipState(tx, tip, state)
	})
}

// DisconnectBlock atomically drops the undo record of the disconnected block
// hash and stores newTip with the registry before the block.
func (s *Store) DisconnectBlock(hash *chainhash.Hash, newTip *ChainTip, state *drivechain.State) error {
	return s.update(func(tx engine.Transaction) error {
		err := tx.Delete(dbnamespace.Key(dbnamespace.UndoPrefix, hash[:]))
		if err != nil {
			return errors.Wrap(err, "delete undo")
		}
		return putTipState(tx, newTip, state)
	})
}
