// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	btcdchain "github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/lru"
	"github.com/drivechaind/drivechaind/drivechain"
	"github.com/drivechaind/drivechaind/mining"
)

// Config is a descriptor containing the memory pool configuration.
type Config struct {
	// Policy defines the various mempool configuration options related
	// to policy.
	Policy Policy

	// ChainParams identifies which chain parameters the txpool is
	// associated with.
	ChainParams *chaincfg.Params

	// BestHeight defines the function to use to access the block height of
	// the current best chain.
	BestHeight func() int32

	// CheckTransaction defines the function that checks a standalone
	// transaction against the chain and drivechain rules as of the next
	// block.  It must not change the chain state.
	CheckTransaction func(*btcutil.Tx) error
}

// Policy houses the policy (configuration parameters) which is used to
// control the mempool.
type Policy struct {
	// MaxTxVersion is the transaction version that the mempool should
	// accept.  All transactions above this version are rejected as
	// non-standard.
	MaxTxVersion int32

	// AcceptNonStd defines whether to accept non-standard transactions. If
	// true, non-standard transactions will be accepted into the mempool.
	// Otherwise, all non-standard transactions will be rejected.
	AcceptNonStd bool

	// MinRelayTxFee defines the minimum transaction fee in BTC/kB the
	// dust threshold is derived from.
	MinRelayTxFee btcutil.Amount

	// RejectCacheSize is the number of recently rejected transaction
	// hashes remembered.  Zero selects DefaultRejectCacheSize.
	RejectCacheSize uint
}

// TxDesc is a descriptor containing a transaction in the mempool along with
// additional metadata.
type TxDesc struct {
	mining.TxDesc

	// Execute is the bundle execution the transaction carries, if any.
	Execute *drivechain.Execute
}

// bundleKey identifies a bundle across sidechains.
type bundleKey struct {
	sidechain uint8
	hash      chainhash.Hash
}

// TxPool is used as a source of transactions that need to be mined into
// blocks.  Every transaction it holds passed the drivechain rules as of the
// tip it was accepted at.  It is safe for concurrent access.
type TxPool struct {
	// The following variables must only be used atomically.
	lastUpdated int64 // last time pool was updated

	mtx          sync.RWMutex
	cfg          Config
	pool         map[chainhash.Hash]*TxDesc
	outpoints    map[wire.OutPoint]*btcutil.Tx
	pendingExecs map[bundleKey]*btcutil.Tx
	rejects      lru.Cache
}

// Ensure the TxPool type implements the mining.TxSource interface.
var _ mining.TxSource = (*TxPool)(nil)

// isTransactionInPool returns whether or not the passed transaction already
// exists in the main pool.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) isTransactionInPool(hash *chainhash.Hash) bool {
	_, exists := mp.pool[*hash]
	return exists
}

// IsTransactionInPool returns whether or not the passed transaction already
// exists in the main pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) IsTransactionInPool(hash *chainhash.Hash) bool {
	mp.mtx.RLock()
	inPool := mp.isTransactionInPool(hash)
	mp.mtx.RUnlock()

	return inPool
}

// HaveTransaction returns whether or not the passed transaction already
// exists in the pool.
//
// This is part of the mining.TxSource interface implementation and is safe
// for concurrent access.
func (mp *TxPool) HaveTransaction(hash *chainhash.Hash) bool {
	return mp.IsTransactionInPool(hash)
}

// WasRecentlyRejected returns whether the transaction was rejected by the
// rules since the last block was connected.
//
// This function is safe for concurrent access.
func (mp *TxPool) WasRecentlyRejected(hash *chainhash.Hash) bool {
	mp.mtx.RLock()
	rejected := mp.rejects.Contains(*hash)
	mp.mtx.RUnlock()
	return rejected
}

// removeTransaction is the internal function which implements the public
// RemoveTransaction.  See the comment for RemoveTransaction for more details.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) removeTransaction(tx *btcutil.Tx, removeRedeemers bool) {
	txHash := tx.Hash()
	if removeRedeemers {
		// Remove any transactions which rely on this one.
		for i := uint32(0); i < uint32(len(tx.MsgTx().TxOut)); i++ {
			prevOut := wire.OutPoint{Hash: *txHash, Index: i}
			if txRedeemer, exists := mp.outpoints[prevOut]; exists {
				mp.removeTransaction(txRedeemer, true)
			}
		}
	}

	txDesc, exists := mp.pool[*txHash]
	if !exists {
		return
	}

	// Mark the referenced outpoints as unspent by the pool.
	for _, txIn := range txDesc.Tx.MsgTx().TxIn {
		delete(mp.outpoints, txIn.PreviousOutPoint)
	}
	if exec := txDesc.Execute; exec != nil {
		delete(mp.pendingExecs, bundleKey{exec.Sidechain, exec.Hash})
	}
	delete(mp.pool, *txHash)
	atomic.StoreInt64(&mp.lastUpdated, time.Now().Unix())
}

// RemoveTransaction removes the passed transaction from the mempool. When the
// removeRedeemers flag is set, any transactions that redeem outputs from the
// removed transaction will also be removed recursively from the mempool.
//
// This function is safe for concurrent access.
func (mp *TxPool) RemoveTransaction(tx *btcutil.Tx, removeRedeemers bool) {
	mp.mtx.Lock()
	mp.removeTransaction(tx, removeRedeemers)
	mp.mtx.Unlock()
}

// removeDoubleSpends removes all transactions which spend outputs spent by
// the passed transaction from the memory pool, along with the transactions
// that rely on them.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) removeDoubleSpends(tx *btcutil.Tx) {
	for _, txIn := range tx.MsgTx().TxIn {
		if txRedeemer, ok := mp.outpoints[txIn.PreviousOutPoint]; ok {
			if !txRedeemer.Hash().IsEqual(tx.Hash()) {
				mp.removeTransaction(txRedeemer, true)
			}
		}
	}
}

// addTransaction adds the passed transaction to the memory pool.  It should
// not be called directly as it doesn't perform any validation.  This is a
// helper for maybeAcceptTransaction.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) addTransaction(tx *btcutil.Tx, height int32, exec *drivechain.Execute) *TxDesc {
	txD := &TxDesc{
		TxDesc: mining.TxDesc{
			Tx:     tx,
			Added:  time.Now(),
			Height: height,
		},
		Execute: exec,
	}
	mp.pool[*tx.Hash()] = txD
	for _, txIn := range tx.MsgTx().TxIn {
		mp.outpoints[txIn.PreviousOutPoint] = tx
	}
	if exec != nil {
		mp.pendingExecs[bundleKey{exec.Sidechain, exec.Hash}] = tx
	}
	atomic.StoreInt64(&mp.lastUpdated, time.Now().Unix())
	return txD
}

// checkPoolDoubleSpend checks whether or not the passed transaction is
// attempting to spend coins already spent by other transactions in the pool.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) checkPoolDoubleSpend(tx *btcutil.Tx) error {
	for _, txIn := range tx.MsgTx().TxIn {
		if txR, exists := mp.outpoints[txIn.PreviousOutPoint]; exists {
			str := fmt.Sprintf("output %v already spent by "+
				"transaction %v in the memory pool",
				txIn.PreviousOutPoint, txR.Hash())
			return txRuleError(wire.RejectDuplicate,
				"txn-mempool-conflict", str)
		}
	}
	return nil
}

// findExecute returns the bundle execution of tx, or nil when it carries
// none.  Malformed outputs are left to the rules.
func findExecute(tx *btcutil.Tx) *drivechain.Execute {
	for _, txOut := range tx.MsgTx().TxOut {
		msg, err := drivechain.DecodeScript(txOut.PkScript)
		if err != nil {
			continue
		}
		if exec, ok := msg.(*drivechain.Execute); ok {
			return exec
		}
	}
	return nil
}

// FetchTransaction returns the requested transaction from the transaction
// pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) FetchTransaction(txHash *chainhash.Hash) (*btcutil.Tx, error) {
	mp.mtx.RLock()
	txDesc, exists := mp.pool[*txHash]
	mp.mtx.RUnlock()

	if exists {
		return txDesc.Tx, nil
	}

	return nil, fmt.Errorf("transaction is not in the pool")
}

// maybeAcceptTransaction is the internal function which implements the public
// ProcessTransaction.  See the comment for ProcessTransaction for more
// details.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) maybeAcceptTransaction(tx *btcutil.Tx) (*TxDesc, error) {
	txHash := tx.Hash()

	if mp.isTransactionInPool(txHash) {
		str := fmt.Sprintf("already have transaction %v", txHash)
		return nil, txRuleError(wire.RejectDuplicate,
			"txn-already-in-mempool", str)
	}

	// A standalone transaction must not be a coinbase transaction.
	if btcdchain.IsCoinBaseTx(tx.MsgTx()) {
		str := fmt.Sprintf("transaction %v is an individual coinbase",
			txHash)
		return nil, txRuleError(wire.RejectInvalid, "coinbase", str)
	}

	if !mp.cfg.Policy.AcceptNonStd {
		err := CheckTransactionStandard(tx, mp.cfg.Policy.MinRelayTxFee,
			mp.cfg.Policy.MaxTxVersion)
		if err != nil {
			return nil, err
		}
	}

	if err := mp.checkPoolDoubleSpend(tx); err != nil {
		return nil, err
	}

	if err := mp.cfg.CheckTransaction(tx); err != nil {
		return nil, wrapRuleError(err)
	}

	// Only one execution of a bundle can be pending since the second one
	// would fail once the first is mined.
	exec := findExecute(tx)
	if exec != nil {
		key := bundleKey{exec.Sidechain, exec.Hash}
		if other, ok := mp.pendingExecs[key]; ok {
			str := fmt.Sprintf("bundle %v of sidechain %d is already "+
				"executed by pending transaction %v", exec.Hash,
				exec.Sidechain, other.Hash())
			return nil, txRuleError(wire.RejectDuplicate,
				"dc-exec-pending", str)
		}
	}

	txD := mp.addTransaction(tx, mp.cfg.BestHeight(), exec)
	log.Debugf("Accepted transaction %v (pool size: %v)", txHash,
		len(mp.pool))
	return txD, nil
}

// ProcessTransaction is the main workhorse for handling insertion of new
// free-standing transactions into the memory pool.  It includes functionality
// such as rejecting duplicate transactions, ensuring transactions follow all
// rules, and rejecting a second pending execution of a bundle.
//
// A transaction rejected by the rules is remembered and rejected again
// without evaluation until the next block is connected.
//
// This function is safe for concurrent access.
func (mp *TxPool) ProcessTransaction(tx *btcutil.Tx) (*TxDesc, error) {
	log.Tracef("Processing transaction %v", tx.Hash())

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	if mp.rejects.Contains(*tx.Hash()) {
		str := fmt.Sprintf("transaction %v was recently rejected",
			tx.Hash())
		return nil, txRuleError(wire.RejectDuplicate,
			"txn-recently-rejected", str)
	}

	txD, err := mp.maybeAcceptTransaction(tx)
	if err != nil {
		var txErr TxRuleError
		if errors.As(err, &txErr) && txErr.RejectCode != wire.RejectDuplicate {
			mp.rejects.Add(*tx.Hash())
		}
		return nil, err
	}
	return txD, nil
}

// revalidate evicts the transactions that no longer pass the rules as of
// the new tip, in the order they were accepted.
//
// This function MUST be called with the mempool lock held (for writes).
func (mp *TxPool) revalidate() {
	for _, txD := range mp.sortedDescs() {
		if _, exists := mp.pool[*txD.Tx.Hash()]; !exists {
			continue
		}
		if err := mp.cfg.CheckTransaction(txD.Tx); err != nil {
			log.Debugf("Evicting transaction %v: %v", txD.Tx.Hash(), err)
			mp.removeTransaction(txD.Tx, true)
		}
	}
}

// HandleConnectedBlock removes the transactions of a block newly connected
// to the main chain, and the ones conflicting with them, from the pool and
// evicts the transactions the new tip invalidates.
//
// This function is safe for concurrent access.
func (mp *TxPool) HandleConnectedBlock(block *btcutil.Block) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	for _, tx := range block.Transactions()[1:] {
		mp.removeTransaction(tx, false)
		mp.removeDoubleSpends(tx)
	}
	mp.rejects = lru.NewCache(mp.rejectCacheSize())
	mp.revalidate()
}

// HandleDisconnectedBlock returns the transactions of a block disconnected
// from the main chain to the pool when they still pass the rules and
// evicts the transactions the new tip invalidates.
//
// This function is safe for concurrent access.
func (mp *TxPool) HandleDisconnectedBlock(block *btcutil.Block) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	mp.revalidate()
	for _, tx := range block.Transactions()[1:] {
		if _, err := mp.maybeAcceptTransaction(tx); err != nil {
			log.Debugf("Unable to return transaction %v from "+
				"disconnected block %v to the pool: %v", tx.Hash(),
				block.Hash(), err)
		}
	}
}

// Count returns the number of transactions in the main pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) Count() int {
	mp.mtx.RLock()
	count := len(mp.pool)
	mp.mtx.RUnlock()

	return count
}

// TxHashes returns a slice of hashes for all of the transactions in the memory
// pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) TxHashes() []*chainhash.Hash {
	mp.mtx.RLock()
	hashes := make([]*chainhash.Hash, 0, len(mp.pool))
	for hash := range mp.pool {
		hashCopy := hash
		hashes = append(hashes, &hashCopy)
	}
	mp.mtx.RUnlock()

	return hashes
}

// sortedDescs returns the descriptors in acceptance order.
//
// This function MUST be called with the mempool lock held (for reads).
func (mp *TxPool) sortedDescs() []*TxDesc {
	descs := make([]*TxDesc, 0, len(mp.pool))
	for _, desc := range mp.pool {
		descs = append(descs, desc)
	}
	sort.Slice(descs, func(i, j int) bool {
		if !descs[i].Added.Equal(descs[j].Added) {
			return descs[i].Added.Before(descs[j].Added)
		}
		hi, hj := descs[i].Tx.Hash(), descs[j].Tx.Hash()
		return hi.String() < hj.String()
	})
	return descs
}

// TxDescs returns a slice of descriptors for all the transactions in the
// pool in acceptance order.  The descriptors are to be treated as read only.
//
// This function is safe for concurrent access.
func (mp *TxPool) TxDescs() []*TxDesc {
	mp.mtx.RLock()
	descs := mp.sortedDescs()
	mp.mtx.RUnlock()
	return descs
}

// MiningDescs returns a slice of mining descriptors for all the transactions
// in the pool in acceptance order.
//
// This is part of the mining.TxSource interface implementation and is safe for
// concurrent access as required by the interface contract.
func (mp *TxPool) MiningDescs() []*mining.TxDesc {
	mp.mtx.RLock()
	sorted := mp.sortedDescs()
	mp.mtx.RUnlock()

	descs := make([]*mining.TxDesc, len(sorted))
	for i, desc := range sorted {
		descs[i] = &desc.TxDesc
	}
	return descs
}

// LastUpdated returns the last time a transaction was added to or removed from
// the main pool.
//
// This function is safe for concurrent access.
func (mp *TxPool) LastUpdated() time.Time {
	return time.Unix(atomic.LoadInt64(&mp.lastUpdated), 0)
}

func (mp *TxPool) rejectCacheSize() uint {
	if mp.cfg.Policy.RejectCacheSize == 0 {
		return DefaultRejectCacheSize
	}
	return mp.cfg.Policy.RejectCacheSize
}

// New returns a new memory pool for validating and storing standalone
// transactions until they are mined into a block.
func New(cfg *Config) *TxPool {
	mp := &TxPool{
		cfg:          *cfg,
		pool:         make(map[chainhash.Hash]*TxDesc),
		outpoints:    make(map[wire.OutPoint]*btcutil.Tx),
		pendingExecs: make(map[bundleKey]*btcutil.Tx),
	}
	mp.rejects = lru.NewCache(mp.rejectCacheSize())
	return mp
}
