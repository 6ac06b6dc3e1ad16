// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// decodedOutput is a control message together with the output carrying it.
type decodedOutput struct {
	index int
	msg   Message
}

// txMessages is the result of the stateless checks of one transaction.
type txMessages struct {
	messages []decodedOutput

	// execute is the single execute marker of the transaction, if any,
	// and withdrawals its withdrawal set.
	execute     *Execute
	withdrawals []*wire.TxOut
}

// checkTxMessages decodes the control messages of tx and performs every
// check that does not depend on the registry.  Before activation drivechain
// scripts that fail to decode are ordinary outputs, and only a well formed
// control message rejects the transaction.
func checkTxMessages(tx *wire.MsgTx, height int32, isCoinbase bool, params *Params) (*txMessages, error) {
	active := params.Activation.IsActive(height)
	result := &txMessages{}
	executeIndex := -1
	for i, txOut := range tx.TxOut {
		msg, err := DecodeScript(txOut.PkScript)
		if err != nil {
			if !active {
				continue
			}
			return nil, err
		}
		if msg == nil {
			continue
		}
		if !active {
			str := fmt.Sprintf("transaction %v carries drivechain "+
				"outputs before activation (height %d)", tx.TxHash(),
				height)
			return nil, ruleError(ErrBeforeActivation, str)
		}

		switch m := msg.(type) {
		case *Vote:
			if !isCoinbase {
				str := fmt.Sprintf("transaction %v output %d votes "+
					"outside of the coinbase", tx.TxHash(), i)
				return nil, ruleError(ErrVoteNotCoinbase, str)
			}
		case *Execute:
			if result.execute != nil {
				str := fmt.Sprintf("transaction %v carries more than "+
					"one execute marker", tx.TxHash())
				return nil, ruleError(ErrExecMultiple, str)
			}
			result.execute = m
			executeIndex = i
		}
		result.messages = append(result.messages, decodedOutput{i, msg})
	}

	if len(result.messages) == 0 {
		return nil, nil
	}
	if result.execute == nil {
		return result, nil
	}

	n := result.execute.NumWithdrawals
	if n == 0 {
		str := fmt.Sprintf("transaction %v executes an empty withdrawal "+
			"set", tx.TxHash())
		return nil, ruleError(ErrExecZeroWithdrawals, str)
	}
	first := executeIndex + 1
	if uint64(first)+uint64(n) > uint64(len(tx.TxOut)) {
		str := fmt.Sprintf("transaction %v announces %d withdrawals but "+
			"only %d outputs follow the marker", tx.TxHash(), n,
			len(tx.TxOut)-first)
		return nil, ruleError(ErrExecWithdrawalsOutOfBounds, str)
	}
	end := first + int(n)
	for i := first; i < end; i++ {
		pkScript := tx.TxOut[i].PkScript
		if IsDrivechainScript(pkScript) {
			str := fmt.Sprintf("transaction %v withdrawal output %d is a "+
				"drivechain script", tx.TxHash(), i)
			return nil, ruleError(ErrExecWithdrawalIsDrivechain, str)
		}
		if len(pkScript) > MaxWithdrawalScriptSize {
			str := fmt.Sprintf("transaction %v withdrawal output %d "+
				"script is %d bytes, max %d", tx.TxHash(), i,
				len(pkScript), MaxWithdrawalScriptSize)
			return nil, ruleError(ErrExecWithdrawalScriptTooBig, str)
		}
	}
	for i := end; i < len(tx.TxOut); i++ {
		if IsDrivechainScript(tx.TxOut[i].PkScript) {
			str := fmt.Sprintf("transaction %v output %d is a drivechain "+
				"script after the withdrawal set", tx.TxHash(), i)
			return nil, ruleError(ErrExecPostWithdrawalDrivechain, str)
		}
	}
	result.withdrawals = tx.TxOut[first:end]
	return result, nil
}

// connectTransaction applies the control messages of tx.  Deposits,
// commits and votes are applied in output order, the execute, if any, last.
// On error every mutation made for tx is rolled back.
func (m *mutator) connectTransaction(tx *wire.MsgTx, height int32, isCoinbase bool, params *Params) error {
	msgs, err := checkTxMessages(tx, height, isCoinbase, params)
	if err != nil || msgs == nil {
		return err
	}

	mark := len(m.undo.entries)
	for _, out := range msgs.messages {
		switch msg := out.msg.(type) {
		case *Deposit:
			sc := m.sidechain(msg.Sidechain, height)
			m.activate(sc)
			m.credit(sc, tx.TxOut[out.index].Value)

		case *BundleCommit:
			// Committing a known hash leaves the bundle untouched.
			sc := m.sidechain(msg.Sidechain, height)
			m.createBundle(sc, &msg.Hash, height)

		case *Vote:
			m.applyVote(msg, height, params)
		}
	}

	if msgs.execute != nil {
		if err := m.applyExecute(tx, msgs, height); err != nil {
			if rerr := m.rollback(mark); rerr != nil {
				return rerr
			}
			return err
		}
	}
	return nil
}

// applyVote counts a coinbase vote.  Votes for unknown, approved or
// executed bundles, and votes past the window, are ignored.
func (m *mutator) applyVote(v *Vote, height int32, params *Params) {
	sc, ok := m.state.sidechains[v.Sidechain]
	if !ok {
		return
	}
	b, ok := sc.Bundles[v.Hash]
	if !ok || b.Approved || b.Executed {
		return
	}
	if !params.inWindow(height, b.CreatedHeight) {
		log.Tracef("Ignoring vote for bundle %v of sidechain %d at height "+
			"%d: window closed", v.Hash, v.Sidechain, height)
		return
	}

	m.vote(b)
	if b.YesVotes >= params.VoteThreshold {
		m.approve(b)
		log.Debugf("Bundle %v of sidechain %d approved at height %d "+
			"with %d votes", b.Hash, b.Sidechain, height, b.YesVotes)
	}
}

func (m *mutator) applyExecute(tx *wire.MsgTx, msgs *txMessages, height int32) error {
	exec := msgs.execute
	var b *Bundle
	sc, ok := m.state.sidechains[exec.Sidechain]
	if ok {
		b = sc.Bundles[exec.Hash]
	}
	switch {
	case b == nil || !b.Approved:
		str := fmt.Sprintf("transaction %v executes bundle %v of "+
			"sidechain %d which is not approved", tx.TxHash(), exec.Hash,
			exec.Sidechain)
		return ruleError(ErrExecNotApproved, str)

	case b.Executed:
		str := fmt.Sprintf("transaction %v executes bundle %v of "+
			"sidechain %d which was already executed", tx.TxHash(),
			exec.Hash, exec.Sidechain)
		return ruleError(ErrExecAlreadyExecuted, str)
	}

	if hash := CalcBundleHash(msgs.withdrawals); hash != exec.Hash {
		str := fmt.Sprintf("transaction %v withdrawals hash to %v, "+
			"bundle is %v", tx.TxHash(), hash, exec.Hash)
		return ruleError(ErrExecHashMismatch, str)
	}

	total := WithdrawalTotal(msgs.withdrawals)
	if total > sc.EscrowBalance {
		str := fmt.Sprintf("transaction %v withdraws %v from sidechain %d "+
			"which only holds %v", tx.TxHash(), btcutil.Amount(total),
			exec.Sidechain, btcutil.Amount(sc.EscrowBalance))
		return ruleError(ErrExecInsufficientEscrow, str)
	}

	m.debit(sc, total)
	m.execute(b)
	log.Debugf("Bundle %v of sidechain %d executed at height %d paying %v",
		b.Hash, b.Sidechain, height, btcutil.Amount(total))
	return nil
}

// CheckTransaction returns the error ConnectTransaction would return for tx
// without changing the registry.
func (s *State) CheckTransaction(tx *wire.MsgTx, height int32, isCoinbase bool, params *Params) error {
	var undo UndoRecord
	m := mutator{state: s, undo: &undo}
	if err := m.connectTransaction(tx, height, isCoinbase, params); err != nil {
		return err
	}
	return m.rollback(0)
}

// ConnectTransaction applies the control messages of a single transaction
// at height and appends the inverse mutations to undo.  On error the
// registry and undo are left as they were.
func (s *State) ConnectTransaction(tx *wire.MsgTx, height int32, isCoinbase bool, params *Params, undo *UndoRecord) error {
	m := mutator{state: s, undo: undo}
	return m.connectTransaction(tx, height, isCoinbase, params)
}

// ConnectBlock validates and applies every control message of block, which
// is to be connected at height, in transaction order.  The first transaction
// is the coinbase.  It returns the undo record of the block.
//
// A block that violates any rule leaves the registry exactly as it was and
// the returned error is a RuleError.
func (s *State) ConnectBlock(block *btcutil.Block, height int32, params *Params) (*UndoRecord, error) {
	undo := &UndoRecord{}
	m := mutator{state: s, undo: undo}
	for i, tx := range block.Transactions() {
		err := m.connectTransaction(tx.MsgTx(), height, i == 0, params)
		if err != nil {
			if rerr := m.rollback(0); rerr != nil {
				return nil, rerr
			}
			return nil, err
		}
	}
	if undo.Len() > 0 {
		log.Debugf("Connected block %v at height %d with %d drivechain "+
			"mutations", block.Hash(), height, undo.Len())
	}
	return undo, nil
}

// DisconnectBlock reverses the mutations of a block using its undo record.
// An error means the record does not belong to the current tip and the
// registry must be considered corrupt.
func (s *State) DisconnectBlock(undo *UndoRecord) error {
	if undo == nil {
		return AssertError("disconnect: missing undo record")
	}
	return s.Revert(undo)
}
