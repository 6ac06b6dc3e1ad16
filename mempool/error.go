// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"

	"github.com/btcsuite/btcd/wire"
	"github.com/drivechaind/drivechaind/blockchain"
	"github.com/drivechaind/drivechaind/drivechain"
)

// TxRuleError identifies a rule violation.  It is used to indicate that
// processing of a transaction failed due to one of the many validation
// rules.  The caller can use type assertions to determine if a failure was
// specifically due to a rule violation and access the RejectCode field to
// ascertain the specific reason for the rule violation.
type TxRuleError struct {
	RejectCode  wire.RejectCode // The code to send with reject messages
	Reason      string          // Short reject reason such as dc-exec-pending
	Description string          // Human readable description of the issue

	// Err is the chain or drivechain rule error behind the rejection, if
	// any.
	Err error
}

// Error satisfies the error interface and prints human-readable errors.
func (e TxRuleError) Error() string {
	return e.Description
}

// Unwrap returns the underlying rule error.
func (e TxRuleError) Unwrap() error {
	return e.Err
}

// txRuleError creates an underlying TxRuleError with the given a set of
// arguments.
func txRuleError(c wire.RejectCode, reason, desc string) TxRuleError {
	return TxRuleError{RejectCode: c, Reason: reason, Description: desc}
}

// wrapRuleError converts a rule error of the chain, or of the drivechain
// rules, into a TxRuleError keeping its reject reason.  Other errors are
// returned unchanged.
func wrapRuleError(err error) error {
	var dcErr drivechain.RuleError
	if errors.As(err, &dcErr) {
		return TxRuleError{
			RejectCode:  wire.RejectInvalid,
			Reason:      dcErr.RejectReason(),
			Description: dcErr.Description,
			Err:         err,
		}
	}
	var chainErr blockchain.RuleError
	if errors.As(err, &chainErr) {
		return TxRuleError{
			RejectCode:  wire.RejectInvalid,
			Reason:      "bad-txns",
			Description: chainErr.Description,
			Err:         err,
		}
	}
	return err
}

// ErrToRejectErr examines the underlying type of the error and returns a
// reject code and reason string appropriate to be reported to the submitter
// of a transaction.
func ErrToRejectErr(err error) (wire.RejectCode, string) {
	var txErr TxRuleError
	if errors.As(err, &txErr) {
		return txErr.RejectCode, txErr.Reason
	}
	if err == nil {
		return wire.RejectInvalid, "rejected"
	}
	return wire.RejectInvalid, "rejected: " + err.Error()
}
