// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"errors"
	"fmt"
)

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.  An undo
// record that does not match the registry it is applied to is reported this
// way, since it can only be the result of storage corruption.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// DeserializeError signifies that a problem was encountered when decoding a
// serialized registry or undo record.
type DeserializeError string

// Error implements the error interface.
func (e DeserializeError) Error() string {
	return string(e)
}

// IsDeserializeErr returns whether or not the passed error is a
// DeserializeError.
func IsDeserializeErr(err error) bool {
	var derr DeserializeError
	return errors.As(err, &derr)
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrBeforeActivation indicates a transaction carries a drivechain
	// output at a height where the feature is not active.
	ErrBeforeActivation ErrorCode = iota

	// ErrVoteNotCoinbase indicates a vote output was found outside of the
	// coinbase transaction.
	ErrVoteNotCoinbase

	// ErrMalformedScript indicates an output starts with the drivechain
	// opcode but does not follow any control message layout.
	ErrMalformedScript

	// ErrExecMultiple indicates a transaction carries more than one
	// execute marker.
	ErrExecMultiple

	// ErrExecZeroWithdrawals indicates an execute marker announcing an
	// empty withdrawal set.
	ErrExecZeroWithdrawals

	// ErrExecWithdrawalsOutOfBounds indicates the announced withdrawal set
	// extends past the last output of the transaction.
	ErrExecWithdrawalsOutOfBounds

	// ErrExecWithdrawalIsDrivechain indicates a withdrawal output is itself
	// a drivechain control message.
	ErrExecWithdrawalIsDrivechain

	// ErrExecWithdrawalScriptTooBig indicates a withdrawal script that is
	// too long to be committed to.
	ErrExecWithdrawalScriptTooBig

	// ErrExecPostWithdrawalDrivechain indicates a drivechain output placed
	// after the withdrawal set of an execute.
	ErrExecPostWithdrawalDrivechain

	// ErrExecNotApproved indicates an execute for a bundle that does not
	// exist or has not reached the approval threshold.
	ErrExecNotApproved

	// ErrExecAlreadyExecuted indicates an execute for a bundle that was
	// already paid out.
	ErrExecAlreadyExecuted

	// ErrExecHashMismatch indicates the withdrawal set of an execute does
	// not hash to the bundle it references.
	ErrExecHashMismatch

	// ErrExecInsufficientEscrow indicates an execute that would withdraw
	// more than the escrow balance of the sidechain.
	ErrExecInsufficientEscrow

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrBeforeActivation:             "ErrBeforeActivation",
	ErrVoteNotCoinbase:              "ErrVoteNotCoinbase",
	ErrMalformedScript:              "ErrMalformedScript",
	ErrExecMultiple:                 "ErrExecMultiple",
	ErrExecZeroWithdrawals:          "ErrExecZeroWithdrawals",
	ErrExecWithdrawalsOutOfBounds:   "ErrExecWithdrawalsOutOfBounds",
	ErrExecWithdrawalIsDrivechain:   "ErrExecWithdrawalIsDrivechain",
	ErrExecWithdrawalScriptTooBig:   "ErrExecWithdrawalScriptTooBig",
	ErrExecPostWithdrawalDrivechain: "ErrExecPostWithdrawalDrivechain",
	ErrExecNotApproved:              "ErrExecNotApproved",
	ErrExecAlreadyExecuted:          "ErrExecAlreadyExecuted",
	ErrExecHashMismatch:             "ErrExecHashMismatch",
	ErrExecInsufficientEscrow:       "ErrExecInsufficientEscrow",
}

// rejectReasons maps each ErrorCode to the short reason tag reported to peers
// and RPC clients.  These strings are part of the external interface.
var rejectReasons = map[ErrorCode]string{
	ErrBeforeActivation:             "drivechain-before-activation",
	ErrVoteNotCoinbase:              "dc-vote-not-coinbase",
	ErrMalformedScript:              "dc-malformed-script",
	ErrExecMultiple:                 "dc-exec-multiple",
	ErrExecZeroWithdrawals:          "dc-exec-zero-withdrawals",
	ErrExecWithdrawalsOutOfBounds:   "dc-exec-withdrawals-oob",
	ErrExecWithdrawalIsDrivechain:   "dc-exec-withdrawal-is-drivechain",
	ErrExecWithdrawalScriptTooBig:   "dc-exec-withdrawal-script-too-big",
	ErrExecPostWithdrawalDrivechain: "dc-exec-post-withdrawal-drivechain",
	ErrExecNotApproved:              "dc-exec-not-approved",
	ErrExecAlreadyExecuted:          "dc-exec-already-executed",
	ErrExecHashMismatch:             "dc-exec-withdrawals-hash-mismatch",
	ErrExecInsufficientEscrow:       "dc-exec-insufficient-escrow",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RejectReason returns the reason tag for the error code.
func (e ErrorCode) RejectReason() string {
	if s := rejectReasons[e]; s != "" {
		return s
	}
	return "dc-unknown"
}

// RuleError identifies a rule violation.  It is used to indicate that
// processing of a block or transaction failed due to one of the drivechain
// validation rules.  The caller can use type assertions to determine if a
// failure was specifically due to a rule violation and access the ErrorCode
// field to ascertain the specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// RejectReason returns the reason tag of the violated rule.
func (e RuleError) RejectReason() string {
	return e.ErrorCode.RejectReason()
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// IsErrorCode returns whether err is a RuleError, possibly wrapped, with the
// given error code.
func IsErrorCode(err error, c ErrorCode) bool {
	var rerr RuleError
	return errors.As(err, &rerr) && rerr.ErrorCode == c
}
