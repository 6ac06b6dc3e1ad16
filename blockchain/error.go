// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"errors"
	"fmt"

	"github.com/drivechaind/drivechaind/drivechain"
)

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// IsAssertError returns whether err is, or wraps, an assertion error from
// either this package or the drivechain rules.
func IsAssertError(err error) bool {
	var chainErr AssertError
	var dcErr drivechain.AssertError
	return errors.As(err, &chainErr) || errors.As(err, &dcErr)
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError.
const (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock ErrorCode = iota

	// ErrMissingParent indicates that the block was an orphan.
	ErrMissingParent

	// ErrInvalidAncestorBlock indicates that an ancestor of this block has
	// already failed validation.
	ErrInvalidAncestorBlock

	// ErrBlockSanity indicates the block failed the context free checks
	// of the base chain such as proof of work, merkle root or transaction
	// sanity.
	ErrBlockSanity

	// ErrTxSanity indicates a standalone transaction failed the context
	// free transaction checks of the base chain.
	ErrTxSanity

	// numErrorCodes is the maximum error code number used in tests.
	numErrorCodes
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrDuplicateBlock:       "ErrDuplicateBlock",
	ErrMissingParent:        "ErrMissingParent",
	ErrInvalidAncestorBlock: "ErrInvalidAncestorBlock",
	ErrBlockSanity:          "ErrBlockSanity",
	ErrTxSanity:             "ErrTxSanity",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation of the chain itself, as opposed to
// the drivechain rules which are reported with drivechain.RuleError.  The
// caller can use type assertions to determine if a failure was specifically
// due to a rule violation and access the ErrorCode field to ascertain the
// specific reason for the rule violation.
type RuleError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates an RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}

// RejectReason returns the short reason a block or transaction failing with
// err is reported with, or the empty string when err is not a rule error.
// Drivechain rule violations keep their own reject strings.
func RejectReason(err error) string {
	var dcErr drivechain.RuleError
	if errors.As(err, &dcErr) {
		return dcErr.RejectReason()
	}
	var chainErr RuleError
	if errors.As(err, &chainErr) {
		switch chainErr.ErrorCode {
		case ErrDuplicateBlock:
			return "duplicate"
		case ErrMissingParent:
			return "prev-blk-not-found"
		case ErrInvalidAncestorBlock:
			return "bad-prevblk"
		}
		return "rejected: " + chainErr.Description
	}
	return ""
}
