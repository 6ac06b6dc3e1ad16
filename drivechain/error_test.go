// Copyright (c) 2014-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestErrorCodeStringer tests the stringized output for the ErrorCode type.
func TestErrorCodeStringer(t *testing.T) {
	tests := []struct {
		in   ErrorCode
		want string
	}{
		{ErrBeforeActivation, "ErrBeforeActivation"},
		{ErrVoteNotCoinbase, "ErrVoteNotCoinbase"},
		{ErrMalformedScript, "ErrMalformedScript"},
		{ErrExecMultiple, "ErrExecMultiple"},
		{ErrExecZeroWithdrawals, "ErrExecZeroWithdrawals"},
		{ErrExecWithdrawalsOutOfBounds, "ErrExecWithdrawalsOutOfBounds"},
		{ErrExecWithdrawalIsDrivechain, "ErrExecWithdrawalIsDrivechain"},
		{ErrExecWithdrawalScriptTooBig, "ErrExecWithdrawalScriptTooBig"},
		{ErrExecPostWithdrawalDrivechain, "ErrExecPostWithdrawalDrivechain"},
		{ErrExecNotApproved, "ErrExecNotApproved"},
		{ErrExecAlreadyExecuted, "ErrExecAlreadyExecuted"},
		{ErrExecHashMismatch, "ErrExecHashMismatch"},
		{ErrExecInsufficientEscrow, "ErrExecInsufficientEscrow"},
		{0xffff, "Unknown ErrorCode (65535)"},
	}

	// Detect additional error codes that don't have the stringer added.
	require.Len(t, tests, int(numErrorCodes)+1, "one or more error codes "+
		"are missing tests")

	for i, test := range tests {
		require.Equalf(t, test.want, test.in.String(), "test #%d", i)
	}
}

// TestRejectReasons ensures every error code has a reason tag and the tags
// clients match on keep their exact spelling.
func TestRejectReasons(t *testing.T) {
	for c := ErrorCode(0); c < numErrorCodes; c++ {
		require.NotEqualf(t, "dc-unknown", c.RejectReason(), "%v has no "+
			"reject reason", c)
	}

	fixed := map[ErrorCode]string{
		ErrBeforeActivation:    "drivechain-before-activation",
		ErrVoteNotCoinbase:     "dc-vote-not-coinbase",
		ErrExecNotApproved:     "dc-exec-not-approved",
		ErrExecAlreadyExecuted: "dc-exec-already-executed",
		ErrExecHashMismatch:    "dc-exec-withdrawals-hash-mismatch",
	}
	for c, want := range fixed {
		require.Equal(t, want, c.RejectReason())
	}
	require.Equal(t, "dc-unknown", ErrorCode(0xffff).RejectReason())
}

// TestRuleError tests the error output and matching of RuleError.
func TestRuleError(t *testing.T) {
	err := ruleError(ErrExecNotApproved, "not approved")
	require.Equal(t, "not approved", err.Error())
	require.Equal(t, "dc-exec-not-approved", err.RejectReason())

	wrapped := fmt.Errorf("block 5: %w", err)
	require.True(t, IsErrorCode(wrapped, ErrExecNotApproved))
	require.False(t, IsErrorCode(wrapped, ErrExecAlreadyExecuted))
	require.False(t, IsErrorCode(AssertError("x"), ErrExecNotApproved))

	require.Equal(t, "assertion failed: x", AssertError("x").Error())
	require.True(t, IsDeserializeErr(fmt.Errorf("load: %w",
		DeserializeError("short"))))
}
