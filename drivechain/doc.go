// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package drivechain implements the consensus rules and state of sidechain
withdrawal bundles.

Value is escrowed on behalf of a sidechain with DEPOSIT outputs.  A bundle of
withdrawals is proposed with a BUNDLE_COMMIT output carrying the commitment
hash of the withdrawal set, miners vote for it with VOTE outputs in their
coinbase, and once a bundle collects the configured number of votes it can be
paid out exactly once by an EXECUTE transaction whose withdrawal outputs hash
to the committed value.

Control messages are output scripts of the form

	OP_DRIVECHAIN <scid:1> <payload:32> <tag:1>
	OP_DRIVECHAIN <scid:1> <bundle hash:32> <0x03> <n withdrawals:4>

where OP_DRIVECHAIN is OP_NOP5 and every operand is a direct data push.

Every mutation made while connecting a block is recorded in an UndoRecord.
Reverting the record restores the registry exactly, which is what makes the
state safe across chain reorganizations.

Errors

Rule violations are returned as RuleError.  Each ErrorCode maps to the short
reject reason reported to clients, for instance dc-exec-not-approved.
*/
package drivechain
