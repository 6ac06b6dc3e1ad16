// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// buildBusyChain returns a chain whose registry holds every kind of record.
func buildBusyChain(t *testing.T) *testChain {
	c := newTestChain(t)
	c.params.VoteThreshold = 2

	withdrawals := []*wire.TxOut{payToNewKey(t, 250)}
	executed := CalcBundleHash(withdrawals)
	pending := repeatHash(0x02)
	c.mustConnect(newSpend(depositOut(9, 1000), depositOut(3, 42)))
	c.mustConnect(newSpend(commitOut(9, executed)), newSpend(commitOut(9, pending)),
		newSpend(commitOut(200, pending)))
	c.mineVotes(9, executed, 2)
	c.mineVotes(9, pending, 1)
	c.mustConnect(executeTx(9, executed, withdrawals...))
	return c
}

// TestStateSerialization ensures the registry survives an encode/decode
// cycle and every truncation of the encoding is rejected.
func TestStateSerialization(t *testing.T) {
	c := buildBusyChain(t)
	serialized := c.state.Serialize()

	state, err := DeserializeState(serialized)
	require.NoError(t, err)
	require.True(t, c.state.Equal(state))
	require.Equal(t, c.state.Snapshot(), state.Snapshot())

	empty, err := DeserializeState(NewState().Serialize())
	require.NoError(t, err)
	require.Zero(t, empty.NumSidechains())

	for i := 0; i < len(serialized); i++ {
		_, err := DeserializeState(serialized[:i])
		require.Truef(t, IsDeserializeErr(err), "truncated at %d: %v", i, err)
	}
	_, err = DeserializeState(append(serialized, 0x00))
	require.True(t, IsDeserializeErr(err))

	bad := append([]byte{}, serialized...)
	bad[0] = 0xff
	_, err = DeserializeState(bad)
	require.True(t, IsDeserializeErr(err))
}

// TestUndoSerialization ensures undo records survive an encode/decode cycle
// and a decoded record still reverts its block.
func TestUndoSerialization(t *testing.T) {
	c := buildBusyChain(t)

	for len(c.undos) > 0 {
		last := c.undos[len(c.undos)-1]
		serialized := last.Serialize()

		undo, err := DeserializeUndoRecord(serialized)
		require.NoError(t, err)
		require.Equal(t, last, undo)

		for i := 0; i < len(serialized); i++ {
			_, err := DeserializeUndoRecord(serialized[:i])
			require.Truef(t, IsDeserializeErr(err), "truncated at %d", i)
		}

		c.undos[len(c.undos)-1] = undo
		c.disconnect()
	}
	require.Zero(t, c.state.NumSidechains())

	_, err := DeserializeUndoRecord([]byte{undoVersion, 0x01, 0xee, 0x00})
	require.True(t, IsDeserializeErr(err))
}
