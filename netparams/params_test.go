// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActivation(t *testing.T) {
	require.True(t, RegressionNetParams.IsActive(0))
	require.False(t, MainNetParams.IsActive(800_000))
	require.False(t, TestNet3Params.IsActive(0))
	require.True(t, TestNet3Params.IsActive(1))

	p := RegressionNetParams.WithActivationHeight(5)
	require.False(t, p.IsActive(4))
	require.True(t, p.IsActive(5))
	require.True(t, RegressionNetParams.IsActive(4), "copy must not alias")
}

func TestDrivechainParams(t *testing.T) {
	for _, p := range []*Params{&MainNetParams, &TestNet3Params,
		&RegressionNetParams, &SimNetParams} {

		dp := p.DrivechainParams()
		require.NoError(t, dp.Validate(), p.Name)
		require.Equal(t, p.BundleVoteThreshold, dp.VoteThreshold, p.Name)
		require.Positive(t, p.MaxReorgDepth, p.Name)
		require.Equal(t, p.IsActive(1), dp.Activation.IsActive(1), p.Name)
	}
	require.Equal(t, uint32(10), RegressionNetParams.BundleVoteThreshold)
}
