// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/drivechaind/drivechaind/database"
	"github.com/drivechaind/drivechaind/netparams"
	"github.com/stretchr/testify/require"
)

// testConfigArgs returns the arguments pointing drivechaind at a config file
// holding contents and at temporary directories, followed by extra.
func testConfigArgs(t *testing.T, contents string, extra ...string) (string, []string) {
	t.Helper()

	dir := t.TempDir()
	confFile := filepath.Join(dir, defaultConfigFilename)
	require.NoError(t, os.WriteFile(confFile, []byte(contents), 0600))
	args := []string{
		"--configfile=" + confFile,
		"--datadir=" + filepath.Join(dir, "data"),
		"--logdir=" + filepath.Join(dir, "logs"),
	}
	return dir, append(args, extra...)
}

func TestParseConfigDefaults(t *testing.T) {
	dir, args := testConfigArgs(t, "")

	cfg, remaining, err := parseConfig(args)
	require.NoError(t, err)
	require.Empty(t, remaining)

	require.Same(t, &netparams.MainNetParams, cfg.params)
	require.Equal(t, filepath.Join(dir, "data", cfg.params.Name), cfg.DataDir)
	require.Equal(t, filepath.Join(dir, "logs", cfg.params.Name,
		defaultLogFilename), cfg.logFile())
	require.Equal(t, database.TypeLevelDB, cfg.DbType)
	require.Equal(t, defaultMaxRPCClients, cfg.RPCMaxClients)

	// No credentials disable the RPC server.
	require.True(t, cfg.DisableRPC)
	require.Empty(t, cfg.RPCListeners)
	require.Nil(t, cfg.miningAddr)
}

func TestParseConfigFile(t *testing.T) {
	_, args := testConfigArgs(t, "regtest=1\nrpcuser=user\nrpcpass=pass\n"+
		"dbtype=pebble\n")

	cfg, _, err := parseConfig(args)
	require.NoError(t, err)
	require.Same(t, &netparams.RegressionNetParams, cfg.params)
	require.Equal(t, database.TypePebble, cfg.DbType)
	require.False(t, cfg.DisableRPC)
	require.Equal(t, []string{"localhost:18534"}, cfg.RPCListeners)

	// Command line options take precedence.
	cfg, _, err = parseConfig(append(args, "--dbtype=bbolt",
		"--rpclisten=127.0.0.1", "--rpclisten=127.0.0.1:18534",
		"--rpclisten=:9000"))
	require.NoError(t, err)
	require.Equal(t, database.TypeBolt, cfg.DbType)
	require.Equal(t, []string{"127.0.0.1:18534", ":9000"}, cfg.RPCListeners)
}

func TestParseConfigMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, _, err := parseConfig([]string{
		"--configfile=" + filepath.Join(dir, "missing.conf"),
		"--datadir=" + dir,
	})
	require.Error(t, err)
}

func TestParseConfigActivationOverride(t *testing.T) {
	_, args := testConfigArgs(t, "", "--regtest", "--drivechainactivation=100")

	cfg, _, err := parseConfig(args)
	require.NoError(t, err)
	require.Equal(t, int32(100), cfg.params.DrivechainActivationHeight)
	require.Equal(t, netparams.RegressionNetParams.Name, cfg.params.Name)

	// The network defaults are left alone.
	require.Zero(t, netparams.RegressionNetParams.DrivechainActivationHeight)
}

func TestParseConfigMiningAddr(t *testing.T) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160([]byte("miner")),
		netparams.RegressionNetParams.Params)
	require.NoError(t, err)

	_, args := testConfigArgs(t, "", "--regtest",
		"--miningaddr="+addr.EncodeAddress())
	cfg, _, err := parseConfig(args)
	require.NoError(t, err)
	require.Equal(t, addr.EncodeAddress(), cfg.miningAddr.EncodeAddress())

	mainAddr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160([]byte("miner")),
		netparams.MainNetParams.Params)
	require.NoError(t, err)
	_, args = testConfigArgs(t, "", "--regtest",
		"--miningaddr="+mainAddr.EncodeAddress())
	_, _, err = parseConfig(args)
	require.Error(t, err)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "multiple networks",
			args: []string{"--regtest", "--simnet"},
		},
		{
			name: "invalid database type",
			args: []string{"--dbtype=ffldb"},
		},
		{
			name: "negative reorg depth",
			args: []string{"--maxreorgdepth=-1"},
		},
		{
			name: "activation below -1",
			args: []string{"--drivechainactivation=-2"},
		},
		{
			name: "invalid debug level",
			args: []string{"--debuglevel=verbose"},
		},
		{
			name: "no rpc clients",
			args: []string{"--rpcuser=u", "--rpcpass=p", "--rpcmaxclients=0"},
		},
		{
			name: "unknown option",
			args: []string{"--nosuchoption"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, args := testConfigArgs(t, "", test.args...)
			_, _, err := parseConfig(args)
			require.Error(t, err)
		})
	}
}
