// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package log

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

func TestParseAndSetDebugLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
		check   map[string]btclog.Level
	}{{
		name:  "single level",
		level: "debug",
		check: map[string]btclog.Level{
			"DRVD": btclog.LevelDebug,
			"TXMP": btclog.LevelDebug,
		},
	}, {
		name:  "pairs",
		level: "CHAN=trace,DCHN=warn",
		check: map[string]btclog.Level{
			"CHAN": btclog.LevelTrace,
			"DCHN": btclog.LevelWarn,
		},
	}, {
		name:    "invalid level",
		level:   "loud",
		wantErr: true,
	}, {
		name:    "unknown subsystem",
		level:   "PEER=info",
		wantErr: true,
	}, {
		name:    "missing pair separator",
		level:   "CHAN=info,debug",
		wantErr: true,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			SetLogLevels("info")
			err := ParseAndSetDebugLevels(test.level)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			for subsys, want := range test.check {
				require.Equal(t, want, subsystemLoggers[subsys].Level(),
					subsys)
			}
		})
	}
}

func TestSupportedSubsystems(t *testing.T) {
	require.Equal(t, []string{"CHAN", "DCDB", "DCHN", "DRVD", "MINR",
		"RPCS", "TXMP"}, SupportedSubsystems())
}

func TestInitLogRotator(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "drivechaind.log")
	require.NoError(t, InitLogRotator(logFile))
	t.Cleanup(func() {
		LogRotator.Close()
		LogRotator = nil
	})
	DrvdLog.Infof("rotator test")
	require.FileExists(t, logFile)
}
