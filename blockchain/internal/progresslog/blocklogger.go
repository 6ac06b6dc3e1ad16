// Copyright (c) 2015-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package progresslog

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btclog"
)

// BlockProgressLogger provides periodic logging for other services in order
// to show users progress of certain "actions" involving some or all current
// blocks. Ex: connecting blocks, replaying a reorganization, etc.
type BlockProgressLogger struct {
	receivedLogBlocks    int64
	receivedLogTx        int64
	receivedLogMutations int64
	lastBlockLogTime     time.Time

	subsystemLogger btclog.Logger
	progressAction  string
	interval        time.Duration
	sync.Mutex
}

// NewBlockProgressLogger returns a new block progress logger.
// The progress message is templated as follows:
//
//	{progressAction} {numProcessed} {blocks|block} in the last {timePeriod}
//	({numTxs}, {numMutations}, height {lastBlockHeight}, {lastBlockTimeStamp})
func NewBlockProgressLogger(progressMessage string, logger btclog.Logger) *BlockProgressLogger {
	return &BlockProgressLogger{
		lastBlockLogTime: time.Now(),
		progressAction:   progressMessage,
		subsystemLogger:  logger,
		interval:         10 * time.Second,
	}
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// LogBlockHeight logs a new block height as an information message to show
// progress to the user.  mutations is the number of drivechain registry
// changes the block made.  In order to prevent spam, it limits logging to
// one message every 10 seconds with duration and totals included.
func (b *BlockProgressLogger) LogBlockHeight(block *btcutil.Block, height int32, mutations int) {
	b.Lock()
	defer b.Unlock()

	b.receivedLogBlocks++
	b.receivedLogTx += int64(len(block.MsgBlock().Transactions))
	b.receivedLogMutations += int64(mutations)

	now := time.Now()
	duration := now.Sub(b.lastBlockLogTime)
	if duration < b.interval {
		return
	}

	// Truncate the duration to 10s of milliseconds.
	tDuration := duration.Truncate(10 * time.Millisecond)

	b.subsystemLogger.Infof("%s %d %s in the last %s (%d %s, %d %s, "+
		"height %d, %s)", b.progressAction, b.receivedLogBlocks,
		plural(b.receivedLogBlocks, "block", "blocks"), tDuration,
		b.receivedLogTx, plural(b.receivedLogTx, "transaction", "transactions"),
		b.receivedLogMutations, plural(b.receivedLogMutations, "registry change",
			"registry changes"), height, block.MsgBlock().Header.Timestamp)

	b.receivedLogBlocks = 0
	b.receivedLogTx = 0
	b.receivedLogMutations = 0
	b.lastBlockLogTime = now
}
