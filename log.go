// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/drivechaind/drivechaind/internal/log"
)

// Loggers of the daemon subsystems living in package main.
var (
	drvdLog = log.DrvdLog
	rpcsLog = log.RpcsLog
)
