// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package database persists the drivechain registry, its per-block undo
records and the blocks and block index needed to rebuild the chain on
restart.

The store sits on top of an engine.Engine, selected by name with Open.  Every
change of tip is committed as a single engine transaction containing the new
registry, the new tip and the undo record change, so the stored registry
always corresponds exactly to the stored tip.
*/
package database
