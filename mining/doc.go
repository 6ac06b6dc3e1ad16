// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mining builds block templates on top of the current tip.

The coinbase of a template pays the block subsidy and carries the bundle
votes the caller asked for.  Transactions from the source pool are added in
acceptance order as long as they still pass the drivechain rules against the
registry as updated by the transactions before them, so a template never
contains, say, two executions draining the same escrow past its balance.

Templates use the minimum difficulty of the network, which makes them only
useful for generating blocks on the regression test and simulation networks.
*/
package mining
