// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

const (
	// DefaultBlockMaxWeight is the default maximum weight of a generated
	// block.
	DefaultBlockMaxWeight = 3000000

	// coinbaseFlags is added to the coinbase script of a generated block.
	coinbaseFlags = "/drivechaind/"
)

// Policy houses the policy (configuration parameters) which is used to control
// the generation of block templates.
type Policy struct {
	// BlockMaxWeight is the maximum block weight to be used when
	// generating a block template.  Zero selects DefaultBlockMaxWeight.
	BlockMaxWeight uint32
}

func (p *Policy) maxWeight() int64 {
	if p == nil || p.BlockMaxWeight == 0 {
		return DefaultBlockMaxWeight
	}
	return int64(p.BlockMaxWeight)
}
