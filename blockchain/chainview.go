// Copyright (c) 2017 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

// approxNodesPerDay is an approximation of the number of new blocks there are
// in a day on average.
const approxNodesPerDay = 6 * 24

// chainView provides a flat view of a specific branch of the block chain from
// its tip back to the genesis block and provides various convenience functions
// for comparing chains.
//
// For example, assume a block chain with a side chain as depicted below:
//
//	genesis -> 1 -> 2 -> 3 -> 4  -> 5 ->  6  -> 7  -> 8
//	                      \-> 4a -> 5a -> 6a
//
// The chain view for the branch ending in 6a consists of:
//
//	genesis -> 1 -> 2 -> 3 -> 4a -> 5a -> 6a
//
// A chain view is not safe for concurrent access.  The main chain view is
// guarded by the chain lock.
type chainView struct {
	nodes []*blockNode
}

// newChainView returns a new chain view for the given tip block node.  Passing
// nil as the tip will result in a chain view that is not initialized.
func newChainView(tip *blockNode) *chainView {
	var c chainView
	c.setTip(tip)
	return &c
}

// genesis returns the genesis block node of the view, or nil when the view
// is not initialized.
func (c *chainView) genesis() *blockNode {
	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[0]
}

// tip returns the current tip block node for the chain view.  It will return
// nil if there is no tip.
func (c *chainView) tip() *blockNode {
	if len(c.nodes) == 0 {
		return nil
	}
	return c.nodes[len(c.nodes)-1]
}

// setTip sets the chain view to use the provided block node as the current tip
// and ensures the view is consistent by populating it with the nodes obtained
// by walking backwards all the way to genesis block as necessary.  Further
// calls will only perform the minimum work needed, so switching between chain
// tips is efficient.
func (c *chainView) setTip(node *blockNode) {
	if node == nil {
		// Keep the backing array around for potential future use.
		c.nodes = c.nodes[:0]
		return
	}

	// Grow with some headroom so extending the chain one block at a time
	// only reallocates about once a day.
	needed := int(node.height) + 1
	if cap(c.nodes) < needed {
		nodes := make([]*blockNode, needed, needed+approxNodesPerDay)
		copy(nodes, c.nodes)
		c.nodes = nodes
	} else {
		prevLen := len(c.nodes)
		c.nodes = c.nodes[0:needed]
		for i := prevLen; i < needed; i++ {
			c.nodes[i] = nil
		}
	}

	for node != nil && c.nodes[node.height] != node {
		c.nodes[node.height] = node
		node = node.parent
	}
}

// height returns the height of the tip of the chain view.  It will return -1 if
// there is no tip (which only happens if the chain view has not been
// initialized).
func (c *chainView) height() int32 {
	return int32(len(c.nodes) - 1)
}

// nodeByHeight returns the block node at the specified height.  Nil will be
// returned if the height does not exist.
func (c *chainView) nodeByHeight(height int32) *blockNode {
	if height < 0 || height >= int32(len(c.nodes)) {
		return nil
	}
	return c.nodes[height]
}

// contains returns whether or not the chain view contains the passed block
// node.
func (c *chainView) contains(node *blockNode) bool {
	return c.nodeByHeight(node.height) == node
}

// findFork returns the final common block between the provided node and the
// the chain view.  It will return nil if there is no common block.
//
// For example, assume a block chain with a side chain as depicted below:
//
//	genesis -> 1 -> 2 -> ... -> 5 -> 6  -> 7  -> 8
//	                             \-> 6a -> 7a
//
// Invoking this function on the view of the longer chain with block node 7a
// returns block node 5, while invoking it with block node 7 returns itself.
func (c *chainView) findFork(node *blockNode) *blockNode {
	if node == nil {
		return nil
	}

	// The common node can't be past the end of the view.
	if node.height > c.height() {
		node = node.ancestor(c.height())
	}
	for node != nil && !c.contains(node) {
		node = node.parent
	}
	return node
}
