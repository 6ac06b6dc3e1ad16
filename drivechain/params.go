// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package drivechain

import "errors"

// ActivationOracle reports whether the drivechain rules are in force for a
// block at the given height.
type ActivationOracle interface {
	IsActive(height int32) bool
}

// ActivationFunc adapts an ordinary function to the ActivationOracle
// interface.
type ActivationFunc func(height int32) bool

// IsActive calls f(height).
func (f ActivationFunc) IsActive(height int32) bool {
	return f(height)
}

// ActiveFrom returns an oracle that activates the rules at height and
// every height after it.
func ActiveFrom(height int32) ActivationOracle {
	return ActivationFunc(func(h int32) bool { return h >= height })
}

// Params are the consensus parameters of the drivechain rules.
type Params struct {
	// VoteThreshold is the number of yes votes at which a bundle becomes
	// approved.
	VoteThreshold uint32

	// VoteWindow is the number of blocks after its commit during which a
	// bundle can collect votes.  A vote at height h counts while
	// h - created_height <= VoteWindow.  Zero disables the window.
	VoteWindow int32

	// Activation gates every control message.
	Activation ActivationOracle
}

// Validate checks the parameters are usable.
func (p *Params) Validate() error {
	if p.VoteThreshold == 0 {
		return errors.New("drivechain: vote threshold must be positive")
	}
	if p.VoteWindow < 0 {
		return errors.New("drivechain: vote window must not be negative")
	}
	if p.Activation == nil {
		return errors.New("drivechain: missing activation oracle")
	}
	return nil
}

// inWindow reports whether a vote at height still counts for a bundle
// committed at created.
func (p *Params) inWindow(height, created int32) bool {
	return p.VoteWindow == 0 || height-created <= p.VoteWindow
}
