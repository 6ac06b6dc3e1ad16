// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package database

import (
	"errors"
)

var (
	// ErrUnknownType is returned by Open for an unsupported engine name.
	ErrUnknownType = errors.New("database: unknown database type")

	// ErrUndoNotFound is returned when the undo record of a block is not
	// in the store.
	ErrUndoNotFound = errors.New("database: undo record not found")

	// ErrBlockNotFound is returned when a block is not in the store.
	ErrBlockNotFound = errors.New("database: block not found")

	// ErrIncompatibleVersion is returned when the store was written with
	// a key layout this software does not understand.
	ErrIncompatibleVersion = errors.New("database: incompatible version")
)
