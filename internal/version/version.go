// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version houses the version of drivechaind.
package version

import (
	"fmt"
	"strings"
)

const (
	// semanticAlphabet defines the allowed characters for the pre-release
	// and build metadata portions of a semantic version string.
	semanticAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."
)

// These constants define the application version and follow the semantic
// versioning 2.0.0 (http://semver.org/).
const (
	Major uint = 0
	Minor uint = 3
	Patch uint = 0
)

var (
	// PreRelease is defined as a variable so it can be overridden during the
	// build process with:
	// '-ldflags "-X github.com/drivechaind/drivechaind/internal/version.PreRelease=foo"'
	// if needed.  Dots are dropped since they separate identifiers.
	PreRelease = "beta"

	// BuildMetadata is defined as a variable so it can be overridden during
	// the build process with:
	// '-ldflags "-X github.com/drivechaind/drivechaind/internal/version.BuildMetadata=foo"'
	// if needed.
	BuildMetadata = ""
)

// String returns the application version as a properly formed string per the
// semantic versioning 2.0.0 (http://semver.org/).
func String() string {
	version := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if pre := normalize(PreRelease, false); pre != "" {
		version += "-" + pre
	}
	if build := normalize(BuildMetadata, true); build != "" {
		version += "+" + build
	}
	return version
}

// normalize strips the characters the semantic versioning alphabet does not
// allow.  Dots are only kept in build metadata.
func normalize(str string, allowDots bool) string {
	return strings.Map(func(r rune) rune {
		if r == '.' && !allowDots {
			return -1
		}
		if !strings.ContainsRune(semanticAlphabet, r) {
			return -1
		}
		return r
	}, str)
}
