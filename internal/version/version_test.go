// Copyright (c) 2025 The drivechaind developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package version

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	defer func(pre, build string) {
		PreRelease, BuildMetadata = pre, build
	}(PreRelease, BuildMetadata)

	base := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	tests := []struct {
		pre, build string
		want       string
	}{
		{"", "", base},
		{"beta", "", base + "-beta"},
		{"rc.1", "", base + "-rc1"},
		{"", "git.abc123", base + "+git.abc123"},
		{"a_b", "c d", base + "-ab+cd"},
	}
	for _, test := range tests {
		PreRelease, BuildMetadata = test.pre, test.build
		require.Equal(t, test.want, String())
	}
}
