package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	ov, od, oc := BuildVersion, BuildDate, BuildCommit
	t.Cleanup(func() { BuildVersion, BuildDate, BuildCommit = ov, od, oc })

	BuildVersion, BuildDate, BuildCommit = "", "", ""
	require.Equal(t, "Build version: N/A\nBuild date: N/A\nBuild commit: N/A\n", String())

	BuildVersion, BuildDate, BuildCommit = "v1", "2026-08-29", "deadbeef"
	require.Equal(t, "Build version: v1\nBuild date: 2026-08-29\nBuild commit: deadbeef\n", String())
}
