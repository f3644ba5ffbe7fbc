// Package buildinfo exposes the build stamp injected via -ldflags.
package buildinfo

import "fmt"

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

// String returns the formatted build stamp with "N/A" for unset fields.
func String() string {
	return fmt.Sprintf("Build version: %s\nBuild date: %s\nBuild commit: %s\n",
		orNA(BuildVersion), orNA(BuildDate), orNA(BuildCommit))
}

// PrintBuildInfo writes the build stamp to stdout.
func PrintBuildInfo() {
	fmt.Print(String())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
