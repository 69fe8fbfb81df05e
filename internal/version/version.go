// Package version holds build metadata stamped in at link time.
package version

import "fmt"

// Populated via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String returns a single-line human readable version description.
func String() string {
	return fmt.Sprintf("botboard %s (commit %s, built %s)", Version, Commit, BuildDate)
}
