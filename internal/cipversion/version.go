// Package cipversion holds build-time version stamps, set via -ldflags the
// same way the teacher's pkg/version is populated by its build.
package cipversion

import "fmt"

// Version is the engine's release version, stamped at build time.
var Version string

// GitCommit is the commit the binary was built from, stamped at build time.
var GitCommit string

// String returns a human-readable version banner.
func String() string {
	return fmt.Sprintf("cipsolve version: %s\ngit commit: %s\n", Version, GitCommit)
}
