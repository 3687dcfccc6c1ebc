// Package version carries build metadata for the shopkit binary.
package version

import "fmt"

// These variables are populated by the Go linker (LDFLAGS) at build time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// UserAgent is sent with every API request.
func UserAgent() string {
	return "shopkit/" + Version
}

// String describes the build for `shopkit version`.
func String() string {
	return fmt.Sprintf("shopkit %s (commit %s, built %s)", Version, CommitHash, BuildDate)
}
