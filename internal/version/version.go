// Package version exposes build metadata for the matdex binaries.
package version

// Overridden at build time via -ldflags "-X ...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the version for logs and the CLI version flag.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
