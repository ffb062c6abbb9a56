// Package version centralizes version management for larchfix.
package version

// Version is the current larchfix release. Overridable at build time:
// go build -ldflags "-X github.com/standardbeagle/larchfix/internal/version.Version=v0.3.1"
var Version = "0.3.0"
