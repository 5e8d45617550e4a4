// Package version holds the dupfind version string.
package version

// Version is the current dupfind version. Overridden at build time via
// -ldflags "-X dupfind/internal/version.Version=...".
var Version = "0.3.0"
