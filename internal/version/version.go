// Package version holds the application version stamped at build time.
package version

// Version is overridden via -ldflags "-X H2E/internal/version.Version=...".
var Version = "dev"
