// Package version reports the build version of the server binary.
package version

import "runtime/debug"

var version = "dev"

// Version prefers the module version stamped by the Go toolchain and falls
// back to the value set via -ldflags, or "dev" for local builds.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}
