// Package version provides build and version information.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current application version.
const Version = "0.6.0"

// Commit is set at build time with -ldflags "-X .../version.Commit=<sha>".
var Commit = "dev"

// String describes the build for `gaiamaps version`.
func String() string {
	return fmt.Sprintf("gaiamaps %s (%s, %s %s/%s)", Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Milestones:
// 0.6.0 - Query history journal, prometheus metrics, cobra subcommands
// 0.5.0 - Star reports with reverse-geocoded subtitles
// 0.4.0 - Brightness modes, velocity and distance columns
// 0.3.0 - Live catalogue queries around the observer, zenith popup
// 0.2.0 - Colour-index tinting and magnitude-scaled markers
// 0.1.0 - Initial release: Big Dipper map, zenith star resolver, headless demo
