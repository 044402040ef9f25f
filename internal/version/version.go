// Package version holds build information injected with -ldflags.
package version

import "fmt"

// Set at build time, e.g.
//
//	go build -ldflags "-X github.com/banshee-data/pc2draco/internal/version.Version=v0.3.0"
var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String formats the build information for `pc2draco version`.
func String() string {
	return fmt.Sprintf("pc2draco %s (%s, built %s)", Version, GitSHA, BuildTime)
}
