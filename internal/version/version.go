// Package version holds build metadata injected with -ldflags, e.g.
//
//	go build -ldflags "-X git.home.luguber.info/inful/codedoc/internal/version.Version=v1.0.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String formats the metadata for --version output.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
