// Package version provides version information for the files-to-prompt CLI.
package version

import (
	"fmt"
	"runtime"
)

// These variables are populated at build time using -ldflags.
// Example:
// go build -ldflags "-X 'filestoprompt/pkg/version.Version=0.3.0' -X 'filestoprompt/pkg/version.Commit=abcdefg'"
var (
	Version   = "dev"     // Semantic version of the application
	Commit    = "none"    // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

// AppName is the name reported in logs and version output.
const AppName = "files-to-prompt"

// Info contains comprehensive version information.
type Info struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
	Platform  string // OS and architecture
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String renders i on one line, e.g.
// files-to-prompt version 0.3.0 (commit: abcdefg) built at 2024-04-27T15:04:05Z with go1.24.0 on linux/amd64
func (i Info) String() string {
	return fmt.Sprintf("%s version %s (commit: %s) built at %s with %s on %s",
		AppName, i.Version, i.GitCommit, i.BuildTime, i.GoVersion, i.Platform)
}
