// Package buildinfo reports the version the binary was built from.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/landscape/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/landscape/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/landscape/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Without ldflags, Commit and Date fall back to the VCS stamp the Go
// toolchain embeds in module builds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// shortCommit is the length commits are displayed at.
const shortCommit = 12

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	fillFromVCS(info.Settings)
}

// fillFromVCS copies vcs.revision and vcs.time into unset variables.
func fillFromVCS(settings []debug.BuildSetting) {
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "none" && s.Value != "" {
				Commit = s.Value
			}
		case "vcs.time":
			if Date == "unknown" && s.Value != "" {
				Date = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && Commit != "none" {
		Commit += "-dirty"
	}
}

// ShortCommit returns the commit abbreviated for display.
func ShortCommit() string {
	if len(Commit) > shortCommit {
		return Commit[:shortCommit]
	}
	return Commit
}

// String returns the build information, one field per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s\ngo: %s", Version, ShortCommit(), Date, runtime.Version())
}

// Template returns the version template for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s\n",
		Version, ShortCommit(), Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
