package exifedit

import (
	"fmt"
	"runtime"
)

// Version is the semantic version of the exifedit library.
const Version = "0.1.0"

// VersionInfo describes the build of the library or CLI.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
}

// String renders the build details on one line.
func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
}

// GetVersionInfo returns detailed version information.
//
// GitCommit and BuildTime are stamped at build time; the Go version falls
// back to the running toolchain:
//
//	go build -ldflags="-X github.com/simonhull/exifedit.gitCommit=$(git rev-parse --short HEAD) \
//	  -X github.com/simonhull/exifedit.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/exifedit
func GetVersionInfo() VersionInfo {
	goVer := goVersion
	if goVer == "unknown" {
		goVer = runtime.Version()
	}

	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: goVer,
	}
}

// Set via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)
