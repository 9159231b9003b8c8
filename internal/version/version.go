// Package version holds build identification, injected at link time via
// -ldflags "-X github.com/nachoandmikey/clawtrol/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the short git SHA the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// Short returns just the version string.
func Short() string {
	return Version
}

// Info returns a multi-line version report for the version command.
func Info() string {
	return fmt.Sprintf("clawtrol %s\ncommit: %s\nbuilt:  %s\n%s %s/%s",
		Version, Commit, Date, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies the binary in outbound HTTP requests.
func UserAgent() string {
	return "clawtrol/" + Version
}
