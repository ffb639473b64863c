// Package buildinfo holds the version stamped into blurt builds.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/blurtapp/blurt/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/blurtapp/blurt/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/blurtapp/blurt/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/blurt
package buildinfo

import "fmt"

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// Commit is the short git SHA of the build.
	Commit = "none"
	// Date is the UTC build time.
	Date = "unknown"
)

// String returns the version, commit and build date on separate lines.
func String() string {
	return fmt.Sprintf("blurt %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}
