package version

import "fmt"

// Overridden at build time:
//
//	go build -ldflags "-X movieqa/internal/version.Version=1.2.0 -X movieqa/internal/version.Commit=abc123"
var (
	Version = "0.1.0-dev"
	Commit  = "none"
)

func String() string {
	return fmt.Sprintf("movieqa %s (%s)", Version, Commit)
}
