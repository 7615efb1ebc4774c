// Package version provides version information for remexec.
// The Version variable is set at build time via ldflags.
package version

// Version is the current version of remexec.
// Set at build time via: -ldflags "-X github.com/xdg/remexec/internal/version.Version=v1.0.0"
// Defaults to "dev" for development builds.
var Version = "dev"

// UserAgent returns the User-Agent sent by the remexec client.
func UserAgent() string {
	return "remexec/" + Version
}
