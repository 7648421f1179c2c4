// Package version holds the build version, injected at link time.
package version

// Version is the colophon release version. Overridden via
// -ldflags "-X github.com/sydlexius/colophon/internal/version.Version=vX.Y.Z".
var Version = "dev"
