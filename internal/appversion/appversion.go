// Package appversion exposes the binary's build-time version string.
package appversion

// version is stamped at build time via -ldflags.
var version = "dev" //nolint:gochecknoglobals // ldflags requires package-level var

// String returns the current version.
func String() string {
	return version
}
