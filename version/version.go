package version

import "strings"

// Version is the semver of the current build.
var Version = "0.2.1"

func GetCurrentVersion() string {
	return Version
}

// GetSchemaVersion returns the version prefix that matters for the
// database schema, i.e. major.minor.
func GetSchemaVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return version
	}
	return strings.Join(parts[:2], ".")
}
