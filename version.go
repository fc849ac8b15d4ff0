// Package textlift provides the version information for textlift.
package textlift

// Version is the current version of textlift.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
