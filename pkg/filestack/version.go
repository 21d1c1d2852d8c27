package filestack

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version returns the library version.
func Version() string {
	return strings.TrimSpace(version)
}

// UserAgent is sent with every request made by the client package.
func UserAgent() string {
	return "filestack-go/" + Version()
}
