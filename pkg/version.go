// Package sparkdl builds a song-play star schema from raw song metadata
// and user activity logs.
package sparkdl

var (
	// Version of sparkdl, set by build flags.
	Version = "v0.1.0"
	// Build timestamp, set by build flags.
	Build = "n/a"
)
