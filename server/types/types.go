// Package types holds the types shared between the server and its handlers.
package types

import (
	"time"

	"formprobe/buildinfo"
)

// ServerProperties identifies the running server instance.
type ServerProperties struct {
	Build     buildinfo.Properties `json:"build"`
	GoVersion string               `json:"go_version"`
	StartedAt time.Time            `json:"started_at"`
	Hostname  string               `json:"hostname"`
}
