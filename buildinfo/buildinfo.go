// Package buildinfo exposes the identity stamped into the binary at link
// time via -ldflags "-X formprobe/buildinfo.version=...".
package buildinfo

// Properties identifies one build of the binary.
type Properties struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

// Get returns the properties stamped into this binary.
func Get() Properties {
	return Properties{
		Version:   version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
	}
}
