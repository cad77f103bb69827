package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of the application
	Version = "1.0.0"

	// SpecSchema is the Vega-Lite major version of the generated documents
	SpecSchema = "v5"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	SpecSchema   string `json:"spec_schema"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		SpecSchema:   SpecSchema,
	}
}

// GetFullVersionString returns a detailed version string for the named binary
func GetFullVersionString(binary string) string {
	info := GetVersionInfo()
	return fmt.Sprintf(
		"%s v%s (vega-lite %s, built: %s, commit: %s, go: %s, os: %s/%s)",
		binary,
		info.Version,
		info.SpecSchema,
		info.BuildTime,
		info.GitCommit,
		info.GoVersion,
		info.OS,
		info.Architecture,
	)
}
