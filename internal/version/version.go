package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the released version of the service.
// Override at build time:
//
//	go build -ldflags "-X github.com/hrygo/briefly/internal/version.Version=1.2.0"
var Version = "0.1.0"

// DevVersion is reported when running in dev or demo mode.
var DevVersion = Version + "-dev"

// GitCommit is the git commit hash at build time.
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

func canonical(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) > -1
}

// IsVersionGreaterThan returns true if version is greater than target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) > 0
}

// IsValid reports whether v is a semantic version, with or without the leading "v".
func IsValid(v string) bool {
	return semver.IsValid(canonical(v))
}

// String returns the version with the short commit hash appended when known.
func String() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return Version
	}
	commit := GitCommit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return fmt.Sprintf("%s-%s", Version, commit)
}

// Info is the build metadata served on /healthz.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
}

// GetInfo returns build metadata for the given mode.
func GetInfo(mode string) Info {
	info := Info{Version: GetCurrentVersion(mode)}
	if GitCommit != "unknown" {
		info.Commit = GitCommit
	}
	if BuildTime != "unknown" {
		info.BuildTime = BuildTime
	}
	return info
}
