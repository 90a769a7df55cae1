// Package buildinfo reports the version of the running binary.
//
// Version, Commit and BuildTime are set with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/monitored-app/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit and GoVersion fall back to the module build information embedded
// by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

const unknown = "unknown"

var (
	Version   = "dev"
	Commit    = unknown
	BuildTime = unknown
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

var (
	embedded     Info
	embeddedOnce sync.Once
)

// Get returns the build information.
func Get() Info {
	embeddedOnce.Do(func() {
		embedded = fromBuildInfo(debug.ReadBuildInfo())
	})

	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: embedded.GoVersion,
	}
	if info.Commit == unknown && embedded.Commit != "" {
		info.Commit = embedded.Commit
	}
	if info.BuildTime == unknown && embedded.BuildTime != "" {
		info.BuildTime = embedded.BuildTime
	}
	if info.GoVersion == "" {
		info.GoVersion = unknown
	}
	return info
}

func fromBuildInfo(bi *debug.BuildInfo, ok bool) Info {
	var info Info
	if !ok || bi == nil {
		return info
	}

	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > 12 {
				info.Commit = info.Commit[:12]
			}
		case "vcs.time":
			info.BuildTime = s.Value
		}
	}
	return info
}

// String returns a formatted version string.
func String() string {
	info := Get()
	return fmt.Sprintf("%s (%s) built at %s with %s", info.Version, info.Commit, info.BuildTime, info.GoVersion)
}
