package buildinfo

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.BuildTime)
	assert.NotEmpty(t, info.GoVersion)
}

func TestGet_LdflagsWin(t *testing.T) {
	oldCommit := Commit
	t.Cleanup(func() { Commit = oldCommit })

	Commit = "abc123"
	assert.Equal(t, "abc123", Get().Commit)
}

func TestString(t *testing.T) {
	info := Get()
	want := info.Version + " (" + info.Commit + ") built at " + info.BuildTime + " with " + info.GoVersion
	assert.Equal(t, want, String())
}

func TestFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.24.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2024-05-01T10:00:00Z"},
			{Key: "vcs.modified", Value: "false"},
		},
	}

	info := fromBuildInfo(bi, true)
	assert.Equal(t, "go1.24.0", info.GoVersion)
	assert.Equal(t, "0123456789ab", info.Commit)
	assert.Equal(t, "2024-05-01T10:00:00Z", info.BuildTime)

	assert.Equal(t, Info{}, fromBuildInfo(nil, false))
}
