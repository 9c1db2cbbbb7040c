// Package version provides the bot version and build info.
//
//nolint:revive
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Overridable with -ldflags "-X github.com/memohai/openchat-bot/internal/version.Version=...".
var (
	Version    = "dev"
	CommitHash = ""
	BuildTime  = ""
)

var readBuildInfo sync.Once

func loadVCS() {
	readBuildInfo.Do(func() {
		if CommitHash != "" {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				CommitHash = setting.Value
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	})
}

// ShortCommit returns the first 7 characters of the commit hash, or "".
func ShortCommit() string {
	loadVCS()
	if len(CommitHash) > 7 {
		return CommitHash[:7]
	}
	return CommitHash
}

// GetInfo returns the version with the short commit hash, e.g. "v0.3.0 (1a2b3c4)".
func GetInfo() string {
	res := Version
	if short := ShortCommit(); short != "" {
		res += fmt.Sprintf(" (%s)", short)
	}
	return res
}

// UserAgent is sent on outbound platform and LLM requests.
func UserAgent() string {
	return "openchat-bot/" + Version
}
