// Package buildinfo exposes version metadata stamped in at link time with
// -ldflags "-X irisboard.dev/internal/buildinfo.Version=...".
package buildinfo

import "runtime/debug"

var (
	Version       = "dev"
	CommitHash    = ""
	CommitTime    = ""
	Branch        = ""
	BuildTime     = ""
	Dirty         = ""
	Host          = ""
	UserName      = ""
	RemoteURL     = ""
	CommitMessage = ""
)

func init() {
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
			CommitTime = setting.Value
		case "vcs.modified":
			Dirty = setting.Value
		}
	}
}

// ShortHash returns the first seven characters of CommitHash, or "unknown".
func ShortHash() string {
	if len(CommitHash) >= 7 {
		return CommitHash[:7]
	}
	return "unknown"
}
