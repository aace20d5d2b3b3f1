package version

import "runtime"

// Build information, injected via ldflags at build time:
//
//	-ldflags "-X github.com/pscheid92/scorecast/internal/platform/version.Version=v1.2.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String renders the version for log lines, e.g. "dev (unknown)".
func (i Info) String() string {
	return i.Version + " (" + i.Commit + ")"
}
