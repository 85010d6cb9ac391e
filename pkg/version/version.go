// Package version exposes build-time version information for the leakfang binary.
package version

import "runtime/debug"

// Populated via -ldflags at build time; left at defaults for `go install` builds.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "<unknown>"

	// Date is the build timestamp in RFC 3339 format.
	Date = "<unknown>"
)

// InitBinaryVersion fills in version fields from the embedded build info
// when they were not injected via ldflags.
func InitBinaryVersion() {
	if Version != "dev" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			Commit = setting.Value
		case "vcs.time":
			Date = setting.Value
		}
	}
}
