// Package version reports build metadata for the virsqr binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// EncoderModule is the QR library whose version is reported.
const EncoderModule = "github.com/skip2/go-qrcode"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version        string    `json:"version" yaml:"version"`
	GitCommit      string    `json:"git_commit" yaml:"git_commit"`
	BuildTime      time.Time `json:"build_time,omitempty" yaml:"build_time,omitempty"`
	GoVersion      string    `json:"go_version" yaml:"go_version"`
	Platform       string    `json:"platform" yaml:"platform"`
	Dirty          bool      `json:"dirty" yaml:"dirty"`
	EncoderVersion string    `json:"encoder_version" yaml:"encoder_version"`
}

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var readBuildInfo = debug.ReadBuildInfo

// Get collects build information from link-time variables, falling back
// to the module and VCS data embedded by the Go toolchain.
func Get() *BuildInfo {
	info := &BuildInfo{
		Version:        Version,
		GitCommit:      GitCommit,
		BuildTime:      parseISOTime(BuildTime),
		GoVersion:      runtime.Version(),
		Platform:       runtime.GOOS + "/" + runtime.GOARCH,
		EncoderVersion: "unknown",
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.GitCommit == "" || info.GitCommit == "unknown" {
				info.GitCommit = setting.Value
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		case "vcs.time":
			if info.BuildTime.IsZero() {
				info.BuildTime = parseISOTime(setting.Value)
			}
		}
	}

	if info.Version == "" || info.Version == "dev" {
		switch {
		case bi.Main.Version != "" && bi.Main.Version != "(devel)":
			info.Version = bi.Main.Version
		case len(info.GitCommit) >= 7 && info.GitCommit != "unknown":
			info.Version = "dev-" + info.GitCommit[:7]
		default:
			info.Version = "dev"
		}
	}

	for _, dep := range bi.Deps {
		if dep.Path == EncoderModule {
			info.EncoderVersion = dep.Version
			if dep.Replace != nil {
				info.EncoderVersion = dep.Replace.Version
			}
		}
	}

	return info
}

// Short returns the version with an abbreviated commit, e.g.
// "v1.2.0 (abc1234)".
func (b *BuildInfo) Short() string {
	if len(b.GitCommit) < 7 || b.GitCommit == "unknown" {
		return b.Version
	}
	if strings.HasPrefix(b.Version, "dev-") {
		return b.Version
	}
	return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
}

// IsRelease reports whether this is a tagged build.
func (b *BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-")
}

// Detailed returns one "Key: value" line per field.
func (b *BuildInfo) Detailed() string {
	parts := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		commit := "Commit: " + b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		parts = append(parts, commit)
	}
	if !b.BuildTime.IsZero() {
		parts = append(parts, "Built: "+b.BuildTime.UTC().Format(time.RFC3339))
	}
	parts = append(parts,
		"Go: "+b.GoVersion,
		"Platform: "+b.Platform,
		"Encoder: "+EncoderModule+" "+b.EncoderVersion,
	)
	return strings.Join(parts, "\n")
}

func parseISOTime(s string) time.Time {
	if s == "" || s == "unknown" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
