package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Info describes the running binary
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Compiler  string `json:"compiler"`
	Tag       string `json:"tag,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Source    string `json:"source,omitempty"`
	Hash      string `json:"hash,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Set with -ldflags at build time
var (
	GitTag    string
	GitBranch string
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Version returns the tag, the branch or the short commit hash, in that order
func Version() string {
	if GitTag != "" {
		return GitTag
	}
	if GitBranch != "" {
		return GitBranch
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				return s.Value[:12]
			}
		}
	}
	return "dev"
}

// UserAgent returns a user agent for outbound requests
func UserAgent(name string) string {
	return fmt.Sprintf("%s/%s (%s)", name, Version(), runtime.Version())
}

// Metadata returns the build information for the named binary
func Metadata(name string) Info {
	result := Info{
		Name:     name,
		Version:  Version(),
		Compiler: runtime.Version(),
		Tag:      GitTag,
		Branch:   GitBranch,
	}

	var goos, goarch string
	if info, ok := debug.ReadBuildInfo(); ok {
		result.Source = info.Main.Path
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				result.Hash = s.Value
			case "vcs.time":
				result.BuildTime = s.Value
			case "vcs.modified":
				result.Modified = s.Value == "true"
			case "GOOS":
				goos = s.Value
			case "GOARCH":
				goarch = s.Value
			}
		}
	}
	if goos != "" && goarch != "" {
		result.Platform = goos + "/" + goarch
	}
	return result
}

// JSON returns the build information as indented JSON
func JSON(name string) []byte {
	data, err := json.MarshalIndent(Metadata(name), "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}
