package version

import (
	"runtime/debug"

	"github.com/samber/lo"
)

// Version and Commit hold the version information
var (
	Version = "0.1.0"
	Commit  = ""
)

func init() {
	if i, ok := debug.ReadBuildInfo(); ok {
		if vcsv, ok := lo.Find(i.Settings, func(s debug.BuildSetting) bool {
			return s.Key == "vcs.revision"
		}); ok {
			Commit = vcsv.Value
		}
	}
}
