package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockwire/pkg/cli/internal/output"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string            `json:"version"`
	Commit  string            `json:"commit"`
	Date    string            `json:"date"`
	Go      string            `json:"go"`
	Deps    map[string]string `json:"deps,omitempty"` // matching stack module versions
}

// stackModules are the dependencies reported by "mockwire version".
var stackModules = map[string]string{
	"github.com/vektah/gqlparser/v2":           "graphql",
	"github.com/getkin/kin-openapi":            "openapi",
	"github.com/expr-lang/expr":                "expr",
	"github.com/santhosh-tekuri/jsonschema/v5": "jsonschema",
}

// currentBuild merges the ldflags variables with the module build info.
// Values set with ldflags win.
func currentBuild() BuildInfo {
	b := BuildInfo{Version: Version, Commit: Commit, Date: BuildDate, Go: runtime.Version()}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Commit == "none":
			b.Commit = s.Value
		case s.Key == "vcs.time" && b.Date == "unknown":
			b.Date = s.Value
		case s.Key == "vcs.modified" && s.Value == "true":
			b.Commit += "-dirty"
		}
	}
	for _, dep := range info.Deps {
		if name, ok := stackModules[dep.Path]; ok {
			if b.Deps == nil {
				b.Deps = make(map[string]string)
			}
			b.Deps[name] = dep.Version
		}
	}
	return b
}

// String is the one-line form also used by --version.
func (b BuildInfo) String() string {
	v := b.Version
	if v != "dev" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return fmt.Sprintf("%s (%s, %s, %s)", v, b.Commit, b.Date, b.Go)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show mockwire version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := currentBuild()
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), b)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "mockwire %s\n", b)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
