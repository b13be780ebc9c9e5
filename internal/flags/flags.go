// Package flags collects the urfave/cli helpers cmd/headerdb builds its
// command surface on, the way the teacher's own internal/flags underlies
// cmd/mive and cmd/utils.
package flags

import (
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

// Flag categories, shown as section headings in `headerdb --help`.
const (
	DataCategory = "DATA"
	APICategory  = "API AND AUTHENTICATION"
	LogCategory  = "LOGGING"
)

// ExpandHome expands a leading "~/" in path to the user's home directory,
// the same convenience go-ethereum's own directory flags apply.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

// SplitAndTrim splits a comma-separated flag value and trims whitespace
// around each element, the same helper cmd/utils/flags.go leans on for
// every "comma separated list of ..." flag.
func SplitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// NewApp creates the root app with the flavor cmd/mive/main.go expects
// from its own internal/flags.NewApp: a fixed copyright banner and bash
// completion, leaving Name/Usage/Commands to the caller.
func NewApp(usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = usage
	app.Copyright = "Copyright 2025 The headerdb Authors"
	app.Flags = []cli.Flag{}
	return app
}
