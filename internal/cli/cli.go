// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Version information (overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the top-level command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdHistory
	CmdAnalytics
	CmdConfig
	CmdVersion
	CmdHelp
	CmdUnknown
)

var commandNames = map[Command]string{
	CmdTUI:       "tui",
	CmdLogin:     "login",
	CmdLogout:    "logout",
	CmdWhoami:    "whoami",
	CmdHistory:   "history",
	CmdAnalytics: "analytics",
	CmdConfig:    "config",
	CmdVersion:   "version",
	CmdHelp:      "help",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "unknown"
}

// Args holds the parsed command line.
type Args struct {
	// Global flags
	ConfigFile string // --config PATH
	APIURL     string // --api-url URL
	Theme      string // --theme auto|dark|light
	JSON       bool
	Verbose    bool
	Quiet      bool

	// Name is the command word as typed.
	Name string
	// Raw holds the arguments after the command word.
	Raw []string
}

const usageText = `healthmate - terminal client for the HealthMate health assistant

Usage:
  healthmate                         Start the interactive interface (default)
  healthmate tui                     Same as above
  healthmate login [--email E]       Sign in and remember the session
    --password-stdin                 Read the password from standard input
  healthmate logout                  Forget the stored session
  healthmate whoami                  Show the signed-in user and profile
  healthmate history list            List saved conversations
  healthmate history show <id>       Print a saved conversation
  healthmate history export <id>     Write a transcript to a file
    --format md|json                 Transcript format (default: md)
    --out FILE                       Output path (default: derived from title)
  healthmate history email <id> --to ADDRESS [--subject S]
                                     Send a saved conversation to a provider
  healthmate analytics               Show the feedback summary
  healthmate config show             Print the effective configuration
  healthmate config get <key>        Print one setting (e.g. ui.theme)
  healthmate config set <key> <val>  Change one setting in the config file
  healthmate config keys             List the setting keys
  healthmate config path             Print the config file path
  healthmate version                 Show version information
  healthmate help                    Show this help

Global flags:
  --config PATH                      Config file (default: ~/.healthmate/config.toml)
  --api-url URL                      Backend address for this run
  --theme auto|dark|light            Interface theme for this run
  --json                             Machine-readable output where supported
  -v, --verbose                      Debug logging
  -q, --quiet                        Suppress informational output

Environment:
  HEALTHMATE_HOME                    Config and state directory (default: ~/.healthmate)
  HEALTHMATE_API_URL                 Overrides api.base_url
  HEALTHMATE_THEME                   Overrides ui.theme
  HEALTHMATE_TIMEOUT                 Overrides api.timeout_secs
  HEALTHMATE_STATE_DIR               Overrides storage.dir
  HEALTHMATE_LOG_LEVEL               Overrides logging.level
  HEALTHMATE_LOG_FILE                Overrides logging.file
  NO_COLOR                           Disable colored output

In the interface press F1 for key bindings.
`

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// Parse parses os.Args.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses a command line without the program name. No arguments
// means the TUI.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)
	if len(remaining) == 0 {
		return CmdTUI, args
	}

	args.Name = remaining[0]
	args.Raw = remaining[1:]

	switch strings.ToLower(args.Name) {
	case "tui":
		return CmdTUI, args
	case "login", "signin":
		return CmdLogin, args
	case "logout", "signout":
		return CmdLogout, args
	case "whoami", "me":
		return CmdWhoami, args
	case "history", "chats":
		return CmdHistory, args
	case "analytics", "stats":
		return CmdAnalytics, args
	case "config":
		return CmdConfig, args
	case "version", "-V", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	}
	return CmdUnknown, args
}

// parseGlobalFlags pulls the global flags out of argv wherever they appear.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var remaining []string

	value := func(i *int, name string) string {
		arg := argv[*i]
		if v, ok := strings.CutPrefix(arg, name+"="); ok {
			return v
		}
		if *i+1 < len(argv) {
			*i++
			return argv[*i]
		}
		return ""
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--json":
			args.JSON = true
		case arg == "-v" || arg == "--verbose":
			args.Verbose = true
		case arg == "-q" || arg == "--quiet":
			args.Quiet = true
		case arg == "--config" || strings.HasPrefix(arg, "--config="):
			args.ConfigFile = value(&i, "--config")
		case arg == "--api-url" || strings.HasPrefix(arg, "--api-url="):
			args.APIURL = value(&i, "--api-url")
		case arg == "--theme" || strings.HasPrefix(arg, "--theme="):
			args.Theme = value(&i, "--theme")
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

// =============================================================================
// VERSION
// =============================================================================

// VersionInfo is the version payload for --json output.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// CurrentVersion returns the build information.
func CurrentVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// HandleVersion prints version information.
func HandleVersion(w io.Writer, args Args) error {
	v := CurrentVersion()
	if args.JSON {
		return NewJSONResponse("version", v).Write(w)
	}
	fmt.Fprintf(w, "healthmate %s\n", v.Version)
	fmt.Fprintf(w, "  %s%s\n", RenderLabel("Commit:", 12), v.GitCommit)
	fmt.Fprintf(w, "  %s%s\n", RenderLabel("Built:", 12), v.BuildDate)
	fmt.Fprintf(w, "  %s%s (%s)\n", RenderLabel("Go:", 12), v.GoVersion, v.Platform)
	return nil
}
