package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage(os.Stderr)
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	// --- NOUNS ---
	case "config":
		return runConfigNoun(args)
	case "reminders":
		return runRemindersNoun(args)
	case "chatlog":
		return runChatLogNoun(args)

	// --- VERBS ---
	case "run":
		if hasHelpFlag(args) {
			printRunHelp(os.Stdout)
			return 0
		}
		return runRun(args)
	case "status":
		return runStatus(args)
	case "watch":
		return runWatch(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: ircbotd version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("ircbotd %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = readBuildSetting("vcs.revision")
	}
	if commit != "" {
		info.Commit = shortenCommit(commit)
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = readBuildSetting("vcs.time")
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return strings.TrimSpace(setting.Value)
		}
	}
	return ""
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `ircbotd - IRC bot daemon

Usage:
  ircbotd <command> [flags]
  ircbotd <noun> <action> [flags]

Commands:
  run               Connect and run the bot in the foreground
  status            Report whether a bot holds the state lock
  watch             Live status TUI (needs api.enabled)
  version           Show version information
  help              Show this help message

Config Commands:
  config check      Validate the configuration and print a summary

Reminder Commands:
  reminders list    Show stored reminders

Chat Log Commands:
  chatlog tail      Show recent channel activity

Use 'ircbotd <command> --help' for flags.
`)
}

func printRunHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: ircbotd run [flags]

Connects to the configured server, joins the channels and runs until the
server closes the connection or a signal arrives. The first SIGINT/SIGTERM
sends QUIT; a second one exits immediately.

Flags:
  --config PATH     Configuration file or directory (default: discovered)
  -server HOST      Override connection.server
  -port N           Override connection.port
  -nick NICK        Override connection.nick
  -channel CHAN     Override connection.channels with a single channel
  -strict           Exit on the first invalid message
  -trace            Log every line sent and received
`)
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
