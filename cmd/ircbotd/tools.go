package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/ircbotd/internal/chatlog"
	"github.com/mattjoyce/ircbotd/internal/config"
	"github.com/mattjoyce/ircbotd/internal/lock"
	"github.com/mattjoyce/ircbotd/internal/log"
	"github.com/mattjoyce/ircbotd/internal/remind"
	"github.com/mattjoyce/ircbotd/internal/storage"
	"github.com/mattjoyce/ircbotd/internal/tui/watch"
)

// loadConfigForTool resolves and loads the config for offline commands.
func loadConfigForTool(configPath string) (*config.Config, error) {
	path, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func openStateForTool(cfg *config.Config) (*sql.DB, error) {
	if _, err := os.Stat(cfg.State.Path); err != nil {
		return nil, fmt.Errorf("state database %s: %w", cfg.State.Path, err)
	}
	return storage.OpenSQLite(context.Background(), cfg.State.Path)
}

// --- config ---

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp()
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp()
		return 0
	}

	switch action, actionArgs := args[0], args[1:]; action {
	case "check":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: ircbotd config check [--config PATH] [--json]")
			fmt.Println("Validate the configuration and print a summary.")
			return 0
		}
		return runConfigCheck(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func printConfigNounHelp() {
	fmt.Println("Usage: ircbotd config <action> [flags]")
	fmt.Println()
	fmt.Println("Actions:")
	fmt.Println("  check    Validate the configuration and print a summary")
}

type configSummary struct {
	Path        string   `json:"path"`
	Fingerprint string   `json:"fingerprint"`
	Server      string   `json:"server"`
	TLS         bool     `json:"tls"`
	Nick        string   `json:"nick"`
	Channels    []string `json:"channels"`
	CommandChar string   `json:"command_char"`
	StatePath   string   `json:"state_path"`
	Leet        string   `json:"leet,omitempty"`
	ChatLog     bool     `json:"chat_log"`
	API         string   `json:"api,omitempty"`
}

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output the summary as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
		return 1
	}
	fingerprint, err := cfg.Fingerprint()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fingerprint config: %v\n", err)
		return 1
	}

	sum := configSummary{
		Path:        cfg.SourcePath,
		Fingerprint: fingerprint,
		Server:      fmt.Sprintf("%s:%d", cfg.Connection.Server, cfg.Connection.Port),
		TLS:         cfg.Connection.TLS,
		Nick:        cfg.Connection.Nick,
		Channels:    cfg.Connection.Channels,
		CommandChar: cfg.Bot.CommandChar,
		StatePath:   cfg.State.Path,
		ChatLog:     cfg.ChatLog.Enabled,
	}
	if cfg.Leet.Enabled {
		sum.Leet = fmt.Sprintf("%s at %02d:%02d", cfg.Leet.Channel, cfg.Leet.Hour, cfg.Leet.Minute)
	}
	if cfg.API.Enabled {
		sum.API = cfg.API.Listen
	}

	if *jsonOut {
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Println("Configuration valid")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  path:\t%s\n", sum.Path)
	fmt.Fprintf(w, "  fingerprint:\t%s\n", sum.Fingerprint)
	fmt.Fprintf(w, "  server:\t%s (tls=%t)\n", sum.Server, sum.TLS)
	fmt.Fprintf(w, "  nick:\t%s\n", sum.Nick)
	fmt.Fprintf(w, "  channels:\t%s\n", strings.Join(sum.Channels, ", "))
	fmt.Fprintf(w, "  command char:\t%s\n", sum.CommandChar)
	fmt.Fprintf(w, "  state:\t%s\n", sum.StatePath)
	fmt.Fprintf(w, "  leet:\t%s\n", orOff(sum.Leet))
	fmt.Fprintf(w, "  chat log:\t%t\n", sum.ChatLog)
	fmt.Fprintf(w, "  api:\t%s\n", orOff(sum.API))
	_ = w.Flush()
	return 0
}

func orOff(s string) string {
	if s == "" {
		return "off"
	}
	return s
}

// --- status ---

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	lockPath := lock.PathFor(cfg.State.Path)
	l, err := lock.AcquirePIDLock(lockPath)
	switch {
	case err == nil:
		_ = l.Release()
		fmt.Printf("ircbotd is not running (lock %s is free)\n", lockPath)
		return 3
	case errors.Is(err, lock.ErrLocked):
		if pid, perr := lock.HolderPID(lockPath); perr == nil {
			fmt.Printf("ircbotd is running (pid %d)\n", pid)
		} else {
			fmt.Println("ircbotd is running")
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Failed to inspect lock: %v\n", err)
		return 1
	}
}

// --- reminders ---

func runRemindersNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Println("Usage: ircbotd reminders list [--config PATH] [--limit N] [--json]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch action, actionArgs := args[0], args[1:]; action {
	case "list":
		return runRemindersList(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown reminders action: %s\n", action)
		return 1
	}
}

func runRemindersList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	limit := fs.Int("limit", 20, "Maximum number of reminders to show")
	jsonOut := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	db, err := openStateForTool(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open state: %v\n", err)
		return 1
	}
	defer db.Close()

	list, err := remind.NewStore(db).List(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list reminders: %v\n", err)
		return 1
	}

	if *jsonOut {
		if list == nil {
			list = []*remind.Reminder{}
		}
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	if len(list) == 0 {
		fmt.Println("No reminders.")
		return 0
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DUE\tTARGET\tSTATUS\tTEXT")
	for _, r := range list {
		status := "pending"
		if r.FiredAt != nil {
			status = "fired"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.When.Local().Format(time.DateTime), r.Target, status, r.Text)
	}
	_ = w.Flush()
	return 0
}

// --- chatlog ---

func runChatLogNoun(args []string) int {
	if len(args) < 1 || isHelpToken(args[0]) {
		fmt.Println("Usage: ircbotd chatlog tail [--config PATH] [--limit N]")
		if len(args) < 1 {
			return 1
		}
		return 0
	}

	switch action, actionArgs := args[0], args[1:]; action {
	case "tail":
		return runChatLogTail(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown chatlog action: %s\n", action)
		return 1
	}
}

func runChatLogTail(args []string) int {
	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	limit := fs.Int("limit", 50, "Number of entries to show")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	db, err := openStateForTool(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open state: %v\n", err)
		return 1
	}
	defer db.Close()

	// Reading works regardless of chat_log.enabled.
	entries, err := chatlog.New(db, true, log.Get()).Recent(context.Background(), *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read chat log: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Println(chatlog.Line(e))
	}
	return 0
}

// --- watch ---

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	apiURL := fs.String("url", "http://127.0.0.1:8080", "ircbotd API URL")
	apiKey := fs.String("api-key", os.Getenv("IRCBOTD_API_KEY"), "API bearer token")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: API key required. Use --api-key or IRCBOTD_API_KEY env var.")
		return 1
	}

	p := tea.NewProgram(watch.New(strings.TrimRight(*apiURL, "/"), *apiKey))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}
