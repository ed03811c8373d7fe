package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, defaults and validates a configuration file. Files ending in
// .toml are decoded as TOML, everything else as YAML. A directory is taken
// to contain config.yaml.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", absPath, err)
	}

	cfg, err := Parse(data, formatOf(absPath))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", absPath, err)
	}
	cfg.SourcePath = absPath
	return cfg, nil
}

// Format is a configuration file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes configuration bytes on top of Defaults and validates the result.
func Parse(data []byte, format Format) (*Config, error) {
	interpolated := interpolateEnv(string(data))

	cfg := Defaults()
	// Channels from the file replace the default list instead of merging.
	cfg.Connection.Channels = nil

	switch format {
	case FormatTOML:
		md, err := toml.Decode(interpolated, cfg)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys: %v", undecoded)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader([]byte(interpolated)))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	applyConfigDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyConfigDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	if len(cfg.Connection.Channels) == 0 {
		cfg.Connection.Channels = defaults.Connection.Channels
	}
	if cfg.Connection.Username == "" {
		cfg.Connection.Username = cfg.Connection.Nick
	}
	if cfg.Connection.Realname == "" {
		cfg.Connection.Realname = cfg.Connection.Nick
	}
	if cfg.Leet.Enabled && cfg.Leet.Channel == "" {
		cfg.Leet.Channel = cfg.Connection.Channels[0]
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Unset variables are left in place and rejected by validate where it matters.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// Validate fills derived defaults and checks a configuration assembled
// outside Load, e.g. Defaults with command-line overrides.
func Validate(cfg *Config) error {
	applyConfigDefaults(cfg)
	if err := validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if f := cfg.Service.LogFormat; f != "json" && f != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", f)
	}

	conn := cfg.Connection
	if conn.Server == "" {
		return fmt.Errorf("connection.server is required")
	}
	if conn.Port <= 0 || conn.Port > 65535 {
		return fmt.Errorf("connection.port must be between 1 and 65535 (got %d)", conn.Port)
	}
	if conn.Nick == "" || strings.ContainsAny(conn.Nick, " ,*?!@:") {
		return fmt.Errorf("connection.nick %q is not a valid nickname", conn.Nick)
	}
	if strings.ContainsAny(conn.Username, " @") {
		return fmt.Errorf("connection.username %q must not contain spaces or '@'", conn.Username)
	}
	for i, ch := range conn.Channels {
		if len(ch) < 2 || !strings.ContainsRune("#&+!", rune(ch[0])) || strings.ContainsAny(ch, " ,\a") {
			return fmt.Errorf("connection.channels[%d]: %q is not a valid channel name", i, ch)
		}
	}
	if s := conn.ReadBufferSize; s != 0 && (s < 512 || s&(s-1) != 0) {
		return fmt.Errorf("connection.read_buffer_size must be a power of two >= 512 (got %d)", s)
	}
	if conn.DialTimeout < 0 {
		return fmt.Errorf("connection.dial_timeout must not be negative")
	}
	if err := unresolved("connection.password", conn.Password); err != nil {
		return err
	}

	if len(cfg.Bot.CommandChar) != 1 || cfg.Bot.CommandChar == " " {
		return fmt.Errorf("bot.command_char must be a single non-space character (got %q)", cfg.Bot.CommandChar)
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if cfg.Leet.Enabled {
		if cfg.Leet.Hour < 0 || cfg.Leet.Hour > 23 || cfg.Leet.Minute < 0 || cfg.Leet.Minute > 58 {
			return fmt.Errorf("leet: %02d:%02d is not a usable window start", cfg.Leet.Hour, cfg.Leet.Minute)
		}
	}

	if cfg.API.Enabled {
		if cfg.API.Listen == "" {
			return fmt.Errorf("api.listen is required when the API is enabled")
		}
		if err := unresolved("api.api_key", cfg.API.APIKey); err != nil {
			return err
		}
		if cfg.API.APIKey == "" {
			return fmt.Errorf("api.api_key is required when the API is enabled")
		}
	}

	if cfg.Webhooks.Enabled {
		if err := validateWebhooks(cfg.Webhooks); err != nil {
			return err
		}
	}

	return nil
}

func validateWebhooks(wc WebhooksConfig) error {
	if wc.Listen == "" {
		return fmt.Errorf("webhooks.listen is required when webhooks are enabled")
	}
	if len(wc.Endpoints) == 0 {
		return fmt.Errorf("webhooks.endpoints must not be empty when webhooks are enabled")
	}
	seen := map[string]bool{}
	for i, ep := range wc.Endpoints {
		field := fmt.Sprintf("webhooks.endpoints[%d]", i)
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("%s.path must start with '/' (got %q)", field, ep.Path)
		}
		if seen[ep.Path] {
			return fmt.Errorf("%s.path %q is used twice", field, ep.Path)
		}
		seen[ep.Path] = true
		if ep.Channel == "" || strings.ContainsAny(ep.Channel, " ,\r\n") {
			return fmt.Errorf("%s.channel %q is not a valid target", field, ep.Channel)
		}
		if err := unresolved(field+".secret", ep.Secret); err != nil {
			return err
		}
		if ep.Secret == "" {
			return fmt.Errorf("%s.secret is required", field)
		}
	}
	return nil
}

func unresolved(field, value string) error {
	if matches := envVarPattern.FindStringSubmatch(value); len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return nil
}
