package config

import "time"

// Config represents the complete ircbotd configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service" toml:"service"`
	Connection ConnectionConfig `yaml:"connection" toml:"connection"`
	Bot        BotConfig        `yaml:"bot" toml:"bot"`
	State      StateConfig      `yaml:"state" toml:"state"`
	Leet       LeetConfig       `yaml:"leet" toml:"leet"`
	ChatLog    ChatLogConfig    `yaml:"chat_log" toml:"chat_log"`
	API        APIConfig        `yaml:"api,omitempty" toml:"api"`
	Webhooks   WebhooksConfig   `yaml:"webhooks,omitempty" toml:"webhooks"`

	// SourcePath is the absolute path the configuration was loaded from.
	SourcePath string `yaml:"-" toml:"-"`
}

// ServiceConfig defines process-level settings.
type ServiceConfig struct {
	Name      string `yaml:"name" toml:"name"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`
}

// ConnectionConfig describes the server and how we register with it.
type ConnectionConfig struct {
	Server         string        `yaml:"server" toml:"server"`
	Port           int           `yaml:"port" toml:"port"`
	TLS            bool          `yaml:"tls" toml:"tls"`
	TLSInsecure    bool          `yaml:"tls_insecure" toml:"tls_insecure"`
	Password       string        `yaml:"password" toml:"password"`
	Nick           string        `yaml:"nick" toml:"nick"`
	Username       string        `yaml:"username" toml:"username"`
	Realname       string        `yaml:"realname" toml:"realname"`
	Channels       []string      `yaml:"channels" toml:"channels"`
	QuitMessage    string        `yaml:"quit_message" toml:"quit_message"`
	ReadBufferSize int           `yaml:"read_buffer_size" toml:"read_buffer_size"` // 0 means the page size
	DialTimeout    time.Duration `yaml:"dial_timeout" toml:"dial_timeout"`
}

// BotConfig controls command handling and protocol strictness.
type BotConfig struct {
	CommandChar string `yaml:"command_char" toml:"command_char"`
	// Strict exits on the first invalid message instead of skipping it.
	Strict      bool   `yaml:"strict" toml:"strict"`
	// Trace logs every line sent and received.
	Trace       bool   `yaml:"trace" toml:"trace"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// LeetConfig configures the daily 13:37 game.
type LeetConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Channel string `yaml:"channel" toml:"channel"`
	Hour    int    `yaml:"hour" toml:"hour"`
	Minute  int    `yaml:"minute" toml:"minute"`
}

// ChatLogConfig toggles the persistent activity log.
type ChatLogConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Listen  string `yaml:"listen" toml:"listen"`
	APIKey  string `yaml:"api_key" toml:"api_key"`
}

// WebhooksConfig defines the signed notification relay.
type WebhooksConfig struct {
	Enabled   bool              `yaml:"enabled" toml:"enabled"`
	Listen    string            `yaml:"listen" toml:"listen"`
	Endpoints []WebhookEndpoint `yaml:"endpoints" toml:"endpoints"`
}

// WebhookEndpoint relays POSTs on Path to Channel.
type WebhookEndpoint struct {
	Path            string `yaml:"path" toml:"path"`
	Channel         string `yaml:"channel" toml:"channel"`
	Prefix          string `yaml:"prefix,omitempty" toml:"prefix"`
	Secret          string `yaml:"secret" toml:"secret"`
	SignatureHeader string `yaml:"signature_header,omitempty" toml:"signature_header"`
	MaxBodySize     string `yaml:"max_body_size,omitempty" toml:"max_body_size"`
}

// Defaults returns a configuration with default values.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "ircbotd",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Connection: ConnectionConfig{
			Port:        6667,
			Nick:        "botniklas",
			Channels:    []string{"#botniklas"},
			QuitMessage: "botniklas IRC bot signing off",
			DialTimeout: 30 * time.Second,
		},
		Bot: BotConfig{
			CommandChar: "!",
		},
		State: StateConfig{
			Path: "./data/ircbotd.db",
		},
		Leet: LeetConfig{
			Hour:   13,
			Minute: 37,
		},
		ChatLog: ChatLogConfig{
			Enabled: true,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		Webhooks: WebhooksConfig{
			Listen: "127.0.0.1:8081",
		},
	}
}
