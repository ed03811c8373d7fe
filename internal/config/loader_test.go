package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		env     map[string]string
		wantErr string
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name: "minimal yaml gets defaults",
			file: "config.yaml",
			body: `
connection:
  server: irc.libera.chat
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Connection.Server != "irc.libera.chat" {
					t.Errorf("server = %q", cfg.Connection.Server)
				}
				if cfg.Connection.Port != 6667 {
					t.Errorf("port = %d, want 6667", cfg.Connection.Port)
				}
				if cfg.Connection.Nick != "botniklas" || cfg.Connection.Username != "botniklas" || cfg.Connection.Realname != "botniklas" {
					t.Errorf("identity defaults not applied: %+v", cfg.Connection)
				}
				if len(cfg.Connection.Channels) != 1 || cfg.Connection.Channels[0] != "#botniklas" {
					t.Errorf("channels = %v", cfg.Connection.Channels)
				}
				if cfg.Bot.CommandChar != "!" {
					t.Errorf("command_char = %q", cfg.Bot.CommandChar)
				}
				if cfg.Connection.DialTimeout != 30*time.Second {
					t.Errorf("dial_timeout = %v", cfg.Connection.DialTimeout)
				}
			},
		},
		{
			name: "full yaml with env interpolation",
			file: "config.yaml",
			body: `
service:
  log_level: debug
  log_format: text
connection:
  server: irc.example.net
  port: 6697
  tls: true
  password: ${IRCBOTD_TEST_PASS}
  nick: tester
  channels: ["#a", "#b"]
  read_buffer_size: 8192
  dial_timeout: 5s
bot:
  command_char: "."
  strict: true
leet:
  enabled: true
api:
  enabled: true
  api_key: ${IRCBOTD_TEST_KEY}
`,
			env: map[string]string{"IRCBOTD_TEST_PASS": "sekrit", "IRCBOTD_TEST_KEY": "k"},
			checkFn: func(t *testing.T, cfg *Config) {
				c := cfg.Connection
				if !c.TLS || c.Port != 6697 || c.Password != "sekrit" || c.ReadBufferSize != 8192 {
					t.Errorf("connection not parsed: %+v", c)
				}
				if c.DialTimeout != 5*time.Second {
					t.Errorf("dial_timeout = %v", c.DialTimeout)
				}
				if strings.Join(c.Channels, ",") != "#a,#b" {
					t.Errorf("channels = %v", c.Channels)
				}
				if cfg.Leet.Channel != "#a" || cfg.Leet.Hour != 13 || cfg.Leet.Minute != 37 {
					t.Errorf("leet defaults not applied: %+v", cfg.Leet)
				}
				if !cfg.Bot.Strict || cfg.Bot.CommandChar != "." {
					t.Errorf("bot not parsed: %+v", cfg.Bot)
				}
				if cfg.API.APIKey != "k" {
					t.Errorf("api_key = %q", cfg.API.APIKey)
				}
			},
		},
		{
			name: "toml",
			file: "config.toml",
			body: `
[connection]
server = "irc.example.net"
nick = "tomlbot"
channels = ["#toml"]
dial_timeout = "10s"

[chat_log]
enabled = false
`,
			checkFn: func(t *testing.T, cfg *Config) {
				if cfg.Connection.Nick != "tomlbot" || cfg.Connection.Channels[0] != "#toml" {
					t.Errorf("connection not parsed: %+v", cfg.Connection)
				}
				if cfg.Connection.DialTimeout != 10*time.Second {
					t.Errorf("dial_timeout = %v", cfg.Connection.DialTimeout)
				}
				if cfg.ChatLog.Enabled {
					t.Error("chat_log.enabled should be false")
				}
			},
		},
		{name: "missing server", file: "config.yaml", body: "bot:\n  strict: true\n", wantErr: "connection.server is required"},
		{name: "unknown yaml key", file: "config.yaml", body: "connection:\n  server: x\n  sever: y\n", wantErr: "sever"},
		{name: "unknown toml key", file: "config.toml", body: "[connection]\nserver = \"x\"\nsever = \"y\"\n", wantErr: "unknown keys"},
		{name: "bad port", file: "config.yaml", body: "connection:\n  server: x\n  port: 70000\n", wantErr: "connection.port"},
		{name: "bad nick", file: "config.yaml", body: "connection:\n  server: x\n  nick: \"a b\"\n", wantErr: "connection.nick"},
		{name: "bad channel", file: "config.yaml", body: "connection:\n  server: x\n  channels: [nochan]\n", wantErr: "connection.channels[0]"},
		{name: "bad buffer size", file: "config.yaml", body: "connection:\n  server: x\n  read_buffer_size: 1000\n", wantErr: "read_buffer_size"},
		{name: "bad command char", file: "config.yaml", body: "connection:\n  server: x\nbot:\n  command_char: \"!!\"\n", wantErr: "bot.command_char"},
		{name: "bad log level", file: "config.yaml", body: "service:\n  log_level: loud\nconnection:\n  server: x\n", wantErr: "service.log_level"},
		{name: "leet window at end of hour", file: "config.yaml", body: "connection:\n  server: x\nleet:\n  enabled: true\n  minute: 59\n", wantErr: "leet"},
		{name: "api without key", file: "config.yaml", body: "connection:\n  server: x\napi:\n  enabled: true\n", wantErr: "api.api_key is required"},
		{name: "webhooks without endpoints", file: "config.yaml", body: "connection:\n  server: x\nwebhooks:\n  enabled: true\n", wantErr: "webhooks.endpoints"},
		{name: "webhook without secret", file: "config.yaml", body: "connection:\n  server: x\nwebhooks:\n  enabled: true\n  endpoints:\n    - path: /hooks/ci\n      channel: \"#ops\"\n", wantErr: "webhooks.endpoints[0].secret is required"},
		{name: "webhook bad path", file: "config.yaml", body: "connection:\n  server: x\nwebhooks:\n  enabled: true\n  endpoints:\n    - path: hooks\n      channel: \"#ops\"\n      secret: k\n", wantErr: "must start with '/'"},
		{name: "unset env var", file: "config.yaml", body: "connection:\n  server: x\napi:\n  enabled: true\n  api_key: ${IRCBOTD_TEST_UNSET}\n", wantErr: "${IRCBOTD_TEST_UNSET} is not set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(writeConfig(t, tt.file, tt.body))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Load() succeeded, want error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Load() error = %v, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if cfg.SourcePath == "" {
				t.Error("SourcePath not recorded")
			}
			tt.checkFn(t, cfg)
		})
	}
}

func TestLoadWebhooks(t *testing.T) {
	body := `
connection:
  server: irc.example.net
webhooks:
  enabled: true
  endpoints:
    - path: /hooks/ci
      channel: "#ops"
      prefix: "[ci] "
      secret: k
      max_body_size: 16KB
`
	cfg, err := Load(writeConfig(t, "config.yaml", body))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	wc := cfg.Webhooks
	if wc.Listen != "127.0.0.1:8081" {
		t.Errorf("listen default not applied: %q", wc.Listen)
	}
	if len(wc.Endpoints) != 1 || wc.Endpoints[0].Prefix != "[ci] " || wc.Endpoints[0].MaxBodySize != "16KB" {
		t.Errorf("endpoints not parsed: %+v", wc.Endpoints)
	}
}

func TestLoadDirectory(t *testing.T) {
	path := writeConfig(t, "config.yaml", "connection:\n  server: irc.example.net\n")
	cfg, err := Load(filepath.Dir(path))
	if err != nil {
		t.Fatalf("Load(dir) failed: %v", err)
	}
	if cfg.SourcePath != path {
		t.Errorf("SourcePath = %q, want %q", cfg.SourcePath, path)
	}

	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("Load(empty dir) should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestValidateDefaultsNeedOnlyAServer(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err == nil {
		t.Fatal("defaults without a server should not validate")
	}
	cfg.Connection.Server = "irc.example.net"
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}
