package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfigPath names the environment variable that overrides discovery.
const EnvConfigPath = "IRCBOTD_CONFIG"

// Discover finds the config file by checking standard locations.
// Priority order: $IRCBOTD_CONFIG, ~/.config/ircbotd/config.yaml,
// /etc/ircbotd/config.yaml, ./config.yaml.
func Discover() (string, error) {
	for _, candidate := range candidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no config found (checked: $%s, ~/.config/ircbotd/config.yaml, /etc/ircbotd/config.yaml, ./config.yaml)", EnvConfigPath)
}

func candidates() []string {
	var out []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		out = append(out, p)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		out = append(out, filepath.Join(homeDir, ".config", "ircbotd", "config.yaml"))
	}
	return append(out, "/etc/ircbotd/config.yaml", "./config.yaml")
}

// Resolve returns explicit when set, otherwise the discovered path.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return Discover()
}
