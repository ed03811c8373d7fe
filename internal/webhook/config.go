package webhook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattjoyce/ircbotd/internal/config"
)

// FromConfig converts the webhooks section of the bot configuration.
func FromConfig(wc config.WebhooksConfig) (Config, error) {
	cfg := Config{
		Listen:    wc.Listen,
		Endpoints: make([]EndpointConfig, 0, len(wc.Endpoints)),
	}
	for _, ep := range wc.Endpoints {
		size, err := ParseSize(ep.MaxBodySize)
		if err != nil {
			return Config{}, fmt.Errorf("webhook endpoint %q: invalid max_body_size %q: %w", ep.Path, ep.MaxBodySize, err)
		}
		cfg.Endpoints = append(cfg.Endpoints, EndpointConfig{
			Path:            ep.Path,
			Channel:         ep.Channel,
			Prefix:          ep.Prefix,
			Secret:          ep.Secret,
			SignatureHeader: ep.SignatureHeader,
			MaxBodySize:     size,
		})
	}
	return cfg, nil
}

// ParseSize reads sizes such as "4096", "64KB" or "1MB". Empty means
// DefaultMaxBodySize.
func ParseSize(size string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(size))
	if s == "" {
		return DefaultMaxBodySize, nil
	}
	mult := int64(1)
	for suffix, m := range map[string]int64{"KB": 1 << 10, "MB": 1 << 20} {
		if rest, ok := strings.CutSuffix(s, suffix); ok {
			s, mult = strings.TrimSpace(rest), m
			break
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if n <= 0 || n > (1<<30)/mult {
		return 0, fmt.Errorf("size must be between 1 byte and 1GB")
	}
	return n * mult, nil
}
