package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "BABY_"

// Load reads the YAML file at path, if given, then applies environment
// overrides on top of Default() and validates the result.
//
// Environment variables map to keys by splitting on the first underscore
// after the prefix:
//
//	BABY_STORE_DSN             -> store.dsn
//	BABY_CHATBOT_PLOT_PADDING  -> chatbot.plot_padding
//	BABY_PUBLISH_GIT_REMOTE    -> publish.git.remote
//
// BABY_CHATBOT_GREETINGS takes a comma separated list.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// rawbytes avoids opening the file a second time.
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func envValue(key, value string) (string, any) {
	key = envKey(key)
	if key == "chatbot.greetings" {
		var greetings []string
		for _, g := range strings.Split(value, ",") {
			if g = strings.TrimSpace(g); g != "" {
				greetings = append(greetings, g)
			}
		}
		return key, greetings
	}
	return key, value
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	if section == "publish" {
		if rest, ok := strings.CutPrefix(field, "git_"); ok {
			return "publish.git." + rest
		}
	}
	return section + "." + field
}
