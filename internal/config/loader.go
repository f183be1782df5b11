package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envKeys maps the externally supplied environment variables to koanf keys.
var envKeys = map[string]string{
	"HAC_BASE_URL":    "base_url",
	"CLEAN_NAMESPACE": "clean_namespace",
	"HAC_NAMESPACE":   "namespace",
	"KUBECONFIG":      "kubeconfig",
	"HAC_LISTEN_ADDR": "listen_addr",
	"GH_TOKEN":        "github.token",
	"GH_API_URL":      "github.api_url",
	"GH_ORG":          "github.org",
}

// Load builds a Config from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins). An empty
// path skips the file. The result is validated.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(key string) string {
		return envKeys[key]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
