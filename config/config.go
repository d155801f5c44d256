package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/maskalloc/core/allocation"
	"github.com/kilianp07/maskalloc/core/metrics"
	coremon "github.com/kilianp07/maskalloc/core/monitoring"
	"github.com/kilianp07/maskalloc/core/runlog"
	"github.com/kilianp07/maskalloc/infra/ingest"
	"github.com/kilianp07/maskalloc/infra/mqtt"
)

// EnvPrefix prefixes environment overrides. MASKALLOC_ALLOCATION__COEFF=2
// sets allocation.coeff.
const EnvPrefix = "MASKALLOC_"

type Config struct {
	Allocation allocation.Config `json:"allocation"`
	Input      ingest.Config     `json:"input"`
	Output     OutputConfig      `json:"output"`
	RunLog     runlog.Config     `json:"runlog"`
	Metrics    metrics.Config    `json:"metrics"`
	MQTT       mqtt.Config       `json:"mqtt"`
	HTTP       HTTPConfig        `json:"http"`
	Sentry     coremon.Config    `json:"sentry"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{Allocation: allocation.DefaultConfig()}
	cfg.Output.SetDefaults()
	cfg.RunLog.SetDefaults()
	cfg.HTTP.SetDefaults()
	return cfg
}

// Load reads the configuration file at path, if any, then applies
// environment overrides. Values absent from both keep their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Output.SetDefaults()
	cfg.RunLog.SetDefaults()
	cfg.HTTP.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section. Input paths are not required here since
// the API receives its input in the request body.
func (c Config) Validate() error {
	if err := c.Allocation.Validate(); err != nil {
		return fmt.Errorf("allocation: %w", err)
	}
	if err := c.RunLog.Validate(); err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}
