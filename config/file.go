package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/recallhq/recall/errors"
)

// FileConfig is the aggregate shape of the optional YAML config file
// accepted by the server command. Environment variables still win:
// each section is resolved through the env feeders after the file is
// applied.
type FileConfig struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Engine     EngineConfig     `yaml:"engine"`
	Store      StoreConfig      `yaml:"store"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Quota      QuotaConfig      `yaml:"quota"`
}

// LoadFile reads a YAML config file into the sections' defaults, then
// lets env variables override per section.
func LoadFile(path string) (*FileConfig, error) {
	logConf, err := NewLogConfig()
	if err != nil {
		return nil, err
	}
	serverConf, err := NewServerConfig()
	if err != nil {
		return nil, err
	}
	engineConf, err := NewEngineConfig()
	if err != nil {
		return nil, err
	}
	storeConf, err := NewStoreConfig()
	if err != nil {
		return nil, err
	}
	classifierConf, err := NewClassifierConfig()
	if err != nil {
		return nil, err
	}
	quotaConf, err := NewQuotaConfig()
	if err != nil {
		return nil, err
	}

	c := FileConfig{
		Log:        *logConf,
		Server:     *serverConf,
		Engine:     *engineConf,
		Store:      *storeConf,
		Classifier: *classifierConf,
		Quota:      *quotaConf,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %q", path)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config file %q", path)
		}
		// Env still overrides file values.
		if err := resolveConfig(&c.Log); err != nil {
			return nil, err
		}
		if err := resolveConfig(&c.Server); err != nil {
			return nil, err
		}
		if err := resolveConfig(&c.Engine); err != nil {
			return nil, err
		}
		if err := resolveConfig(&c.Store); err != nil {
			return nil, err
		}
		if err := resolveConfig(&c.Classifier); err != nil {
			return nil, err
		}
		if err := resolveConfig(&c.Quota); err != nil {
			return nil, err
		}
	}

	return &c, nil
}
