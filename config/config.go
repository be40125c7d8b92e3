// Package config loads config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"mlportfolio/artifacts"
	qhttp "mlportfolio/http"
	"mlportfolio/logging"
)

// FileName is looked up in the working directory, then its parent.
const FileName = "config.yaml"

// Config mirrors config.yaml.
type Config struct {
	HTTP      qhttp.ServerConfig `yaml:"http"`
	Log       logging.Config     `yaml:"log"`
	Database  struct {
		// Path empty disables prediction history.
		Path string `yaml:"path"`
	} `yaml:"database"`
	Artifacts artifacts.Config `yaml:"artifacts"`
	Cache     struct {
		Size int `yaml:"size"`
	} `yaml:"cache"`
}

// Default returns the configuration used for missing keys.
func Default() *Config {
	c := &Config{
		HTTP: qhttp.DefaultServerConfig(),
		Log:  logging.Config{Level: "info", Format: "console", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
	}
	c.Database.Path = "predictions.db"
	c.Cache.Size = 1024
	return c
}

// Find returns the path of the config file, looking in the working directory
// and then its parent so binaries under cmd/ pick up the root config.
func Find(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	return filepath.Join("..", FileName)
}

// Load reads path over the defaults. Relative artifact and database paths
// are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	config.resolve(filepath.Dir(path))
	return config, nil
}

func (c *Config) resolve(dir string) {
	rel := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	rel(&c.Database.Path)
	rel(&c.Log.File)
	a := &c.Artifacts
	for _, p := range []*string{&a.StudentModel, &a.CancerModel, &a.ShipModel, &a.ShipScaler,
		&a.StudentDefaults, &a.CancerDefaults, &a.ShipDefaults, &a.StudentTopFeatures, &a.CancerTopFeatures} {
		rel(p)
	}
}
