package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Load reads a YAML configuration file, applying it on top of Default() so
// a config file only needs to specify the fields it wants to override.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config file %q", path)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes on top of Default() and validates the result.
func Parse(raw []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, errors.Wrap(err, "parsing config YAML")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
