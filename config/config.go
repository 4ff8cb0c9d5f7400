/*
Package config loads the optional YAML configuration file.
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bodgit/akatsuki/raster"
)

// DefaultWorkers is the number of images scanned concurrently
const DefaultWorkers = 10

// Filename is the name of the configuration file looked for in the user
// configuration directory
const Filename = "akatsuki.yaml"

// Config holds the settings that can be supplied from a file. Command line
// flags take precedence over anything set here.
type Config struct {
	// Catalog database, empty disables it
	DB      string `yaml:"db"`
	Verbose bool   `yaml:"verbose"`

	// Scan pool size
	Workers int `yaml:"workers"`

	// Compress payloads with zstd on inject
	Compress bool `yaml:"compress"`

	// Output format used when the output extension is not recognised
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Workers: DefaultWorkers,
		Format:  raster.PNG,
	}
}

// DefaultPath returns the location of the configuration file in the user
// configuration directory
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "akatsuki", Filename)
}

// Load reads the configuration in file. A missing file is not an error and
// returns the defaults.
func Load(file string) (*Config, error) {
	c := Default()
	if file == "" {
		return c, nil
	}

	b, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", file, err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", file, err)
	}

	return c, nil
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if !raster.Lossless(c.Format) {
		return fmt.Errorf("format %q is not a lossless output format", c.Format)
	}
	return nil
}
