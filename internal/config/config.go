package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/schemsearch/endian"
	"github.com/arloliu/schemsearch/output"
	"github.com/arloliu/schemsearch/schematic"
	"github.com/arloliu/schemsearch/search"
)

// Config holds the schemsearch CLI configuration.
type Config struct {
	Search      SearchConfig     `yaml:"search"`
	Workers     int              `yaml:"workers"` // 0 = all CPUs
	Outputs     []string         `yaml:"outputs"`
	SQL         SQLConfig        `yaml:"sql"`
	InvalidNBT  InvalidNBTConfig `yaml:"invalid_nbt"`
	Logging     LoggingConfig    `yaml:"logging"`
	MetricsFile string           `yaml:"metrics_file"`
	// MaxDecompressedSize caps the decompressed size of one schematic, in bytes.
	MaxDecompressedSize int64 `yaml:"max_decompressed_size"`
	// ByteOrder of the NBT documents: big (Java edition) or little.
	ByteOrder string `yaml:"byte_order"`
}

// SearchConfig mirrors search.Behavior.
type SearchConfig struct {
	IgnoreBlockData     bool    `yaml:"ignore_block_data"`
	IgnoreBlockEntities bool    `yaml:"ignore_block_entities"`
	IgnoreAir           bool    `yaml:"ignore_air"`
	AirAsAny            bool    `yaml:"air_as_any"`
	IgnoreEntities      bool    `yaml:"ignore_entities"`
	Threshold           float64 `yaml:"threshold"`
}

// SQLConfig selects schematics from a SQLite store instead of files.
type SQLConfig struct {
	Path   string   `yaml:"path"`
	Owners []int64  `yaml:"owners"`
	Names  []string `yaml:"names"`
}

// InvalidNBTConfig switches the run to the invalid block entity scan.
type InvalidNBTConfig struct {
	Enabled bool `yaml:"enabled"`
	Coarse  bool `yaml:"coarse"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Search:              SearchConfig{Threshold: search.DefaultThreshold},
		Outputs:             []string{"text:" + output.Stdout},
		Logging:             LoggingConfig{Level: "warn"},
		MaxDecompressedSize: 512 << 20,
		ByteOrder:           "big",
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Behavior builds the search behavior described by the search section.
func (c *Config) Behavior() (search.Behavior, error) {
	return search.NewBehavior(
		search.WithIgnoreBlockData(c.Search.IgnoreBlockData),
		search.WithIgnoreBlockEntities(c.Search.IgnoreBlockEntities),
		search.WithIgnoreAir(c.Search.IgnoreAir),
		search.WithAirAsAny(c.Search.AirAsAny),
		search.WithIgnoreEntities(c.Search.IgnoreEntities),
		search.WithThreshold(c.Search.Threshold),
	)
}

// DecoderOptions returns the schematic decoder settings.
func (c *Config) DecoderOptions() []schematic.DecoderOption {
	engine, _ := endian.Parse(c.ByteOrder)

	return []schematic.DecoderOption{
		schematic.WithMaxDecompressedSize(c.MaxDecompressedSize),
		schematic.WithByteOrder(engine),
	}
}

// Targets parses the configured outputs.
func (c *Config) Targets() ([]output.Target, error) {
	targets := make([]output.Target, 0, len(c.Outputs))
	for _, s := range c.Outputs {
		t, err := output.ParseTarget(s)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}

	return targets, nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if _, err := c.Behavior(); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("outputs is required")
	}
	if _, err := c.Targets(); err != nil {
		return fmt.Errorf("outputs: %w", err)
	}
	if c.MaxDecompressedSize <= 0 {
		return fmt.Errorf("max_decompressed_size must be positive, got %d", c.MaxDecompressedSize)
	}
	if _, ok := endian.Parse(c.ByteOrder); !ok {
		return fmt.Errorf(`byte_order must be "big" or "little", got %q`, c.ByteOrder)
	}

	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}

		return []byte(val)
	})
}
