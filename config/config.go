package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// supported targets for the commit step
var SupportedTargets = []string{"mysql", "postgresql", "mongodb"}

const (
	DefaultSheet         = "rawdata"
	DefaultChunkSize     = 1000
	DefaultBulkThreshold = 1000
	DefaultSnapshotDir   = "ingest_snapshots"

	// logical name of the long-format key/value table
	RawKeyValueTable = "raw_key_value"
)

// connection settings shared by the SQL targets
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type MySQLConfig struct {
	DatabaseConfig `yaml:",inline"`
}

type PostgreSQLConfig struct {
	DatabaseConfig `yaml:",inline"`
	SSLMode        string `yaml:"sslmode"`
}

type MongoDBConfig struct {
	DatabaseConfig `yaml:",inline"`
	URI            string `yaml:"uri"` //overrides host/port/user when set
}

// settings for reading and committing a sheet
type LoaderConfig struct {
	Sheet         string `yaml:"sheet"`
	ChunkSize     int    `yaml:"chunk_size"`
	BulkThreshold int    `yaml:"bulk_threshold"`
}

type IngestConfig struct {
	Validate    bool   `yaml:"validate"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// config struct to map config.yaml
type Config struct {
	Target     string            `yaml:"target"`
	MySQL      MySQLConfig       `yaml:"mysql"`
	PostgreSQL PostgreSQLConfig  `yaml:"postgresql"`
	MongoDB    MongoDBConfig     `yaml:"mongodb"`
	Tables     map[string]string `yaml:"tables"` //logical name -> physical table
	Loader     LoaderConfig      `yaml:"loader"`
	Ingest     IngestConfig      `yaml:"ingest"`
}

// Default returns a config with every optional field filled in
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func LoadConfig(filepath string) (*Config, error) {

	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(content)
}

// ParseConfig decodes yaml content and fills defaults
func ParseConfig(content []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Target == "" {
		c.Target = "mysql"
	}
	c.Target = strings.ToLower(c.Target)

	if c.Loader.Sheet == "" {
		c.Loader.Sheet = DefaultSheet
	}
	if c.Loader.ChunkSize == 0 {
		c.Loader.ChunkSize = DefaultChunkSize
	}
	if c.Loader.BulkThreshold == 0 {
		c.Loader.BulkThreshold = DefaultBulkThreshold
	}
	if c.Ingest.SnapshotDir == "" {
		c.Ingest.SnapshotDir = DefaultSnapshotDir
	}
	if c.PostgreSQL.SSLMode == "" {
		c.PostgreSQL.SSLMode = "disable"
	}

	tables := make(map[string]string, len(c.Tables)+1)
	for k, v := range c.Tables {
		tables[k] = v
	}
	if _, ok := tables[RawKeyValueTable]; !ok {
		tables[RawKeyValueTable] = RawKeyValueTable
	}
	c.Tables = tables
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	if !IsSupportedTarget(c.Target) {
		return fmt.Errorf("unsupported target %q, expected one of %v", c.Target, SupportedTargets)
	}
	if c.Loader.ChunkSize < 1 {
		return fmt.Errorf("loader.chunk_size must be positive, got %d", c.Loader.ChunkSize)
	}
	if c.Loader.BulkThreshold < 1 {
		return fmt.Errorf("loader.bulk_threshold must be positive, got %d", c.Loader.BulkThreshold)
	}
	for logical, physical := range c.Tables {
		if strings.TrimSpace(physical) == "" {
			return fmt.Errorf("table %q maps to an empty name", logical)
		}
	}
	return nil
}

func IsSupportedTarget(target string) bool {
	for _, v := range SupportedTargets {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
