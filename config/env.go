package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const envPrefix = "PAPERPIPE_"

// LoadEnvFile loads variables from a .env file without overriding the ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// GetEnv returns the value of a PAPERPIPE_ variable or the fallback
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(envPrefix + key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, exists := os.LookupEnv(envPrefix + key)
	if !exists {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	return v, nil
}

// ApplyEnvOverrides overlays PAPERPIPE_* variables on top of the file config.
// Secrets are expected to come from here rather than config.yaml.
func (c *Config) ApplyEnvOverrides() error {
	c.Target = GetEnv("TARGET", c.Target)

	c.MySQL.Host = GetEnv("MYSQL_HOST", c.MySQL.Host)
	c.MySQL.User = GetEnv("MYSQL_USER", c.MySQL.User)
	c.MySQL.Password = GetEnv("MYSQL_PASSWORD", c.MySQL.Password)
	c.MySQL.DBName = GetEnv("MYSQL_DBNAME", c.MySQL.DBName)

	c.PostgreSQL.Host = GetEnv("POSTGRES_HOST", c.PostgreSQL.Host)
	c.PostgreSQL.User = GetEnv("POSTGRES_USER", c.PostgreSQL.User)
	c.PostgreSQL.Password = GetEnv("POSTGRES_PASSWORD", c.PostgreSQL.Password)
	c.PostgreSQL.DBName = GetEnv("POSTGRES_DBNAME", c.PostgreSQL.DBName)

	c.MongoDB.URI = GetEnv("MONGODB_URI", c.MongoDB.URI)
	c.MongoDB.Password = GetEnv("MONGODB_PASSWORD", c.MongoDB.Password)

	var err error
	if c.MySQL.Port, err = getEnvInt("MYSQL_PORT", c.MySQL.Port); err != nil {
		return err
	}
	if c.PostgreSQL.Port, err = getEnvInt("POSTGRES_PORT", c.PostgreSQL.Port); err != nil {
		return err
	}
	if c.Loader.ChunkSize, err = getEnvInt("CHUNK_SIZE", c.Loader.ChunkSize); err != nil {
		return err
	}
	return c.Validate()
}
