// Package config resolves settings from flags, POKEDEX_* environment
// variables and an optional config.yaml, in that order of priority.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "POKEDEX"
	dirName   = ".pokedex"
)

// Keys
const (
	KeyAPIURL            = "api.url"
	KeyAPITimeout        = "api.timeout"
	KeyAPIRetries        = "api.retries"
	KeyDBPath            = "db.path"
	KeyCacheTTL          = "cache.ttl"
	KeyLogLevel          = "log.level"
	KeyLogFile           = "log.file"
	KeyExportDir         = "export.dir"
	KeyExportConcurrency = "export.concurrency"
	KeyExportRate        = "export.rate"
)

type Config struct {
	APIURL     string
	APITimeout time.Duration
	// APIRetries applies to the filter catalog request only
	APIRetries int
	DBPath     string
	CacheTTL   time.Duration
	LogLevel   string
	LogFile    string

	ExportDir         string
	ExportConcurrency int
	// ExportRate is the number of sprite downloads started per second
	ExportRate float64
}

// Dir is where the database and config file live by default
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault(KeyAPIURL, "http://localhost:8080")
	v.SetDefault(KeyAPITimeout, 15*time.Second)
	v.SetDefault(KeyAPIRetries, 2)
	v.SetDefault(KeyDBPath, filepath.Join(Dir(), "pokedex.db"))
	v.SetDefault(KeyCacheTTL, 24*time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyExportDir, filepath.Join(home, "Downloads"))
	v.SetDefault(KeyExportConcurrency, 4)
	v.SetDefault(KeyExportRate, 4.0)
}

// flagKeys maps persistent flag names onto config keys
var flagKeys = map[string]string{
	"api-url":   KeyAPIURL,
	"timeout":   KeyAPITimeout,
	"retries":   KeyAPIRetries,
	"db":        KeyDBPath,
	"log-level": KeyLogLevel,
	"log-file":  KeyLogFile,
}

// RegisterFlags adds the persistent flags every command shares
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "config file (default ~/.pokedex/config.yaml)")
	flags.String("api-url", "", "catalog service base URL")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.Int("retries", 0, "retries for the filter catalog request")
	flags.String("db", "", "local database path")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-file", "", "write logs to this file")
}

// Load builds a Config from v. Flags in the set override everything that is
// explicitly passed on the command line.
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag %s", name)
				}
			}
		}
	}

	var file string
	if flags != nil {
		file, _ = flags.GetString("config")
	}
	if err := readConfigFile(v, file); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:            strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		APITimeout:        v.GetDuration(KeyAPITimeout),
		APIRetries:        v.GetInt(KeyAPIRetries),
		DBPath:            v.GetString(KeyDBPath),
		CacheTTL:          v.GetDuration(KeyCacheTTL),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFile:           v.GetString(KeyLogFile),
		ExportDir:         v.GetString(KeyExportDir),
		ExportConcurrency: v.GetInt(KeyExportConcurrency),
		ExportRate:        v.GetFloat64(KeyExportRate),
	}
	return cfg, cfg.Validate()
}

func readConfigFile(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config file %s", file)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(Dir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "reading config file")
	}
	return nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api.url must not be empty")
	}
	if c.APITimeout < 0 {
		return errors.Errorf("api.timeout must not be negative, got %s", c.APITimeout)
	}
	if c.APIRetries < 0 {
		return errors.Errorf("api.retries must not be negative, got %d", c.APIRetries)
	}
	if c.ExportConcurrency < 1 {
		return errors.Errorf("export.concurrency must be at least 1, got %d", c.ExportConcurrency)
	}
	if c.ExportRate <= 0 {
		return errors.Errorf("export.rate must be positive, got %g", c.ExportRate)
	}
	return nil
}
