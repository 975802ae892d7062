package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"flarewatch/internal/common"
	"flarewatch/pkg/errors"
	"flarewatch/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. FLAREWATCH_STORE_DSN.
const EnvPrefix = "FLAREWATCH"

func GetConfigPath() string {
	if configPath := os.Getenv(EnvPrefix + "_CONFIG"); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".flarewatch")
}

func GetConfigFile() string {
	if configFile := os.Getenv(EnvPrefix + "_CONFIG"); configFile != "" {
		cleaned, err := common.CleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.production_file", "Monthly Production Aggregated.csv")
	v.SetDefault("source.wells_file", "Well_Index.csv")
	v.SetDefault("source.date_layouts", []string{"2006-01-02", "01-2006", "1-2006", "2006-01", "1/2/2006", "2006-01-02 15:04:05"})
	v.SetDefault("source.blank_measures_as_zero", false)

	v.SetDefault("store.driver", "sqlite3")
	v.SetDefault("store.dsn", "flarewatch.sqlite3")

	v.SetDefault("fetch.base_url", "https://www.dmr.nd.gov/oilgas/feeservices")
	v.SetDefault("fetch.workers", 6)
	v.SetDefault("fetch.max_retries", 4)
	v.SetDefault("fetch.retry_delay", 5*time.Second)
	v.SetDefault("fetch.timeout", 60*time.Second)
	v.SetDefault("fetch.output_dir", ".")
	v.SetDefault("fetch.start_year", 0)
	v.SetDefault("fetch.start_month", 0)

	v.SetDefault("report.top", 30)
	v.SetDefault("report.merge_key", "well")
	v.SetDefault("report.format", "table")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
}

// Init prepares v: defaults, environment overrides, a .env file in the
// working directory, and the config file. An explicit path must exist;
// otherwise FLAREWATCH_CONFIG, ./flarewatch.yaml and ~/.flarewatch/config.yaml
// are tried and a missing file is not an error.
func Init(v *viper.Viper, explicit string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "cannot read .env file")
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case os.Getenv(EnvPrefix+"_CONFIG") != "":
		v.SetConfigFile(GetConfigFile())
	default:
		v.SetConfigName("flarewatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if _, err := os.Stat(GetConfigFile()); err == nil {
			v.SetConfigFile(GetConfigFile())
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && explicit == "" {
			return nil
		}
		if os.IsNotExist(err) && explicit == "" {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeConfigNotFound, "cannot read config file").
			WithContext("path", v.ConfigFileUsed())
	}
	return nil
}

// Load decodes v into a validated Config. Encrypted values are decrypted.
func Load(v *viper.Viper) (*models.Config, error) {
	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "cannot decode configuration")
	}

	dsn, err := DecryptValue(cfg.Store.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEncryptionFailed, "cannot decrypt store.dsn").
			WithSuggestions("Set FLAREWATCH_ENCRYPTION_KEY to the key used to encrypt it")
	}
	cfg.Store.DSN = dsn

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func Validate(cfg *models.Config) error {
	switch cfg.Store.Driver {
	case "sqlite3", "snowflake":
	default:
		return errors.ConfigError(fmt.Sprintf("unsupported store driver %q", cfg.Store.Driver), "store.driver")
	}
	if cfg.Fetch.Workers < 1 {
		return errors.ConfigError("fetch.workers must be at least 1", "fetch.workers")
	}
	if cfg.Fetch.MaxRetries < 0 {
		return errors.ConfigError("fetch.max_retries cannot be negative", "fetch.max_retries")
	}
	if cfg.Fetch.StartMonth < 0 || cfg.Fetch.StartMonth > 12 {
		return errors.ConfigError("fetch.start_month must be between 1 and 12", "fetch.start_month")
	}
	if cfg.Report.Top < 0 {
		return errors.ConfigError("report.top cannot be negative", "report.top")
	}
	switch strings.ToLower(cfg.Report.MergeKey) {
	case "well", "group":
	default:
		return errors.ConfigError(fmt.Sprintf("unknown merge key %q", cfg.Report.MergeKey), "report.merge_key")
	}
	switch cfg.Report.Format {
	case "table", "csv", "json":
	default:
		return errors.ConfigError(fmt.Sprintf("unknown report format %q", cfg.Report.Format), "report.format")
	}
	return nil
}

// Save writes cfg as yaml to path with owner-only permissions.
func Save(cfg *models.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigPermission, "failed to create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, common.FilePermissionSecure); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigPermission, "failed to write config file").
			WithContext("path", path)
	}
	return nil
}

// Default returns the configuration produced by the registered defaults.
func Default() *models.Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		panic(err)
	}
	return cfg
}
