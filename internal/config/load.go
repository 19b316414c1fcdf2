package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/phrazzld/txspec/internal/ciutil"
)

// DefaultEnvFile is loaded when present and Options.EnvFile is empty.
const DefaultEnvFile = ".env"

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile is a YAML, TOML or JSON file. Falls back to TXSPEC_CONFIG.
	ConfigFile string
	// EnvFile is a dotenv file whose variables are added to the environment
	// without overriding ones already set.
	EnvFile string
	Logger  *slog.Logger
}

// Load reads configuration from the environment and an optional config file.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions reads configuration in this order, later sources winning:
// defaults, config file, .env file, environment variables.
// Returns a populated Config or an error if loading or validation fails.
func LoadWithOptions(opts Options) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("test.skip_warn", false)
	v.SetDefault("test.no_pending", false)
	v.SetDefault("test.foreign_keys", true)
	v.SetDefault("test.setup_file", "")
	v.SetDefault("log.level", ciutil.DefaultLogLevel)
	v.SetDefault("log.format", ciutil.DefaultLogFormat)
	v.SetDefault("log.file", "")

	bindings := map[string]string{
		"test.skip_warn":    ciutil.EnvSkipWarn,
		"test.no_pending":   ciutil.EnvNoPending,
		"test.foreign_keys": ciutil.EnvForeignKeys,
		"test.setup_file":   ciutil.EnvSetupFile,
		"log.level":         ciutil.EnvLogLevel,
		"log.format":        ciutil.EnvLogFormat,
		"log.file":          ciutil.EnvLogFile,
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(ciutil.EnvConfigFile)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		logger.Debug("loaded config file", "path", configFile)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	mergeEnvTargets(&cfg, ciutil.TargetURLs(logger))

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeEnvTargets overlays TXSPEC_<NAME>_URL variables on the file targets.
// Only the URL is replaced, so options from the file survive.
func mergeEnvTargets(cfg *Config, urls map[string]string) {
	if cfg.Targets == nil {
		cfg.Targets = make(map[string]TargetConfig, len(urls))
	}
	for name, url := range urls {
		t := cfg.Targets[name]
		t.URL = url
		cfg.Targets[name] = t
	}
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	// Exported but empty counts as unset, matching how target URLs are read.
	for key, val := range vals {
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("failed to set %s from env file %s: %w", key, path, err)
		}
	}
	return nil
}

func validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config validation failed: %s: %w", strings.Join(fields, ", "), err)
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
