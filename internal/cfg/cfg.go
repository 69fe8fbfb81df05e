package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"botboard/internal/common"
	"botboard/internal/logging"
)

type Settings struct {
	BotBaseURL   string
	BotAPIKey    string
	ListenPort   int
	PollInterval time.Duration
	RESTTimeout  time.Duration
	DataPath     string
	Logging      logging.Config
}

type ConfigFile struct {
	API struct {
		BaseURL string `yaml:"baseURL"`
		Key     string `yaml:"key"`
	} `yaml:"api"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Poll struct {
		Interval    string `yaml:"interval"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"poll"`

	System struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"system"`

	Logging logging.Config `yaml:"logging"`
}

// Load resolves settings from an explicit config file path, the CONFIG_FILE
// environment variable, or plain environment variables, in that order.
func Load(path string) (Settings, error) {
	if path == "" {
		path = os.Getenv(common.EnvConfigFile)
	}
	if path != "" {
		return loadFromYAML(path)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		BotBaseURL:   getEnvOrDefault(common.EnvBotBaseURL, config.API.BaseURL),
		BotAPIKey:    getEnvOrDefault(common.EnvBotAPIKey, config.API.Key),
		ListenPort:   getIntFromEnvOrConfig(common.EnvListenPort, config.Server.Port, common.DefaultListenPort),
		PollInterval: getDurationFromEnvOrConfig(common.EnvPollInterval, config.Poll.Interval, common.DefaultPollInterval),
		RESTTimeout:  getDurationFromEnvOrConfig(common.EnvRESTTimeout, config.Poll.RESTTimeout, common.DefaultRESTTimeout),
		DataPath:     getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		Logging:      config.Logging,
	}
	if settings.BotBaseURL == "" {
		settings.BotBaseURL = common.DefaultBotBaseURL
	}
	if v := os.Getenv(common.EnvLogLevel); v != "" {
		settings.Logging.Level = v
	}
	if v := os.Getenv(common.EnvLogFormat); v != "" {
		settings.Logging.Format = v
	}
	applyLoggingDefaults(&settings.Logging)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		BotBaseURL:   getEnvOrDefault(common.EnvBotBaseURL, common.DefaultBotBaseURL),
		BotAPIKey:    os.Getenv(common.EnvBotAPIKey), // optional
		ListenPort:   getIntOrDefault(common.EnvListenPort, common.DefaultListenPort),
		PollInterval: getDurationOrDefault(common.EnvPollInterval, common.DefaultPollInterval),
		RESTTimeout:  getDurationOrDefault(common.EnvRESTTimeout, common.DefaultRESTTimeout),
		DataPath:     os.Getenv(common.EnvDataPath), // optional
		Logging: logging.Config{
			Level:  getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
			Format: getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		},
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func applyLoggingDefaults(cfg *logging.Config) {
	if cfg.Level == "" {
		cfg.Level = common.DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = common.DefaultLogFormat
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getDurationFromEnvOrConfig(key, configValue string, defaultValue time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if configValue != "" {
		if d, err := time.ParseDuration(configValue); err == nil {
			return d
		}
	}
	return defaultValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.BotBaseURL == "" {
		return fmt.Errorf("%s", common.ErrMsgBaseURLRequired)
	}

	if settings.ListenPort < common.MinListenPort || settings.ListenPort > common.MaxListenPort {
		return fmt.Errorf("listen port must be between %d and %d, got %d",
			common.MinListenPort, common.MaxListenPort, settings.ListenPort)
	}

	if settings.PollInterval < common.MinPollInterval || settings.PollInterval > common.MaxPollInterval {
		return fmt.Errorf("poll interval must be between %v and %v, got %v",
			common.MinPollInterval, common.MaxPollInterval, settings.PollInterval)
	}

	if settings.RESTTimeout < common.MinRESTTimeout || settings.RESTTimeout > common.MaxRESTTimeout {
		return fmt.Errorf("REST timeout must be between %v and %v, got %v",
			common.MinRESTTimeout, common.MaxRESTTimeout, settings.RESTTimeout)
	}

	return nil
}
