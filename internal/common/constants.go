package common

import "time"

// Environment variable keys
const (
	EnvConfigFile   = "CONFIG_FILE"
	EnvBotBaseURL   = "BOT_BASE_URL"
	EnvBotAPIKey    = "BOT_API_KEY"
	EnvListenPort   = "LISTEN_PORT"
	EnvPollInterval = "POLL_INTERVAL"
	EnvRESTTimeout  = "REST_TIMEOUT"
	EnvDataPath     = "DATA_PATH"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
)

// Configuration defaults
const (
	DefaultBotBaseURL   = "http://127.0.0.1:8090"
	DefaultListenPort   = 8087
	DefaultPollInterval = 5 * time.Second
	DefaultRESTTimeout  = 5 * time.Second
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Common error messages
const (
	ErrMsgBaseURLRequired = "bot API base URL is required"
)

// Validation constants
const (
	MinListenPort   = 1024
	MaxListenPort   = 65535
	MinPollInterval = time.Second
	MaxPollInterval = 5 * time.Minute
	MinRESTTimeout  = time.Second
	MaxRESTTimeout  = time.Minute
)
