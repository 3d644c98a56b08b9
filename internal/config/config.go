package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/leaderboard-sync/internal/domain/leaderboard"
	"github.com/riskibarqy/leaderboard-sync/internal/platform/logging"
)

// Config stores runtime configuration for the watcher.
type Config struct {
	AppEnv                        string
	ServiceName                   string
	ServiceVersion                string
	HTTPAddr                      string
	ReadTimeout                   time.Duration
	WriteTimeout                  time.Duration
	EvalHostBaseURL               string
	EvalHostToken                 string
	EvalHostTimeout               time.Duration
	EvalHostMaxRetries            int
	EvalHostPageSize              int
	EvalHostMaxWorkers            int
	EvalHostCircuitEnabled        bool
	EvalHostCircuitFailureCount   int
	EvalHostCircuitOpenTimeout    time.Duration
	EvalHostCircuitHalfOpenMaxReq int
	LeaderboardPhaseSplitID       string
	LeaderboardComplete           bool
	LeaderboardPollInterval       time.Duration
	LeaderboardHighlightTeam      string
	LeaderboardSort               leaderboard.SortSpec
	UptraceEnabled                bool
	UptraceDSN                    string
	PyroscopeEnabled              bool
	PyroscopeServerAddress        string
	PyroscopeAppName              string
	PyroscopeAuthToken            string
	PyroscopeBasicAuthUser        string
	PyroscopeBasicAuthPassword    string
	PyroscopeUploadRate           time.Duration
	LogLevel                      logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_HTTP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_HTTP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_HTTP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_HTTP_WRITE_TIMEOUT: %w", err)
	}

	evalHostTimeout, err := time.ParseDuration(getEnv("EVALHOST_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_TIMEOUT: %w", err)
	}
	if evalHostTimeout <= 0 {
		return Config{}, fmt.Errorf("EVALHOST_TIMEOUT must be > 0")
	}
	evalHostMaxRetries, err := getEnvAsInt("EVALHOST_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_MAX_RETRIES: %w", err)
	}
	if evalHostMaxRetries < 0 {
		return Config{}, fmt.Errorf("EVALHOST_MAX_RETRIES must be >= 0")
	}
	evalHostPageSize, err := getEnvAsInt("EVALHOST_PAGE_SIZE", 100)
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_PAGE_SIZE: %w", err)
	}
	if evalHostPageSize < 1 {
		return Config{}, fmt.Errorf("EVALHOST_PAGE_SIZE must be >= 1")
	}
	evalHostMaxWorkers, err := getEnvAsInt("EVALHOST_MAX_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_MAX_WORKERS: %w", err)
	}
	if evalHostMaxWorkers < 1 {
		return Config{}, fmt.Errorf("EVALHOST_MAX_WORKERS must be >= 1")
	}
	evalHostCircuitEnabled, err := strconv.ParseBool(getEnv("EVALHOST_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_CIRCUIT_ENABLED: %w", err)
	}
	evalHostCircuitFailureCount, err := getEnvAsInt("EVALHOST_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if evalHostCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("EVALHOST_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	evalHostCircuitOpenTimeout, err := time.ParseDuration(getEnv("EVALHOST_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if evalHostCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("EVALHOST_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	evalHostCircuitHalfOpenMaxReq, err := getEnvAsInt("EVALHOST_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse EVALHOST_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if evalHostCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("EVALHOST_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	leaderboardComplete, err := strconv.ParseBool(getEnv("LEADERBOARD_COMPLETE", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_COMPLETE: %w", err)
	}
	leaderboardPollInterval, err := time.ParseDuration(getEnv("LEADERBOARD_POLL_INTERVAL", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_POLL_INTERVAL: %w", err)
	}
	if leaderboardPollInterval <= 0 {
		return Config{}, fmt.Errorf("LEADERBOARD_POLL_INTERVAL must be > 0")
	}
	sortColumn, err := leaderboard.ParseSortColumn(getEnv("LEADERBOARD_SORT", "rank"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_SORT: %w", err)
	}
	sortReverse, err := strconv.ParseBool(getEnv("LEADERBOARD_SORT_REVERSE", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_SORT_REVERSE: %w", err)
	}

	evalHostToken := strings.TrimSpace(getEnv("EVALHOST_TOKEN", ""))
	if leaderboardComplete && evalHostToken == "" {
		return Config{}, fmt.Errorf("EVALHOST_TOKEN is required when LEADERBOARD_COMPLETE=true")
	}

	cfg := Config{
		AppEnv:                        appEnv,
		ServiceName:                   getEnv("APP_SERVICE_NAME", "leaderboard-sync"),
		ServiceVersion:                getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                      getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:                   readTimeout,
		WriteTimeout:                  writeTimeout,
		EvalHostBaseURL:               strings.TrimSpace(getEnv("EVALHOST_BASE_URL", "https://eval.ai/api")),
		EvalHostToken:                 evalHostToken,
		EvalHostTimeout:               evalHostTimeout,
		EvalHostMaxRetries:            evalHostMaxRetries,
		EvalHostPageSize:              evalHostPageSize,
		EvalHostMaxWorkers:            evalHostMaxWorkers,
		EvalHostCircuitEnabled:        evalHostCircuitEnabled,
		EvalHostCircuitFailureCount:   evalHostCircuitFailureCount,
		EvalHostCircuitOpenTimeout:    evalHostCircuitOpenTimeout,
		EvalHostCircuitHalfOpenMaxReq: evalHostCircuitHalfOpenMaxReq,
		LeaderboardPhaseSplitID:       strings.TrimSpace(getEnv("LEADERBOARD_PHASE_SPLIT_ID", "")),
		LeaderboardComplete:           leaderboardComplete,
		LeaderboardPollInterval:       leaderboardPollInterval,
		LeaderboardHighlightTeam:      strings.TrimSpace(getEnv("LEADERBOARD_HIGHLIGHT_TEAM", "")),
		LeaderboardSort:               leaderboard.SortSpec{Column: sortColumn, Reverse: sortReverse},
		UptraceEnabled:                uptraceEnabled,
		UptraceDSN:                    uptraceDSN,
		PyroscopeEnabled:              pyroscopeEnabled,
		PyroscopeServerAddress:        pyroscopeServerAddress,
		PyroscopeAuthToken:            strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:        strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:    strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:           pyroscopeUploadRate,
		LogLevel:                      parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
